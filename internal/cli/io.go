package cli

import (
	"fmt"
	"io"
)

// IO is the output of one command. Warnings go to stderr ahead of the first
// stdout line and again from Finish, and any warning fails the command.
type IO struct {
	out      io.Writer
	errOut   io.Writer
	warnings []string
	warned   bool
}

func NewIO(out, errOut io.Writer) *IO {
	return &IO{out: out, errOut: errOut}
}

// Warn records that something did not go as asked, and how to fix it.
// The command still prints its normal output.
func (o *IO) Warn(issue, fix string) {
	o.warnings = append(o.warnings, issue+": "+fix)
}

func (o *IO) Println(a ...any) {
	o.warnEarly()
	_, _ = fmt.Fprintln(o.out, a...)
}

func (o *IO) Printf(format string, a ...any) {
	o.warnEarly()
	_, _ = fmt.Fprintf(o.out, format, a...)
}

func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.errOut, a...)
}

// Finish repeats the warnings and returns the exit code: 1 if there were
// any, 0 otherwise.
func (o *IO) Finish() int {
	o.warnEarly()
	o.printWarnings()

	if len(o.warnings) > 0 {
		return 1
	}

	return 0
}

func (o *IO) warnEarly() {
	if o.warned || len(o.warnings) == 0 {
		return
	}

	o.warned = true
	o.printWarnings()
}

func (o *IO) printWarnings() {
	for _, w := range o.warnings {
		_, _ = fmt.Fprintln(o.errOut, "warning:", w)
	}
}
