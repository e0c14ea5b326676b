package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command is one shelf subcommand.
type Command struct {
	// Flags are parsed before Exec; the positional rest is passed as args.
	Flags *flag.FlagSet

	// Usage follows "shelf" in help output and starts with the command
	// name, e.g. "renew <id>".
	Usage string

	// Short appears in the command list, Long (or Short) in "shelf <cmd> -h".
	Short string
	Long  string

	Exec func(ctx context.Context, o *IO, args []string) error
}

// Name is the first word of Usage.
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")

	return name
}

// HelpLine formats the command for the command list, padding Usage to width.
func (c *Command) HelpLine(width int) string {
	return fmt.Sprintf("  %-*s  %s", width, c.Usage, c.Short)
}

// usageWidth is the length of the longest Usage in cmds.
func usageWidth(cmds []*Command) int {
	width := 0

	for _, cmd := range cmds {
		width = max(width, len(cmd.Usage))
	}

	return width
}

func (c *Command) PrintHelp(o *IO) {
	o.Println("Usage: shelf", c.Usage)
	o.Println()

	if c.Long != "" {
		o.Println(c.Long)
	} else {
		o.Println(c.Short)
	}

	if c.Flags == nil || !c.Flags.HasFlags() {
		return
	}

	o.Println()
	o.Println("Flags:")
	o.Printf("%s", c.Flags.FlagUsages())
}

// Run parses args and runs Exec, printing any error. It returns the exit code.
// A flag error prints the command help to stderr.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	c.Flags.SetOutput(&strings.Builder{})

	if err := c.Flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(o)

			return 0
		}

		o.ErrPrintln("error:", err)
		o.ErrPrintln()
		c.PrintHelp(NewIO(o.errOut, o.errOut))

		return 1
	}

	if err := c.Exec(ctx, o, c.Flags.Args()); err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	return 0
}
