package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	flag "github.com/spf13/pflag"
)

const (
	shellPrompt      = "shelf> "
	historyFileName  = "history"
	shellCommandName = "shell"
)

// ShellCmd returns the shell command.
func ShellCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("shell", flag.ContinueOnError),
		Usage: "shell",
		Short: "Interactive session",
		Long: `Start an interactive session. Every line is a command as typed after
"shelf". The overdue sweep runs before each prompt. Type help for the
command list, exit or quit to leave.`,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return execShell(ctx, o, a)
		},
	}
}

// lineReader yields one input line per call and io.EOF when done.
type lineReader interface {
	ReadLine() (string, error)
	Close() error
}

func execShell(ctx context.Context, o *IO, a *app) error {
	r := newLineReader(a)
	defer func() { _ = r.Close() }()

	for ctx.Err() == nil {
		sweepAndRemind(o, a)

		line, err := r.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)

		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "help":
			printUsage(o, nil)

			continue
		}

		runShellLine(ctx, o, a, line)
	}

	return nil
}

// runShellLine runs one command with its own warning scope.
func runShellLine(ctx context.Context, o *IO, a *app, line string) {
	args, err := splitArgs(line)
	if err != nil {
		o.ErrPrintln("error:", err)

		return
	}

	if len(args) == 0 {
		return
	}

	if args[0] == shellCommandName {
		o.ErrPrintln("error: already in a shell")

		return
	}

	lineIO := NewIO(o.out, o.errOut)
	dispatch(ctx, a, lineIO, args)
	lineIO.Finish()
}

func sweepAndRemind(o *IO, a *app) {
	changed, err := a.shelf.CheckOverdues()
	if err != nil {
		o.ErrPrintln("error:", err)

		return
	}

	if changed {
		printReminders(o, a.shelf.All(), a.shelf.Now())
	}
}

func newLineReader(a *app) lineReader {
	if f, ok := a.stdin.(*os.File); ok && f == os.Stdin {
		return newLinerReader(filepath.Join(a.cfg.DataDirAbs, historyFileName))
	}

	stdin := a.stdin
	if stdin == nil {
		stdin = strings.NewReader("")
	}

	return &scanReader{scanner: bufio.NewScanner(stdin)}
}

// linerReader reads from the terminal with line editing and history.
type linerReader struct {
	state       *liner.State
	historyPath string
}

func newLinerReader(historyPath string) *linerReader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)

	if f, err := os.Open(historyPath); err == nil {
		_, _ = state.ReadHistory(f)
		_ = f.Close()
	}

	return &linerReader{state: state, historyPath: historyPath}
}

func (r *linerReader) ReadLine() (string, error) {
	line, err := r.state.Prompt(shellPrompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", io.EOF
	}

	if err != nil {
		return "", err
	}

	if strings.TrimSpace(line) != "" {
		r.state.AppendHistory(line)
	}

	return line, nil
}

func (r *linerReader) Close() error {
	if err := os.MkdirAll(filepath.Dir(r.historyPath), 0o750); err == nil {
		if f, err := os.Create(r.historyPath); err == nil {
			_, _ = r.state.WriteHistory(f)
			_ = f.Close()
		}
	}

	return r.state.Close()
}

// scanReader reads plain lines from a non-terminal input.
type scanReader struct {
	scanner *bufio.Scanner
}

func (r *scanReader) ReadLine() (string, error) {
	if r.scanner.Scan() {
		return r.scanner.Text(), nil
	}

	if err := r.scanner.Err(); err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}

	return "", io.EOF
}

func (*scanReader) Close() error { return nil }

// splitArgs splits a line into words. Single and double quotes group words;
// a backslash escapes the next character outside single quotes.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)

	for _, ch := range line {
		switch {
		case escaped:
			cur.WriteRune(ch)

			escaped = false
		case ch == '\\' && quote != '\'':
			escaped = true
			inWord = true
		case quote != 0:
			if ch == quote {
				quote = 0
			} else {
				cur.WriteRune(ch)
			}
		case ch == '\'' || ch == '"':
			quote = ch
			inWord = true
		case ch == ' ' || ch == '\t':
			if inWord {
				args = append(args, cur.String())
				cur.Reset()

				inWord = false
			}
		default:
			cur.WriteRune(ch)

			inWord = true
		}
	}

	if quote != 0 || escaped {
		return nil, errUnterminatedQuote
	}

	if inWord {
		args = append(args, cur.String())
	}

	return args, nil
}
