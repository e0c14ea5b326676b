// Package cli implements the command-line interface for shelf.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/calvinalkan/shelf/internal/shelf"
	"github.com/calvinalkan/shelf/internal/store"
)

const (
	consumedOne  = 1
	consumedTwo  = 2
	consumedNone = 0
	helpFlag     = "--help"
)

// app bundles what commands need. It is built once per Run.
type app struct {
	cfg   shelf.Config
	shelf *shelf.Shelf
	store *store.File
	log   *logrus.Logger
	stdin io.Reader
}

// user resolves the current user: config (flag, env, files) first, then the
// name stored with `shelf user set`.
func (a *app) user() string {
	if a.cfg.User != "" {
		return a.cfg.User
	}

	return a.store.User()
}

// commands returns a fresh command table. Commands carry parsed flag state,
// so the shell builds a new table for every line.
func commands(a *app) []*Command {
	return []*Command{
		AddCmd(a),
		LsCmd(a),
		ShowCmd(a),
		ReadCmd(a),
		EditCmd(a),
		ReturnCmd(a),
		LoanCmd(a),
		RenewCmd(a),
		RmCmd(a),
		SweepCmd(a),
		ClearCmd(a),
		UserCmd(a),
		WatchCmd(a),
		ShellCmd(a),
		PrintConfigCmd(a),
	}
}

// Run is the main entry point. Returns exit code.
func Run(stdin io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	o := NewIO(out, errOut)

	flags, err := parseGlobalFlags(args[1:])
	if err != nil {
		fprintln(errOut, "error:", err)
		fprintln(errOut)
		printUsage(NewIO(errOut, errOut), nil)

		return 1
	}

	if len(flags.remaining) == 0 || flags.remaining[0] == "-h" || flags.remaining[0] == helpFlag {
		printUsage(o, nil)

		return 0
	}

	cfg, err := shelf.LoadConfig(shelf.LoadConfigInput{
		WorkDirOverride: flags.workDir,
		ConfigPath:      flags.configPath,
		DataDirOverride: flags.dataDir,
		UserOverride:    flags.user,
		Env:             env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)
		fprintln(errOut)
		printUsage(NewIO(errOut, errOut), nil)

		return 1
	}

	log := newLogger(errOut, cfg.LogLevel, flags.verbose)
	st := store.NewFile(cfg.DataDirAbs, log)

	a := &app{
		cfg:   cfg,
		shelf: shelf.New(shelf.Options{Store: st, Logger: log}),
		store: st,
		log:   log,
		stdin: stdin,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sigCh != nil {
		go func() {
			select {
			case <-sigCh:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	code := dispatch(ctx, a, o, flags.remaining)
	if code != 0 {
		return code
	}

	return o.Finish()
}

// dispatch runs the named command. Returns exit code.
func dispatch(ctx context.Context, a *app, o *IO, args []string) int {
	name := args[0]

	cmds := commands(a)
	for _, cmd := range cmds {
		if cmd.Name() == name {
			return cmd.Run(ctx, o, args[1:])
		}
	}

	o.ErrPrintln("error: unknown command:", name)
	printUsage(NewIO(o.errOut, o.errOut), cmds)

	return 1
}

func printUsage(o *IO, cmds []*Command) {
	if cmds == nil {
		cmds = commands(&app{})
	}

	o.Println("shelf - personal book shelf")
	o.Println()
	o.Println("Usage: shelf [global flags] <command> [args]")
	o.Println()
	o.Println("Track the books on your shelf, who has them, and when they are due.")
	o.Println()
	o.Println("Global flags:")
	o.Println("  -C, --cwd <dir>            Run as if started in <dir>")
	o.Println("  -c, --config <file>        Use this config file instead of .shelf.json")
	o.Println("      --data-dir <dir>       Directory holding the shelf [default: .shelf]")
	o.Println("      --user <name>          Current user (borrower for new loans)")
	o.Println("  -v, --verbose              Log debug output to stderr")
	o.Println("  -h, --help                 Show this help")
	o.Println()
	o.Println("Commands:")

	width := usageWidth(cmds)

	for _, cmd := range cmds {
		o.Println(cmd.HelpLine(width))
	}
}

func newLogger(w io.Writer, level string, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.WarnLevel
	}

	if verbose {
		lvl = logrus.DebugLevel
	}

	log.SetLevel(lvl)

	return log
}

type globalFlags struct {
	workDir    string
	configPath string
	dataDir    string
	user       string
	verbose    bool
	remaining  []string
}

func parseGlobalFlags(args []string) (globalFlags, error) {
	var flags globalFlags

	idx := 0
	for idx < len(args) {
		consumed, err := parseFlag(args, idx, &flags)
		if err != nil {
			return globalFlags{}, err
		}

		if consumed == 0 {
			// Not a flag, this is the command
			flags.remaining = args[idx:]

			break
		}

		idx += consumed
	}

	return flags, nil
}

// parseFlag tries to parse a flag at args[idx]. Returns number of args consumed (0 if not a flag).
func parseFlag(args []string, idx int, flags *globalFlags) (int, error) {
	arg := args[idx]

	if value, consumed, ok, err := valueFlag(args, idx, "-C", "--cwd"); ok {
		flags.workDir = value

		return consumed, err
	}

	if value, consumed, ok, err := valueFlag(args, idx, "-c", "--config"); ok {
		flags.configPath = value

		return consumed, err
	}

	if value, consumed, ok, err := valueFlag(args, idx, "", "--data-dir"); ok {
		flags.dataDir = value

		return consumed, err
	}

	if value, consumed, ok, err := valueFlag(args, idx, "", "--user"); ok {
		flags.user = value

		return consumed, err
	}

	if arg == "-v" || arg == "--verbose" {
		flags.verbose = true

		return consumedOne, nil
	}

	// -h/--help flags
	if arg == "-h" || arg == helpFlag {
		flags.remaining = []string{helpFlag}

		return len(args) - idx, nil
	}

	// Unknown flag
	if strings.HasPrefix(arg, "-") && arg != "-" {
		return consumedNone, fmt.Errorf("%w: %s", errUnknownFlag, arg)
	}

	return consumedNone, nil
}

// valueFlag matches "-x v", "-xv", "--long v" and "--long=v". ok reports
// whether args[idx] is this flag at all.
func valueFlag(args []string, idx int, short, long string) (string, int, bool, error) {
	arg := args[idx]

	if arg == long || (short != "" && arg == short) {
		if idx+1 >= len(args) {
			return "", consumedNone, true, fmt.Errorf("%w: %s", errFlagRequiresArg, arg)
		}

		return args[idx+1], consumedTwo, true, nil
	}

	if after, ok := strings.CutPrefix(arg, long+"="); ok {
		return after, consumedOne, true, nil
	}

	if short != "" {
		if after, ok := strings.CutPrefix(arg, short); ok && after != "" {
			return after, consumedOne, true, nil
		}
	}

	return "", consumedNone, false, nil
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}
