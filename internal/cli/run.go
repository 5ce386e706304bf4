package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"lifeos/internal/config"
	"lifeos/internal/fs"
)

// Run is the main entry point. Returns exit code.
//
// sigCh delivers interrupt signals; the first one cancels the running
// command. It may be nil.
func Run(stdin io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	globalFlags := flag.NewFlagSet("lifeos", flag.ContinueOnError)
	globalFlags.SetInterspersed(false)
	globalFlags.SetOutput(&strings.Builder{})
	globalFlags.Usage = func() {}

	flagHelp := globalFlags.BoolP("help", "h", false, "Show help")
	flagCwd := globalFlags.StringP("cwd", "C", "", "Run as if started in `dir`")
	flagConfig := globalFlags.StringP("config", "c", "", "Use specified config `file`")
	flagDataDir := globalFlags.String("data-dir", "", "Override table data `dir`")
	flagWorkspace := globalFlags.String("workspace", "", "Override workspace `dir`")
	flagListen := globalFlags.String("listen", "", "Override listen `addr`")
	flagVerbose := globalFlags.BoolP("verbose", "v", false, "Log debug output")

	if len(args) > 0 {
		args = args[1:]
	}

	if err := globalFlags.Parse(args); err != nil {
		fprintln(errOut, "error:", err)
		printUsage(errOut, globalFlags)

		return 1
	}

	for _, name := range []string{"data-dir", "workspace"} {
		if globalFlags.Changed(name) && globalFlags.Lookup(name).Value.String() == "" {
			fprintln(errOut, "error:", "--"+name+" cannot be empty")
			printUsage(errOut, globalFlags)

			return 1
		}
	}

	rest := globalFlags.Args()

	if *flagHelp || len(rest) == 0 {
		printUsage(out, globalFlags)

		return 0
	}

	cfg, err := config.Load(config.LoadInput{
		WorkDirOverride:      *flagCwd,
		ConfigPath:           *flagConfig,
		DataDirOverride:      *flagDataDir,
		WorkspaceDirOverride: *flagWorkspace,
		ListenOverride:       *flagListen,
		Env:                  env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	level := slog.LevelWarn
	if *flagVerbose {
		level = slog.LevelDebug
	}

	log := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))
	app := NewApp(cfg, fs.NewReal(), log)

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

	commands := allCommands(app, stdin, env)
	name, cmdArgs := rest[0], rest[1:]

	cmd, ok := commands.Find(name)
	if !ok {
		fprintln(errOut, "error: unknown command:", name)
		printUsage(errOut, globalFlags)

		return 1
	}

	return cmd.Run(ctx, NewIO(out, errOut), cmdArgs)
}

var errArgsRequired = errors.New("missing required argument")

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer, globalFlags *flag.FlagSet) {
	fprintln(w, `lifeos - personal dashboard backend and agent tools

Usage: lifeos [global flags] <command> [args]

Global flags:`)
	_, _ = fmt.Fprint(w, globalFlags.FlagUsages())
	fprintln(w)
	fprintln(w, "Commands:")

	// Help lines do not depend on configuration.
	allCommands(&App{}, nil, nil).PrintList(w)
}
