package cli

import (
	"context"
	"strings"

	flag "github.com/spf13/pflag"
)

// PrintConfigCmd returns the print-config command.
func PrintConfigCmd(app *App) *Command {
	return &Command{
		Flags: flag.NewFlagSet("print-config", flag.ContinueOnError),
		Usage: "print-config",
		Short: "Show resolved configuration",
		Long:  "Display the effective configuration and where it was loaded from.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			return execPrintConfig(io, app)
		},
	}
}

func execPrintConfig(io *IO, app *App) error {
	cfg := app.Config

	io.Println("effective_cwd=" + cfg.EffectiveCwd)
	io.Println("data_dir=" + cfg.DataDirAbs)
	io.Println("workspace_dir=" + cfg.WorkspaceDirAbs)
	io.Println("listen=" + cfg.Listen)

	if cfg.StaticDirAbs != "" {
		io.Println("static_dir=" + cfg.StaticDirAbs)
	}

	io.Println("openclaw_bin=" + cfg.OpenclawBin)
	io.Println("command_timeout=" + cfg.Timeout.String())
	io.Println("projects_file=" + cfg.WorkspacePath(cfg.ProjectsFile))

	if len(cfg.Tables) > 0 {
		io.Println("tables=" + strings.Join(cfg.Tables, ","))
	}

	io.Println("")
	io.Println("# sources")

	if cfg.Sources.Global == "" && cfg.Sources.Project == "" && len(cfg.Sources.Env) == 0 {
		io.Println("(defaults only)")
	} else {
		if cfg.Sources.Global != "" {
			io.Println("global_config=" + cfg.Sources.Global)
		}

		if cfg.Sources.Project != "" {
			io.Println("project_config=" + cfg.Sources.Project)
		}

		if len(cfg.Sources.Env) > 0 {
			io.Println("env=" + strings.Join(cfg.Sources.Env, ","))
		}
	}

	if ok, err := app.FS.Exists(cfg.WorkspaceDirAbs); err == nil && !ok {
		io.Warn("workspace directory "+cfg.WorkspaceDirAbs+" does not exist",
			"set workspace_dir, LIFEOS_WORKSPACE or --workspace")
	}

	return nil
}
