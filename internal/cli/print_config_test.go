package cli_test

import (
	"os"
	"path/filepath"
	"testing"

	"lifeos/internal/cli"
)

func Test_Print_Config_Defaults_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	if err := os.MkdirAll(c.WorkspaceDir(), 0o750); err != nil {
		t.Fatal(err)
	}

	stdout := c.MustRun("print-config")

	cli.AssertContains(t, stdout, "effective_cwd="+c.Dir)
	cli.AssertContains(t, stdout, "data_dir="+c.DataDir())
	cli.AssertContains(t, stdout, "workspace_dir="+c.WorkspaceDir())
	cli.AssertContains(t, stdout, "listen=:3000")
	cli.AssertContains(t, stdout, "command_timeout=1m0s")
	cli.AssertContains(t, stdout, "projects_file="+filepath.Join(c.WorkspaceDir(), "PROJECTS.md"))
	cli.AssertContains(t, stdout, "(defaults only)")
	cli.AssertNotContains(t, stdout, "static_dir=")
}

func Test_Print_Config_Sources_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.Env["PORT"] = "8080"
	c.WriteConfig(`{
		// project settings
		"workspace_dir": "ws",
		"static_dir": "client/build",
		"tables": ["tasks", "finances"],
	}`)

	if err := os.MkdirAll(filepath.Join(c.Dir, "ws"), 0o750); err != nil {
		t.Fatal(err)
	}

	stdout := c.MustRun("--listen", "127.0.0.1:9000", "print-config")

	cli.AssertContains(t, stdout, "workspace_dir="+filepath.Join(c.Dir, "ws"))
	cli.AssertContains(t, stdout, "static_dir="+filepath.Join(c.Dir, "client", "build"))
	cli.AssertContains(t, stdout, "listen=127.0.0.1:9000")
	cli.AssertContains(t, stdout, "tables=tasks,finances")
	cli.AssertContains(t, stdout, "project_config="+filepath.Join(c.Dir, ".lifeos.json"))
	cli.AssertContains(t, stdout, "env=PORT")
}

func Test_Print_Config_Warns_On_Missing_Workspace_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout, stderr, exitCode := c.Run("print-config")

	if got, want := exitCode, 1; got != want {
		t.Errorf("exitCode=%d, want=%d", got, want)
	}

	cli.AssertContains(t, stdout, "workspace_dir=")
	cli.AssertContains(t, stderr, "warning: workspace directory "+c.WorkspaceDir()+" does not exist")
}
