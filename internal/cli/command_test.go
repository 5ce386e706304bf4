package cli_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	flag "github.com/spf13/pflag"

	"lifeos/internal/cli"
)

func newWarningCmd(fail bool) *cli.Command {
	return &cli.Command{
		Flags: flag.NewFlagSet("warn", flag.ContinueOnError),
		Usage: "warn",
		Short: "Raise a warning",
		Exec: func(_ context.Context, o *cli.IO, _ []string) error {
			o.Warn("disk almost full", "free some space")
			o.Println("done")

			if fail {
				return errors.New("boom")
			}

			return nil
		},
	}
}

func Test_Command_Warnings_Do_Not_Leak_Into_Next_Run(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer

	o := cli.NewIO(&out, &errOut)

	if code := newWarningCmd(true).Run(context.Background(), o, nil); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}

	if got := bytes.Count(errOut.Bytes(), []byte("warning: disk almost full: free some space")); got != 2 {
		t.Fatalf("warning printed %d times, want 2\nstderr: %s", got, errOut.String())
	}

	errOut.Reset()

	ok := &cli.Command{
		Flags: flag.NewFlagSet("ok", flag.ContinueOnError),
		Usage: "ok",
		Exec: func(_ context.Context, o *cli.IO, _ []string) error {
			o.Println("fine")

			return nil
		},
	}

	if code := ok.Run(context.Background(), o, nil); code != 0 {
		t.Fatalf("exit code = %d, want 0\nstderr: %s", code, errOut.String())
	}

	if errOut.Len() != 0 {
		t.Fatalf("stale warnings on second run: %q", errOut.String())
	}
}

func Test_Commands_Find_And_Names(t *testing.T) {
	t.Parallel()

	cmds := cli.Commands{newWarningCmd(false), &cli.Command{Usage: "other <arg>"}}

	cmd, ok := cmds.Find("other")
	if !ok || cmd.Usage != "other <arg>" {
		t.Fatalf("Find(other) = %v, %v", cmd, ok)
	}

	if _, ok := cmds.Find("missing"); ok {
		t.Fatal("Find(missing) succeeded")
	}

	names := cmds.Names()
	if len(names) != 2 || names[0] != "warn" || names[1] != "other" {
		t.Fatalf("Names() = %v", names)
	}

	var buf bytes.Buffer

	cmds.PrintList(&buf)

	if !bytes.Contains(buf.Bytes(), []byte("Raise a warning")) {
		t.Fatalf("PrintList missing short help: %q", buf.String())
	}
}
