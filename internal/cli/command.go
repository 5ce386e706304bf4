package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	flag "github.com/spf13/pflag"
)

const binName = "lifeos"

// Command is one lifeos subcommand. The same value serves "lifeos <name>"
// on the command line and "<name>" inside the console.
type Command struct {
	// Flags are parsed before Exec. Parse state sticks to the set, so a
	// Command is built fresh for every invocation.
	Flags *flag.FlagSet

	// Usage starts with the command name, e.g. "update-task <id> <status>".
	Usage string

	// Short is the listing line. Long, when set, replaces it in --help.
	Short string
	Long  string

	Exec func(ctx context.Context, o *IO, args []string) error
}

// Name is the first word of Usage.
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")

	return name
}

// HelpLine formats the command for a listing.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-34s %s", c.Usage, c.Short)
}

// PrintHelp prints "Usage", the description and the flag table.
func (c *Command) PrintHelp(o *IO) {
	o.Println("Usage:", binName, c.Usage)
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

// Run parses args and executes the command. The exit code is 1 when
// parsing or Exec fails or when Exec raised warnings. Warnings are flushed
// either way so a console session starts the next command clean.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	c.Flags.SetOutput(io.Discard)

	switch err := c.Flags.Parse(args); {
	case errors.Is(err, flag.ErrHelp):
		c.PrintHelp(o)

		return o.Finish()
	case err != nil:
		o.ErrPrintln("error:", err)
		o.ErrPrintln()
		c.PrintHelp(o)
		o.Finish()

		return 1
	}

	if err := c.Exec(ctx, o, c.Flags.Args()); err != nil {
		o.ErrPrintln("error:", err)
		o.Finish()

		return 1
	}

	return o.Finish()
}

// Commands is an ordered command table.
type Commands []*Command

// Find returns the command called name.
func (cs Commands) Find(name string) (*Command, bool) {
	i := slices.IndexFunc(cs, func(c *Command) bool { return c.Name() == name })
	if i < 0 {
		return nil, false
	}

	return cs[i], true
}

// Names lists the command names in table order.
func (cs Commands) Names() []string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name()
	}

	return names
}

// PrintList writes one help line per command.
func (cs Commands) PrintList(w io.Writer) {
	for _, c := range cs {
		_, _ = fmt.Fprintln(w, c.HelpLine())
	}
}

// allCommands is the top-level command table.
func allCommands(app *App, stdin io.Reader, env map[string]string) Commands {
	return append(Commands{ServeCmd(app)}, append(toolCommands(app), ConsoleCmd(app, stdin, env))...)
}

// toolCommands are the agent tools, reachable from the command line and
// from the console.
func toolCommands(app *App) Commands {
	return Commands{
		AddTaskCmd(app),
		ListTasksCmd(app),
		UpdateTaskCmd(app),
		LogExpenseCmd(app),
		SyncMarkdownCmd(app),
		PrintConfigCmd(app),
	}
}
