package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"
)

const consolePrompt = "lifeos> "

// prompter reads console lines. [liner.State] implements it for terminals.
type prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

// ConsoleCmd returns the console command.
func ConsoleCmd(app *App, stdin io.Reader, env map[string]string) *Command {
	return &Command{
		Flags: flag.NewFlagSet("console", flag.ContinueOnError),
		Usage: "console",
		Short: "Interactive shell for the agent tools",
		Long: `Start an interactive shell that runs add-task, list-tasks, update-task,
log-expense, sync-markdown and print-config without the "lifeos" prefix.
History is kept in ~/.lifeos_history when attached to a terminal.`,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			c := &console{app: app, io: o, env: env}

			if f, ok := stdin.(*os.File); ok && f == os.Stdin {
				return c.runTerminal(ctx)
			}

			in := stdin
			if in == nil {
				in = strings.NewReader("")
			}

			return c.run(ctx, &linePrompter{r: bufio.NewReader(in), out: o})
		},
	}
}

type console struct {
	app *App
	io  *IO
	env map[string]string
}

func (c *console) historyFile() string {
	home := c.env["HOME"]
	if home == "" {
		return ""
	}

	return filepath.Join(home, ".lifeos_history")
}

func (c *console) runTerminal(ctx context.Context) error {
	state := liner.NewLiner()

	state.SetCtrlCAborts(true)
	state.SetCompleter(c.complete)

	path := c.historyFile()
	if path != "" {
		if f, err := os.Open(path); err == nil {
			_, _ = state.ReadHistory(f)
			_ = f.Close()
		}
	}

	err := c.run(ctx, state)

	if path != "" {
		if f, createErr := os.Create(path); createErr == nil {
			_, _ = state.WriteHistory(f)
			_ = f.Close()
		}
	}

	return err
}

func (c *console) run(ctx context.Context, p prompter) error {
	defer func() { _ = p.Close() }()

	c.io.Println("lifeos console - type 'help' for commands")

	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := p.Prompt(consolePrompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				c.io.Println("Bye!")

				return nil
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		p.AppendHistory(line)

		fields := strings.Fields(line)
		name := strings.ToLower(fields[0])

		switch name {
		case "exit", "quit", "q":
			c.io.Println("Bye!")

			return nil
		case "help", "?":
			c.printHelp()

			continue
		}

		// Flag sets keep parse state, so every line gets fresh commands.
		cmd, ok := toolCommands(c.app).Find(name)
		if !ok {
			c.io.Printf("Unknown command: %s (type 'help' for commands)\n", name)

			continue
		}

		cmd.Run(ctx, c.io, fields[1:])
	}
}

func (c *console) names() []string {
	names := append([]string{"help", "exit", "quit"}, toolCommands(c.app).Names()...)

	slices.Sort(names)

	return names
}

func (c *console) complete(line string) []string {
	var out []string

	lower := strings.ToLower(line)
	for _, name := range c.names() {
		if strings.HasPrefix(name, lower) {
			out = append(out, name)
		}
	}

	return out
}

func (c *console) printHelp() {
	c.io.Println("Commands:")

	for _, cmd := range toolCommands(c.app) {
		c.io.Println(cmd.HelpLine())
	}

	c.io.Println("  help                               Show this help")
	c.io.Println("  exit / quit / q                    Leave the console")
}

// linePrompter reads lines from a non-terminal input.
type linePrompter struct {
	r   *bufio.Reader
	out *IO
}

func (p *linePrompter) Prompt(prompt string) (string, error) {
	p.out.Printf("%s", prompt)

	line, err := p.r.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}

	return strings.TrimRight(line, "\r\n"), nil
}

func (*linePrompter) AppendHistory(string) {}

func (*linePrompter) Close() error { return nil }
