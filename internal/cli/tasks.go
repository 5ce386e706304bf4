package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"lifeos/internal/store"
	"lifeos/internal/tables"
)

// Task fields written by the agent tools.
const (
	defaultPriority = "medium"
	agentSource     = "agent"
)

var errEmptyValue = errors.New("empty value not allowed")

// AddTaskCmd returns the add-task command.
func AddTaskCmd(app *App) *Command {
	fs := flag.NewFlagSet("add-task", flag.ContinueOnError)
	fs.StringP("priority", "p", defaultPriority, "Priority label")

	return &Command{
		Flags: fs,
		Usage: "add-task <description> [flags]",
		Short: "Add a task, prints its ID",
		Long: `Add a pending task to the tasks table. Words after the command are
joined into the description. The synced markdown section is updated.`,
		Exec: func(ctx context.Context, io *IO, args []string) error {
			return execAddTask(ctx, io, app, fs, args)
		},
	}
}

func execAddTask(ctx context.Context, io *IO, app *App, fs *flag.FlagSet, args []string) error {
	description := strings.TrimSpace(strings.Join(args, " "))
	if description == "" {
		return fmt.Errorf("%w: description", errArgsRequired)
	}

	priority, _ := fs.GetString("priority")
	if priority == "" {
		return fmt.Errorf("%w: --priority", errEmptyValue)
	}

	task, err := app.Tables.Create(ctx, tables.Tasks, map[string]any{
		"description": description,
		"priority":    priority,
		"source":      agentSource,
	})
	if err != nil {
		return fmt.Errorf("add task: %w", err)
	}

	io.Printf("Task added: %s (ID: %s)\n", description, task.ID())

	return nil
}

// ListTasksCmd returns the list-tasks command.
func ListTasksCmd(app *App) *Command {
	fs := flag.NewFlagSet("list-tasks", flag.ContinueOnError)
	fs.String("status", "", "Only show tasks with this status")

	return &Command{
		Flags: fs,
		Usage: "list-tasks [flags]",
		Short: "List tasks",
		Long:  "List tasks in table order. Completed tasks are marked [x].",
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			return execListTasks(ctx, io, app, fs)
		},
	}
}

func execListTasks(ctx context.Context, io *IO, app *App, fs *flag.FlagSet) error {
	status, _ := fs.GetString("status")
	if fs.Changed("status") && status == "" {
		return fmt.Errorf("%w: --status", errEmptyValue)
	}

	tasks, err := app.Tables.List(ctx, tables.Tasks)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}

	for _, task := range tasks {
		if status != "" && task.Status() != status {
			continue
		}

		io.Println(formatTask(task))
	}

	return nil
}

func formatTask(task store.Record) string {
	mark := " "
	if task.Status() == tables.StatusCompleted {
		mark = "x"
	}

	return fmt.Sprintf("[%s] %s (ID: %s)", mark, task.String("description"), task.ID())
}

// UpdateTaskCmd returns the update-task command.
func UpdateTaskCmd(app *App) *Command {
	return &Command{
		Flags: flag.NewFlagSet("update-task", flag.ContinueOnError),
		Usage: "update-task <id> <status>",
		Short: "Set the status of a task",
		Long: `Set the status of a task, e.g. completed or pending. Completed
tasks move to the Recently Completed block of the synced section.`,
		Exec: func(ctx context.Context, io *IO, args []string) error {
			return execUpdateTask(ctx, io, app, args)
		},
	}
}

func execUpdateTask(ctx context.Context, io *IO, app *App, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: <id> <status>", errArgsRequired)
	}

	id, status := args[0], args[1]
	if status == "" {
		return fmt.Errorf("%w: status", errEmptyValue)
	}

	_, err := app.Tables.Update(ctx, tables.Tasks, id, map[string]any{store.FieldStatus: status})
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("task not found: %s", id)
	}

	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	io.Printf("Task %s updated to %s\n", id, status)

	return nil
}
