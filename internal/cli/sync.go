package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"

	"lifeos/internal/tables"
)

// SyncMarkdownCmd returns the sync-markdown command.
func SyncMarkdownCmd(app *App) *Command {
	return &Command{
		Flags: flag.NewFlagSet("sync-markdown", flag.ContinueOnError),
		Usage: "sync-markdown",
		Short: "Rewrite the synced task section now",
		Long: `Regenerate the "Next Actions" section of the projects document from the
tasks table. Fails if the document does not exist; it is never created.`,
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			tasks, err := app.Tables.List(ctx, tables.Tasks)
			if err != nil {
				return err
			}

			if err := app.Syncer.SyncErr(tasks); err != nil {
				return fmt.Errorf("sync markdown: %w", err)
			}

			io.Printf("Synced %d tasks to %s\n", len(tasks), app.Syncer.Path)

			return nil
		},
	}
}
