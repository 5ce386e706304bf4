package cli

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"

	"lifeos/internal/tables"
)

const (
	defaultCategory = "other"
	expenseType     = "expense"
)

var errInvalidAmount = errors.New("invalid amount")

// LogExpenseCmd returns the log-expense command.
func LogExpenseCmd(app *App) *Command {
	fs := flag.NewFlagSet("log-expense", flag.ContinueOnError)
	fs.String("category", defaultCategory, "Expense category")

	return &Command{
		Flags: fs,
		Usage: "log-expense <title> <amount> [flags]",
		Short: "Record an expense in finances",
		Long: `Record an expense in the finances table. The last argument is the
amount; the words before it form the title.`,
		Exec: func(ctx context.Context, io *IO, args []string) error {
			return execLogExpense(ctx, io, app, fs, args)
		},
	}
}

func execLogExpense(ctx context.Context, io *IO, app *App, fs *flag.FlagSet, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: <title> <amount>", errArgsRequired)
	}

	title := strings.TrimSpace(strings.Join(args[:len(args)-1], " "))
	rawAmount := strings.TrimPrefix(args[len(args)-1], "$")

	amount, err := strconv.ParseFloat(rawAmount, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("%w: %q", errInvalidAmount, args[len(args)-1])
	}

	category, _ := fs.GetString("category")
	if category == "" {
		return fmt.Errorf("%w: --category", errEmptyValue)
	}

	_, err = app.Tables.Create(ctx, tables.Finances, map[string]any{
		"title":    title,
		"amount":   amount,
		"type":     expenseType,
		"category": category,
	})
	if err != nil {
		return fmt.Errorf("log expense: %w", err)
	}

	io.Printf("Expense logged: %s - $%s\n", title, strconv.FormatFloat(amount, 'f', -1, 64))

	return nil
}
