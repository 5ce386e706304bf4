package cli_test

import (
	"testing"

	"lifeos/internal/cli"
)

func Test_Log_Expense_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("log-expense", "Guitar", "strings", "12.50", "--category", "gear")

	if got, want := stdout, "Expense logged: Guitar strings - $12.5"; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}

	records := c.ReadTable("finances")
	if got, want := len(records), 1; got != want {
		t.Fatalf("len(records)=%d, want=%d", got, want)
	}

	rec := records[0]
	for field, want := range map[string]any{
		"title":    "Guitar strings",
		"amount":   12.5,
		"type":     "expense",
		"category": "gear",
	} {
		if got := rec[field]; got != want {
			t.Errorf("%s=%v, want=%v", field, got, want)
		}
	}
}

func Test_Log_Expense_Defaults_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("log-expense", "Coffee", "$4")

	rec := c.ReadTable("finances")[0]

	if got, want := rec["category"], "other"; got != want {
		t.Errorf("category=%v, want=%v", got, want)
	}

	if got, want := rec["amount"], 4.0; got != want {
		t.Errorf("amount=%v, want=%v", got, want)
	}
}

func Test_Log_Expense_Rejects_Bad_Amount_When_Invoked(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "not a number", args: []string{"Coffee", "lots"}, want: `invalid amount: "lots"`},
		{name: "nan", args: []string{"Coffee", "NaN"}, want: "invalid amount"},
		{name: "missing amount", args: []string{"Coffee"}, want: "missing required argument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := cli.NewCLI(t)
			stderr := c.MustFail(append([]string{"log-expense"}, tt.args...)...)

			cli.AssertContains(t, stderr, tt.want)

			if got := c.ReadTable("finances"); got != nil {
				t.Errorf("finances=%v, want no table", got)
			}
		})
	}
}
