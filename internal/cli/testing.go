package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// CLI provides a clean interface for running CLI commands in tests.
// It manages a temp directory and environment variables. With an empty
// environment the workspace is <Dir>/workspace and tables live in
// <Dir>/data.
type CLI struct {
	t   *testing.T
	Dir string
	Env map[string]string
}

// NewCLI creates a new test CLI with a temp directory.
func NewCLI(t *testing.T) *CLI {
	t.Helper()

	return &CLI{
		t:   t,
		Dir: t.TempDir(),
		Env: map[string]string{},
	}
}

// Run executes the CLI with the given args and returns stdout, stderr, and exit code.
// Args should not include "lifeos" or "--cwd" - those are added automatically.
func (r *CLI) Run(args ...string) (string, string, int) {
	var outBuf, errBuf bytes.Buffer

	fullArgs := append([]string{"lifeos", "--cwd", r.Dir}, args...)
	code := Run(nil, &outBuf, &errBuf, fullArgs, r.Env, nil)

	return outBuf.String(), errBuf.String(), code
}

// RunWithInput executes the CLI with stdin and returns stdout, stderr, and exit code.
// stdin must be a string or io.Reader; panics otherwise.
func (r *CLI) RunWithInput(stdin any, args ...string) (string, string, int) {
	var inReader io.Reader
	switch v := stdin.(type) {
	case string:
		inReader = strings.NewReader(v)
	case io.Reader:
		inReader = v
	default:
		panic(fmt.Sprintf("stdin must be string or io.Reader, got %T", stdin))
	}

	var outBuf, errBuf bytes.Buffer

	fullArgs := append([]string{"lifeos", "--cwd", r.Dir}, args...)
	code := Run(inReader, &outBuf, &errBuf, fullArgs, r.Env, nil)

	return outBuf.String(), errBuf.String(), code
}

// MustRun executes the CLI and fails the test if the command returns non-zero.
// Returns trimmed stdout on success.
func (r *CLI) MustRun(args ...string) string {
	r.t.Helper()

	stdout, stderr, code := r.Run(args...)
	if code != 0 {
		r.t.Fatalf("command %v failed with exit code %d\nstderr: %s", args, code, stderr)
	}

	return strings.TrimSpace(stdout)
}

// MustFail executes the CLI and fails the test if the command succeeds.
// Also fails if stdout is not empty. Returns trimmed stderr.
func (r *CLI) MustFail(args ...string) string {
	r.t.Helper()

	stdout, stderr, code := r.Run(args...)
	if code == 0 {
		r.t.Fatalf("command %v should have failed but succeeded\nstdout: %s", args, stdout)
	}

	if stdout != "" {
		r.t.Fatalf("command %v failed but stdout should be empty\nstdout: %s", args, stdout)
	}

	return strings.TrimSpace(stderr)
}

// WorkspaceDir returns the default workspace directory.
func (r *CLI) WorkspaceDir() string {
	return filepath.Join(r.Dir, "workspace")
}

// DataDir returns the default table directory.
func (r *CLI) DataDir() string {
	return filepath.Join(r.Dir, "data")
}

// WriteWorkspaceFile writes content to rel inside the workspace.
func (r *CLI) WriteWorkspaceFile(rel, content string) {
	r.t.Helper()

	r.writeFile(filepath.Join(r.WorkspaceDir(), rel), content)
}

// ReadWorkspaceFile returns the content of rel inside the workspace.
func (r *CLI) ReadWorkspaceFile(rel string) string {
	r.t.Helper()

	content, err := os.ReadFile(filepath.Join(r.WorkspaceDir(), rel))
	if err != nil {
		r.t.Fatalf("failed to read workspace file %s: %v", rel, err)
	}

	return string(content)
}

// WriteConfig writes the project config file.
func (r *CLI) WriteConfig(content string) {
	r.t.Helper()

	r.writeFile(filepath.Join(r.Dir, ".lifeos.json"), content)
}

// ReadTable decodes the document of table. A missing table is empty.
func (r *CLI) ReadTable(table string) []map[string]any {
	r.t.Helper()

	content, err := os.ReadFile(filepath.Join(r.DataDir(), table+".json"))
	if os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		r.t.Fatalf("failed to read table %s: %v", table, err)
	}

	var records []map[string]any
	if err := json.Unmarshal(content, &records); err != nil {
		r.t.Fatalf("table %s is not valid JSON: %v\n%s", table, err, content)
	}

	return records
}

func (r *CLI) writeFile(path, content string) {
	r.t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		r.t.Fatalf("failed to create dir for %s: %v", path, err)
	}

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		r.t.Fatalf("failed to write %s: %v", path, err)
	}
}

// AssertContains fails the test if content doesn't contain substr.
func AssertContains(t *testing.T, content, substr string) {
	t.Helper()

	if !strings.Contains(content, substr) {
		t.Errorf("content should contain %q\ncontent:\n%s", substr, content)
	}
}

// AssertNotContains fails the test if content contains substr.
func AssertNotContains(t *testing.T, content, substr string) {
	t.Helper()

	if !strings.Contains(content, substr) {
		return
	}

	t.Errorf("content should NOT contain %q\ncontent:\n%s", substr, content)
}
