// Package agent drives the external openclaw CLI.
//
// Commands run out of process with an explicit argument list and a
// per-call timeout. No shell is involved, so task text and targets are
// passed through verbatim.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout applies when a client is built without one.
const DefaultTimeout = 60 * time.Second

// Guidance returned alongside an empty job list when the gateway rejects the
// device.
const (
	AuthWarning = "Gateway auth required. Run: openclaw doctor --fix"
	AuthError   = "Device token mismatch"
)

var (
	// ErrUnauthorized reports that openclaw rejected the device token.
	ErrUnauthorized = errors.New("openclaw: unauthorized")

	// ErrEmptyTask reports a spawn request without task text.
	ErrEmptyTask = errors.New("task is required")

	// ErrEmptyTarget reports a kill request without a target.
	ErrEmptyTarget = errors.New("target is required")
)

// CommandError is a failed openclaw invocation.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := "openclaw " + strings.Join(e.Args, " ")

	switch {
	case e.ExitCode > 0:
		msg += " exited with status " + strconv.Itoa(e.ExitCode)
	case e.Err != nil:
		msg += ": " + e.Err.Error()
	}

	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}

	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Output is what a finished command wrote.
type Output struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
}

// Runner executes a program. Tests replace it.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (Output, error)
}

// ExecRunner runs programs with os/exec.
type ExecRunner struct{}

// Run executes name in dir. A non-zero exit is returned as *exec.ExitError
// together with the captured output.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (Output, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	return Output{Stdout: stdout.String(), Stderr: stderr.String()}, err
}

// Client runs openclaw subcommands.
type Client struct {
	bin     string
	dir     string
	timeout time.Duration
	runner  Runner
	log     *slog.Logger
	now     func() time.Time
}

// Option configures a [Client].
type Option func(*Client)

// WithRunner replaces the process runner.
func WithRunner(r Runner) Option {
	return func(c *Client) { c.runner = r }
}

// WithTimeout sets the per-command timeout. Non-positive values keep the
// default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithClock sets the time source for job names.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New returns a client running bin in the workspace dir.
func New(bin, dir string, opts ...Option) *Client {
	if bin == "" {
		bin = "openclaw"
	}

	c := &Client{
		bin:     bin,
		dir:     dir,
		timeout: DefaultTimeout,
		runner:  ExecRunner{},
		log:     slog.New(slog.DiscardHandler),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Run executes openclaw with args and returns its output.
//
// The call is detached from ctx cancellation: a client disconnecting does not
// abort a command that already started. Only the configured timeout stops it.
func (c *Client) Run(ctx context.Context, args ...string) (Output, error) {
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	start := time.Now()
	out, err := c.runner.Run(runCtx, c.dir, c.bin, args...)

	c.log.DebugContext(ctx, "openclaw finished", "args", args, "elapsed", time.Since(start), "error", err)

	if err == nil {
		return out, nil
	}

	cmdErr := &CommandError{Args: args, Stderr: out.Stderr, Err: err}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		cmdErr.ExitCode = exitErr.ExitCode()
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		cmdErr.Err = fmt.Errorf("timed out after %s: %w", c.timeout, context.DeadlineExceeded)
	}

	if mentionsUnauthorized(err.Error(), out.Stdout, out.Stderr) {
		return out, errors.Join(ErrUnauthorized, cmdErr)
	}

	return out, cmdErr
}

func mentionsUnauthorized(texts ...string) bool {
	for _, text := range texts {
		if strings.Contains(strings.ToLower(text), "unauthorized") {
			return true
		}
	}

	return false
}

// Status returns the output of "openclaw status".
func (c *Client) Status(ctx context.Context) (string, error) {
	out, err := c.Run(ctx, "status")
	if err != nil {
		return "", err
	}

	return out.Stdout, nil
}

// Jobs is the scheduled job list. Warning and Error carry guidance when the
// gateway refused the request; the list is then empty.
type Jobs struct {
	Jobs    []json.RawMessage `json:"subagents"`
	Warning string            `json:"warning,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// Jobs lists scheduled jobs. Output that is not a JSON array yields an empty
// list. Authorization failures are not errors: they produce an empty list
// with guidance.
func (c *Client) Jobs(ctx context.Context) (Jobs, error) {
	out, err := c.Run(ctx, "cron", "list", "--json")

	switch {
	case errors.Is(err, ErrUnauthorized):
		c.log.WarnContext(ctx, "openclaw gateway rejected the device", "error", err)

		return Jobs{Jobs: []json.RawMessage{}, Warning: AuthWarning, Error: AuthError}, nil
	case err != nil:
		return Jobs{}, err
	}

	var jobs []json.RawMessage

	err = json.Unmarshal([]byte(out.Stdout), &jobs)
	if err != nil || jobs == nil {
		c.log.DebugContext(ctx, "openclaw cron list output is not a JSON array", "error", err)

		return Jobs{Jobs: []json.RawMessage{}}, nil
	}

	return Jobs{Jobs: jobs}, nil
}

// Spawned describes a job created by [Client.Spawn].
type Spawned struct {
	Result string `json:"result"`
	JobID  string `json:"jobId"`
}

// jobNameLen bounds the task excerpt in generated job names.
const jobNameLen = 20

var unsafeJobChars = regexp.MustCompile(`[^a-zA-Z0-9 ]`)

// JobName returns the job name for task created at t.
func JobName(task string, t time.Time) string {
	safe := unsafeJobChars.ReplaceAllString(task, "")
	if len(safe) > jobNameLen {
		safe = safe[:jobNameLen]
	}

	return fmt.Sprintf("dash-%s-%d", safe, t.UnixMilli())
}

// Spawn schedules an isolated one-shot agent run for task, optionally on a
// specific agent.
func (c *Client) Spawn(ctx context.Context, task, agentID string) (Spawned, error) {
	if strings.TrimSpace(task) == "" {
		return Spawned{}, ErrEmptyTask
	}

	name := JobName(task, c.now())

	args := []string{
		"cron", "add",
		"--name", name,
		"--at", "1s",
		"--message", task,
		"--session", "isolated",
		"--announce",
	}

	if agentID != "" {
		args = append(args, "--agent", agentID)
	}

	out, err := c.Run(ctx, args...)
	if err != nil {
		return Spawned{}, err
	}

	return Spawned{Result: out.Stdout, JobID: name}, nil
}

// Kill stops the subagent target.
func (c *Client) Kill(ctx context.Context, target string) (string, error) {
	if strings.TrimSpace(target) == "" {
		return "", ErrEmptyTarget
	}

	out, err := c.Run(ctx, "subagents", "kill", "--target", target)
	if err != nil {
		return "", err
	}

	return out.Stdout, nil
}
