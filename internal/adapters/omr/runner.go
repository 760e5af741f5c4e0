package omr

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

const defaultWaitDelay = 2 * time.Second

// Command is a process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
}

// Result holds the captured output of a finished process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner starts a process and waits for it. Implementations must return
// when ctx is done, terminating the process.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner runs commands with os/exec. On context expiry the process is
// killed; WaitDelay bounds how long Run waits for orphaned children that
// still hold the output pipes.
type ExecRunner struct {
	WaitDelay time.Duration
}

// NewExecRunner returns an ExecRunner with the default wait delay.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{WaitDelay: defaultWaitDelay}
}

// Run executes c. The error is nil only for a zero exit status. A non-zero
// exit yields an *exec.ExitError with Result.ExitCode set; a process that
// could not be started yields the start error and ExitCode -1.
func (r *ExecRunner) Run(ctx context.Context, c Command) (Result, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.WaitDelay = r.WaitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = -1
	}
	if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
		return res, errors.Join(ctxErr, err)
	}
	return res, err
}
