// Package executil launches external tools and captures their output.
package executil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// Result is the captured outcome of one external process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// StartError is returned by a Runner when the process could not be launched at all.
type StartError struct {
	Cmd   string
	Cause error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Cmd, e.Cause)
}

func (e *StartError) Unwrap() error {
	return e.Cause
}

// Runner launches an external process and waits for it to exit.
// A non-zero exit is reported through Result.ExitCode with a nil error;
// the error is reserved for processes that never ran.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (*Result, error)
}

// ExecRunner implements Runner with os/exec.
type ExecRunner struct{}

// Run executes name with args, buffering stdout and stderr separately.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = nil

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, &StartError{Cmd: name, Cause: err}
	}

	err := cmd.Wait()
	res := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, &StartError{Cmd: name, Cause: err}
		}
		res.ExitCode = exitErr.ExitCode()
	}
	return res, nil
}
