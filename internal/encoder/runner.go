package encoder

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes an external command to completion.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, name string, args ...string) error

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, name string, args ...string) error {
	return f(ctx, name, args...)
}

// CommandError is a failed subprocess with its captured output.
type CommandError struct {
	Name   string
	Args   []string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("%s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Name, e.Err, e.Output)
}

func (e *CommandError) Unwrap() error { return e.Err }

// ExecRunner runs commands with os/exec. Cancelling ctx kills the process;
// no other timeout is applied.
type ExecRunner struct{}

// Run executes name with args, folding combined output into the error.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return &CommandError{Name: name, Args: args, Output: strings.TrimSpace(string(output)), Err: err}
	}
	return nil
}
