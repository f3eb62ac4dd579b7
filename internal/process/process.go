// Package process launches the external command-line tools the pipeline
// depends on.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
)

// ErrEmptyCommand is returned when a Spec has no command name.
var ErrEmptyCommand = errors.New("command name cannot be empty")

// Spec describes a process to launch.
type Spec struct {
	Name string
	Args []string

	// Env replaces the child's environment when non-nil. A nil map lets the
	// child inherit the parent environment.
	Env map[string]string

	// InheritStdio connects the child to the Stdin, Stdout and Stderr of
	// the runner so the user sees its output live. Otherwise stdout and
	// stderr are captured into Result.Output.
	InheritStdio bool
}

// Result is the outcome of a process that was started.
type Result struct {
	ExitCode int
	Output   []byte
}

// Runner launches processes.
type Runner interface {
	Run(ctx context.Context, spec Spec) (Result, error)
}

// ExecRunner runs processes with os/exec.
type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner returns a runner wired to the current process's standard streams.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run starts the process and waits for it. A non-zero exit status is
// reported through Result.ExitCode with a nil error; the error is reserved
// for processes that could not be run at all.
func (r *ExecRunner) Run(ctx context.Context, spec Spec) (Result, error) {
	if spec.Name == "" {
		return Result{ExitCode: -1, Output: nil}, ErrEmptyCommand
	}

	// #nosec G204 -- the command comes from configuration, not from user data
	cmd := exec.CommandContext(ctx, spec.Name, spec.Args...)

	if spec.Env != nil {
		cmd.Env = EnvList(spec.Env)
	}

	var output bytes.Buffer

	if spec.InheritStdio {
		cmd.Stdin = r.Stdin
		cmd.Stdout = r.Stdout
		cmd.Stderr = r.Stderr
	} else {
		cmd.Stdout = &output
		cmd.Stderr = &output
	}

	runErr := cmd.Run()
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return Result{ExitCode: exitErr.ExitCode(), Output: output.Bytes()}, nil
		}

		return Result{ExitCode: -1, Output: output.Bytes()}, fmt.Errorf("failed to run %s: %w", spec.Name, runErr)
	}

	return Result{ExitCode: 0, Output: output.Bytes()}, nil
}

// EnvList converts an environment mapping into KEY=VALUE pairs, sorted by key.
func EnvList(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for key := range env {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	list := make([]string, 0, len(keys))
	for _, key := range keys {
		list = append(list, key+"="+env[key])
	}

	return list
}
