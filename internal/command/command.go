package command

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
)

// Command runs an external tool. args[0] is the program. env entries are
// KEY=VALUE pairs appended to the inherited environment.
//
// On failure the returned error's message is the tool's own diagnostic so
// that callers can forward it verbatim.
type Command interface {
	Run(ctx context.Context, args []string, env []string) ([]byte, error)
}

// Func adapts a plain function to Command.
type Func func(ctx context.Context, args []string, env []string) ([]byte, error)

func (f Func) Run(ctx context.Context, args []string, env []string) ([]byte, error) {
	return f(ctx, args, env)
}

// Exec runs programs with os/exec.
type Exec struct {
	// Dir is the working directory. Empty means the current one.
	Dir string
}

// Run executes args and returns stdout. When the program fails its trimmed
// stderr becomes the error message; with an empty stderr the exec error is
// returned as is.
func (e Exec) Run(ctx context.Context, args []string, env []string) ([]byte, error) {
	if len(args) == 0 {
		return nil, errors.New("no command given")
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = e.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, &ExitError{Args: args, Msg: msg, Err: err}
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

// ExitError is a failed run that printed a diagnostic.
type ExitError struct {
	Args []string
	Msg  string
	Err  error
}

func (e *ExitError) Error() string {
	return e.Msg
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode reports the exit status carried by err, or -1.
func ExitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
