package native

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Runner executes package manager commands.
// All process interaction of the native adapters goes through this interface.
type Runner interface {
	// Output runs a command and returns its stdout.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)

	// Run runs a command attached to the terminal. The command's stderr is
	// included in the returned error on failure.
	Run(ctx context.Context, name string, args ...string) error

	// LookPath reports whether a binary can be found on PATH.
	LookPath(name string) error
}

// ExecRunner implements Runner with os/exec.
type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner creates an ExecRunner attached to the process's stdio.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Output runs a command and returns its stdout.
func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, commandError(name, args, err, stderr.String())
	}
	return out, nil
}

// Run runs a command with the terminal attached so that package managers
// can show progress and ask for a sudo password.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = io.MultiWriter(r.Stderr, &stderr)

	if err := cmd.Run(); err != nil {
		return commandError(name, args, err, stderr.String())
	}
	return nil
}

// LookPath reports whether a binary can be found on PATH.
func (r *ExecRunner) LookPath(name string) error {
	_, err := exec.LookPath(name)
	return err
}

func commandError(name string, args []string, err error, stderr string) error {
	cmdline := strings.TrimSpace(name + " " + strings.Join(args, " "))
	detail := lastLine(stderr)
	if detail == "" {
		return fmt.Errorf("%s: %w", cmdline, err)
	}
	return fmt.Errorf("%s: %w: %s", cmdline, err, detail)
}

// lastLine returns the last non-empty line of s, which is where package
// managers print the reason for a failure.
func lastLine(s string) string {
	lines := splitLines([]byte(s))
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}

// splitLines returns the trimmed, non-empty lines of out.
func splitLines(out []byte) []string {
	var lines []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// isExitCode reports whether err carries the given process exit code.
func isExitCode(err error, code int) bool {
	var exitErr interface{ ExitCode() int }
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode() == code
	}
	return false
}
