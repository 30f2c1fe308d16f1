package native

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// exitError mimics *exec.ExitError for the fake runner.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }
func (e *exitError) ExitCode() int { return e.code }

// fakeRunner serves scripted command output and records every call.
// Outputs are keyed by the full command line.
type fakeRunner struct {
	mu       sync.Mutex
	outputs  map[string]string
	failures map[string]error
	missing  map[string]bool
	queries  []string
	runs     []string
	onRun    func(cmdline string) error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		outputs:  make(map[string]string),
		failures: make(map[string]error),
		missing:  make(map[string]bool),
	}
}

func (f *fakeRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cmdline := join(name, args)
	f.queries = append(f.queries, cmdline)
	if err, ok := f.failures[cmdline]; ok {
		return nil, err
	}
	out, ok := f.outputs[cmdline]
	if !ok {
		return nil, fmt.Errorf("unexpected command: %s", cmdline)
	}
	return []byte(out), nil
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	f.mu.Lock()
	cmdline := join(name, args)
	f.runs = append(f.runs, cmdline)
	hook := f.onRun
	f.mu.Unlock()

	if hook != nil {
		return hook(cmdline)
	}
	return nil
}

func (f *fakeRunner) LookPath(name string) error {
	if f.missing[name] {
		return fmt.Errorf("%s: executable file not found in $PATH", name)
	}
	return nil
}

func (f *fakeRunner) set(cmdline, out string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outputs[cmdline] = out
}

func (f *fakeRunner) Runs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.runs...)
}

func (f *fakeRunner) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func join(name string, args []string) string {
	return strings.TrimSpace(name + " " + strings.Join(args, " "))
}
