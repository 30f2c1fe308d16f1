// Package prompt implements apply.Confirmer for interactive terminals.
//
// Terminal asks single-key yes/no questions in raw mode and falls back to
// line input when stdin is not a terminal. Form asks through a huh form.
// Scripted answers from a table and is meant for tests.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/danieljhkim/pkgsync/internal/apply"
	"github.com/danieljhkim/pkgsync/internal/reconcile"
)

const (
	keyCtrlC = 3
	keyCtrlD = 4
	keyLF    = 10
	keyCR    = 13
)

// Terminal confirms on a terminal. Enter accepts, n declines, Ctrl+C or q
// interrupts.
type Terminal struct {
	in    io.Reader
	out   io.Writer
	fd    int
	isTTY bool
	lines *bufio.Reader
}

// NewTerminal creates a Terminal reading from in and writing prompts to out.
func NewTerminal(in *os.File, out io.Writer) *Terminal {
	fd := int(in.Fd()) //nolint:gosec
	return &Terminal{
		in:    in,
		out:   out,
		fd:    fd,
		isTTY: term.IsTerminal(fd),
	}
}

// newLineTerminal creates a Terminal that always reads whole lines.
func newLineTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: in, out: out, fd: -1}
}

// ConfirmAll asks once whether to apply the whole plan.
func (t *Terminal) ConfirmAll(ctx context.Context, plan *reconcile.Plan) (bool, error) {
	return t.ask(ctx, summary(plan))
}

// Confirm asks about one action.
func (t *Terminal) Confirm(ctx context.Context, a reconcile.Action) (bool, error) {
	return t.ask(ctx, fmt.Sprintf("%s %s from %s?", verb(a.Kind), a.Package, a.Backend))
}

func (t *Terminal) ask(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, apply.ErrInterrupted
	}
	fmt.Fprintf(t.out, "%s [Y/n] ", question)

	if t.isTTY {
		return t.readKey()
	}
	return t.readLine()
}

func (t *Terminal) readKey() (bool, error) {
	oldState, err := term.MakeRaw(t.fd)
	if err != nil {
		return t.readLine()
	}
	defer func() {
		_ = term.Restore(t.fd, oldState)
	}()

	var buf [1]byte
	for {
		n, err := t.in.Read(buf[:])
		if err != nil {
			return false, err
		}
		if n == 0 {
			continue
		}
		switch buf[0] {
		case 'y', 'Y', keyCR, keyLF:
			fmt.Fprint(t.out, "yes\r\n")
			return true, nil
		case 'n', 'N':
			fmt.Fprint(t.out, "no\r\n")
			return false, nil
		case 'q', 'Q', keyCtrlC, keyCtrlD:
			fmt.Fprint(t.out, "\r\n")
			return false, apply.ErrInterrupted
		}
	}
}

// readLine reads one answer line. End of input declines.
func (t *Terminal) readLine() (bool, error) {
	if t.lines == nil {
		t.lines = bufio.NewReader(t.in)
	}
	for {
		line, err := t.lines.ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF {
				fmt.Fprintln(t.out)
				return false, nil
			}
			return false, err
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "", "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		case "q", "quit":
			return false, apply.ErrInterrupted
		}
		fmt.Fprint(t.out, "Please answer y or n: ")
		if err != nil {
			return false, nil
		}
	}
}

func verb(k reconcile.Kind) string {
	if k == reconcile.Remove {
		return "Remove"
	}
	return "Install"
}

func summary(plan *reconcile.Plan) string {
	installs := plan.Count(reconcile.Install)
	removes := plan.Count(reconcile.Remove)
	var parts []string
	if installs > 0 {
		parts = append(parts, fmt.Sprintf("install %d package(s)", installs))
	}
	if removes > 0 {
		parts = append(parts, fmt.Sprintf("remove %d package(s)", removes))
	}
	if len(parts) == 0 {
		return "Proceed?"
	}
	return "Proceed to " + strings.Join(parts, " and ") + "?"
}
