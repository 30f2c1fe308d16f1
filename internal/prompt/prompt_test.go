package prompt

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/huh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/pkgsync/internal/apply"
	"github.com/danieljhkim/pkgsync/internal/reconcile"
)

var gitInstall = reconcile.Action{Kind: reconcile.Install, Backend: "pacman", Package: "git"}

func TestTerminal_LineAnswers(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    bool
		wantErr error
	}{
		{name: "empty accepts", input: "\n", want: true},
		{name: "yes", input: "YES\n", want: true},
		{name: "no", input: " n \n", want: false},
		{name: "retry after garbage", input: "maybe\nn\n", want: false},
		{name: "quit interrupts", input: "q\n", wantErr: apply.ErrInterrupted},
		{name: "end of input declines", input: "", want: false},
		{name: "last line without newline", input: "y", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			term := newLineTerminal(strings.NewReader(tt.input), &out)

			got, err := term.Confirm(context.Background(), gitInstall)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Install git from pacman? [Y/n]")
		})
	}
}

func TestTerminal_SharedReaderAcrossQuestions(t *testing.T) {
	var out bytes.Buffer
	term := newLineTerminal(strings.NewReader("y\nn\n"), &out)

	first, err := term.Confirm(context.Background(), gitInstall)
	require.NoError(t, err)
	second, err := term.Confirm(context.Background(), gitInstall)
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
}

func TestTerminal_ConfirmAllSummary(t *testing.T) {
	var out bytes.Buffer
	term := newLineTerminal(strings.NewReader("y\n"), &out)
	plan := reconcile.NewPlan()
	plan.Actions = []reconcile.Action{
		gitInstall,
		{Kind: reconcile.Remove, Backend: "pacman", Package: "curl"},
		{Kind: reconcile.Remove, Backend: "apt", Package: "nano"},
	}

	ok, err := term.ConfirmAll(context.Background(), plan)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "Proceed to install 1 package(s) and remove 2 package(s)?")
}

func TestTerminal_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	term := newLineTerminal(strings.NewReader("y\n"), &bytes.Buffer{})

	_, err := term.Confirm(ctx, gitInstall)
	assert.ErrorIs(t, err, apply.ErrInterrupted)
}

func TestForm_RunOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		runErr  error
		want    bool
		wantErr error
	}{
		{name: "submitted with default", runErr: nil, want: true},
		{name: "user aborted", runErr: huh.ErrUserAborted, wantErr: apply.ErrInterrupted},
		{name: "context cancelled", runErr: context.Canceled, wantErr: apply.ErrInterrupted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Form{run: func(context.Context, *huh.Form) error { return tt.runErr }}

			got, err := f.Confirm(context.Background(), gitInstall)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestForm_OtherErrorsAreWrapped(t *testing.T) {
	boom := errors.New("no tty")
	f := &Form{run: func(context.Context, *huh.Form) error { return boom }}

	_, err := f.ConfirmAll(context.Background(), reconcile.NewPlan())
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, apply.ErrInterrupted)
}

func TestScripted(t *testing.T) {
	s := &Scripted{
		All:     true,
		Answers: map[string]bool{"install pacman/git": false},
		Default: true,
	}

	ok, err := s.ConfirmAll(context.Background(), reconcile.NewPlan())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = s.Confirm(context.Background(), gitInstall)
	assert.False(t, ok)
	ok, _ = s.Confirm(context.Background(), reconcile.Action{Kind: reconcile.Install, Backend: "apt", Package: "htop"})
	assert.True(t, ok)
	assert.Len(t, s.Asked(), 2)
}
