package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestRootCommand_Help(t *testing.T) {
	out, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	for _, want := range []string{"pkgsync", "Reconciliation:", "Group Management:", "CLI & Tooling:", "--backend"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected help to contain %q", want)
		}
	}
	if strings.Contains(out, "--simulate") {
		t.Error("expected --simulate to be hidden")
	}
}

func TestSubcommand_Help(t *testing.T) {
	out, err := execute(t, "review", "--help")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	for _, want := range []string{"Usage:", "pkgsync review", "Aliases:", "diff, plan", "Flags:", "--json", `Use "pkgsync review [command] --help"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected review help to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Reconciliation:") {
		t.Error("subcommand help should not list the root command groups")
	}
}

func TestRootCommand_Version(t *testing.T) {
	SetVersion("1.2.3")
	defer SetVersion("dev")

	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if strings.TrimSpace(out) != "1.2.3" {
		t.Errorf("version output = %q, want 1.2.3", out)
	}
}

func TestRootCommand_InvalidCommand(t *testing.T) {
	rootCmd.SetArgs([]string{"invalid-command"})
	var buf bytes.Buffer
	rootCmd.SetErr(&buf)

	if err := rootCmd.Execute(); err == nil {
		t.Error("expected error for invalid command")
	}
}

func TestSetVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
		want    string
	}{
		{"normal version", "1.2.3", "1.2.3"},
		{"empty version", "", "1.2.3"},
		{"dev version", "dev", "dev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetVersion(tt.version)
			if rootCmd.Version != tt.want {
				t.Errorf("SetVersion(%q) = %q, want %q", tt.version, rootCmd.Version, tt.want)
			}
		})
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	subcommands := [][]string{
		{"sync"}, {"review"}, {"diff"}, {"plan"}, {"clean"}, {"unmanaged"}, {"adopt"},
		{"groups"}, {"groups", "list"}, {"groups", "ls"}, {"groups", "show"}, {"groups", "new"},
		{"groups", "edit"}, {"groups", "import"}, {"groups", "remove"}, {"groups", "rm"},
		{"version"}, {"completion", "bash"},
	}

	for _, path := range subcommands {
		t.Run(strings.Join(path, " "), func(t *testing.T) {
			subCmd, rest, err := rootCmd.Find(path)
			if err != nil {
				t.Fatalf("Find(%v) error = %v", path, err)
			}
			if subCmd == nil || len(rest) != 0 {
				t.Errorf("Find(%v) did not resolve to a command", path)
			}
		})
	}
}

func TestNormalizeFlagName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"noconfirm", "noconfirm"},
		{"no-confirm", "noconfirm"},
		{"unreviewed", "noconfirm"},
		{"no_remove", "no-remove"},
		{"dry-run", "dry-run"},
	}

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	for _, tt := range tests {
		if got := normalizeFlagName(fs, tt.in); string(got) != tt.want {
			t.Errorf("normalizeFlagName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReviewModeValue(t *testing.T) {
	var v reviewModeValue
	if err := v.Set("per_action"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if v.String() != "per-action" {
		t.Errorf("String() = %q, want per-action", v.String())
	}
	if err := v.Set("sometimes"); err == nil {
		t.Error("expected error for unknown mode")
	}
	if v.Type() != "mode" {
		t.Errorf("Type() = %q", v.Type())
	}
}
