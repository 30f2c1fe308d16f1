package groups

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/pkgsync/internal/backend"
)

var testKnown = []backend.ID{"apt", "flatpak", "pacman"}

func TestParse_Sections(t *testing.T) {
	src := `# base system
[pacman]
git
vim   # editor
  htop

[flatpak]
org.mozilla.firefox
[pacman]
c#-tools
`
	g, err := Parse("base", "/groups/base", strings.NewReader(src), testKnown)
	require.NoError(t, err)

	assert.Equal(t, "base", g.Name)
	assert.Equal(t, []backend.ID{"pacman", "flatpak"}, g.Backends())
	assert.Equal(t, []string{"c#-tools", "git", "htop", "vim"}, g.Packages("pacman"))
	assert.Equal(t, []string{"org.mozilla.firefox"}, g.Packages("flatpak"))
	assert.True(t, g.Has("pacman", "vim"))
	assert.False(t, g.Has("apt", "vim"))
	assert.Equal(t, 5, g.Len())
}

func TestParse_DuplicateLinesCollapse(t *testing.T) {
	src := "[apt]\nhtop\nhtop\n[apt]\nhtop\n"
	g, err := Parse("a", "a", strings.NewReader(src), testKnown)
	require.NoError(t, err)
	assert.Equal(t, []string{"htop"}, g.Packages("apt"))
	assert.Equal(t, 1, g.Len())
}

func TestParse_EmptySectionIsKept(t *testing.T) {
	g, err := Parse("a", "a", strings.NewReader("[flatpak]\n"), testKnown)
	require.NoError(t, err)
	assert.Equal(t, []backend.ID{"flatpak"}, g.Backends())
	assert.Empty(t, g.Packages("flatpak"))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		line   int
		reason string
	}{
		{name: "unknown backend", src: "[pacman]\ngit\n[unknown-backend]\nfoo\n", line: 3, reason: "unknown backend"},
		{name: "missing bracket", src: "[pacman\ngit\n", line: 1, reason: "missing ']'"},
		{name: "empty header", src: "[ ]\n", line: 1, reason: "empty section header"},
		{name: "spaces in header", src: "[pac man]\n", line: 1, reason: "malformed section header"},
		{name: "package before section", src: "# header\ngit\n", line: 2, reason: "outside of a backend section"},
		{name: "embedded whitespace", src: "[pacman]\ngit vim\n", line: 2, reason: "contains whitespace"},
		{name: "control character", src: "[pacman]\ngit\x07\n", line: 2, reason: "control characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("g", "/groups/g", strings.NewReader(tt.src), testKnown)
			require.Error(t, err)

			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, "/groups/g", perr.File)
			assert.Equal(t, tt.line, perr.Line)
			assert.Contains(t, perr.Reason, tt.reason)
		})
	}
}

func TestParse_UnknownBackendWhenDisabledSetExcludesTag(t *testing.T) {
	_, err := Parse("g", "g", strings.NewReader("[dnf]\nvim\n"), testKnown)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "g:1: unknown backend 'dnf'", perr.Error())
}

func TestStripComment(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "# full line", want: ""},
		{in: "git # trailing", want: "git "},
		{in: "git\t# tab", want: "git\t"},
		{in: "c#lang", want: "c#lang"},
		{in: "[pacman] # section", want: "[pacman] "},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripComment(tt.in), tt.in)
	}
}

func TestGroup_String(t *testing.T) {
	g, err := Parse("a", "a", strings.NewReader("[pacman]\nvim\ngit\n[apt]\nhtop\n"), testKnown)
	require.NoError(t, err)
	assert.Equal(t, "[pacman]\ngit\nvim\n\n[apt]\nhtop\n", g.String())
}
