package groups

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/pkgsync/internal/backend"
	"github.com/danieljhkim/pkgsync/internal/fsops"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	root := t.TempDir()
	return NewManager(fsops.NewRealFS(), root, testKnown), root
}

func TestManager_Create(t *testing.T) {
	m, root := newTestManager(t)

	paths, err := m.Create([]string{"base", "desktop/kde"})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "base"), filepath.Join(root, "desktop", "kde")}, paths)

	for _, p := range paths {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Empty(t, data)
	}

	_, err = m.Create([]string{"other", "base"})
	assert.ErrorIs(t, err, ErrGroupExists)
	_, statErr := os.Stat(filepath.Join(root, "other"))
	assert.True(t, os.IsNotExist(statErr), "no file is created when one name is taken")
}

func TestManager_CreateRejectsInvalidNames(t *testing.T) {
	m, _ := newTestManager(t)

	for _, name := range []string{"", "../escape", "/abs", ".hidden", "backup~"} {
		_, err := m.Create([]string{name})
		assert.ErrorIs(t, err, ErrInvalidGroupName, name)
	}
}

func TestManager_Remove(t *testing.T) {
	m, root := newTestManager(t)
	writeGroup(t, root, "a", "[apt]\nhtop\n")
	writeGroup(t, root, "b", "[apt]\nvim\n")

	_, err := m.Remove([]string{"a", "missing"})
	assert.ErrorIs(t, err, ErrGroupNotFound)
	exists, _ := m.Exists("a")
	assert.True(t, exists, "nothing is removed when one name is missing")

	removed, err := m.Remove([]string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, removed, 2)
	exists, _ = m.Exists("a")
	assert.False(t, exists)
}

func TestManager_Import(t *testing.T) {
	m, root := newTestManager(t)
	external := t.TempDir()
	src := writeGroup(t, external, "laptop", "[pacman]\ntlp\n")
	writeGroup(t, root, "base", "[pacman]\ngit\n")
	dup := writeGroup(t, external, "base", "[pacman]\nvim\n")

	result, err := m.Import([]string{src, dup, filepath.Join(external, "missing")})
	require.NoError(t, err)

	require.Len(t, result.Imported, 1)
	assert.Equal(t, "laptop", result.Imported[0].Name)
	require.Len(t, result.Skipped, 2)
	assert.Contains(t, result.Skipped[0].Reason, "already exists")
	assert.Equal(t, "file not found", result.Skipped[1].Reason)

	target, err := os.Readlink(filepath.Join(root, "laptop"))
	require.NoError(t, err)
	assert.Equal(t, src, target)

	removed, err := m.Remove([]string{"laptop"})
	require.NoError(t, err)
	assert.Len(t, removed, 1)
	_, err = os.Stat(src)
	assert.NoError(t, err, "removing an imported group keeps the source file")
}

func TestManager_ImportRejectsMalformedFile(t *testing.T) {
	m, root := newTestManager(t)
	src := writeGroup(t, t.TempDir(), "bad", "[nope]\nx\n")

	_, err := m.Import([]string{src})
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	_, statErr := os.Lstat(filepath.Join(root, "bad"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestManager_AppendExistingSection(t *testing.T) {
	m, root := newTestManager(t)
	path := writeGroup(t, root, "base", "# base\n[pacman]\ngit\n\n[apt]\nhtop\n")

	edit, err := m.Append("base", []Addition{{Backend: "pacman", Packages: []string{"vim", "git", "curl", "vim"}}}, false)
	require.NoError(t, err)

	assert.Equal(t, []Addition{{Backend: "pacman", Packages: []string{"curl", "vim"}}}, edit.Added)
	assert.Equal(t, 2, edit.Count())
	assert.True(t, edit.Changed())
	assert.Equal(t, "# base\n[pacman]\ngit\ncurl\nvim\n\n[apt]\nhtop\n", edit.After)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, edit.After, string(data))
}

func TestManager_AppendNewSectionDryRun(t *testing.T) {
	m, root := newTestManager(t)
	path := writeGroup(t, root, "base", "[pacman]\ngit")

	edit, err := m.Append("base", []Addition{{Backend: "flatpak", Packages: []string{"org.gimp.GIMP"}}}, true)
	require.NoError(t, err)

	assert.Equal(t, "[pacman]\ngit\n\n[flatpak]\norg.gimp.GIMP\n", edit.After)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[pacman]\ngit", string(data), "dry run leaves the file alone")
}

func TestManager_AppendNothingNew(t *testing.T) {
	m, root := newTestManager(t)
	writeGroup(t, root, "base", "[pacman]\ngit\n")

	edit, err := m.Append("base", []Addition{{Backend: "pacman", Packages: []string{"git"}}}, false)
	require.NoError(t, err)
	assert.False(t, edit.Changed())
	assert.Equal(t, edit.Before, edit.After)
}

func TestManager_AppendErrors(t *testing.T) {
	m, root := newTestManager(t)
	writeGroup(t, root, "base", "[pacman]\ngit\n")

	_, err := m.Append("missing", []Addition{{Backend: "pacman", Packages: []string{"vim"}}}, false)
	assert.ErrorIs(t, err, ErrGroupNotFound)

	_, err = m.Append("base", []Addition{{Backend: "pacman", Packages: []string{"two words"}}}, false)
	assert.Error(t, err)

	_, err = m.Append("base", []Addition{{Backend: "snap", Packages: []string{"vim"}}}, false)
	assert.ErrorIs(t, err, backend.ErrUnknownBackend)
}

func TestManager_AppendSeveralBackends(t *testing.T) {
	m, root := newTestManager(t)
	writeGroup(t, root, "base", "[pacman]\ngit\n")

	edit, err := m.Append("base", []Addition{
		{Backend: "pacman", Packages: []string{"vim"}},
		{Backend: "apt", Packages: []string{"htop"}},
	}, false)
	require.NoError(t, err)

	assert.Equal(t, "[pacman]\ngit\nvim\n\n[apt]\nhtop\n", edit.After)
	assert.Equal(t, 2, edit.Count())
}

func TestManager_DraftMissingGroup(t *testing.T) {
	m, root := newTestManager(t)

	edit, err := m.Draft("new", []Addition{{Backend: "apt", Packages: []string{"htop"}}})
	require.NoError(t, err)

	assert.Equal(t, "", edit.Before)
	assert.Equal(t, "[apt]\nhtop\n", edit.After)
	_, statErr := os.Stat(filepath.Join(root, "new"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestInsertIntoSection_EmptyFile(t *testing.T) {
	assert.Equal(t, "[apt]\nhtop\n", insertIntoSection("", "apt", []string{"htop"}))
}
