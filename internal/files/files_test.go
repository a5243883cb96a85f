package files

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestDiscovery_FindFiles(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	writeFile(t, filepath.Join(dir, "b.xlsx"), "b", base.Add(2*time.Minute))
	writeFile(t, filepath.Join(dir, "a.csv"), "aa", base)
	writeFile(t, filepath.Join(dir, "notes.txt"), "n", base)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "processed"), 0o755))
	writeFile(t, filepath.Join(dir, "processed", "old.xlsx"), "o", base)

	d := NewDiscovery(dir)
	found, err := d.FindFiles(".", func(path string) bool {
		return !strings.HasSuffix(path, ".txt")
	})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "a.csv", found[0].Name)
	assert.Equal(t, int64(2), found[0].Size)
	assert.Equal(t, "b.xlsx", found[1].Name)
	assert.Equal(t, filepath.Join(dir, "b.xlsx"), found[1].Path)

	_, err = d.FindFiles("missing", nil)
	assert.Error(t, err)
}

func TestManager_Archive(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)

	first := filepath.Join(dir, "stock.xlsx")
	writeFile(t, first, "one", time.Now())
	dst, err := m.Archive(first, "processed")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "processed", "stock.xlsx"), dst)
	assert.NoFileExists(t, first)

	// A second file with the same name must not overwrite the first.
	writeFile(t, first, "two", time.Now())
	dst, err = m.Archive(first, "processed")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "processed", "stock (1).xlsx"), dst)

	data, err := os.ReadFile(filepath.Join(dir, "processed", "stock.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
}

func TestManager_WriteFile(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)

	require.NoError(t, m.WriteFile(filepath.Join("failed", "stock.xlsx.error.txt"), []byte("boom")))
	data, err := os.ReadFile(filepath.Join(dir, "failed", "stock.xlsx.error.txt"))
	require.NoError(t, err)
	assert.Equal(t, "boom", string(data))
}
