package theme

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadStylesheet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "style.css")
	writeFile(t, path, ".ledge-panel { background: red; }")

	sheet, err := LoadStylesheet(path)
	require.NoError(t, err)
	assert.Equal(t, path, sheet.Path)
	assert.Contains(t, sheet.CSS, "background: red")
	assert.False(t, sheet.Embedded)
}

func TestInlineImports(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "colors.css"), ".a { color: blue; }")
	writeFile(t, filepath.Join(dir, "style.css"),
		"@import \"colors.css\";\n.b { color: green; }")

	sheet, err := LoadStylesheet(filepath.Join(dir, "style.css"))
	require.NoError(t, err)
	assert.Contains(t, sheet.CSS, "color: blue")
	assert.Contains(t, sheet.CSS, "color: green")
	assert.NotContains(t, sheet.CSS, "@import")
}

func TestInlineImportsCircular(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.css"), "@import \"b.css\";\n.a {}")
	writeFile(t, filepath.Join(dir, "b.css"), "@import \"a.css\";\n.b {}")

	sheet, err := LoadStylesheet(filepath.Join(dir, "a.css"))
	require.NoError(t, err)
	assert.Contains(t, sheet.CSS, ".b {}")
	assert.Contains(t, sheet.CSS, "circular import skipped")
}

func TestInlineImportsMissingFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "style.css"), "@import \"missing.css\";\n.a {}")

	sheet, err := LoadStylesheet(filepath.Join(dir, "style.css"))
	require.NoError(t, err)
	assert.Contains(t, sheet.CSS, "import failed")
	assert.Contains(t, sheet.CSS, ".a {}")
}

func TestStylesheetReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "style.css")
	writeFile(t, path, ".a { color: red; }")

	sheet, err := LoadStylesheet(path)
	require.NoError(t, err)

	// Unchanged mtime means no reload.
	changed, err := sheet.Reload()
	require.NoError(t, err)
	assert.False(t, changed)

	writeFile(t, path, ".a { color: blue; }")
	// Push the mtime forward in case the writes land in the same tick.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	changed, err = sheet.Reload()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Contains(t, sheet.CSS, "color: blue")
}

func TestDefaultStylesheet(t *testing.T) {
	sheet := DefaultStylesheet()
	assert.True(t, sheet.Embedded)
	assert.Contains(t, sheet.CSS, ".ledge-panel")

	changed, err := sheet.Reload()
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestWatcherReportsChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "style.css")
	writeFile(t, path, ".a { color: red; }")

	sheet, err := LoadStylesheet(path)
	require.NoError(t, err)

	w := NewWatcher(sheet, nil)
	w.SetPollInterval(10 * time.Millisecond)

	changes := make(chan string, 1)
	w.SetChangeCallback(func(css string) {
		select {
		case changes <- css:
		default:
		}
	})

	require.NoError(t, w.Start(t.Context()))
	defer w.Stop()
	assert.True(t, w.IsRunning())

	writeFile(t, path, ".a { color: blue; }")
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	select {
	case css := <-changes:
		assert.Contains(t, css, "color: blue")
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never reported the change")
	}
}

func TestWatcherIgnoresEmbedded(t *testing.T) {
	w := NewWatcher(DefaultStylesheet(), nil)
	require.NoError(t, w.Start(t.Context()))
	assert.False(t, w.IsRunning())
}
