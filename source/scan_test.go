package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestList_LexicalAndFlat(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.md", "b")
	writeFile(t, root, "a.md", "a")
	writeFile(t, root, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(root, "nested"), 0755))
	writeFile(t, filepath.Join(root, "nested"), "c.md", "nested files are not scanned")

	paths, err := List(root, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "a.md"), filepath.Join(root, "b.md")}, paths)
}

func TestList_CustomPattern(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "a")
	writeFile(t, root, "b.txt", "b")

	paths, err := List(root, "*.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "b.txt")}, paths)
}

func TestList_RejectsBadPatterns(t *testing.T) {
	root := t.TempDir()

	_, err := List(root, "**/*.md")
	assert.Error(t, err)

	_, err = List(root, "[")
	assert.Error(t, err)
}

func TestList_MissingRoot(t *testing.T) {
	_, err := List(filepath.Join(t.TempDir(), "missing"), DefaultPattern)
	require.Error(t, err)

	var scanErr *ScanError
	assert.True(t, errors.As(err, &scanErr))
	assert.ErrorIs(t, err, ErrRootUnavailable)
}

func TestList_RootIsFile(t *testing.T) {
	file := writeFile(t, t.TempDir(), "file.md", "x")

	_, err := List(file, DefaultPattern)
	assert.ErrorIs(t, err, ErrRootUnavailable)
}

func TestRead(t *testing.T) {
	path := writeFile(t, t.TempDir(), "doc.md", "line one\nline two\n")

	doc, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "doc.md", doc.Filename)
	assert.Equal(t, []string{"line one", "line two"}, doc.Lines())
}

func TestRead_Missing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "gone.md"))

	var scanErr *ScanError
	require.True(t, errors.As(err, &scanErr))
	assert.Contains(t, scanErr.Path, "gone.md")
}

func TestWalk_StopsOnCallbackError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "a")
	writeFile(t, root, "b.md", "b")

	stop := errors.New("stop")
	var seen []string
	err := Walk(root, DefaultPattern, func(d *Document) error {
		seen = append(seen, d.Filename)
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, []string{"a.md"}, seen)
}

func TestDocument_Lines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"empty", "", nil},
		{"single", "one", []string{"one"}},
		{"trailing newline", "one\ntwo\n", []string{"one", "two"}},
		{"crlf", "one\r\ntwo", []string{"one", "two"}},
		{"blank lines kept", "one\n\nthree", []string{"one", "", "three"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Document{Content: tt.content}
			assert.Equal(t, tt.want, d.Lines())
		})
	}
}

func TestExists(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "present.md", "x")

	ok, err := Exists(root, "present.md")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Exists(root, "absent.md")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExists_StatFailure(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Requirements.md", "x")

	// A path through a regular file fails with ENOTDIR, not ENOENT.
	ok, err := Exists(root, filepath.Join("Requirements.md", "child.md"))
	require.Error(t, err)
	assert.False(t, ok)

	var scanErr *ScanError
	require.True(t, errors.As(err, &scanErr))
	assert.Equal(t, filepath.Join(root, "Requirements.md", "child.md"), scanErr.Path)
}
