package project

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadConcept_Precedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, "readme", dir, "docs", "README.md")
	concept := writeFile(t, "concept", dir, "docs", "concept.md")

	got, err := ReadConcept(dir)
	require.NoError(t, err)
	assert.Equal(t, concept, got.Path)
	assert.Equal(t, "concept", got.Text)
}

func TestReadConcept_ReadmeFallback(t *testing.T) {
	dir := t.TempDir()
	readme := writeFile(t, "# Hello", dir, "docs", "readme.MD")

	got, err := ReadConcept(dir)
	require.NoError(t, err)
	assert.Equal(t, readme, got.Path)
	assert.Equal(t, "# Hello", got.Text)
}

func TestReadConcept_Missing(t *testing.T) {
	t.Run("no docs directory", func(t *testing.T) {
		_, err := ReadConcept(t.TempDir())
		assert.ErrorIs(t, err, ErrNoConcept)
	})

	t.Run("docs without concept", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, "x", dir, "docs", "design.md")
		_, err := ReadConcept(dir)
		assert.ErrorIs(t, err, ErrNoConcept)
	})

	t.Run("docs is a file", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, "x", dir, "docs")
		_, err := ReadConcept(dir)
		assert.ErrorIs(t, err, ErrNoConcept)
	})

	t.Run("concept.md is a directory", func(t *testing.T) {
		dir := t.TempDir()
		mkdir(t, dir, "docs", "concept.md")
		_, err := ReadConcept(dir)
		assert.ErrorIs(t, err, ErrNoConcept)
	})
}

func TestReadConcept_Unreadable(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	dir := t.TempDir()
	p := writeFile(t, "secret", dir, "docs", "concept.md")
	require.NoError(t, os.Chmod(p, 0o000))
	t.Cleanup(func() { _ = os.Chmod(p, 0o644) })

	_, err := ReadConcept(dir)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoConcept))
	assert.Contains(t, err.Error(), filepath.Join("docs", "concept.md"))
}
