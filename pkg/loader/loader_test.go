package loader_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docqa/qalocal/pkg/loader"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_SupportedExtensions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "Plain text content.")
	writeFile(t, dir, "b.md", "# Markdown content")
	writeFile(t, dir, "c.csv", "skipped,entirely")
	writeFile(t, dir, "sub/d.txt", "Nested text content.")

	var seen []string
	l, err := loader.NewWithConfig(loader.LoaderConfig{
		DataDir:    dir,
		OnProgress: func(path string) { seen = append(seen, path) },
	})
	require.NoError(t, err)

	docs, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Len(t, seen, 3)

	assert.Equal(t, "Plain text content.", docs[0].Text)
	assert.Equal(t, "a.txt", docs[0].Metadata["source"])
	assert.Equal(t, filepath.Join(dir, "a.txt"), docs[0].Metadata["full_path"])

	assert.Equal(t, "b.md", docs[1].Metadata["source"])
	assert.Equal(t, "d.txt", docs[2].Metadata["source"])
}

func TestLoad_HTMLStripsMarkup(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "page.html", `<html><head>
		<script>var ignored = true;</script>
		<style>body { color: red; }</style>
	</head><body>
		<h1>Title</h1>
		<p>First   paragraph.</p>
	</body></html>`)

	l, err := loader.NewWithConfig(loader.LoaderConfig{DataDir: dir})
	require.NoError(t, err)

	docs, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, "Title First paragraph.", docs[0].Text)
	assert.NotContains(t, docs[0].Text, "ignored")
}

func TestLoad_CorruptFileSkipped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.pdf", "this is not a pdf")
	writeFile(t, dir, "fine.txt", "Still loaded.")

	l, err := loader.NewWithConfig(loader.LoaderConfig{DataDir: dir})
	require.NoError(t, err)

	docs, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "fine.txt", docs[0].Metadata["source"])
}

func TestNewWithConfig_MissingDirectory(t *testing.T) {
	_, err := loader.NewWithConfig(loader.LoaderConfig{DataDir: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}
