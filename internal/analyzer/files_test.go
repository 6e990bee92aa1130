package analyzer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestCollectFiles_SingleFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.py", "import openai\n")

	files, err := CollectFiles(filepath.Join(dir, "main.py"))
	require.NoError(t, err)

	require.Len(t, files, 1)
	assert.Equal(t, "import openai\n", files[0].Content)
}

func TestCollectFiles_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.py", "print('hi')\n")
	writeFile(t, dir, "client.ts", "export const x = 1\n")
	writeFile(t, dir, "README.md", "# readme\n")
	writeFile(t, dir, "node_modules/lib/index.js", "module.exports = {}\n")
	writeFile(t, dir, ".env", "SECRET=1\n")

	files, err := CollectFiles(dir)
	require.NoError(t, err)

	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.ElementsMatch(t, []string{"app.py", "client.ts"}, paths)
}

func TestCollectFiles_SkipsHiddenDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/app.go", "package app\n")
	writeFile(t, dir, ".git/config.json", "{}\n")
	writeFile(t, dir, ".venv/lib.py", "x = 1\n")

	files, err := CollectFiles(dir)
	require.NoError(t, err)

	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join("src", "app.go"), files[0].Path)
}

func TestCollectFiles_FileCountLimit(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < MaxFiles+10; i++ {
		writeFile(t, dir, fmt.Sprintf("f%03d.py", i), "x = 1\n")
	}

	files, err := CollectFiles(dir)
	require.NoError(t, err)
	assert.Len(t, files, MaxFiles)
}

func TestCollectFiles_SkipsOversizedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "big.py", strings.Repeat("a", MaxFileSize+1))
	writeFile(t, dir, "small.py", "x = 1\n")

	files, err := CollectFiles(dir)
	require.NoError(t, err)

	require.Len(t, files, 1)
	assert.Equal(t, "small.py", files[0].Path)
}

func TestCollectFiles_SingleOversizedFileFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "big.py", strings.Repeat("a", MaxFileSize+1))

	_, err := CollectFiles(filepath.Join(dir, "big.py"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file too large")
}

func TestCollectFiles_EmptyDirIsError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "not code\n")

	_, err := CollectFiles(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no code files found")
}

func TestCollectFiles_MissingPath(t *testing.T) {
	_, err := CollectFiles("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path not found")
}
