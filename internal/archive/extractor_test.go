package archive

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nudeploy/internal/repository"
	"nudeploy/internal/utils"
)

type staticFetcher struct {
	path string
	err  error
}

func (f staticFetcher) Fetch(ctx context.Context, pkg *repository.Package) (string, error) {
	return f.path, f.err
}

func makeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	out, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(out)
	for name, content := range files {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, out.Close())
}

func TestExtractor_Extract(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "Package.A.1.0.0.zip")
	makeZip(t, zipPath, map[string]string{
		"Deploy.sh":           "echo deploy",
		"config/app.yaml":     "a: 1",
		"systemsettings.yaml": "env: dev",
	})
	root := filepath.Join(dir, "packages")
	pkg := &repository.Package{Id: "Package.A", Version: utils.MustParseVersion("1.0.0")}

	// stale content of a previous extraction is replaced
	stale := filepath.Join(root, "Package.A.1.0.0", "stale.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))

	folder, err := NewExtractor(staticFetcher{path: zipPath}).Extract(context.Background(), pkg, root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "Package.A.1.0.0"), folder)
	assert.FileExists(t, filepath.Join(folder, "Deploy.sh"))
	assert.FileExists(t, filepath.Join(folder, "config", "app.yaml"))
	assert.NoFileExists(t, stale)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestExtractor_FetchError(t *testing.T) {
	pkg := &repository.Package{Id: "Package.A", Version: utils.MustParseVersion("1.0.0")}
	_, err := NewExtractor(staticFetcher{err: errors.New("offline")}).Extract(context.Background(), pkg, t.TempDir())
	assert.ErrorContains(t, err, "offline")
}

func TestUnzip_RejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "evil.zip")
	makeZip(t, zipPath, map[string]string{"../../escape.txt": "x"})

	err := Unzip(zipPath, filepath.Join(dir, "out"))
	assert.ErrorContains(t, err, "illegal path")
	assert.NoFileExists(t, filepath.Join(dir, "escape.txt"))
}

func TestUnzip_CorruptArchive(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "bad.zip")
	require.NoError(t, os.WriteFile(zipPath, []byte("not a zip"), 0o644))
	assert.Error(t, Unzip(zipPath, filepath.Join(dir, "out")))
}
