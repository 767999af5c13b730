package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

var pngHeader = []byte("\x89PNG\x0D\x0A\x1A\x0A\x00\x00\x00\x0DIHDR")

func TestReadMedia_Image(t *testing.T) {
	p := filepath.Join(t.TempDir(), "snap.png")
	require.NoError(t, os.WriteFile(p, pngHeader, 0o600))

	m, err := ReadMedia(p)
	require.NoError(t, err)
	require.Equal(t, "image", m.Kind)
	require.Equal(t, "image/png", m.ContentType)
	require.Equal(t, pngHeader, m.Data)
}

func TestReadMedia_RejectsText(t *testing.T) {
	p := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(p, []byte("just some text"), 0o600))

	_, err := ReadMedia(p)
	require.ErrorIs(t, err, ErrUnsupportedMedia)
}

func TestReadMedia_Missing(t *testing.T) {
	_, err := ReadMedia(filepath.Join(t.TempDir(), "nope.jpg"))
	require.Error(t, err)
}

func TestEnsureParentDir_Relative(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsureParentDir(filepath.Join("state", "vanish.db"))
	require.NoError(t, err)

	want := filepath.Join(tmp, "state")
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir())

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), fi.Mode().Perm()&0o700)
	}

	again, err := EnsureParentDir(filepath.Join("state", "vanish.db"))
	require.NoError(t, err)
	require.Equal(t, got, again)
}

func TestEnsureParentDir_FailsIfFileWithSameNameExists(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	require.NoError(t, os.WriteFile("state", []byte("x"), 0o660))

	_, err := EnsureParentDir(filepath.Join("state", "vanish.db"))
	require.Error(t, err)
}
