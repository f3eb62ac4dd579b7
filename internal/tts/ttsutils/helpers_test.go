package ttsutils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/book-expert/tts-dataset/internal/tts/ttsutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
}

// TestEnsureDir verifies that a directory is created if it doesn't exist.
func TestEnsureDir(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	testPath := filepath.Join(tempDir, "new", "dir")

	err := ttsutils.EnsureDir(testPath)
	require.NoError(t, err)

	info, err := os.Stat(testPath)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	err = ttsutils.EnsureDir(testPath)
	require.NoError(t, err, "EnsureDir failed on existing directory")
}

func TestFileExists(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a.mp3")

	exists, err := ttsutils.FileExists(path)
	require.NoError(t, err)
	assert.False(t, exists)

	writeFile(t, path)

	exists, err = ttsutils.FileExists(path)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAbsPath(t *testing.T) {
	t.Parallel()

	absPath, err := ttsutils.AbsPath("out-wav/a.tts.wav")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(absPath))
	assert.Equal(t, "a.tts.wav", filepath.Base(absPath))
}

func TestRemoveDirTolerant_RemovesTree(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "out-wav")
	writeFile(t, filepath.Join(root, "a.tts.wav"))
	writeFile(t, filepath.Join(root, "nested", "b.tts.wav"))

	require.NoError(t, ttsutils.RemoveDirTolerant(root))

	exists, err := ttsutils.FileExists(root)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRemoveDirTolerant_MissingDir(t *testing.T) {
	t.Parallel()

	require.NoError(t, ttsutils.RemoveDirTolerant(filepath.Join(t.TempDir(), "absent")))
}

func TestRemoveDirTolerant_KeepsNFSArtifacts(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "out-wav")
	writeFile(t, filepath.Join(root, "a.tts.wav"))
	writeFile(t, filepath.Join(root, ".nfs000000001"))

	err := ttsutils.RemoveDirTolerant(root)
	require.Error(t, err, "directory cannot be removed while the artifact is present")

	_, statErr := os.Stat(filepath.Join(root, ".nfs000000001"))
	require.NoError(t, statErr)

	_, statErr = os.Stat(filepath.Join(root, "a.tts.wav"))
	assert.True(t, os.IsNotExist(statErr))

	// The caller recreates the directory and carries on.
	require.NoError(t, ttsutils.EnsureDir(root))
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "45.2s", ttsutils.FormatDuration(45.2))
	assert.Equal(t, "5m 30.5s", ttsutils.FormatDuration(330.5))
	assert.Equal(t, "1h 15m", ttsutils.FormatDuration(4500))
}

func TestFormatFileSize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "512 B", ttsutils.FormatFileSize(512))
	assert.Equal(t, "1.5 KB", ttsutils.FormatFileSize(1536))
	assert.Equal(t, "2.0 MB", ttsutils.FormatFileSize(2*1024*1024))
	assert.Equal(t, "1.0 GB", ttsutils.FormatFileSize(1024*1024*1024))
}
