package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFilePath(t *testing.T) {
	t.Run("rejects empty path", func(t *testing.T) {
		_, err := ValidateFilePath("")
		assert.ErrorContains(t, err, "cannot be empty")
	})

	t.Run("rejects dangerous shell characters", func(t *testing.T) {
		for _, char := range dangerousChars {
			_, err := ValidateFilePath("/tmp/export" + char + "file.json")
			assert.ErrorContains(t, err, "forbidden character", "character %q", char)
		}
	})

	t.Run("converts relative path to absolute", func(t *testing.T) {
		result, err := ValidateFilePath("export.json")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(result))
	})

	t.Run("cleans traversal components", func(t *testing.T) {
		dir := t.TempDir()
		result, err := ValidateFilePath(filepath.Join(dir, "sub", "..", "export.json"))
		require.NoError(t, err)
		assert.NotContains(t, result, "..")
	})

	t.Run("resolves symlinks", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "real.json")
		require.NoError(t, os.WriteFile(target, []byte("{}"), 0o600))
		link := filepath.Join(dir, "link.json")
		require.NoError(t, os.Symlink(target, link))

		result, err := ValidateFilePath(link)
		require.NoError(t, err)
		expected, _ := filepath.EvalSymlinks(target)
		assert.Equal(t, expected, result)
	})
}

func TestSafeWriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json")

	require.NoError(t, SafeWriteFile(path, []byte(`{"habits":[]}`)))
	data, err := SafeReadFile(path)

	require.NoError(t, err)
	assert.Equal(t, `{"habits":[]}`, string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSafeReadFile_Missing(t *testing.T) {
	_, err := SafeReadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
