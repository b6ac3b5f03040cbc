package runlog

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	assert.Equal(t, "log.txt", FileName(""))
	assert.Equal(t, "log_ab12.txt", FileName("ab12"))
}

func TestNew_WritesConsoleAndFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	logger, closeLog, err := New(dir, "a", "ab12", &console)
	require.NoError(t, err)

	logger.Info("device selected", "device", "cpu")
	require.NoError(t, closeLog())

	fileData, err := os.ReadFile(filepath.Join(dir, "log_ab12.txt"))
	require.NoError(t, err)

	for _, out := range []string{console.String(), string(fileData)} {
		assert.Contains(t, out, "device selected")
		assert.Contains(t, out, "run_id=ab12")
		assert.Contains(t, out, "run=a")
	}
}

func TestNew_EmptyIDUsesPlainName(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	logger, closeLog, err := New(dir, "single", "", &console)
	require.NoError(t, err)
	logger.Info("hello")
	require.NoError(t, closeLog())

	_, err = os.Stat(filepath.Join(dir, "log.txt"))
	require.NoError(t, err)
	assert.NotContains(t, console.String(), "run_id")
}

func TestNew_MissingDirectoryFails(t *testing.T) {
	_, _, err := New(filepath.Join(t.TempDir(), "absent"), "a", "", nil)
	require.Error(t, err)
}
