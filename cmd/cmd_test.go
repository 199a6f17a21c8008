package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/RyanBlaney/tts-eval/pkg/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		outputFormat = "table"
		initManifest = false
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConfigInitManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")

	out, err := execute(t, "config", "init", "--manifest", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Example manifest written")
	assert.FileExists(t, path)

	// the example references files that do not exist yet
	_, err = execute(t, "config", "validate", path)
	assert.Error(t, err)
}

func TestInspectF0(t *testing.T) {
	path := filepath.Join(t.TempDir(), "0001.f0")
	require.NoError(t, params.WriteF0(path, []float64{0, 100, 200, 0}))

	out, err := execute(t, "inspect", "f0", path)
	require.NoError(t, err)
	assert.Contains(t, out, "F0 PARAMETER FILE")
	assert.Contains(t, out, "2 (50.0%)")
	assert.Contains(t, out, "150.0000 Hz")
}

func TestInspectRejectsUnknownKind(t *testing.T) {
	_, err := execute(t, "inspect", "mgc", "file.mgc")
	assert.Error(t, err)
}
