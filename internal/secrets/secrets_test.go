// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSecret(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadTrimsValues(t *testing.T) {
	dir := t.TempDir()
	writeSecret(t, dir, "groq-api-key", "  gsk_abc123  \n")
	writeSecret(t, dir, "openai-api-key", "sk_xyz789")

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"groq-api-key":   "gsk_abc123",
		"openai-api-key": "sk_xyz789",
	}, got)
}

func TestLoadMissingDirectoryIsEmpty(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "no-such-dir"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadIgnoresEmptyAndWhitespaceFiles(t *testing.T) {
	dir := t.TempDir()
	writeSecret(t, dir, "openai-api-key", "sk_real")
	writeSecret(t, dir, "blank", "")
	writeSecret(t, dir, "spaces", "  \n\t ")

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"openai-api-key": "sk_real"}, got)
}

func TestLoadIgnoresDotfilesAndSubdirs(t *testing.T) {
	dir := t.TempDir()
	writeSecret(t, dir, ".gitkeep", "")
	writeSecret(t, dir, ".hidden", "nope")
	writeSecret(t, dir, "groq-api-key", "gsk_real")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"groq-api-key": "gsk_real"}, got)
}

func TestLoadSkipsUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	writeSecret(t, dir, "groq-api-key", "gsk_ok")

	locked := filepath.Join(dir, "openai-api-key")
	require.NoError(t, os.WriteFile(locked, []byte("sk_locked"), 0o000))
	t.Cleanup(func() { os.Chmod(locked, 0o644) })

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "gsk_ok", got["groq-api-key"])
	assert.NotContains(t, got, "openai-api-key")
}
