package memory

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Missing(t *testing.T) {
	dir := t.TempDir()

	store, err := Load(filepath.Join(dir, DefaultFileName))
	require.NoError(t, err)
	assert.Equal(t, "", store.CurrentContent())
	assert.False(t, store.Exists())
	assert.Equal(t, filepath.Join(dir, DefaultFileName), store.Path())
}

func TestLoad_ByteExact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)
	content := "# Project\r\n\n- build: `make`\n\ttabbed   \n✓ unicode\n\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	store, err := Load(path)
	require.NoError(t, err)
	assert.True(t, store.Exists())
	assert.Equal(t, content, store.CurrentContent())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)

	// A directory in place of the note is not treated as missing
	dir := t.TempDir()
	_, err = Load(dir)
	assert.Error(t, err)
}

func TestStore_Watch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	store, err := Load(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Watch(zerolog.Nop()))
	require.NoError(t, store.Watch(zerolog.Nop()))

	// Unrelated files in the same directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.md"), []byte("x"), 0o644))
	time.Sleep(300 * time.Millisecond)
	assert.False(t, store.Modified())

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))
	assert.Eventually(t, store.Modified, 2*time.Second, 20*time.Millisecond)

	// Loaded content is not refreshed
	assert.Equal(t, "v1", store.CurrentContent())
}

func TestStore_WatchCreated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)

	store, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, store.Watch(zerolog.Nop()))

	require.NoError(t, os.WriteFile(path, []byte("new note"), 0o644))
	assert.Eventually(t, store.Modified, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
