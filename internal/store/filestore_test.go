package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileKVPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	kv, err := NewFileKV(dir)
	require.NoError(t, err)

	s := NewFlagStore(kv)
	require.NoError(t, s.SetToken("tok-1"))
	require.NoError(t, s.SetLoggedIn(true))
	require.NoError(t, s.RecordDismissal(UsageDismissal("ws-1", "2026-09-01", 90)))

	reopened, err := NewFileKV(dir)
	require.NoError(t, err)

	s2 := NewFlagStore(reopened)
	assert.Equal(t, "tok-1", s2.Token())
	assert.True(t, s2.LoggedIn())
	assert.True(t, s2.Dismissed(UsageDismissal("ws-1", "2026-09-01", 90)))
}

func TestFileKVDeleteRemovesKeys(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	require.NoError(t, err)

	require.NoError(t, kv.Set("a", "1"))
	require.NoError(t, kv.Set("b", "2"))
	require.NoError(t, kv.Delete("a", "missing"))

	_, ok := kv.Get("a")
	assert.False(t, ok)
	v, ok := kv.Get("b")
	assert.True(t, ok)
	assert.Equal(t, "2", v)
}

func TestFileKVNoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	require.NoError(t, err)
	require.NoError(t, kv.Set("a", "1"))

	_, err = os.Stat(filepath.Join(dir, "access_state.json.tmp"))
	assert.True(t, os.IsNotExist(err), "temp file must be renamed away")
}

func TestFileKVRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "access_state.json"), []byte("{not json"), 0o600))

	_, err := NewFileKV(dir)
	assert.Error(t, err)
}

func TestFileKVReloadPicksUpExternalWrite(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	require.NoError(t, err)

	other, err := NewFileKV(dir)
	require.NoError(t, err)
	require.NoError(t, other.Set("auth_token", "external"))

	_, ok := kv.Get("auth_token")
	assert.False(t, ok, "stale view before reload")

	require.NoError(t, kv.Reload())
	v, ok := kv.Get("auth_token")
	assert.True(t, ok)
	assert.Equal(t, "external", v)
}

func TestFileKVRequiresDataDir(t *testing.T) {
	_, err := NewFileKV("")
	assert.Error(t, err)
}
