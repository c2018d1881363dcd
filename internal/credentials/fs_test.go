package credentials

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStoreMissingFileIsEmpty(t *testing.T) {
	store := NewFSStore(filepath.Join(t.TempDir(), "session.json"))

	access, refresh, err := ReadPair(store)
	require.NoError(t, err)
	assert.Empty(t, access)
	assert.Empty(t, refresh)
}

func TestFSStoreSetPair(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFSStore(path)

	require.NoError(t, WritePair(store, "test-access-token", "test-refresh-token"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), dirInfo.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var s fsSession
	require.NoError(t, json.Unmarshal(data, &s))
	assert.Equal(t, "test-access-token", s.Tokens[AccessTokenKey])
	assert.Equal(t, "test-refresh-token", s.Tokens[RefreshTokenKey])
}

func TestFSStorePreservesOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tokens":{"id_token":"keep-me"}}`), 0600))

	store := NewFSStore(path)
	require.NoError(t, store.SetPair("a1", "r1"))
	require.NoError(t, store.ClearPair())

	idToken, err := store.Get("id_token")
	require.NoError(t, err)
	assert.Equal(t, "keep-me", idToken)

	access, err := store.Get(AccessTokenKey)
	require.NoError(t, err)
	assert.Empty(t, access)
}

func TestFSStoreSingleKeyOperations(t *testing.T) {
	store := NewFSStore(filepath.Join(t.TempDir(), "session.json"))

	require.NoError(t, store.Set(AccessTokenKey, "a1"))
	value, err := store.Get(AccessTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "a1", value)

	require.NoError(t, store.Remove(AccessTokenKey))
	value, err = store.Get(AccessTokenKey)
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestFSStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	_, err := NewFSStore(path).Get(AccessTokenKey)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse session file")
}
