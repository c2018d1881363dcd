package credentials

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKeychain emulates the security tool for a single generic password
type fakeKeychain struct {
	password string
	exists   bool
	calls    [][]string
}

func (f *fakeKeychain) run(args ...string) ([]byte, error) {
	f.calls = append(f.calls, args)
	switch args[0] {
	case "find-generic-password":
		if !f.exists {
			return nil, errors.New("exit status 44")
		}
		return []byte(f.password + "\n"), nil
	case "add-generic-password":
		for i, a := range args {
			if a == "-w" && i+1 < len(args) {
				f.password = args[i+1]
				f.exists = true
			}
		}
		return nil, nil
	}
	return nil, errors.New("unexpected command")
}

func TestKeychainStore(t *testing.T) {
	fake := &fakeKeychain{}
	store := NewKeychainStoreWithRunner(fake.run, nil)

	access, refresh, err := ReadPair(store)
	require.NoError(t, err)
	assert.Empty(t, access)
	assert.Empty(t, refresh)

	require.NoError(t, WritePair(store, "a1", "r1"))
	assert.JSONEq(t, `{"access_token":"a1","refresh_token":"r1"}`, fake.password)

	access, refresh, err = ReadPair(store)
	require.NoError(t, err)
	assert.Equal(t, "a1", access)
	assert.Equal(t, "r1", refresh)

	require.NoError(t, ClearPair(store))
	assert.JSONEq(t, `{}`, fake.password)
}

func TestKeychainStoreUsesServiceName(t *testing.T) {
	fake := &fakeKeychain{}
	store := NewKeychainStoreWithRunner(fake.run, nil)

	require.NoError(t, store.Set(AccessTokenKey, "a1"))
	require.NotEmpty(t, fake.calls)
	assert.Equal(t, []string{"find-generic-password", "-s", keychainService, "-w"}, fake.calls[0])
	assert.Contains(t, fake.calls[len(fake.calls)-1], "-U")
}

func TestKeychainStoreCorruptItem(t *testing.T) {
	fake := &fakeKeychain{password: "{broken", exists: true}
	store := NewKeychainStoreWithRunner(fake.run, nil)

	_, err := store.Get(AccessTokenKey)
	assert.Error(t, err)
}
