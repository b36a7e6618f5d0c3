package keychain

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManagerWithRing(keyring.NewArrayKeyring(nil))
}

func TestCredentialsRoundTrip(t *testing.T) {
	m := newTestManager()

	_, _, err := m.LoadCredentials()
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, m.SaveCredentials("alice", "s3cret"))
	user, pass, err := m.LoadCredentials()
	require.NoError(t, err)
	assert.Equal(t, "alice", user)
	assert.Equal(t, "s3cret", pass)

	require.NoError(t, m.ClearCredentials())
	_, _, err = m.LoadCredentials()
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestExportDSN(t *testing.T) {
	m := newTestManager()

	require.NoError(t, m.SaveExportDSN("postgres://u:p@localhost/db"))
	dsn, err := m.LoadExportDSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@localhost/db", dsn)

	require.NoError(t, m.ClearAll())
	_, err = m.LoadExportDSN()
	assert.Error(t, err)
}

func TestSetManagerOverridesGlobal(t *testing.T) {
	m := newTestManager()
	SetManager(m)
	t.Cleanup(func() { SetManager(nil) })

	got, err := GetManager()
	require.NoError(t, err)
	assert.Same(t, m, got)
}
