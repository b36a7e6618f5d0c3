package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "firefly/cli/internal/errors"
	"firefly/cli/internal/keychain"
)

func aboutServer(t *testing.T, user, pass string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name": "hsds", "state": "READY", "hsds_version": "0.8", "username": u,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newKeychain() *keychain.Manager {
	return keychain.NewManagerWithRing(keyring.NewArrayKeyring(nil))
}

func TestLoginStoresVerifiedCredentials(t *testing.T) {
	srv := aboutServer(t, "alice", "pw")
	km := newKeychain()
	svc := NewService(srv.URL, km, nil)

	info, err := svc.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "READY", info.State)

	st, err := Load(km)
	require.NoError(t, err)
	assert.True(t, st.LoggedIn)
	assert.Equal(t, "alice", st.Account)

	who, ok, err := svc.WhoAmI(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "alice", who)
	assert.Len(t, svc.ClientOptions(), 1)
}

func TestLoginRejectedIsNotStored(t *testing.T) {
	srv := aboutServer(t, "alice", "pw")
	km := newKeychain()
	svc := NewService(srv.URL, km, nil)

	_, err := svc.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.Unauthorized))

	ok, err := IsLoggedIn(context.Background(), km)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, svc.ClientOptions())
}

func TestWhoAmIWithoutCredentials(t *testing.T) {
	svc := NewService("http://127.0.0.1:1", newKeychain(), nil)
	who, ok, err := svc.WhoAmI(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, who)
}

func TestWhoAmIOfflineFallsBackToStoredAccount(t *testing.T) {
	km := newKeychain()
	require.NoError(t, km.SaveCredentials("bob", "pw"))

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	who, ok, err := NewService(url, km, nil).WhoAmI(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bob", who)
}

func TestLogoutClears(t *testing.T) {
	km := newKeychain()
	require.NoError(t, km.SaveCredentials("bob", "pw"))
	svc := NewService("http://unused", km, nil)

	require.NoError(t, svc.Logout(context.Background()))
	ok, err := IsLoggedIn(context.Background(), km)
	require.NoError(t, err)
	assert.False(t, ok)
}
