package auth

import (
	"context"
	"errors"

	"firefly/cli/internal/keychain"
)

// State represents the locally stored login of the current user.
type State struct {
	LoggedIn bool
	Account  string

	password string
}

// Load reads the stored credentials. Missing credentials yield the zero value.
func Load(km *keychain.Manager) (State, error) {
	user, pass, err := km.LoadCredentials()
	if errors.Is(err, keychain.ErrNotFound) {
		return State{}, nil
	}
	if err != nil {
		return State{}, err
	}
	return State{LoggedIn: user != "", Account: user, password: pass}, nil
}

// Clear removes the stored credentials.
func Clear(km *keychain.Manager) error {
	return km.ClearCredentials()
}

// IsLoggedIn reports whether credentials are stored.
func IsLoggedIn(ctx context.Context, km *keychain.Manager) (bool, error) {
	st, err := Load(km)
	if err != nil {
		return false, err
	}
	return st.LoggedIn, nil
}
