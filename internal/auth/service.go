// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package auth provides authentication services for the firefly CLI.
// HSDS uses HTTP basic auth, so logging in means verifying a username and password
// against the server's /about endpoint and storing them in the OS keychain.
package auth

import (
	"context"
	"errors"
	"log/slog"

	ferrors "firefly/cli/internal/errors"
	"firefly/cli/internal/hsds"
	"firefly/cli/internal/keychain"
)

// Service centralizes authentication-related operations against the HSDS
// server and local secure storage.
type Service struct {
	endpoint string
	opts     []hsds.Option
	km       *keychain.Manager
	log      *slog.Logger
}

// NewService constructs an auth Service for the given endpoint. Extra options
// are applied to every verification client.
func NewService(endpoint string, km *keychain.Manager, log *slog.Logger, opts ...hsds.Option) *Service {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{endpoint: endpoint, opts: opts, km: km, log: log}
}

func (s *Service) client(username, password string) *hsds.Client {
	opts := append([]hsds.Option{}, s.opts...)
	if username != "" {
		opts = append(opts, hsds.WithCredentials(username, password))
	}
	return hsds.New(s.endpoint, opts...)
}

// Login verifies the credentials with the server and stores them on success.
// Credentials the server rejects are never written to the keychain.
func (s *Service) Login(ctx context.Context, username, password string) (hsds.ServerInfo, error) {
	if username == "" {
		return hsds.ServerInfo{}, errors.New("username is required")
	}
	info, err := s.client(username, password).About(ctx)
	if err != nil {
		return hsds.ServerInfo{}, err
	}
	// Servers without auth echo no username; unauthenticated access still works.
	if info.Username != "" && info.Username != username {
		s.log.Warn("server reports a different user", "login", username, "server", info.Username)
	}
	if err := s.km.SaveCredentials(username, password); err != nil {
		return hsds.ServerInfo{}, err
	}
	s.log.Debug("credentials stored", "user", username)
	return info, nil
}

// WhoAmI validates the stored credentials against the server and returns the
// account name. With no stored credentials it reports ("", false, nil).
// A network failure falls back to the stored username.
func (s *Service) WhoAmI(ctx context.Context) (string, bool, error) {
	st, err := Load(s.km)
	if err != nil {
		return "", false, err
	}
	if !st.LoggedIn {
		return "", false, nil
	}

	info, err := s.client(st.Account, st.password).About(ctx)
	switch {
	case err == nil:
		if info.Username != "" {
			return info.Username, true, nil
		}
		return st.Account, true, nil
	case ferrors.Is(err, ferrors.Unauthorized):
		return "", false, err
	case ferrors.Is(err, ferrors.NetworkFailure):
		s.log.Debug("offline, using stored account", "error", err)
		return st.Account, true, nil
	default:
		return "", false, err
	}
}

// Logout clears the stored credentials. HSDS keeps no server-side session.
func (s *Service) Logout(ctx context.Context) error {
	return Clear(s.km)
}

// ClientOptions returns the hsds options carrying the stored credentials, if any.
func (s *Service) ClientOptions() []hsds.Option {
	st, err := Load(s.km)
	if err != nil || !st.LoggedIn {
		return nil
	}
	return []hsds.Option{hsds.WithCredentials(st.Account, st.password)}
}
