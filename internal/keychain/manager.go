// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain provides centralized, thread-safe keychain operations for firefly.
// It stores the HSDS credentials and the inventory export DSN in the OS credential
// store so they never land in the config file.
//
// macOS Keychain, Windows Credential Manager and the Linux Secret Service (with
// KWallet and pass as fallbacks) are supported. There is no file fallback.
package keychain

import (
	"errors"
	"runtime"
	"sync"

	"github.com/99designs/keyring"
)

// Global keychain manager instance
var (
	globalManager *Manager
	globalError   error
	mu            sync.Mutex
)

// ErrNotFound is returned when a requested secret is not stored.
var ErrNotFound = keyring.ErrKeyNotFound

// Manager provides centralized, thread-safe operations for the OS keychain.
type Manager struct {
	mu   sync.RWMutex
	ring keyring.Keyring
}

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "firefly"

// Keys used for storing secrets in the OS keychain.
const (
	KeyUsername  = "hsds_username"
	KeyPassword  = "hsds_password"
	KeyExportDSN = "export_dsn"
)

// NewManager creates a new keychain manager with the OS keyring initialized.
func NewManager() (*Manager, error) {
	ring, err := openRing()
	if err != nil {
		return nil, err
	}
	return NewManagerWithRing(ring), nil
}

// NewManagerWithRing wraps an already opened keyring.
func NewManagerWithRing(ring keyring.Keyring) *Manager {
	return &Manager{ring: ring}
}

// GetManager returns the global keychain manager instance.
// If not initialized, it will be created on first call.
// If initialization fails, it will retry on subsequent calls.
func GetManager() (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalManager != nil {
		return globalManager, nil
	}

	globalManager, globalError = NewManager()
	if globalError != nil {
		return nil, globalError
	}
	return globalManager, nil
}

// SetManager replaces the global manager. Passing nil resets it so the next
// GetManager call opens the OS keyring again.
func SetManager(m *Manager) {
	mu.Lock()
	defer mu.Unlock()
	globalManager, globalError = m, nil
}

// openRing opens the OS keyring using native platform backends only.
func openRing() (keyring.Keyring, error) {
	var allowedBackends []keyring.BackendType
	switch runtime.GOOS {
	case "darwin":
		allowedBackends = []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.PassBackend,
		}
	case "windows":
		allowedBackends = []keyring.BackendType{keyring.WinCredBackend}
	case "linux", "freebsd", "openbsd":
		allowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.PassBackend,
		}
	default:
		return nil, errors.New("secure storage not supported on this OS")
	}

	return keyring.Open(keyring.Config{
		ServiceName:                    ServiceName,
		AllowedBackends:                allowedBackends,
		KeychainTrustApplication:       true,
		KeychainSynchronizable:         false,
		KeychainAccessibleWhenUnlocked: true,
		LibSecretCollectionName:        "login",
		KWalletAppID:                   ServiceName,
		KWalletFolder:                  ServiceName,
		WinCredPrefix:                  ServiceName,
		PassPrefix:                     ServiceName,
	})
}

func (m *Manager) get(key string) (string, error) {
	it, err := m.ring.Get(key)
	if err != nil {
		return "", err
	}
	return string(it.Data), nil
}

// SaveCredentials stores the HSDS username and password.
// This method is thread-safe.
func (m *Manager) SaveCredentials(username, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ring.Set(keyring.Item{Key: KeyUsername, Data: []byte(username), Label: "firefly HSDS username"}); err != nil {
		return err
	}
	return m.ring.Set(keyring.Item{Key: KeyPassword, Data: []byte(password), Label: "firefly HSDS password"})
}

// LoadCredentials retrieves the HSDS username and password. A missing username
// yields ErrNotFound; a missing password is returned as empty.
// This method is thread-safe.
func (m *Manager) LoadCredentials() (username, password string, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	username, err = m.get(KeyUsername)
	if err != nil {
		return "", "", err
	}
	password, err = m.get(KeyPassword)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return "", "", err
	}
	return username, password, nil
}

// ClearCredentials removes the HSDS credentials from the keychain.
// This method is thread-safe.
func (m *Manager) ClearCredentials() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_ = m.ring.Remove(KeyUsername)
	_ = m.ring.Remove(KeyPassword)
	return nil
}

// SaveExportDSN stores the PostgreSQL DSN used by the inventory export.
// This method is thread-safe.
func (m *Manager) SaveExportDSN(dsn string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.ring.Set(keyring.Item{Key: KeyExportDSN, Data: []byte(dsn), Label: "firefly export DSN"})
}

// LoadExportDSN retrieves the export DSN from the keychain.
// This method is thread-safe.
func (m *Manager) LoadExportDSN() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.get(KeyExportDSN)
}

// ClearExportDSN removes the export DSN from the keychain.
func (m *Manager) ClearExportDSN() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_ = m.ring.Remove(KeyExportDSN)
	return nil
}

// ClearAll removes all secrets from the keychain.
// This method is thread-safe and should be used with caution.
func (m *Manager) ClearAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_ = m.ring.Remove(KeyUsername)
	_ = m.ring.Remove(KeyPassword)
	_ = m.ring.Remove(KeyExportDSN)
	return nil
}
