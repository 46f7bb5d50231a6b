// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	DefaultKeyringService = "idpctl"
	DefaultKeyringUser    = "pending-auth"
)

// KeyringStore keeps the pending record in the OS keychain under a single
// service/user entry, using the same line format as FileStore.
type KeyringStore struct {
	Service string
	User    string
}

func NewKeyringStore() *KeyringStore {
	return &KeyringStore{Service: DefaultKeyringService, User: DefaultKeyringUser}
}

func (s *KeyringStore) Write(p PendingAuth) error {
	line, err := encodePending(p)
	if err != nil {
		return err
	}
	if err := keyring.Set(s.Service, s.User, line); err != nil {
		return fmt.Errorf("failed to store pending authorization in keychain: %w", err)
	}
	return nil
}

func (s *KeyringStore) ReadAndDelete() (PendingAuth, error) {
	content, err := keyring.Get(s.Service, s.User)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return PendingAuth{}, ErrPendingNotFound
		}
		return PendingAuth{}, fmt.Errorf("failed to read pending authorization from keychain: %w", err)
	}
	if err := keyring.Delete(s.Service, s.User); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return PendingAuth{}, fmt.Errorf("failed to delete pending authorization from keychain: %w", err)
	}
	return decodePending(content)
}
