// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"strings"
)

// Initiate generates fresh PKCE material, persists it in store and returns the
// authorize URL. An earlier unconsumed record in store is replaced.
func Initiate(p Provider, store PendingStore, clientID string) (string, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return "", ErrClientIDRequired
	}
	pkce, err := GeneratePKCE()
	if err != nil {
		return "", err
	}
	if err := store.Write(PendingAuth{
		State:        pkce.State,
		CodeVerifier: pkce.CodeVerifier,
		ClientID:     clientID,
	}); err != nil {
		return "", err
	}
	return BuildAuthorizeURL(p, clientID, pkce.State, pkce.CodeChallenge), nil
}
