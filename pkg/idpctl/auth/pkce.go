// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/oauth2"
)

const (
	stateBytes    = 8
	verifierBytes = 48
)

// PKCEParams holds the values generated for a single authorization attempt.
type PKCEParams struct {
	State         string
	CodeVerifier  string
	CodeChallenge string
}

// GeneratePKCE returns a fresh hex state nonce, a base64url code verifier and
// its S256 challenge.
func GeneratePKCE() (*PKCEParams, error) {
	state, err := randomBytes(stateBytes)
	if err != nil {
		return nil, err
	}
	verifier, err := randomBytes(verifierBytes)
	if err != nil {
		return nil, err
	}
	codeVerifier := base64.RawURLEncoding.EncodeToString(verifier)
	return &PKCEParams{
		State:         hex.EncodeToString(state),
		CodeVerifier:  codeVerifier,
		CodeChallenge: CodeChallenge(codeVerifier),
	}, nil
}

// CodeChallenge derives the S256 challenge: base64url(sha256(verifier)) without padding.
func CodeChallenge(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}
