// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"github.com/golang-jwt/jwt/v4"
)

// IdentityFromIDToken returns the email, preferred username or subject of an
// ID token for display. The signature is not verified.
func IdentityFromIDToken(idToken string) string {
	if idToken == "" {
		return ""
	}
	parser := jwt.Parser{}
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(idToken, claims); err != nil {
		return ""
	}
	for _, key := range []string{"email", "preferred_username", "sub"} {
		if value, ok := claims[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}
