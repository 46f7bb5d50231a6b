// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrClientIDRequired is returned when a flow that needs a client id has none.
	ErrClientIDRequired = errors.New("client id is required unless a redirect URL is given")
	// ErrPendingNotFound is returned when no pending authorization record exists.
	ErrPendingNotFound = errors.New("no pending authorization found; run 'idpctl auth' first")
)

// InvalidRedirectError means the redirect URL does not use the expected scheme and host.
type InvalidRedirectError struct {
	URL      string
	Expected string
}

func (e *InvalidRedirectError) Error() string {
	return fmt.Sprintf("invalid redirect URL %q: expected prefix %q", e.URL, e.Expected)
}

// MissingParameterError means a required query parameter is absent from the redirect.
type MissingParameterError struct {
	Param string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("redirect URL is missing the %q parameter", e.Param)
}

// AuthorizationDeniedError carries an error the provider reported in the redirect.
type AuthorizationDeniedError struct {
	Code        string
	Description string
}

func (e *AuthorizationDeniedError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("authorization failed: %s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("authorization failed: %s", e.Code)
}

// PendingParseError means the pending record did not hold exactly three fields.
type PendingParseError struct {
	Fields int
}

func (e *PendingParseError) Error() string {
	return fmt.Sprintf("malformed pending authorization record: expected 3 fields, got %d", e.Fields)
}

// StateMismatchError is the CSRF check failure. Both values are kept for reporting.
type StateMismatchError struct {
	Expected string
	Received string
}

func (e *StateMismatchError) Error() string {
	return fmt.Sprintf("state mismatch: expected %q, received %q; restart with 'idpctl auth'", e.Expected, e.Received)
}

// HTTPError is returned when the token endpoint answers with a non-2xx status.
type HTTPError struct {
	StatusCode  int
	Code        string
	Description string
	Body        string
}

func (e *HTTPError) Error() string {
	msg := e.Code
	if e.Description != "" {
		if msg != "" {
			msg += ": "
		}
		msg += e.Description
	}
	if msg == "" {
		msg = strings.TrimSpace(e.Body)
	}
	if msg == "" {
		return fmt.Sprintf("token request failed (%d)", e.StatusCode)
	}
	return fmt.Sprintf("token request failed (%d): %s", e.StatusCode, msg)
}

// DecodeError is returned when a successful token response cannot be used.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to decode token response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("failed to decode token response: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
