// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

// Package auth implements the authorization-code-with-PKCE flow for the idpctl
// CLI. The flow is split across two invocations: the first generates PKCE
// material, persists it in a single-slot PendingStore and prints the authorize
// URL; the second consumes the redirect, validates the state and exchanges the
// code at the token endpoint. Refresh-token exchange needs no stored state.
package auth
