// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

// Package cmd implements the cobra command tree for the idpctl CLI: the
// two-step PKCE authorization and token refresh, configuration management,
// version output and shell completion.
package cmd
