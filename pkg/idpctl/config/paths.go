// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
)

const (
	appDirName         = "idpctl"
	defaultConfigFile  = "config.yaml"
	defaultPendingFile = "pending-auth"
)

func DefaultConfigPath() string {
	if env := os.Getenv("IDPCTL_CONFIG"); env != "" {
		return env
	}
	base, err := os.UserConfigDir()
	if err == nil {
		return filepath.Join(base, appDirName, defaultConfigFile)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".idpctl", defaultConfigFile)
}

// CacheDir follows the XDG base directory convention: $XDG_CACHE_HOME when it
// is an absolute path, $HOME/.cache otherwise.
func CacheDir() string {
	if env := os.Getenv("XDG_CACHE_HOME"); env != "" && filepath.IsAbs(env) {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache")
}

// DefaultPendingAuthPath is where the file store keeps the in-flight authorization.
func DefaultPendingAuthPath() string {
	return filepath.Join(CacheDir(), appDirName, defaultPendingFile)
}
