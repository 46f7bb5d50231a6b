// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// PendingAuth is the verification material that links an authorize request to
// its redirect. It lives between the initiating and the completing invocation.
type PendingAuth struct {
	State        string
	CodeVerifier string
	ClientID     string
}

// PendingStore is a single-slot store for the in-flight authorization.
// Write replaces any earlier record, even one that was never consumed.
// ReadAndDelete removes the record once it has been read, whether or not it parses.
type PendingStore interface {
	Write(PendingAuth) error
	ReadAndDelete() (PendingAuth, error)
}

// FileStore keeps the pending record in a single file.
type FileStore struct {
	Path string
}

func (s *FileStore) Write(p PendingAuth) error {
	line, err := encodePending(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}
	if err := os.WriteFile(s.Path, []byte(line), 0o600); err != nil {
		return fmt.Errorf("failed to write pending authorization: %w", err)
	}
	return nil
}

func (s *FileStore) ReadAndDelete() (PendingAuth, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return PendingAuth{}, ErrPendingNotFound
		}
		return PendingAuth{}, fmt.Errorf("failed to open pending authorization: %w", err)
	}
	defer func() {
		_ = f.Close()
		_ = os.Remove(s.Path)
	}()
	content, err := io.ReadAll(f)
	if err != nil {
		return PendingAuth{}, fmt.Errorf("failed to read pending authorization: %w", err)
	}
	return decodePending(string(content))
}

func encodePending(p PendingAuth) (string, error) {
	fields := []struct{ name, value string }{
		{"state", p.State},
		{"code verifier", p.CodeVerifier},
		{"client id", p.ClientID},
	}
	for _, f := range fields {
		if f.value == "" {
			return "", fmt.Errorf("pending authorization %s is empty", f.name)
		}
		if strings.ContainsAny(f.value, " \t\r\n") {
			return "", fmt.Errorf("pending authorization %s must not contain whitespace", f.name)
		}
	}
	return p.State + " " + p.CodeVerifier + " " + p.ClientID, nil
}

func decodePending(content string) (PendingAuth, error) {
	fields := strings.Fields(content)
	if len(fields) != 3 {
		return PendingAuth{}, &PendingParseError{Fields: len(fields)}
	}
	return PendingAuth{State: fields[0], CodeVerifier: fields[1], ClientID: fields[2]}, nil
}
