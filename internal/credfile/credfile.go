// Package credfile handles reading and writing the persisted credential
// slot. The slot stores the bearer token issued at login alongside cached
// identity metadata (username, email). It is a single last-writer-wins file:
// login overwrites it, logout removes it, and the session store reads it
// once at process start.
package credfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FilePerms restricts credential files to owner-only read/write.
const FilePerms = 0o600

// DirPerms is used when creating the credentials directory.
const DirPerms = 0o700

// File is the on-disk format for the credential slot.
type File struct {
	Token string            `json:"token"`
	Meta  map[string]string `json:"meta,omitempty"`
}

// Load reads the credential slot from disk. Returns the bearer token and any
// cached metadata. Returns ("", nil, nil) if the file does not exist; the
// logged-out state, not an error.
func Load(path string) (string, map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil, nil
	}

	if err != nil {
		return "", nil, fmt.Errorf("credfile: reading %s: %w", path, err)
	}

	var cf File
	if err := json.Unmarshal(data, &cf); err != nil {
		return "", nil, fmt.Errorf("credfile: decoding %s: %w", path, err)
	}

	if cf.Token == "" {
		return "", nil, fmt.Errorf("credfile: %s missing token field (re-login required)", path)
	}

	return cf.Token, cf.Meta, nil
}

// Save writes the credential slot atomically (write-to-temp + rename) with
// 0600 permissions. Never logs the token value.
func Save(path, token string, meta map[string]string) error {
	cf := File{Token: token, Meta: meta}

	data, err := json.MarshalIndent(cf, "", "  ")
	if err != nil {
		return fmt.Errorf("credfile: encoding: %w", err)
	}

	dir := filepath.Dir(path)
	if mkErr := os.MkdirAll(dir, DirPerms); mkErr != nil {
		return fmt.Errorf("credfile: creating directory %s: %w", dir, mkErr)
	}

	// Atomic write: temp file in the same directory, then rename.
	// Same directory guarantees same filesystem for rename(2).
	tmp, err := os.CreateTemp(dir, ".cred-*.tmp")
	if err != nil {
		return fmt.Errorf("credfile: creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	// Clean up temp file on any error path.
	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := os.Chmod(tmpPath, FilePerms); err != nil {
		tmp.Close()
		return fmt.Errorf("credfile: setting permissions: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("credfile: writing: %w", err)
	}

	// Flush to stable storage before rename so a power loss between close and
	// rename cannot leave an empty or partial credential file at the final path.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("credfile: syncing: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("credfile: closing: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("credfile: renaming: %w", err)
	}

	success = true

	return nil
}

// Remove deletes the credential slot. Returns nil if the file does not
// exist, so logout stays idempotent.
func Remove(path string) error {
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("credfile: removing %s: %w", path, err)
	}

	return nil
}
