// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore is a BlobStore rooted at a local directory. It exists for
// tests and offline runs where no bucket is available.
type LocalStore struct {
	Root string
}

// NewLocalStore creates the root directory if needed and returns a store.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, fmt.Errorf("failed to create local store root %s: %w", root, err)
	}
	return &LocalStore{Root: root}, nil
}

// Upload copies the file into the store and returns a file:// URI.
func (s *LocalStore) Upload(ctx context.Context, localPath, remotePath string) (string, error) {
	dst := filepath.Join(s.Root, filepath.FromSlash(remotePath))
	if err := os.MkdirAll(filepath.Dir(dst), 0750); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", dst, err)
	}
	if err := copyFile(localPath, dst); err != nil {
		return "", err
	}
	return "file://" + dst, nil
}

// Download copies a stored file back out to localPath.
func (s *LocalStore) Download(ctx context.Context, remotePath, localPath string) error {
	src := filepath.Join(s.Root, filepath.FromSlash(remotePath))
	return copyFile(src, localPath)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}
