// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore is a BlobStore backed by a Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	Bucket string
	Prefix string
}

// NewGCSStore creates a GCS-backed blob store. An empty saKeyPath falls
// back to ambient application-default credentials. Prefix is prepended to
// every remote path, matching the bucket/prefix layout the analysis
// services expect.
func NewGCSStore(ctx context.Context, bucket, prefix, saKeyPath string) (*GCSStore, error) {
	var opts []option.ClientOption
	if saKeyPath != "" {
		if _, err := os.Stat(saKeyPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("service account key not found at path: %s. Please ensure you have the correct key and it is accessible", saKeyPath)
		}
		opts = append(opts, option.WithCredentialsFile(saKeyPath))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}

	return &GCSStore{client: client, Bucket: bucket, Prefix: prefix}, nil
}

// Upload copies a local file to the bucket and returns its gs:// URI.
func (s *GCSStore) Upload(ctx context.Context, localPath, remotePath string) (string, error) {
	localFile, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open the local file %s: %w", localPath, err)
	}
	defer localFile.Close()

	key := path.Join(s.Prefix, remotePath)
	obj := s.client.Bucket(s.Bucket).Object(key)
	writer := obj.NewWriter(ctx)
	writer.ContentType = "application/octet-stream"
	writer.CacheControl = "no-cache, no-store, must-revalidate"

	if _, err := io.Copy(writer, localFile); err != nil {
		return "", fmt.Errorf("failed to copy local file %s to GCS object %s: %w", localPath, key, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer for %s: %w", key, err)
	}
	return fmt.Sprintf("gs://%s/%s", s.Bucket, key), nil
}

// Download copies an object from the bucket to a local file.
func (s *GCSStore) Download(ctx context.Context, remotePath, localPath string) error {
	key := path.Join(s.Prefix, remotePath)
	reader, err := s.client.Bucket(s.Bucket).Object(key).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("failed to open GCS object %s: %w", key, err)
	}
	defer reader.Close()

	localFile, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file %s: %w", localPath, err)
	}
	defer localFile.Close()

	if _, err := io.Copy(localFile, reader); err != nil {
		return fmt.Errorf("failed to download GCS object %s to %s: %w", key, localPath, err)
	}
	return localFile.Close()
}

// Close releases the underlying GCS client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
