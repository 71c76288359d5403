// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package storage moves dataset files and bias reports between the local
// filesystem and a blob store. The external training and analysis services
// only read from blob storage, so every workflow stage that produces a file
// uploads it first.
package storage

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BlobStore uploads and downloads single objects.
//
// Upload returns the URI the object is reachable at (e.g. gs://bucket/key),
// which is what the external services expect in their job specs.
type BlobStore interface {
	Upload(ctx context.Context, localPath, remotePath string) (string, error)
	Download(ctx context.Context, remotePath, localPath string) error
}

// UploadAll uploads several files concurrently. files maps local path to
// remote path. Returns the remote URIs keyed by local path; on any failure
// the first error is returned and the result map is nil.
func UploadAll(ctx context.Context, store BlobStore, files map[string]string) (map[string]string, error) {
	uris := make(map[string]string, len(files))
	g, ctx := errgroup.WithContext(ctx)

	type result struct {
		local, uri string
	}
	results := make(chan result, len(files))
	for local, remote := range files {
		local, remote := local, remote
		g.Go(func() error {
			uri, err := store.Upload(ctx, local, remote)
			if err != nil {
				return err
			}
			results <- result{local: local, uri: uri}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(results)
	for r := range results {
		uris[r.local] = r.uri
	}
	return uris, nil
}
