// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package runstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stageRecord struct {
	URI  string `json:"uri"`
	Rows int    `json:"rows"`
}

// TestPutGetStage verifies the basic record/restore cycle.
func TestPutGetStage(t *testing.T) {
	store, err := Open(InMemoryConfig())
	require.NoError(t, err)
	defer store.Close()

	in := stageRecord{URI: "gs://bucket/input.csv", Rows: 1600}
	require.NoError(t, store.PutStage("run-1", "dataset:balanced", in))

	var out stageRecord
	ok, err := store.GetStage("run-1", "dataset:balanced", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in, out)
}

// TestGetStage_Missing returns false, not an error, for unknown stages.
func TestGetStage_Missing(t *testing.T) {
	store, err := Open(InMemoryConfig())
	require.NoError(t, err)
	defer store.Close()

	var out stageRecord
	ok, err := store.GetStage("run-1", "nope", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestDeleteRun removes every stage of one run and nothing else.
func TestDeleteRun(t *testing.T) {
	store, err := Open(InMemoryConfig())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.PutStage("run-1", "train:baseline", stageRecord{URI: "a"}))
	require.NoError(t, store.PutStage("run-1", "train:balanced", stageRecord{URI: "b"}))
	require.NoError(t, store.PutStage("run-2", "train:baseline", stageRecord{URI: "c"}))

	require.NoError(t, store.DeleteRun("run-1"))

	var out stageRecord
	ok, err := store.GetStage("run-1", "train:baseline", &out)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.GetStage("run-2", "train:baseline", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "c", out.URI)
}

// TestPersistence verifies records survive a close/reopen cycle on disk.
func TestPersistence(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(DefaultConfig(dir))
	require.NoError(t, err)
	require.NoError(t, store.PutStage("run-1", "train:baseline", stageRecord{URI: "persisted"}))
	require.NoError(t, store.Close())

	reopened, err := Open(DefaultConfig(dir))
	require.NoError(t, err)
	defer reopened.Close()

	var out stageRecord
	ok, err := reopened.GetStage("run-1", "train:baseline", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "persisted", out.URI)
}

// TestOpen_RequiresPath rejects a persistent store without a path.
func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Config{})
	require.Error(t, err)
}
