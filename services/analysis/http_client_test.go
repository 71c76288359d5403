// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*HTTPClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(server.URL, nil)
	require.NoError(t, err)
	client.pollInterval = 5 * time.Millisecond
	return client, server
}

// TestSubmitTraining_Completes drives the submit-then-poll cycle: one
// InProgress poll followed by completion.
func TestSubmitTraining_Completes(t *testing.T) {
	var polls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/training-jobs", func(w http.ResponseWriter, r *http.Request) {
		var spec TrainingSpec
		require.NoError(t, json.NewDecoder(r.Body).Decode(&spec))
		assert.Equal(t, "fraud-baseline", spec.JobName)
		json.NewEncoder(w).Encode(submitResponse{JobID: "job-123"})
	})
	mux.HandleFunc("/v1/training-jobs/job-123", func(w http.ResponseWriter, r *http.Request) {
		status := jobStatusResponse{JobID: "job-123", Status: "InProgress"}
		if polls.Add(1) > 1 {
			status.Status = jobStatusCompleted
			status.ModelURI = "gs://models/job-123/model.tar.gz"
		}
		json.NewEncoder(w).Encode(status)
	})

	client, _ := newTestClient(t, mux)
	handle, err := client.SubmitTraining(context.Background(), TrainingSpec{
		JobName:    "fraud-baseline",
		DatasetURI: "gs://data/input.csv",
	})
	require.NoError(t, err)
	assert.Equal(t, "job-123", handle.JobID)
	assert.Equal(t, "gs://models/job-123/model.tar.gz", handle.ModelURI)
	assert.GreaterOrEqual(t, polls.Load(), int32(2))
}

// TestSubmitTraining_Failed surfaces the service's failure reason.
func TestSubmitTraining_Failed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/training-jobs", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(submitResponse{JobID: "job-9"})
	})
	mux.HandleFunc("/v1/training-jobs/job-9", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(jobStatusResponse{
			JobID:         "job-9",
			Status:        jobStatusFailed,
			FailureReason: "AlgorithmError: label column contains NaN",
		})
	})

	client, _ := newTestClient(t, mux)
	_, err := client.SubmitTraining(context.Background(), TrainingSpec{JobName: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AlgorithmError")
}

// TestSubmitTraining_RejectedSubmission surfaces non-2xx submit responses.
func TestSubmitTraining_RejectedSubmission(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/training-jobs", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"dataset_uri is required"}`, http.StatusBadRequest)
	})

	client, _ := newTestClient(t, mux)
	_, err := client.SubmitTraining(context.Background(), TrainingSpec{JobName: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

// TestSubmitBiasAnalysis_ReturnsReport verifies the report embedded in the
// terminal job status is parsed.
func TestSubmitBiasAnalysis_ReturnsReport(t *testing.T) {
	reportJSON := `{"pre_training_bias_metrics":{"facets":{"gender":[{"value_or_threshold":"0","metrics":[{"name":"CI","value":0.254}]}]}}}`
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/bias-jobs", func(w http.ResponseWriter, r *http.Request) {
		var spec BiasSpec
		require.NoError(t, json.NewDecoder(r.Body).Decode(&spec))
		assert.Equal(t, "gender", spec.Facet.Name)
		json.NewEncoder(w).Encode(submitResponse{JobID: "bias-1"})
	})
	mux.HandleFunc("/v1/bias-jobs/bias-1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(jobStatusResponse{
			JobID:  "bias-1",
			Status: jobStatusCompleted,
			Report: json.RawMessage(reportJSON),
		})
	})

	client, _ := newTestClient(t, mux)
	report, err := client.SubmitBiasAnalysis(context.Background(), BiasSpec{
		JobName: "bias", Facet: FacetConfig{Name: "gender"},
	})
	require.NoError(t, err)
	require.NotNil(t, report.PreTrainingBiasMetrics)
	groups := report.PreTrainingBiasMetrics.Facets["gender"]
	require.Len(t, groups, 1)
}

// TestWaitForJob_ContextCancelled verifies the poll loop gives up when the
// caller's context expires.
func TestWaitForJob_ContextCancelled(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/training-jobs", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(submitResponse{JobID: "slow"})
	})
	mux.HandleFunc("/v1/training-jobs/slow", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(jobStatusResponse{JobID: "slow", Status: "InProgress"})
	})

	client, _ := newTestClient(t, mux)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := client.SubmitTraining(ctx, TrainingSpec{JobName: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// TestNewHTTPClient_EmptyURL rejects a missing base URL.
func TestNewHTTPClient_EmptyURL(t *testing.T) {
	_, err := NewHTTPClient("", nil)
	require.Error(t, err)
}
