// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/moose-in-australia/clarify-workshop/services/fairness"
)

// Job states reported by the managed service.
const (
	jobStatusCompleted = "Completed"
	jobStatusFailed    = "Failed"
	jobStatusStopped   = "Stopped"
)

// HTTPClient talks to the managed training and bias-analysis services over
// their JSON job API: POST a spec to get a job id, then poll the job until
// it reaches a terminal state.
//
// There is no timeout beyond the caller's context and no retry policy;
// both belong to the service side (jobs either complete or the operator
// aborts the run).
type HTTPClient struct {
	httpClient   *http.Client
	baseURL      string
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewHTTPClient creates a client for the managed service at baseURL.
func NewHTTPClient(baseURL string, logger *slog.Logger) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("service base URL must not be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPClient{
		// No client-side timeout: jobs run for minutes and the poll
		// loop is bounded by the caller's context.
		httpClient:   &http.Client{},
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		pollInterval: 15 * time.Second,
		logger:       logger,
	}, nil
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

type jobStatusResponse struct {
	JobID         string          `json:"job_id"`
	Status        string          `json:"status"`
	FailureReason string          `json:"failure_reason,omitempty"`
	ModelURI      string          `json:"model_uri,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	Report        json.RawMessage `json:"report,omitempty"`
}

// SubmitTraining implements TrainingClient.
func (c *HTTPClient) SubmitTraining(ctx context.Context, spec TrainingSpec) (ModelHandle, error) {
	c.logger.Info("submitting training job",
		"job_name", spec.JobName, "dataset_uri", spec.DatasetURI)

	jobID, err := c.submit(ctx, "/v1/training-jobs", spec)
	if err != nil {
		return ModelHandle{}, err
	}

	status, err := c.waitForJob(ctx, "/v1/training-jobs/", jobID)
	if err != nil {
		return ModelHandle{}, err
	}
	if status.ModelURI == "" {
		return ModelHandle{}, fmt.Errorf("training job %s completed without a model URI", jobID)
	}
	return ModelHandle{
		JobID:     jobID,
		ModelURI:  status.ModelURI,
		CreatedAt: status.CreatedAt,
	}, nil
}

// SubmitBiasAnalysis implements BiasClient.
func (c *HTTPClient) SubmitBiasAnalysis(ctx context.Context, spec BiasSpec) (*fairness.Report, error) {
	c.logger.Info("submitting bias analysis job",
		"job_name", spec.JobName, "facet", spec.Facet.Name, "with_model", spec.Model != nil)

	jobID, err := c.submit(ctx, "/v1/bias-jobs", spec)
	if err != nil {
		return nil, err
	}

	status, err := c.waitForJob(ctx, "/v1/bias-jobs/", jobID)
	if err != nil {
		return nil, err
	}
	if len(status.Report) == 0 {
		return nil, fmt.Errorf("bias job %s completed without a report", jobID)
	}
	return fairness.ParseReport(status.Report)
}

// submit POSTs a job spec and returns the assigned job id.
func (c *HTTPClient) submit(ctx context.Context, path string, spec any) (string, error) {
	body, err := json.Marshal(spec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job spec: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create job request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("job submission failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read submission response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("job submission returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var submitted submitResponse
	if err := json.Unmarshal(respBody, &submitted); err != nil {
		return "", fmt.Errorf("failed to parse submission response: %w", err)
	}
	if submitted.JobID == "" {
		return "", fmt.Errorf("service accepted the job but returned no job id")
	}
	return submitted.JobID, nil
}

// waitForJob polls the job until it reaches a terminal state or the
// context is cancelled.
func (c *HTTPClient) waitForJob(ctx context.Context, pathPrefix, jobID string) (*jobStatusResponse, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		status, err := c.jobStatus(ctx, pathPrefix+jobID)
		if err != nil {
			return nil, err
		}
		switch status.Status {
		case jobStatusCompleted:
			c.logger.Info("job completed", "job_id", jobID)
			return status, nil
		case jobStatusFailed, jobStatusStopped:
			return nil, fmt.Errorf("job %s finished with status %s: %s",
				jobID, status.Status, status.FailureReason)
		}

		c.logger.Debug("job still running", "job_id", jobID, "status", status.Status)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("gave up waiting for job %s: %w", jobID, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *HTTPClient) jobStatus(ctx context.Context, path string) (*jobStatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create status request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("status poll failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read status response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status poll returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var status jobStatusResponse
	if err := json.Unmarshal(respBody, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status response: %w", err)
	}
	return &status, nil
}

var (
	_ TrainingClient = (*HTTPClient)(nil)
	_ BiasClient     = (*HTTPClient)(nil)
)
