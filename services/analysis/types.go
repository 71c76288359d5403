// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package analysis drives the bias-analysis workflow against the external
// managed services.
//
// The training and bias-analysis services are remote collaborators owned
// by someone else: we submit a job spec, block until it finishes, and read
// the structured result. Both are modeled as small interfaces so the
// workflow runner can be exercised end to end against mocks; the HTTP
// implementation in this package is the production client.
package analysis

import (
	"context"
	"time"

	"github.com/moose-in-australia/clarify-workshop/services/fairness"
)

// ModelHandle identifies a trained model held by the external training
// service. It is opaque to us beyond display and resubmission.
type ModelHandle struct {
	JobID     string    `json:"job_id"`
	ModelURI  string    `json:"model_uri"`
	CreatedAt time.Time `json:"created_at"`
}

// TrainingSpec is the configuration submitted to the training service.
type TrainingSpec struct {
	JobName         string            `json:"job_name"`
	DatasetURI      string            `json:"dataset_uri"`
	LabelColumn     string            `json:"label_column"`
	Hyperparameters map[string]string `json:"hyperparameters,omitempty"`
	InstanceType    string            `json:"instance_type,omitempty"`
	InstanceCount   int               `json:"instance_count,omitempty"`
}

// FacetConfig names the protected attribute a bias analysis measures
// across, and which of its two values is the privileged one.
type FacetConfig struct {
	Name              string  `json:"name" yaml:"name" validate:"required"`
	PrivilegedValue   float64 `json:"privileged_value" yaml:"privileged_value"`
	UnprivilegedValue float64 `json:"unprivileged_value" yaml:"unprivileged_value"`
}

// BiasSpec is the configuration submitted to the bias-analysis service.
// Model is optional: without it only pre-training (data) metrics are
// computed.
type BiasSpec struct {
	JobName     string       `json:"job_name"`
	DatasetURI  string       `json:"dataset_uri"`
	LabelColumn string       `json:"label_column"`
	Facet       FacetConfig  `json:"facet"`
	Model       *ModelHandle `json:"model,omitempty"`
	Metrics     []string     `json:"metrics,omitempty"`
}

// TrainingClient submits a training job and blocks until the service
// reports a terminal state. Long-running: minutes. Cancellation is the
// caller's context; the client adds no retry policy of its own.
type TrainingClient interface {
	SubmitTraining(ctx context.Context, spec TrainingSpec) (ModelHandle, error)
}

// BiasClient submits a bias-analysis job and blocks until the report is
// available.
type BiasClient interface {
	SubmitBiasAnalysis(ctx context.Context, spec BiasSpec) (*fairness.Report, error)
}
