// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analysis

import (
	"context"
	"sync"

	"github.com/moose-in-australia/clarify-workshop/services/fairness"
)

// MockTrainingClient is a TrainingClient for tests. It records every spec
// it receives and returns canned handles in order, or Err if set.
type MockTrainingClient struct {
	mu      sync.Mutex
	Handles []ModelHandle
	Err     error
	Calls   []TrainingSpec
}

// SubmitTraining implements TrainingClient.
func (m *MockTrainingClient) SubmitTraining(ctx context.Context, spec TrainingSpec) (ModelHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return ModelHandle{}, m.Err
	}
	m.Calls = append(m.Calls, spec)
	idx := len(m.Calls) - 1
	if idx < len(m.Handles) {
		return m.Handles[idx], nil
	}
	return ModelHandle{JobID: spec.JobName, ModelURI: "mock://model/" + spec.JobName}, nil
}

// MockBiasClient is a BiasClient for tests: canned reports in call order.
type MockBiasClient struct {
	mu      sync.Mutex
	Reports []*fairness.Report
	Err     error
	Calls   []BiasSpec
}

// SubmitBiasAnalysis implements BiasClient.
func (m *MockBiasClient) SubmitBiasAnalysis(ctx context.Context, spec BiasSpec) (*fairness.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.Calls = append(m.Calls, spec)
	idx := len(m.Calls) - 1
	if idx < len(m.Reports) {
		return m.Reports[idx], nil
	}
	return &fairness.Report{}, nil
}

var (
	_ TrainingClient = (*MockTrainingClient)(nil)
	_ BiasClient     = (*MockBiasClient)(nil)
)
