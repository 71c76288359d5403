// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package fairness reads bias reports produced by the external analysis
// service and extracts the headline disparity metric for comparison.
//
// The report schema is owned by the external service, not by us. Every
// traversal step is therefore checked explicitly and an absent step is
// reported as *MissingFieldError rather than papered over with a zero
// value.
package fairness

import (
	"encoding/json"
	"fmt"
)

// MetricClassImbalance is the fixed metric name extracted for comparison:
// the normalized difference in group representation, in [-1, 1].
const MetricClassImbalance = "CI"

// Metric is one named numeric measurement inside a bias report.
//
// Value is a pointer because the service emits null for metrics it could
// not compute; null must not be confused with a legitimate 0.
type Metric struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Value       *float64 `json:"value"`
}

// FacetGroup holds the metrics computed for one value of a protected
// attribute.
type FacetGroup struct {
	ValueOrThreshold string   `json:"value_or_threshold"`
	Metrics          []Metric `json:"metrics"`
}

// BiasMetrics is one section of a report: per-facet metric groups keyed by
// protected-attribute name.
type BiasMetrics struct {
	Label  string                  `json:"label"`
	Facets map[string][]FacetGroup `json:"facets"`
}

// Report is the structured output of the external bias-analysis service.
// Either section may be absent depending on the requested analysis.
type Report struct {
	Version                 string       `json:"version,omitempty"`
	PreTrainingBiasMetrics  *BiasMetrics `json:"pre_training_bias_metrics,omitempty"`
	PostTrainingBiasMetrics *BiasMetrics `json:"post_training_bias_metrics,omitempty"`
}

// ParseReport decodes a bias report from the service's JSON output.
func ParseReport(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse bias report: %w", err)
	}
	return &r, nil
}

// MissingFieldError reports that the expected path through a bias report
// was absent. Path names the first step that could not be taken.
type MissingFieldError struct {
	Path string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("bias report is missing expected field: %s", e.Path)
}
