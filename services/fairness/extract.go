// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fairness

import "fmt"

// ExtractMetric returns the class-imbalance metric for the given protected
// attribute and group index from the report's pre-training section.
//
// The path walked is fixed: pre_training_bias_metrics -> facets[attr] ->
// [group] -> metric named "CI". Any absent step yields *MissingFieldError;
// a default is never substituted because the schema belongs to an external
// service and silence would hide contract drift.
func ExtractMetric(r *Report, attr string, group int) (float64, error) {
	if r == nil || r.PreTrainingBiasMetrics == nil {
		return 0, &MissingFieldError{Path: "pre_training_bias_metrics"}
	}
	facets := r.PreTrainingBiasMetrics.Facets
	groups, ok := facets[attr]
	if !ok {
		return 0, &MissingFieldError{Path: fmt.Sprintf("pre_training_bias_metrics.facets[%q]", attr)}
	}
	if group < 0 || group >= len(groups) {
		return 0, &MissingFieldError{
			Path: fmt.Sprintf("pre_training_bias_metrics.facets[%q][%d]", attr, group),
		}
	}
	for _, m := range groups[group].Metrics {
		if m.Name != MetricClassImbalance {
			continue
		}
		if m.Value == nil {
			return 0, &MissingFieldError{
				Path: fmt.Sprintf("pre_training_bias_metrics.facets[%q][%d].%s.value", attr, group, MetricClassImbalance),
			}
		}
		return *m.Value, nil
	}
	return 0, &MissingFieldError{
		Path: fmt.Sprintf("pre_training_bias_metrics.facets[%q][%d].%s", attr, group, MetricClassImbalance),
	}
}

// Compare returns the change in a metric between two runs: after - before.
//
// The sign carries no invariant of ours. The metric is externally defined
// and a negative, zero, or positive delta are all legitimate outcomes.
func Compare(before, after float64) float64 {
	return after - before
}

// CompareReports extracts the class-imbalance metric from both reports for
// the same facet and group and returns the delta (after - before).
func CompareReports(before, after *Report, attr string, group int) (float64, error) {
	b, err := ExtractMetric(before, attr, group)
	if err != nil {
		return 0, fmt.Errorf("before report: %w", err)
	}
	a, err := ExtractMetric(after, attr, group)
	if err != nil {
		return 0, fmt.Errorf("after report: %w", err)
	}
	return Compare(b, a), nil
}
