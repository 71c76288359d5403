// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/moose-in-australia/clarify-workshop/services/fairness"
)

func loadReport(path string) (*fairness.Report, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file %s: %w", path, err)
	}
	return fairness.ParseReport(raw)
}

// runShowCommand prints the class-imbalance metric from one bias report.
func runShowCommand(cmd *cobra.Command, args []string) error {
	report, err := loadReport(args[0])
	if err != nil {
		return err
	}
	value, err := fairness.ExtractMetric(report, facetName, groupIndex)
	if err != nil {
		return err
	}
	fmt.Printf("%s[%d] %s = %g\n", facetName, groupIndex, fairness.MetricClassImbalance, value)
	return nil
}

// runCompareCommand prints the metric from two reports and their delta.
func runCompareCommand(cmd *cobra.Command, args []string) error {
	before, err := loadReport(args[0])
	if err != nil {
		return err
	}
	after, err := loadReport(args[1])
	if err != nil {
		return err
	}

	delta, err := fairness.CompareReports(before, after, facetName, groupIndex)
	if err != nil {
		return err
	}
	beforeValue, _ := fairness.ExtractMetric(before, facetName, groupIndex)
	afterValue, _ := fairness.ExtractMetric(after, facetName, groupIndex)

	fmt.Printf("%s[%d] %s: before=%g after=%g delta=%g\n",
		facetName, groupIndex, fairness.MetricClassImbalance, beforeValue, afterValue, delta)
	return nil
}
