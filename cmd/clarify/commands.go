// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	schemaPath   string
	outputPath   string
	kNeighbors   int
	randomSeed   int64
	facetName    string
	groupIndex   int
	configPath   string
	freshRun     bool
	verboseLogs  bool

	rootCmd = &cobra.Command{
		Use:   "clarify",
		Short: "A cli to run bias analysis workflows over tabular fraud datasets",
		Long: `Clarify drives a fairness analysis workflow: train a fraud classifier
on a tabular dataset, measure demographic bias with the managed analysis
service, rebalance the dataset with synthetic minority oversampling, and
measure again.`,
	}

	// --- Local data operations ---
	balanceCmd = &cobra.Command{
		Use:   "balance [input.csv]",
		Short: "Oversample the minority group so both protected groups are equal in count",
		Args:  cobra.ExactArgs(1),
		RunE:  runBalanceCommand, // Defined in cmd_balance.go
	}

	// --- Bias report operations ---
	showCmd = &cobra.Command{
		Use:   "show [report.json]",
		Short: "Print the class-imbalance metric from a bias report",
		Args:  cobra.ExactArgs(1),
		RunE:  runShowCommand, // Defined in cmd_report.go
	}
	compareCmd = &cobra.Command{
		Use:   "compare [before.json] [after.json]",
		Short: "Print the change in the class-imbalance metric between two bias reports",
		Args:  cobra.ExactArgs(2),
		RunE:  runCompareCommand, // Defined in cmd_report.go
	}

	// --- Full workflow ---
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the full train/analyze/rebalance/re-analyze workflow from a config file",
		RunE:  runWorkflowCommand, // Defined in cmd_run.go
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseLogs, "verbose", "v", false, "Enable debug logging")

	balanceCmd.Flags().StringVar(&schemaPath, "schema", "", "Path to the dataset schema YAML (required)")
	balanceCmd.Flags().StringVarP(&outputPath, "out", "o", "", "Output path for the balanced dataset (required)")
	balanceCmd.Flags().IntVar(&kNeighbors, "k", 0, "Nearest-neighbor count for interpolation (default 5)")
	balanceCmd.Flags().Int64Var(&randomSeed, "seed", 0, "Random seed for reproducible output")
	_ = balanceCmd.MarkFlagRequired("schema")
	_ = balanceCmd.MarkFlagRequired("out")

	showCmd.Flags().StringVar(&facetName, "facet", "", "Protected attribute name (required)")
	showCmd.Flags().IntVar(&groupIndex, "group", 0, "Facet group index")
	_ = showCmd.MarkFlagRequired("facet")

	compareCmd.Flags().StringVar(&facetName, "facet", "", "Protected attribute name (required)")
	compareCmd.Flags().IntVar(&groupIndex, "group", 0, "Facet group index")
	_ = compareCmd.MarkFlagRequired("facet")

	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the workflow config YAML (required)")
	runCmd.Flags().BoolVar(&freshRun, "fresh", false, "Discard recorded stage results and start over")
	_ = runCmd.MarkFlagRequired("config")

	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(runCmd)
}
