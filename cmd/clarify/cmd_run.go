// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/moose-in-australia/clarify-workshop/pkg/logging"
	"github.com/moose-in-australia/clarify-workshop/services/analysis"
	"github.com/moose-in-australia/clarify-workshop/services/runstate"
	"github.com/moose-in-australia/clarify-workshop/services/storage"
)

func newCLILogger() *logging.Logger {
	level := logging.LevelInfo
	if verboseLogs {
		level = logging.LevelDebug
	}
	return logging.New(logging.Config{Level: level, Service: "clarify"})
}

// runWorkflowCommand runs the full workflow described by the config file.
// Ctrl-C cancels the in-flight service call and exits; a later invocation
// with the same run name resumes from the last completed stage.
func runWorkflowCommand(cmd *cobra.Command, args []string) error {
	logger := newCLILogger()
	defer logger.Close()

	cfg, err := LoadWorkflowConfig(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	blobs, cleanup, err := newBlobStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var state *runstate.Store
	if cfg.StateDir != "" {
		state, err = runstate.Open(runstate.DefaultConfig(cfg.StateDir))
		if err != nil {
			return err
		}
		defer state.Close()
		if freshRun && cfg.Run != "" {
			if err := state.DeleteRun(cfg.Run); err != nil {
				return err
			}
			logger.Info("discarded recorded stage results", "run", cfg.Run)
		}
	}

	client, err := analysis.NewHTTPClient(cfg.Service.BaseURL, logger.Slog())
	if err != nil {
		return err
	}

	runner := &analysis.Runner{
		Training: client,
		Bias:     client,
		Blobs:    blobs,
		State:    state,
		Logger:   logger.Slog(),
	}
	result, err := runner.Run(ctx, analysis.RunConfig{
		Name:            cfg.Run,
		DatasetPath:     cfg.Dataset.Path,
		Schema:          cfg.Dataset.Schema,
		Facet:           cfg.Facet,
		GroupIndex:      cfg.GroupIndex,
		Hyperparameters: cfg.Training.Hyperparameters,
		InstanceType:    cfg.Training.InstanceType,
		InstanceCount:   cfg.Training.InstanceCount,
		K:               cfg.Resample.K,
		Seed:            cfg.Resample.Seed,
		WorkDir:         cfg.WorkDir,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Run %s finished.\n", result.Run)
	fmt.Printf("  class imbalance before: %g\n", result.Before)
	fmt.Printf("  class imbalance after:  %g\n", result.After)
	fmt.Printf("  delta:                  %g\n", result.Delta)
	fmt.Printf("  synthetic rows added:   %d\n", result.SyntheticRows)
	return nil
}

// newBlobStore builds the configured blob store: GCS when a bucket is set,
// otherwise a local directory store.
func newBlobStore(ctx context.Context, cfg *WorkflowConfig) (storage.BlobStore, func(), error) {
	if cfg.Storage.Bucket != "" {
		store, err := storage.NewGCSStore(ctx, cfg.Storage.Bucket, cfg.Storage.Prefix, cfg.Storage.CredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}
	store, err := storage.NewLocalStore(cfg.Storage.LocalRoot)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {}, nil
}
