// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/moose-in-australia/clarify-workshop/services/dataset"
	"github.com/moose-in-australia/clarify-workshop/services/fairness"
	"github.com/moose-in-australia/clarify-workshop/services/resample"
	"github.com/moose-in-australia/clarify-workshop/services/runstate"
	"github.com/moose-in-australia/clarify-workshop/services/storage"
)

// Stage names recorded in the run-state store. One entry per completed
// workflow stage, keyed by run name.
const (
	stageDatasetBaseline = "dataset:baseline"
	stageTrainBaseline   = "train:baseline"
	stageBiasBaseline    = "bias:baseline"
	stageDatasetBalanced = "dataset:balanced"
	stageTrainBalanced   = "train:balanced"
	stageBiasBalanced    = "bias:balanced"
)

// Runner drives the full workflow: upload the dataset, train a model, run
// a bias analysis, rebalance the dataset, train and analyze again, and
// compare the class-imbalance metric across the two reports.
//
// All collaborators are injected; nothing in this package holds process-wide
// state. State may be nil, in which case every run starts from scratch.
type Runner struct {
	Training TrainingClient
	Bias     BiasClient
	Blobs    storage.BlobStore
	State    *runstate.Store
	Logger   *slog.Logger
}

// RunConfig is the explicit configuration for one workflow run. It replaces
// the bucket/prefix/job-name session state the interactive workflow used to
// carry between steps.
type RunConfig struct {
	// Name identifies the run in the run-state store and in job names.
	// A random name is generated when empty, which disables resumption.
	Name string

	// DatasetPath is the local delimited dataset file.
	DatasetPath string

	// Schema names the label, protected attribute, and one-hot groups.
	Schema dataset.Schema

	// Facet configures the bias analysis.
	Facet FacetConfig

	// GroupIndex selects which facet group's metric is compared.
	GroupIndex int

	// Training job sizing and hyperparameters, passed through verbatim.
	Hyperparameters map[string]string
	InstanceType    string
	InstanceCount   int

	// Oversampler parameters.
	K    int
	Seed int64

	// WorkDir receives the balanced dataset file. Defaults to the
	// dataset's directory.
	WorkDir string
}

// RunResult summarizes one completed workflow run.
type RunResult struct {
	Run           string
	Before        float64
	After         float64
	Delta         float64
	SyntheticRows int
	BaselineModel ModelHandle
	BalancedModel ModelHandle
}

// balancedDataset is the stage record for the rebalancing step.
type balancedDataset struct {
	URI           string `json:"uri"`
	LocalPath     string `json:"local_path"`
	SyntheticRows int    `json:"synthetic_rows"`
}

// uploadedDataset is the stage record for dataset uploads.
type uploadedDataset struct {
	URI string `json:"uri"`
}

// Run executes the workflow. Completed stages found in the run-state store
// are not resubmitted; pass a fresh run name (or delete the run) to force
// recomputation.
func (r *Runner) Run(ctx context.Context, cfg RunConfig) (*RunResult, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Name == "" {
		cfg.Name = "fairness-run-" + uuid.NewString()[:8]
	}
	logger = logger.With("run", cfg.Name)

	table, err := dataset.Load(cfg.DatasetPath, cfg.Schema)
	if err != nil {
		return nil, err
	}
	logger.Info("dataset loaded", "rows", table.NumRows(), "columns", len(table.Columns))

	// Baseline: upload, train, analyze.
	baselineURI, err := r.uploadDataset(ctx, cfg.Name, stageDatasetBaseline, cfg.DatasetPath, "input/dataset.csv")
	if err != nil {
		return nil, err
	}
	baselineModel, err := r.train(ctx, cfg, stageTrainBaseline, cfg.Name+"-baseline", baselineURI)
	if err != nil {
		return nil, err
	}
	beforeReport, err := r.analyze(ctx, cfg, stageBiasBaseline, cfg.Name+"-bias-baseline", baselineURI, &baselineModel)
	if err != nil {
		return nil, err
	}
	before, err := fairness.ExtractMetric(beforeReport, cfg.Facet.Name, cfg.GroupIndex)
	if err != nil {
		return nil, err
	}
	logger.Info("baseline analysis complete", "class_imbalance", before)

	// Rebalance and repeat.
	balanced, err := r.balance(ctx, cfg, table)
	if err != nil {
		return nil, err
	}
	balancedModel, err := r.train(ctx, cfg, stageTrainBalanced, cfg.Name+"-balanced", balanced.URI)
	if err != nil {
		return nil, err
	}
	afterReport, err := r.analyze(ctx, cfg, stageBiasBalanced, cfg.Name+"-bias-balanced", balanced.URI, &balancedModel)
	if err != nil {
		return nil, err
	}
	after, err := fairness.ExtractMetric(afterReport, cfg.Facet.Name, cfg.GroupIndex)
	if err != nil {
		return nil, err
	}

	delta := fairness.Compare(before, after)
	logger.Info("workflow complete",
		"before", before, "after", after, "delta", delta,
		"synthetic_rows", balanced.SyntheticRows)

	return &RunResult{
		Run:           cfg.Name,
		Before:        before,
		After:         after,
		Delta:         delta,
		SyntheticRows: balanced.SyntheticRows,
		BaselineModel: baselineModel,
		BalancedModel: balancedModel,
	}, nil
}

func (r *Runner) uploadDataset(ctx context.Context, run, stage, localPath, remotePath string) (string, error) {
	var cached uploadedDataset
	if ok, err := r.restore(run, stage, &cached); err != nil {
		return "", err
	} else if ok {
		return cached.URI, nil
	}

	uri, err := r.Blobs.Upload(ctx, localPath, remotePath)
	if err != nil {
		return "", fmt.Errorf("failed to upload dataset %s: %w", localPath, err)
	}
	if err := r.record(run, stage, uploadedDataset{URI: uri}); err != nil {
		return "", err
	}
	return uri, nil
}

func (r *Runner) train(ctx context.Context, cfg RunConfig, stage, jobName, datasetURI string) (ModelHandle, error) {
	var handle ModelHandle
	if ok, err := r.restore(cfg.Name, stage, &handle); err != nil {
		return ModelHandle{}, err
	} else if ok {
		return handle, nil
	}

	handle, err := r.Training.SubmitTraining(ctx, TrainingSpec{
		JobName:         jobName,
		DatasetURI:      datasetURI,
		LabelColumn:     cfg.Schema.Label,
		Hyperparameters: cfg.Hyperparameters,
		InstanceType:    cfg.InstanceType,
		InstanceCount:   cfg.InstanceCount,
	})
	if err != nil {
		return ModelHandle{}, err
	}
	if err := r.record(cfg.Name, stage, handle); err != nil {
		return ModelHandle{}, err
	}
	return handle, nil
}

func (r *Runner) analyze(ctx context.Context, cfg RunConfig, stage, jobName, datasetURI string, model *ModelHandle) (*fairness.Report, error) {
	var report fairness.Report
	if ok, err := r.restore(cfg.Name, stage, &report); err != nil {
		return nil, err
	} else if ok {
		return &report, nil
	}

	result, err := r.Bias.SubmitBiasAnalysis(ctx, BiasSpec{
		JobName:     jobName,
		DatasetURI:  datasetURI,
		LabelColumn: cfg.Schema.Label,
		Facet:       cfg.Facet,
		Model:       model,
		Metrics:     []string{fairness.MetricClassImbalance},
	})
	if err != nil {
		return nil, err
	}
	if err := r.record(cfg.Name, stage, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Runner) balance(ctx context.Context, cfg RunConfig, table *dataset.Table) (*balancedDataset, error) {
	var cached balancedDataset
	if ok, err := r.restore(cfg.Name, stageDatasetBalanced, &cached); err != nil {
		return nil, err
	} else if ok {
		return &cached, nil
	}

	balanced, err := resample.New(cfg.K, cfg.Seed).Balance(table, cfg.Schema.Protected)
	if err != nil {
		return nil, err
	}

	workDir := cfg.WorkDir
	if workDir == "" {
		workDir = filepath.Dir(cfg.DatasetPath)
	}
	localPath := filepath.Join(workDir, "dataset_balanced.csv")
	if err := balanced.Save(localPath); err != nil {
		return nil, err
	}

	uri, err := r.Blobs.Upload(ctx, localPath, "input/dataset_balanced.csv")
	if err != nil {
		return nil, fmt.Errorf("failed to upload balanced dataset: %w", err)
	}

	record := balancedDataset{
		URI:           uri,
		LocalPath:     localPath,
		SyntheticRows: balanced.NumRows() - table.NumRows(),
	}
	if err := r.record(cfg.Name, stageDatasetBalanced, record); err != nil {
		return nil, err
	}
	return &record, nil
}

// restore loads a prior stage result when a run-state store is configured.
func (r *Runner) restore(run, stage string, out any) (bool, error) {
	if r.State == nil {
		return false, nil
	}
	ok, err := r.State.GetStage(run, stage, out)
	if err != nil {
		return false, err
	}
	if ok && r.Logger != nil {
		r.Logger.Info("resuming from recorded stage result", "run", run, "stage", stage)
	}
	return ok, nil
}

func (r *Runner) record(run, stage string, value any) error {
	if r.State == nil {
		return nil
	}
	return r.State.PutStage(run, stage, value)
}
