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

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/moose-in-australia/clarify-workshop/services/analysis"
	"github.com/moose-in-australia/clarify-workshop/services/dataset"
)

var validate = validator.New()

// WorkflowConfig is the file-based configuration for `clarify run`. It
// carries everything a run needs explicitly; there is no ambient state
// shared between workflow stages.
type WorkflowConfig struct {
	// Run names the workflow run. Reusing a name resumes it.
	Run string `yaml:"run"`

	Dataset struct {
		Path   string         `yaml:"path" validate:"required"`
		Schema dataset.Schema `yaml:"schema" validate:"required"`
	} `yaml:"dataset"`

	Service struct {
		BaseURL string `yaml:"base_url" validate:"required,url"`
	} `yaml:"service"`

	Storage struct {
		// Bucket/Prefix select the GCS location; CredentialsFile is
		// the service account key. LocalRoot switches to a local
		// directory store instead (offline runs).
		Bucket          string `yaml:"bucket"`
		Prefix          string `yaml:"prefix"`
		CredentialsFile string `yaml:"credentials_file"`
		LocalRoot       string `yaml:"local_root"`
	} `yaml:"storage"`

	Facet      analysis.FacetConfig `yaml:"facet" validate:"required"`
	GroupIndex int                  `yaml:"group_index" validate:"gte=0"`

	Training struct {
		InstanceType    string            `yaml:"instance_type"`
		InstanceCount   int               `yaml:"instance_count" validate:"gte=0"`
		Hyperparameters map[string]string `yaml:"hyperparameters"`
	} `yaml:"training"`

	Resample struct {
		K    int   `yaml:"k" validate:"gte=0"`
		Seed int64 `yaml:"seed"`
	} `yaml:"resample"`

	// StateDir holds the run-state database. Empty disables resumption.
	StateDir string `yaml:"state_dir"`

	// WorkDir receives intermediate files such as the balanced dataset.
	WorkDir string `yaml:"work_dir"`
}

// LoadWorkflowConfig reads and validates a WorkflowConfig from a YAML file.
func LoadWorkflowConfig(path string) (*WorkflowConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var cfg WorkflowConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config in %s: %w", path, err)
	}
	if cfg.Storage.Bucket == "" && cfg.Storage.LocalRoot == "" {
		return nil, fmt.Errorf("invalid config in %s: one of storage.bucket or storage.local_root is required", path)
	}
	return &cfg, nil
}
