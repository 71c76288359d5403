// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dataset

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Schema names the roles columns play in a tabular dataset.
//
// Label and Protected must be binary {0, 1} columns. OneHotGroups lists
// column groups that together form a one-hot encoding; these are treated
// as categorical during resampling (copied whole, never interpolated).
//
// Example YAML:
//
//	label: fraud
//	protected: customer_gender_female
//	one_hot_groups:
//	  - [collision_type_front, collision_type_rear, collision_type_side]
//	  - [incident_severity_minor, incident_severity_major, incident_severity_total]
type Schema struct {
	Label        string     `yaml:"label" validate:"required"`
	Protected    string     `yaml:"protected" validate:"required"`
	OneHotGroups [][]string `yaml:"one_hot_groups" validate:"omitempty,dive,min=2"`
}

// LoadSchema reads and validates a Schema from a YAML file.
func LoadSchema(path string) (Schema, error) {
	var s Schema
	raw, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("failed to parse schema file %s: %w", path, err)
	}
	if err := validate.Struct(s); err != nil {
		return s, fmt.Errorf("invalid schema in %s: %w", path, err)
	}
	return s, nil
}

// OneHotColumns returns the set of all column names that belong to some
// one-hot group.
func (s Schema) OneHotColumns() map[string]bool {
	cols := make(map[string]bool)
	for _, group := range s.OneHotGroups {
		for _, name := range group {
			cols[name] = true
		}
	}
	return cols
}

// Categorical reports whether the named column must not be interpolated:
// the label, the protected attribute, or any one-hot group member.
func (s Schema) Categorical(name string) bool {
	if name == s.Label || name == s.Protected {
		return true
	}
	for _, group := range s.OneHotGroups {
		for _, col := range group {
			if col == name {
				return true
			}
		}
	}
	return false
}
