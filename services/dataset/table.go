// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package dataset models a labeled tabular dataset loaded from a delimited
// file: an ordered set of numeric records with a binary label column and a
// binary protected-attribute column.
//
// Tables are loaded once and treated as immutable afterwards. The resampler
// produces a new Table rather than mutating its input.
package dataset

import "fmt"

// Table is an in-memory tabular dataset. Every row has exactly one value
// per column. Schema identifies the label, protected attribute, and any
// one-hot column groups.
type Table struct {
	Columns []string
	Rows    [][]float64
	Schema  Schema
}

// NumRows returns the number of records in the table.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column, or an error if the
// table has no such column.
func (t *Table) ColumnIndex(name string) (int, error) {
	for i, c := range t.Columns {
		if c == name {
			return i, nil
		}
	}
	return -1, &ValidationError{Column: name, Reason: "column not found"}
}

// Column returns a copy of the named column's values.
func (t *Table) Column(name string) ([]float64, error) {
	idx, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	values := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[idx]
	}
	return values, nil
}

// Clone returns a deep copy of the table. The Schema is copied by value;
// its slices are shared since schemas are never mutated.
func (t *Table) Clone() *Table {
	columns := make([]string, len(t.Columns))
	copy(columns, t.Columns)
	rows := make([][]float64, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = make([]float64, len(row))
		copy(rows[i], row)
	}
	return &Table{Columns: columns, Rows: rows, Schema: t.Schema}
}

// GroupCounts tallies row counts by the distinct values of the named column.
func (t *Table) GroupCounts(name string) (map[float64]int, error) {
	idx, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	counts := make(map[float64]int)
	for _, row := range t.Rows {
		counts[row[idx]]++
	}
	return counts, nil
}

// validateBinary checks that the named column exists and contains only 0 or 1.
func (t *Table) validateBinary(name string) error {
	idx, err := t.ColumnIndex(name)
	if err != nil {
		return err
	}
	for i, row := range t.Rows {
		if v := row[idx]; v != 0 && v != 1 {
			return &ValidationError{
				Column: name,
				Reason: fmt.Sprintf("row %d has value %v, want 0 or 1", i, v),
			}
		}
	}
	return nil
}

// Validate checks the table against its schema: the label and protected
// columns must exist and be binary, and every one-hot group member must
// exist.
func (t *Table) Validate() error {
	if err := t.validateBinary(t.Schema.Label); err != nil {
		return err
	}
	if err := t.validateBinary(t.Schema.Protected); err != nil {
		return err
	}
	for _, group := range t.Schema.OneHotGroups {
		for _, name := range group {
			if _, err := t.ColumnIndex(name); err != nil {
				return err
			}
		}
	}
	return nil
}
