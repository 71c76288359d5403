// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package resample balances a binary-partitioned tabular dataset by
// synthetic minority oversampling.
//
// Given a table and a binary column, the oversampler partitions the rows
// into a minority and a majority group by that column and synthesizes new
// minority rows until both groups are the same size. Each synthetic row is
// a convex interpolation between a random minority row and one of its
// k-nearest minority neighbors in continuous feature space.
//
// Categorical columns (the label, the protected attribute, and one-hot
// group members) are never interpolated: interpolating a one-hot encoding
// would produce fractional values that no downstream consumer accepts.
// They are copied whole from the nearer parent instead.
package resample

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/moose-in-australia/clarify-workshop/services/dataset"
)

// DefaultK is the neighborhood size used when Oversampler.K is zero.
const DefaultK = 5

// Oversampler synthesizes minority-group rows until group counts are equal.
//
// The zero value is not usable; construct with New. A single Oversampler is
// not safe for concurrent Balance calls because the random source is shared.
type Oversampler struct {
	// K is the number of nearest neighbors considered per seed row.
	// Must be at most |minority|-1.
	K int

	// Seed initializes the random source. Identical seed and input
	// produce identical output.
	Seed int64

	logger *slog.Logger
}

// New returns an Oversampler with the given neighborhood size and seed.
// A non-positive k falls back to DefaultK.
func New(k int, seed int64) *Oversampler {
	if k <= 0 {
		k = DefaultK
	}
	return &Oversampler{K: k, Seed: seed, logger: slog.Default()}
}

// WithLogger replaces the oversampler's logger and returns the receiver.
func (o *Oversampler) WithLogger(logger *slog.Logger) *Oversampler {
	o.logger = logger
	return o
}

// Balance returns a new table in which the two groups defined by the binary
// column attr have equal row counts.
//
// All original rows are preserved unchanged and come first in the output;
// synthetic rows are appended after them. If the input is already balanced,
// the input table is returned as-is with no synthetic rows.
//
// Returns *dataset.ValidationError if attr is missing or not binary over
// the table, if the minority group has fewer than two rows, or if K exceeds
// the number of available neighbors.
func (o *Oversampler) Balance(t *dataset.Table, attr string) (*dataset.Table, error) {
	attrIdx, err := t.ColumnIndex(attr)
	if err != nil {
		return nil, err
	}

	minority, majority, err := partition(t, attrIdx)
	if err != nil {
		return nil, err
	}

	need := len(majority) - len(minority)
	if need == 0 {
		o.logger.Info("dataset already balanced, nothing to do",
			"attribute", attr, "group_size", len(minority))
		return t, nil
	}
	if len(minority) < 2 {
		return nil, &dataset.ValidationError{
			Column: attr,
			Reason: fmt.Sprintf("minority group has %d rows, need at least 2 to interpolate", len(minority)),
		}
	}
	if o.K > len(minority)-1 {
		return nil, &dataset.ValidationError{
			Column: attr,
			Reason: fmt.Sprintf("k=%d exceeds available neighbors (minority size %d)", o.K, len(minority)),
		}
	}

	features := continuousColumns(t, attrIdx)
	minorityValue := t.Rows[minority[0]][attrIdx]
	rng := rand.New(rand.NewSource(o.Seed))

	o.logger.Info("oversampling minority group",
		"attribute", attr,
		"minority", len(minority),
		"majority", len(majority),
		"synthetic", need,
		"k", o.K,
	)

	out := t.Clone()
	for i := 0; i < need; i++ {
		seed := minority[rng.Intn(len(minority))]
		neighbors := nearestNeighbors(t, minority, seed, features, o.K)
		neighbor := neighbors[rng.Intn(len(neighbors))]
		frac := rng.Float64()
		out.Rows = append(out.Rows, synthesize(t, seed, neighbor, frac, features, attrIdx, minorityValue))
	}
	return out, nil
}

// partition splits row indices into (minority, majority) by the binary
// column at attrIdx. Fails if the column takes anything other than exactly
// two distinct values.
func partition(t *dataset.Table, attrIdx int) (minority, majority []int, err error) {
	groups := make(map[float64][]int)
	for i, row := range t.Rows {
		groups[row[attrIdx]] = append(groups[row[attrIdx]], i)
	}
	if len(groups) != 2 {
		return nil, nil, &dataset.ValidationError{
			Column: t.Columns[attrIdx],
			Reason: fmt.Sprintf("column takes %d distinct values, want exactly 2", len(groups)),
		}
	}

	// Map iteration order is random; pick deterministically by value.
	values := make([]float64, 0, 2)
	for v := range groups {
		values = append(values, v)
	}
	if values[0] > values[1] {
		values[0], values[1] = values[1], values[0]
	}
	a, b := groups[values[0]], groups[values[1]]
	if len(a) <= len(b) {
		return a, b, nil
	}
	return b, a, nil
}

// continuousColumns returns the indices of columns eligible for
// interpolation and distance computation: everything except the label, the
// balance attribute, and one-hot group members.
func continuousColumns(t *dataset.Table, attrIdx int) []int {
	var cols []int
	for i, name := range t.Columns {
		if i == attrIdx || t.Schema.Categorical(name) {
			continue
		}
		cols = append(cols, i)
	}
	return cols
}

// synthesize builds one synthetic row from parents a and b with
// interpolation factor frac in [0, 1).
//
// Continuous columns get a + frac*(b-a). The balance attribute gets the
// minority constant. Every other column, including the label and all
// one-hot groups, is copied whole from the nearer parent (a when
// frac < 0.5), which keeps one-hot encodings valid.
func synthesize(t *dataset.Table, a, b int, frac float64, features []int, attrIdx int, minorityValue float64) []float64 {
	rowA, rowB := t.Rows[a], t.Rows[b]
	nearest := rowA
	if frac >= 0.5 {
		nearest = rowB
	}

	row := make([]float64, len(rowA))
	copy(row, nearest)
	for _, c := range features {
		row[c] = rowA[c] + frac*(rowB[c]-rowA[c])
	}
	row[attrIdx] = minorityValue
	return row
}
