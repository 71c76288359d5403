// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package resample

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moose-in-australia/clarify-workshop/services/dataset"
)

// buildTable generates a synthetic fraud dataset with the given group
// sizes. The protected column is "gender": 1 for the majority group, 0 for
// the minority. Minority rows all carry label 1 so the label-copy property
// can be asserted. Each row sets exactly one of the one-hot pair.
func buildTable(majority, minority int, seed int64) *dataset.Table {
	rng := rand.New(rand.NewSource(seed))
	table := &dataset.Table{
		Columns: []string{"fraud", "gender", "age", "claim_amount", "collision_front", "collision_rear"},
		Schema: dataset.Schema{
			Label:        "fraud",
			Protected:    "gender",
			OneHotGroups: [][]string{{"collision_front", "collision_rear"}},
		},
	}

	addRow := func(label, gender float64) {
		front, rear := 1.0, 0.0
		if rng.Float64() < 0.5 {
			front, rear = 0.0, 1.0
		}
		table.Rows = append(table.Rows, []float64{
			label,
			gender,
			20 + rng.Float64()*50,
			100 + rng.Float64()*9000,
			front,
			rear,
		})
	}

	for i := 0; i < majority; i++ {
		addRow(float64(rng.Intn(2)), 1)
	}
	for i := 0; i < minority; i++ {
		addRow(1, 0)
	}
	return table
}

// TestBalance_EqualGroupCounts covers the headline scenario: 800 majority
// and 200 minority rows become 1600 rows split 800/800, with 600 synthetic
// rows appended and no original row removed or altered.
func TestBalance_EqualGroupCounts(t *testing.T) {
	table := buildTable(800, 200, 42)
	original := table.Clone()

	balanced, err := New(5, 7).Balance(table, "gender")
	require.NoError(t, err)

	assert.Equal(t, 1600, balanced.NumRows())
	counts, err := balanced.GroupCounts("gender")
	require.NoError(t, err)
	assert.Equal(t, map[float64]int{0: 800, 1: 800}, counts)

	// Originals preserved unchanged, in order, before the synthetic rows.
	require.Equal(t, 1000, table.NumRows())
	assert.Equal(t, original.Rows, table.Rows)
	assert.Equal(t, original.Rows, balanced.Rows[:1000])
}

// TestBalance_SyntheticRowInvariants checks every synthetic row: protected
// attribute and label equal the minority constants, one-hot columns stay
// exactly 0 or 1 with one set bit per group, and continuous values stay
// inside the minority group's observed range.
func TestBalance_SyntheticRowInvariants(t *testing.T) {
	table := buildTable(100, 30, 3)

	balanced, err := New(5, 11).Balance(table, "gender")
	require.NoError(t, err)

	ageMin, ageMax := 1e18, -1e18
	for _, row := range table.Rows {
		if row[1] != 0 {
			continue
		}
		if row[2] < ageMin {
			ageMin = row[2]
		}
		if row[2] > ageMax {
			ageMax = row[2]
		}
	}

	synthetic := balanced.Rows[table.NumRows():]
	require.Len(t, synthetic, 70)
	for _, row := range synthetic {
		assert.Equal(t, float64(0), row[1], "protected attribute must be the minority value")
		assert.Equal(t, float64(1), row[0], "label must be copied from a minority row")
		assert.True(t, row[4] == 0 || row[4] == 1, "one-hot column must stay binary, got %v", row[4])
		assert.True(t, row[5] == 0 || row[5] == 1, "one-hot column must stay binary, got %v", row[5])
		assert.Equal(t, float64(1), row[4]+row[5], "exactly one collision type per row")
		assert.GreaterOrEqual(t, row[2], ageMin)
		assert.LessOrEqual(t, row[2], ageMax)
	}
}

// TestBalance_Deterministic verifies identical seed and input produce
// identical output, and a different seed still balances the groups.
func TestBalance_Deterministic(t *testing.T) {
	first, err := New(5, 99).Balance(buildTable(60, 20, 5), "gender")
	require.NoError(t, err)
	second, err := New(5, 99).Balance(buildTable(60, 20, 5), "gender")
	require.NoError(t, err)
	assert.Equal(t, first.Rows, second.Rows)

	other, err := New(5, 100).Balance(buildTable(60, 20, 5), "gender")
	require.NoError(t, err)
	assert.NotEqual(t, first.Rows, other.Rows)
	counts, err := other.GroupCounts("gender")
	require.NoError(t, err)
	assert.Equal(t, counts[0], counts[1])
}

// TestBalance_AlreadyBalanced verifies the no-op case returns the input
// table untouched.
func TestBalance_AlreadyBalanced(t *testing.T) {
	table := buildTable(25, 25, 8)

	balanced, err := New(5, 1).Balance(table, "gender")
	require.NoError(t, err)
	assert.Same(t, table, balanced)
	assert.Equal(t, 50, balanced.NumRows())
}

// TestBalance_KExceedsNeighbors covers the k=5 / three-member minority
// failure case.
func TestBalance_KExceedsNeighbors(t *testing.T) {
	table := buildTable(8, 3, 2)

	_, err := New(5, 1).Balance(table, "gender")
	var validationErr *dataset.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Reason, "k=5")
}

// TestBalance_MinorityTooSmall verifies a single-row minority group is
// rejected: there is nothing to interpolate against.
func TestBalance_MinorityTooSmall(t *testing.T) {
	table := buildTable(3, 1, 2)

	_, err := New(1, 1).Balance(table, "gender")
	var validationErr *dataset.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Reason, "at least 2")
}

// TestBalance_MissingColumn verifies balancing over an unknown column fails.
func TestBalance_MissingColumn(t *testing.T) {
	table := buildTable(4, 2, 2)

	_, err := New(1, 1).Balance(table, "nope")
	var validationErr *dataset.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

// TestBalance_NonBinaryColumn verifies a column with three distinct values
// is rejected.
func TestBalance_NonBinaryColumn(t *testing.T) {
	table := buildTable(4, 2, 2)
	table.Rows[0][2] = 1
	table.Rows[1][2] = 2
	table.Rows[2][2] = 3

	_, err := New(1, 1).Balance(table, "age")
	var validationErr *dataset.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Reason, "distinct values")
}

// TestNearestNeighbors_Deterministic verifies neighbor selection is stable
// under distance ties.
func TestNearestNeighbors_Deterministic(t *testing.T) {
	table := &dataset.Table{
		Columns: []string{"fraud", "gender", "x"},
		Rows: [][]float64{
			{0, 0, 0},
			{0, 0, 1},
			{0, 0, 1}, // same distance to row 0 as row 1
			{0, 0, 5},
		},
		Schema: dataset.Schema{Label: "fraud", Protected: "gender"},
	}

	neighbors := nearestNeighbors(table, []int{0, 1, 2, 3}, 0, []int{2}, 2)
	assert.Equal(t, []int{1, 2}, neighbors)
}
