// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package resample

import (
	"math"
	"sort"

	"github.com/moose-in-australia/clarify-workshop/services/dataset"
)

// nearestNeighbors returns the row indices of the k nearest rows to seed,
// drawn from group (excluding seed itself), by Euclidean distance over the
// given feature columns.
//
// Ties are broken by row index so the result is deterministic. The caller
// guarantees k <= len(group)-1.
func nearestNeighbors(t *dataset.Table, group []int, seed int, features []int, k int) []int {
	type candidate struct {
		row  int
		dist float64
	}

	candidates := make([]candidate, 0, len(group)-1)
	for _, row := range group {
		if row == seed {
			continue
		}
		candidates = append(candidates, candidate{row: row, dist: distance(t.Rows[seed], t.Rows[row], features)})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].row < candidates[j].row
	})

	neighbors := make([]int, k)
	for i := 0; i < k; i++ {
		neighbors[i] = candidates[i].row
	}
	return neighbors
}

// distance computes the Euclidean distance between rows a and b over the
// given feature columns.
func distance(a, b []float64, features []int) float64 {
	var sum float64
	for _, c := range features {
		d := a[c] - b[c]
		sum += d * d
	}
	return math.Sqrt(sum)
}
