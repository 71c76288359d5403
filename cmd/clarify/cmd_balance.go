// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moose-in-australia/clarify-workshop/services/dataset"
	"github.com/moose-in-australia/clarify-workshop/services/resample"
)

// runBalanceCommand oversamples the minority group of a local dataset and
// writes the balanced copy, without touching any remote service.
func runBalanceCommand(cmd *cobra.Command, args []string) error {
	logger := newCLILogger()
	defer logger.Close()

	schema, err := dataset.LoadSchema(schemaPath)
	if err != nil {
		return err
	}
	table, err := dataset.Load(args[0], schema)
	if err != nil {
		return err
	}

	sampler := resample.New(kNeighbors, randomSeed).WithLogger(logger.Slog())
	balanced, err := sampler.Balance(table, schema.Protected)
	if err != nil {
		return err
	}
	if err := balanced.Save(outputPath); err != nil {
		return err
	}

	fmt.Printf("Balanced %s: %d rows in, %d rows out (%d synthetic) -> %s\n",
		args[0], table.NumRows(), balanced.NumRows(), balanced.NumRows()-table.NumRows(), outputPath)
	return nil
}
