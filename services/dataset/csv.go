// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dataset

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Load reads a delimited file with a header row into a Table and validates
// it against the schema.
//
// Returns *FormatError if a row has the wrong number of fields or a field
// is not numeric, and *ValidationError if the schema's label or protected
// column is missing or non-binary.
func Load(path string, schema Schema) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file %s: %w", path, err)
	}
	defer file.Close()

	t, err := Read(bufio.NewReader(file), schema)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset %s: %w", path, err)
	}
	return t, nil
}

// Read parses CSV data from r into a Table and validates it. See Load.
func Read(r io.Reader, schema Schema) (*Table, error) {
	reader := csv.NewReader(r)
	// Column-count mismatches are reported through our own error type.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &FormatError{Line: 1, Reason: "empty file, expected a header row"}
	}
	if err != nil {
		return nil, &FormatError{Line: 1, Reason: err.Error()}
	}

	t := &Table{Columns: header, Schema: schema}
	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, &FormatError{Line: line, Reason: err.Error()}
		}
		if len(rec) != len(header) {
			return nil, &FormatError{
				Line:   line,
				Reason: fmt.Sprintf("row has %d fields, header has %d", len(rec), len(header)),
			}
		}
		row := make([]float64, len(rec))
		for i, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, &FormatError{
					Line:   line,
					Reason: fmt.Sprintf("column %q: cannot parse %q as number", header[i], field),
				}
			}
			row[i] = v
		}
		t.Rows = append(t.Rows, row)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Save writes the table back out in the same delimited format, header first.
func (t *Table) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", path, err)
	}
	defer file.Close()

	if err := t.Write(file); err != nil {
		return fmt.Errorf("failed to write dataset %s: %w", path, err)
	}
	return file.Close()
}

// Write encodes the table as CSV to w.
func (t *Table) Write(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Columns); err != nil {
		return err
	}
	rec := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			rec[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := writer.Write(rec); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
