// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dataset

import "fmt"

// FormatError reports a malformed input file: a row with the wrong number
// of fields, or a field that cannot be parsed as a number.
//
// Line is 1-based and counts the header row as line 1.
type FormatError struct {
	Line   int
	Reason string
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("format error at line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("format error: %s", e.Reason)
}

// ValidationError reports data that parsed cleanly but violates the schema:
// a missing label or protected column, a non-binary value where only {0, 1}
// is allowed, or a group too small to resample.
type ValidationError struct {
	Column string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("validation error on column %q: %s", e.Column, e.Reason)
	}
	return fmt.Sprintf("validation error: %s", e.Reason)
}
