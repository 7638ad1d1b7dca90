// Package validator provides validation logic for tabular line-item data.
//
// The validator is a pure detector: it never mutates and never corrects.
// It reports aggregate validity plus itemized, user-facing error strings
// with enough context (source label, column, offending value, row number)
// for a non-technical user to fix the input file.
package validator

import (
	"fmt"
	"strings"

	"github.com/bkooistra/factuurcheck/internal/domain/canonical"
	"github.com/bkooistra/factuurcheck/internal/domain/normalizer"
)

// Validate checks a raw table against the canonical model requirements:
//
//  1. all required columns are present
//  2. numeric columns contain only coercible values
//  3. article_name is not entirely empty
//  4. the table has at least one row
//
// System exports are validated before normalization (their headers are
// already canonical); supplier documents are validated after column
// mapping, because their raw headers are unpredictable.
func Validate(table canonical.RawTable, source string) (bool, []string) {
	var errs []string

	errs = append(errs, checkRequiredColumns(table, source)...)
	errs = append(errs, checkValues(table, source)...)

	if len(table.Rows) == 0 {
		errs = append(errs, fmt.Sprintf("[%s] table contains no rows", source))
	}

	return len(errs) == 0, errs
}

// checkRequiredColumns verifies that every required canonical column is
// present in the header set.
func checkRequiredColumns(table canonical.RawTable, source string) []string {
	present := make(map[string]bool, len(table.Headers))
	for _, h := range table.Headers {
		present[h] = true
	}

	var errs []string
	for _, col := range canonical.RequiredColumns() {
		if !present[col] {
			errs = append(errs, fmt.Sprintf("[%s] required column missing: '%s'", source, col))
		}
	}
	return errs
}

// checkValues verifies per-value numeric coercibility and the non-empty
// article_name requirement. The first uncoercible value per column is
// reported with its 1-based row number (+1 for the header row).
func checkValues(table canonical.RawTable, source string) []string {
	present := make(map[string]bool, len(table.Headers))
	for _, h := range table.Headers {
		present[h] = true
	}

	var errs []string

	for _, col := range canonical.NumericColumns() {
		if !present[col] {
			continue // absence is reported by checkRequiredColumns
		}
		for i, row := range table.Rows {
			raw := strings.TrimSpace(row[col])
			if raw == "" || normalizer.CleanText(raw) == nil {
				continue // entirely optional per value
			}
			if normalizer.CoerceNumber(raw) == nil {
				errs = append(errs, fmt.Sprintf(
					"[%s] column '%s' contains invalid numeric value: '%s' at row %d",
					source, col, raw, i+2))
				break // first failure per column is enough
			}
		}
	}

	if present[canonical.ColArticleName] && len(table.Rows) > 0 {
		allEmpty := true
		for _, row := range table.Rows {
			if normalizer.CleanText(row[canonical.ColArticleName]) != nil {
				allEmpty = false
				break
			}
		}
		if allEmpty {
			errs = append(errs, fmt.Sprintf(
				"[%s] required column '%s' contains only empty values",
				source, canonical.ColArticleName))
		}
	}

	return errs
}
