// Package readers loads tabular input files (CSV, spreadsheets) into
// raw tables for the normalization pipeline.
//
// Readers stay dumb on purpose: values come out as strings exactly as
// found, header mapping and type coercion are the normalizer's job.
package readers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/bkooistra/factuurcheck/internal/domain/canonical"
)

// ErrEmptyFile is returned for zero-byte input files.
var ErrEmptyFile = errors.New("file is empty")

// ErrNoRows is returned when a file has headers but no data rows.
var ErrNoRows = errors.New("file contains no data rows")

// ReadCSV loads a CSV file into a raw table. UTF-8 is tried first with a
// Latin-1 fallback, common for exports from older Dutch systems.
func ReadCSV(path string) (canonical.RawTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return canonical.RawTable{}, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 {
		return canonical.RawTable{}, fmt.Errorf("%s: %w", path, ErrEmptyFile)
	}

	if !utf8.Valid(data) {
		decoded, decErr := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if decErr != nil {
			return canonical.RawTable{}, fmt.Errorf("decode %s as Latin-1: %w", path, decErr)
		}
		data = decoded
	}

	table, err := parseCSV(data, filepath.Base(path))
	if err != nil {
		return canonical.RawTable{}, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

func parseCSV(data []byte, source string) (canonical.RawTable, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	headers, err := r.Read()
	if err == io.EOF {
		return canonical.RawTable{}, ErrNoRows
	}
	if err != nil {
		return canonical.RawTable{}, fmt.Errorf("parse header: %w", err)
	}

	table := canonical.RawTable{
		Headers: headers,
		Source:  source,
	}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return canonical.RawTable{}, fmt.Errorf("parse row %d: %w", len(table.Rows)+2, err)
		}
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(record) {
				row[h] = record[i]
			} else {
				row[h] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}

	if len(table.Rows) == 0 {
		return canonical.RawTable{}, ErrNoRows
	}
	return table, nil
}

// Info is a cheap probe of a CSV file, used by the upload flow to log
// what came in without loading everything twice.
type Info struct {
	Filename  string   `json:"filename"`
	SizeBytes int64    `json:"size_bytes"`
	Headers   []string `json:"headers"`
	RowCount  int      `json:"row_count"`
}

// Inspect returns basic information about a CSV file.
func Inspect(path string) (Info, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return Info{}, fmt.Errorf("stat %s: %w", path, err)
	}

	info := Info{
		Filename:  filepath.Base(path),
		SizeBytes: stat.Size(),
	}
	table, err := ReadCSV(path)
	if err != nil {
		return info, err
	}
	info.Headers = table.Headers
	info.RowCount = len(table.Rows)
	return info, nil
}
