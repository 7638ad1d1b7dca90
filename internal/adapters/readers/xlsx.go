package readers

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/bkooistra/factuurcheck/internal/domain/canonical"
)

// ReadXLSX loads the first sheet of a spreadsheet into a raw table. The
// first row is the header row; short rows are padded with empty values.
func ReadXLSX(path string) (canonical.RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return canonical.RawTable{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return canonical.RawTable{}, fmt.Errorf("%s: workbook has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return canonical.RawTable{}, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return canonical.RawTable{}, fmt.Errorf("%s: %w", path, ErrNoRows)
	}

	headers := rows[0]
	table := canonical.RawTable{
		Headers: headers,
		Source:  filepath.Base(path),
	}
	for _, record := range rows[1:] {
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
		return canonical.RawTable{}, fmt.Errorf("%s: %w", path, ErrNoRows)
	}
	return table, nil
}
