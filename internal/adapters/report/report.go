// Package report renders comparison results to an Excel workbook with
// two sheets: the per-line detail table and a status summary. Status
// cells are color coded so the actionable rows stand out when filtering.
package report

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/bkooistra/factuurcheck/internal/domain/comparator"
	"github.com/bkooistra/factuurcheck/internal/infrastructure/config"
)

// Status fill colors, matching the workbook styling users know.
const (
	colorGreen  = "C6EFCE"
	colorOrange = "FFCC99"
	colorRed    = "FFC7CE"
	colorYellow = "FFEB9C"
	colorHeader = "CCCCCC"
)

var detailHeaders = []string{
	"status",
	"article_code",
	"article_name",
	"quantity_source",
	"quantity_target",
	"unit_price_source",
	"unit_price_target",
	"line_total_source",
	"line_total_target",
	"tax_source",
	"tax_target",
	"explanation",
}

// Writer renders result tables to .xlsx files.
type Writer struct {
	cfg config.ReportConfig
}

func NewWriter(cfg config.ReportConfig) *Writer {
	return &Writer{cfg: cfg}
}

// Write renders the detail and summary sheets and saves the workbook to
// the given path.
func (w *Writer) Write(path string, rows []comparator.ResultRow, summary comparator.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	detail := w.cfg.DetailSheetName
	if err := f.SetSheetName(f.GetSheetName(0), detail); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := w.writeDetailSheet(f, detail, rows); err != nil {
		return err
	}
	if err := w.writeSummarySheet(f, summary); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report %s: %w", path, err)
	}
	return nil
}

func (w *Writer) writeDetailSheet(f *excelize.File, sheet string, rows []comparator.ResultRow) error {
	headerStyle, err := headerStyle(f)
	if err != nil {
		return err
	}

	for i, h := range detailHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("style header: %w", err)
		}
	}

	for i, row := range rows {
		values := []any{
			string(row.Status),
			strOrEmpty(row.ArticleCode),
			strOrEmpty(row.ArticleName),
			numOrEmpty(row.QuantitySource),
			numOrEmpty(row.QuantityTarget),
			numOrEmpty(row.UnitPriceSource),
			numOrEmpty(row.UnitPriceTarget),
			numOrEmpty(row.LineTotalSource),
			numOrEmpty(row.LineTotalTarget),
			numOrEmpty(row.TaxSource),
			numOrEmpty(row.TaxTarget),
			row.Explanation,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", i+2, err)
			}
		}

		statusCell, _ := excelize.CoordinatesToCellName(1, i+2)
		style, err := fillStyle(f, statusColor(row.Status))
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, statusCell, statusCell, style); err != nil {
			return fmt.Errorf("style status row %d: %w", i+2, err)
		}
	}

	lastCell, _ := excelize.CoordinatesToCellName(len(detailHeaders), len(rows)+1)
	if err := f.AutoFilter(sheet, "A1:"+lastCell, nil); err != nil {
		return fmt.Errorf("set autofilter: %w", err)
	}
	return nil
}

func (w *Writer) writeSummarySheet(f *excelize.File, summary comparator.Summary) error {
	sheet := w.cfg.SummarySheetName
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	headerStyle, err := headerStyle(f)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "A1", "status"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "B1", "aantal"); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "B1", headerStyle); err != nil {
		return err
	}

	ordered := []comparator.Status{
		comparator.StatusDeviation,
		comparator.StatusMissingOnInvoice,
		comparator.StatusMissingInSystem,
		comparator.StatusPartial,
		comparator.StatusOK,
	}
	for i, status := range ordered {
		row := strconv.Itoa(i + 2)
		if err := f.SetCellValue(sheet, "A"+row, string(status)); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, "B"+row, summary.StatusCounts[status]); err != nil {
			return err
		}
		style, err := fillStyle(f, statusColor(status))
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A"+row, "A"+row, style); err != nil {
			return err
		}
	}

	totalRow := strconv.Itoa(len(ordered) + 3)
	if err := f.SetCellValue(sheet, "A"+totalRow, "totaal"); err != nil {
		return err
	}
	return f.SetCellValue(sheet, "B"+totalRow, summary.TotalRows)
}

func statusColor(status comparator.Status) string {
	switch status {
	case comparator.StatusOK:
		return colorGreen
	case comparator.StatusDeviation:
		return colorOrange
	case comparator.StatusMissingOnInvoice, comparator.StatusMissingInSystem:
		return colorRed
	case comparator.StatusPartial:
		return colorYellow
	default:
		return colorHeader
	}
}

func headerStyle(f *excelize.File) (int, error) {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{colorHeader}},
	})
	if err != nil {
		return 0, fmt.Errorf("create header style: %w", err)
	}
	return style, nil
}

func fillStyle(f *excelize.File, color string) (int, error) {
	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
	})
	if err != nil {
		return 0, fmt.Errorf("create fill style: %w", err)
	}
	return style, nil
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func numOrEmpty(p *float64) any {
	if p == nil {
		return ""
	}
	return *p
}
