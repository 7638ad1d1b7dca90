package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bkooistra/factuurcheck/internal/adapters/classifier"
	"github.com/bkooistra/factuurcheck/internal/adapters/readers"
	"github.com/bkooistra/factuurcheck/internal/adapters/report"
	"github.com/bkooistra/factuurcheck/internal/adapters/supplierpdf"
	"github.com/bkooistra/factuurcheck/internal/application/pipeline"
	"github.com/bkooistra/factuurcheck/internal/audit"
	"github.com/bkooistra/factuurcheck/internal/domain/canonical"
	"github.com/bkooistra/factuurcheck/internal/domain/comparator"
	"github.com/bkooistra/factuurcheck/internal/infrastructure/storage"
)

var (
	systemFiles   []string
	supplierFiles []string
	outputPath    string
	noHistory     bool
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare a system export against supplier documents",
	Example: `  factuurcheck compare --system export.csv --supplier pakbon1.csv --supplier factuur.xlsx
  factuurcheck compare -s export.xlsx -d pakbon.csv -o resultaat.xlsx`,
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringSliceVarP(&systemFiles, "system", "s", nil, "system export file(s) (csv, xlsx)")
	compareCmd.Flags().StringSliceVarP(&supplierFiles, "supplier", "d", nil, "supplier document file(s) (csv, xlsx, pdf)")
	compareCmd.Flags().StringVarP(&outputPath, "output", "o", "", "report output path (default from config)")
	compareCmd.Flags().BoolVar(&noHistory, "no-history", false, "skip writing the run to the history database")
	_ = compareCmd.MarkFlagRequired("system")
	_ = compareCmd.MarkFlagRequired("supplier")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	var repo storage.Repository
	if !noHistory {
		s, err := storage.NewStorage(cfg.Storage.DatabasePath)
		if err != nil {
			return fmt.Errorf("open history database: %w", err)
		}
		defer s.Close()
		repo = s
	}

	p := pipeline.New(cfg, logger, audit.New(logger, repo))

	input := pipeline.Input{}
	for _, path := range systemFiles {
		doc, err := loadFile(path)
		if err != nil {
			return err
		}
		input.SystemDocuments = append(input.SystemDocuments, doc)
	}
	for _, path := range supplierFiles {
		doc, err := loadFile(path)
		if err != nil {
			return err
		}
		input.SupplierDocuments = append(input.SupplierDocuments, doc)
	}

	out, err := p.Run(cmd.Context(), input)
	if err != nil {
		var verr *pipeline.ValidationError
		if errors.As(err, &verr) {
			for _, issue := range verr.Issues {
				fmt.Fprintln(cmd.ErrOrStderr(), "  -", issue)
			}
			return errors.New("input validation failed")
		}
		return err
	}

	for _, w := range out.Warnings {
		logger.Warn(w)
	}
	printSummary(cmd, out.Summary)

	target := outputPath
	if target == "" {
		target = cfg.Report.OutputPath
	}
	writer := report.NewWriter(cfg.Report)
	if err := writer.Write(target, out.Rows, out.Summary); err != nil {
		return err
	}
	logger.Info("report written", "path", target, "rows", out.Summary.TotalRows)
	return nil
}

// loadFile reads a tabular file and classifies its role from the
// filename and headers.
func loadFile(path string) (pipeline.Document, error) {
	var table canonical.RawTable
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		table, err = readers.ReadCSV(path)
	case ".xlsx":
		table, err = readers.ReadXLSX(path)
	case ".pdf":
		table, err = supplierpdf.New(supplierpdf.ContentExtractor{}).Convert(path)
	default:
		return pipeline.Document{}, fmt.Errorf("unsupported file type: %s", path)
	}
	if err != nil {
		return pipeline.Document{}, err
	}

	label := filepath.Base(path)
	result := classifier.ClassifyHeaders(append([]string{label}, table.Headers...))
	logger.Info(result.Message, "file", label, "rows", len(table.Rows))

	return pipeline.Document{Table: table, Label: label, Role: result.Role}, nil
}

func printSummary(cmd *cobra.Command, summary comparator.Summary) {
	ordered := []comparator.Status{
		comparator.StatusDeviation,
		comparator.StatusMissingOnInvoice,
		comparator.StatusMissingInSystem,
		comparator.StatusPartial,
		comparator.StatusOK,
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Resultaat (%d regels):\n", summary.TotalRows)
	for _, status := range ordered {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-22s %d\n", status, summary.StatusCounts[status])
	}
}
