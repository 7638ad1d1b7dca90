// Package pipeline orchestrates a full comparison: validation and
// normalization per document, aggregation per side, matching and rule
// evaluation, and the audit trail.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/bkooistra/factuurcheck/internal/audit"
	"github.com/bkooistra/factuurcheck/internal/domain/aggregator"
	"github.com/bkooistra/factuurcheck/internal/domain/canonical"
	"github.com/bkooistra/factuurcheck/internal/domain/comparator"
	"github.com/bkooistra/factuurcheck/internal/domain/normalizer"
	"github.com/bkooistra/factuurcheck/internal/domain/validator"
	"github.com/bkooistra/factuurcheck/internal/infrastructure/config"
)

// normalizeConcurrency bounds the parallel per-document normalization.
const normalizeConcurrency = 4

// Document is one input file on either side of the comparison.
type Document struct {
	Table canonical.RawTable
	Label string
	Role  canonical.Role
}

// Input carries both sides of a comparison. The system side is the
// internal export, the supplier side holds delivery notes and invoices.
type Input struct {
	SystemDocuments   []Document
	SupplierDocuments []Document
}

// Output is the full result of one comparison run.
type Output struct {
	RunID          string
	Rows           []comparator.ResultRow
	Summary        comparator.Summary
	Warnings       []string
	SystemMetadata aggregator.Metadata
	TargetMetadata aggregator.Metadata
}

// ValidationError reports per-document validation failures. The caller
// shows Issues to the user; nothing was compared.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("input validation failed: %s", strings.Join(e.Issues, "; "))
}

// Pipeline wires the domain components together.
type Pipeline struct {
	normalizer *normalizer.Normalizer
	aggregator *aggregator.Aggregator
	comparator *comparator.Comparator
	auditor    *audit.Auditor
	logger     *slog.Logger
	tolerances config.Tolerances
}

// New builds a pipeline from configuration.
func New(cfg *config.Config, logger *slog.Logger, auditor *audit.Auditor) *Pipeline {
	return &Pipeline{
		normalizer: normalizer.New(cfg.Columns.ExtraSynonyms),
		aggregator: aggregator.New(cfg.Tolerances),
		comparator: comparator.New(cfg.Tolerances),
		auditor:    auditor,
		logger:     logger,
		tolerances: cfg.Tolerances,
	}
}

// Run executes a comparison end to end.
//
// System exports are validated as-is because their headers are already
// canonical. Supplier documents go through column mapping first, their
// raw headers are unpredictable. Either way every document is validated
// before any number reaches the comparison.
func (p *Pipeline) Run(ctx context.Context, input Input) (*Output, error) {
	if len(input.SystemDocuments) == 0 {
		return nil, &ValidationError{Issues: []string{"no system export provided"}}
	}
	if len(input.SupplierDocuments) == 0 {
		return nil, &ValidationError{Issues: []string{"no supplier documents provided"}}
	}

	run := p.auditor.ComparisonStarted(labels(input.SystemDocuments), labels(input.SupplierDocuments))

	sourceTables, sourceIssues, err := p.prepareSide(ctx, input.SystemDocuments, false)
	if err != nil {
		p.auditor.ComparisonFailed(run, err)
		return nil, err
	}
	targetTables, targetIssues, err := p.prepareSide(ctx, input.SupplierDocuments, true)
	if err != nil {
		p.auditor.ComparisonFailed(run, err)
		return nil, err
	}

	if issues := append(sourceIssues, targetIssues...); len(issues) > 0 {
		verr := &ValidationError{Issues: issues}
		p.auditor.ComparisonFailed(run, verr)
		return nil, verr
	}

	source, err := p.aggregator.Aggregate(sourceTables, labels(input.SystemDocuments), roles(input.SystemDocuments))
	if err != nil {
		p.auditor.ComparisonFailed(run, err)
		return nil, fmt.Errorf("aggregate system documents: %w", err)
	}
	target, err := p.aggregator.Aggregate(targetTables, labels(input.SupplierDocuments), roles(input.SupplierDocuments))
	if err != nil {
		p.auditor.ComparisonFailed(run, err)
		return nil, fmt.Errorf("aggregate supplier documents: %w", err)
	}

	rows := p.comparator.Compare(source.Table, target.Table)
	summary := comparator.Summarize(rows)

	warnings := append(source.Warnings, target.Warnings...)
	p.auditor.ComparisonFinished(run, summary,
		source.Metadata.InputRows, target.Metadata.InputRows,
		len(warnings), p.tolerances)

	return &Output{
		RunID:          run.ID,
		Rows:           rows,
		Summary:        summary,
		Warnings:       warnings,
		SystemMetadata: source.Metadata,
		TargetMetadata: target.Metadata,
	}, nil
}

// prepareSide validates and normalizes all documents of one side. The
// documents are processed in parallel with results slotted by index, so
// ordering stays deterministic regardless of scheduling.
func (p *Pipeline) prepareSide(ctx context.Context, docs []Document, mapFirst bool) ([]canonical.Table, []string, error) {
	tables := make([]canonical.Table, len(docs))
	issues := make([][]string, len(docs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(normalizeConcurrency)

	for i, doc := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			raw := doc.Table
			if mapFirst {
				raw = p.normalizer.MapColumns(raw)
			}
			if ok, errs := validator.Validate(raw, doc.Label); !ok {
				issues[i] = errs
				return nil
			}
			tables[i] = p.normalizer.Normalize(raw, doc.Label)
			p.logger.Debug("document normalized", "label", doc.Label, "rows", len(tables[i]))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var flat []string
	for _, docIssues := range issues {
		flat = append(flat, docIssues...)
	}
	return tables, flat, nil
}

func labels(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Label
	}
	return out
}

func roles(docs []Document) []canonical.Role {
	out := make([]canonical.Role, len(docs))
	for i, d := range docs {
		out[i] = d.Role
	}
	return out
}
