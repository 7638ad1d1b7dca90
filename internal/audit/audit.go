// Package audit emits the structured audit trail of comparison runs and
// records them in the run history.
//
// Audit events are privacy-scrubbed: they carry file labels, row counts,
// tolerances and status counts, never article names, codes or amounts.
package audit

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bkooistra/factuurcheck/internal/domain/comparator"
	"github.com/bkooistra/factuurcheck/internal/infrastructure/config"
	"github.com/bkooistra/factuurcheck/internal/infrastructure/storage"
)

// Auditor logs comparison lifecycle events and persists finished runs.
type Auditor struct {
	logger *slog.Logger
	repo   storage.Repository
	now    func() time.Time
}

// New creates an auditor. The repository may be nil, in which case runs
// are logged but not persisted.
func New(logger *slog.Logger, repo storage.Repository) *Auditor {
	return &Auditor{
		logger: logger,
		repo:   repo,
		now:    time.Now,
	}
}

// RunContext identifies one in-flight comparison.
type RunContext struct {
	ID           string
	StartedAt    time.Time
	SourceLabels []string
	TargetLabels []string
}

// ComparisonStarted opens a run and logs the start event.
func (a *Auditor) ComparisonStarted(sourceLabels, targetLabels []string) *RunContext {
	run := &RunContext{
		ID:           uuid.NewString(),
		StartedAt:    a.now(),
		SourceLabels: sourceLabels,
		TargetLabels: targetLabels,
	}
	a.logger.Info("comparison started",
		"run_id", run.ID,
		"source_documents", len(sourceLabels),
		"target_documents", len(targetLabels),
	)
	return run
}

// ComparisonFinished logs the finish event and persists the run.
func (a *Auditor) ComparisonFinished(run *RunContext, summary comparator.Summary,
	sourceRows, targetRows, warningCount int, tolerances config.Tolerances) {

	finished := a.now()
	duration := finished.Sub(run.StartedAt)

	counts := make(map[string]int, len(summary.StatusCounts))
	for status, n := range summary.StatusCounts {
		counts[string(status)] = n
	}

	a.logger.Info("comparison finished",
		"run_id", run.ID,
		"duration_ms", duration.Milliseconds(),
		"result_rows", summary.TotalRows,
		"deviations", counts[string(comparator.StatusDeviation)],
		"warnings", warningCount,
	)

	if a.repo == nil {
		return
	}
	record := &storage.Run{
		ID:                 run.ID,
		StartedAt:          run.StartedAt,
		FinishedAt:         finished,
		DurationMS:         duration.Milliseconds(),
		SourceLabels:       run.SourceLabels,
		TargetLabels:       run.TargetLabels,
		SourceRows:         sourceRows,
		TargetRows:         targetRows,
		ResultRows:         summary.TotalRows,
		StatusCounts:       counts,
		ToleranceNetAmount: tolerances.NetAmount,
		TolerancePrice:     tolerances.Price,
		WarningCount:       warningCount,
	}
	if err := a.repo.SaveRun(record); err != nil {
		// History is best effort, a failed save never fails the run.
		a.logger.Warn("failed to save run history", "run_id", run.ID, "error", err)
	}
}

// ComparisonFailed logs a run that ended in an error.
func (a *Auditor) ComparisonFailed(run *RunContext, err error) {
	a.logger.Error("comparison failed",
		"run_id", run.ID,
		"duration_ms", a.now().Sub(run.StartedAt).Milliseconds(),
		"error", err,
	)
}
