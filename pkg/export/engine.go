package export

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mailexport/pkg/checkpoint"
	"mailexport/pkg/errors"
	"mailexport/pkg/filter"
	"mailexport/pkg/logger"
)

// Mode selects how a run relates to prior progress for the same job
type Mode int

const (
	// ModeResume continues from the stored cursor, skipping every
	// identifier already in the checkpoint.
	ModeResume Mode = iota
	// ModeFresh deletes any existing checkpoint before starting
	ModeFresh
	// ModeStartFrom ignores the stored cursor and begins at an ordinal
	// position, still skipping already-processed identifiers.
	ModeStartFrom
)

// Options controls a single run
type Options struct {
	Mode Mode
	// StartFrom is the 1-based ordinal to begin at (ModeStartFrom only)
	StartFrom int
	// CountLimit stops the run after N exports (or N enumerated items
	// in inspection mode); 0 means unlimited.
	CountLimit int
	// CreateArtifacts enables processing and checkpoint writes. When
	// false the run only enumerates and counts, and never touches the
	// stored checkpoint.
	CreateArtifacts bool
}

// Status is the terminal state of a run
type Status string

const (
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// RunSummary reports the outcome of a run. It is always produced, even
// on partial or fatal termination.
type RunSummary struct {
	RunID   string
	Account string
	Filter  string
	Status  Status

	TotalSeen             int
	TotalExported         int
	TotalSkippedDuplicate int
	TotalFailed           int

	// Failures maps identifiers that failed during this run to reasons
	Failures map[string]string

	StartedAt time.Time
	Duration  time.Duration
}

// Engine drives one filtered message sequence through the processor,
// checkpointing progress after every item attempt and every page. It
// runs a single logical worker, strictly in source order; callers must
// not start concurrent runs against the same (account, filter) job.
type Engine struct {
	source      Source
	processor   Processor
	checkpoints CheckpointStore
	reporter    Reporter
	logger      logger.Logger
}

// NewEngine creates an export engine. A nil reporter is replaced with a
// no-op one.
func NewEngine(source Source, processor Processor, checkpoints CheckpointStore, reporter Reporter) *Engine {
	if reporter == nil {
		reporter = nopReporter{}
	}
	return &Engine{
		source:      source,
		processor:   processor,
		checkpoints: checkpoints,
		reporter:    reporter,
		logger:      logger.GetLogger(),
	}
}

// Run exports every message the filter matches, honoring opts. Fatal
// source and checkpoint errors are returned alongside a failed summary;
// per-item failures are recorded and never abort the run. Cancellation
// via ctx is cooperative: the current item finishes, the checkpoint is
// persisted, and the summary comes back with StatusCancelled.
func (e *Engine) Run(ctx context.Context, account string, spec filter.Spec, opts Options) (*RunSummary, error) {
	summary := &RunSummary{
		RunID:     uuid.NewString(),
		Account:   account,
		Filter:    spec.String(),
		Failures:  make(map[string]string),
		StartedAt: time.Now(),
	}

	if err := spec.Validate(); err != nil {
		return e.fail(summary, fmt.Errorf("invalid filter: %w", err))
	}
	signature := spec.Signature()

	log := e.logger.WithFields(map[string]interface{}{
		"run_id":    summary.RunID,
		"account":   account,
		"filter":    spec.String(),
		"signature": signature,
	})

	if opts.Mode == ModeFresh {
		if err := e.checkpoints.Clear(account, signature); err != nil {
			return e.fail(summary, fmt.Errorf("failed to clear checkpoint: %w", err))
		}
		log.Info("Starting fresh, prior checkpoint cleared")
	}

	record, err := e.checkpoints.Load(account, signature)
	if err != nil {
		// A corrupt checkpoint must surface, never start over silently
		return e.fail(summary, fmt.Errorf("failed to load checkpoint: %w", err))
	}

	cursor := record.Cursor
	switch opts.Mode {
	case ModeFresh:
		cursor = ""
	case ModeStartFrom:
		start := opts.StartFrom
		if start < 1 {
			start = 1
		}
		cursor = e.source.CursorAt(start - 1)
		log.InfoWithFields("Ignoring stored cursor", map[string]interface{}{
			"start_from": start,
		})
	case ModeResume:
		if cursor != "" || len(record.ProcessedIDs) > 0 {
			log.InfoWithFields("Resuming from checkpoint", map[string]interface{}{
				"cursor":          cursor,
				"total_exported":  record.TotalExported,
				"failed_recorded": len(record.FailedIDs),
			})
		}
	}

	estimated := e.source.EstimatedTotal()
	pageNum := 0

	for {
		if ctx.Err() != nil {
			return e.cancel(summary, record, opts, log)
		}

		page, err := e.source.NextPage(ctx, cursor)
		if err != nil {
			if ctx.Err() != nil {
				return e.cancel(summary, record, opts, log)
			}
			// The checkpoint still reflects the last completed page, so
			// the next resume continues exactly where this run stopped.
			return e.fail(summary, errors.Wrap(errors.ErrorTypeSource,
				"failed to fetch next page", err))
		}
		pageNum++
		if estimated < 0 {
			estimated = e.source.EstimatedTotal()
		}
		logger.LogPageFetch(account, pageNum, len(page.Items), cursor)

		for _, item := range page.Items {
			if e.limitReached(summary, opts) {
				return e.complete(summary, record, opts, log)
			}
			select {
			case <-ctx.Done():
				return e.cancel(summary, record, opts, log)
			default:
			}

			summary.TotalSeen++

			if record.IsProcessed(item.ID) {
				summary.TotalSkippedDuplicate++
				e.report(summary, estimated)
				continue
			}

			if !opts.CreateArtifacts {
				e.report(summary, estimated)
				continue
			}

			artifact, perr := e.processor.Process(ctx, item)
			if perr != nil {
				if ctx.Err() != nil {
					return e.cancel(summary, record, opts, log)
				}
				reason := perr.Error()
				record.MarkFailed(item.ID, reason)
				summary.TotalFailed++
				summary.Failures[item.ID] = reason
				if serr := e.checkpoints.Save(record); serr != nil {
					return e.fail(summary, fmt.Errorf("failed to persist checkpoint: %w", serr))
				}
				logger.LogExport(account, item.ID, false, perr)
				e.report(summary, estimated)
				continue
			}

			// Checkpoint write follows the artifact write: a crash in
			// between re-exports at most this one item on resume.
			record.MarkProcessed(item.ID, artifact.Path)
			summary.TotalExported++
			if serr := e.checkpoints.Save(record); serr != nil {
				return e.fail(summary, fmt.Errorf("failed to persist checkpoint: %w", serr))
			}
			logger.LogExport(account, item.ID, true, nil)
			e.report(summary, estimated)
		}

		cursor = page.NextCursor
		if opts.CreateArtifacts {
			record.Cursor = page.NextCursor
			if serr := e.checkpoints.Save(record); serr != nil {
				return e.fail(summary, fmt.Errorf("failed to persist checkpoint: %w", serr))
			}
		}
		e.report(summary, estimated)

		if !page.HasMore {
			break
		}
	}

	return e.complete(summary, record, opts, log)
}

// limitReached applies the count limit: exported items normally,
// enumerated items in inspection-only mode.
func (e *Engine) limitReached(summary *RunSummary, opts Options) bool {
	if opts.CountLimit <= 0 {
		return false
	}
	if opts.CreateArtifacts {
		return summary.TotalExported >= opts.CountLimit
	}
	return summary.TotalSeen >= opts.CountLimit
}

func (e *Engine) report(summary *RunSummary, estimated int) {
	e.reporter.Update(Progress{
		TotalSeen:             summary.TotalSeen,
		TotalExported:         summary.TotalExported,
		TotalSkippedDuplicate: summary.TotalSkippedDuplicate,
		TotalFailed:           summary.TotalFailed,
		EstimatedTotal:        estimated,
	})
}

func (e *Engine) complete(summary *RunSummary, record *checkpoint.Record, opts Options, log logger.Logger) (*RunSummary, error) {
	if opts.CreateArtifacts {
		if err := e.checkpoints.Save(record); err != nil {
			return e.fail(summary, fmt.Errorf("failed to persist checkpoint: %w", err))
		}
	}
	summary.Status = StatusCompleted
	summary.Duration = time.Since(summary.StartedAt)
	log.InfoWithFields("Run completed", map[string]interface{}{
		"seen":     summary.TotalSeen,
		"exported": summary.TotalExported,
		"skipped":  summary.TotalSkippedDuplicate,
		"failed":   summary.TotalFailed,
		"duration": summary.Duration,
	})
	return summary, nil
}

func (e *Engine) cancel(summary *RunSummary, record *checkpoint.Record, opts Options, log logger.Logger) (*RunSummary, error) {
	if opts.CreateArtifacts {
		if err := e.checkpoints.Save(record); err != nil {
			return e.fail(summary, fmt.Errorf("failed to persist checkpoint on cancel: %w", err))
		}
	}
	summary.Status = StatusCancelled
	summary.Duration = time.Since(summary.StartedAt)
	log.WarnWithFields("Run cancelled", map[string]interface{}{
		"seen":     summary.TotalSeen,
		"exported": summary.TotalExported,
	})
	return summary, nil
}

func (e *Engine) fail(summary *RunSummary, err error) (*RunSummary, error) {
	summary.Status = StatusFailed
	summary.Duration = time.Since(summary.StartedAt)
	e.logger.WithError(err).ErrorWithFields("Run failed", map[string]interface{}{
		"run_id":   summary.RunID,
		"account":  summary.Account,
		"exported": summary.TotalExported,
		"failed":   summary.TotalFailed,
	})
	return summary, err
}

// IsCheckpointCorruption reports whether a run error was caused by a
// checkpoint that exists but cannot be trusted.
func IsCheckpointCorruption(err error) bool {
	var typed *errors.Error
	if stderrors.As(err, &typed) {
		return typed.Type == errors.ErrorTypeCheckpoint
	}
	return false
}
