package app

import (
	"context"
	"fmt"
	"time"

	"biotriage/domain/core"
	"biotriage/domain/pair"
	"biotriage/domain/scoring"
	"biotriage/internal"
	"biotriage/ports"
)

// ReportSink renders the workbook report of a completed run
type ReportSink interface {
	Write(summary pair.RunSummary, results []pair.RowResult, cfg scoring.Config, metadata map[string]string) error
}

// RationaleSink writes the flagged rationale documents of a completed run
type RationaleSink interface {
	WriteFlagged(results []pair.RowResult) (int, error)
}

// PipelineService orchestrates a full analysis run: ingest records, triage
// them, summarize, render reports, and optionally persist. Failures of the
// optional sinks after scoring do not invalidate the scored results.
type PipelineService struct {
	triage     *TriageService
	source     ports.RecordSource
	report     ReportSink
	rationales RationaleSink
	repository ports.RunRepository
	logger     *internal.Logger
}

// NewPipelineService wires a pipeline. Report, rationale, and repository
// sinks may be nil to skip the corresponding step.
func NewPipelineService(triage *TriageService, source ports.RecordSource, report ReportSink, rationales RationaleSink, repository ports.RunRepository) *PipelineService {
	return &PipelineService{
		triage:     triage,
		source:     source,
		report:     report,
		rationales: rationales,
		repository: repository,
		logger:     internal.DefaultLogger,
	}
}

// RunResult is the complete output of one pipeline run
type RunResult struct {
	Summary pair.RunSummary  `json:"summary"`
	Results []pair.RowResult `json:"results"`
	Elapsed time.Duration    `json:"elapsed"`
}

// Run executes the pipeline once against the configured source
func (s *PipelineService) Run(ctx context.Context, cfg scoring.Config, metadata map[string]string) (*RunResult, error) {
	startedAt := core.Now()
	runID := core.RunID(core.NewID())
	s.logger.Info("[Pipeline] Starting triage run %s (profile %s)", runID, cfg.Profile)

	records, err := s.source.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	s.logger.Info("[Pipeline] Read %d records", len(records))

	results, err := s.triage.Process(ctx, records, cfg)
	if err != nil {
		return nil, err
	}

	summary := BuildSummary(runID, cfg.Profile, results, startedAt)
	s.logger.Info("[Pipeline] Scored %d rows, quarantined %d (green %d, amber %d, red %d)",
		summary.Scored, summary.Quarantined,
		summary.TierCounts[pair.TierGreen], summary.TierCounts[pair.TierAmber], summary.TierCounts[pair.TierRed])

	if metadata == nil {
		metadata = map[string]string{}
	}
	metadata["run_id"] = runID.String()
	metadata["profile"] = cfg.Profile
	metadata["timestamp"] = time.Now().UTC().Format(time.RFC3339)

	if s.report != nil {
		if err := s.report.Write(summary, results, cfg, metadata); err != nil {
			return nil, fmt.Errorf("failed to write report: %w", err)
		}
	}
	if s.rationales != nil {
		written, err := s.rationales.WriteFlagged(results)
		if err != nil {
			return nil, fmt.Errorf("failed to write flagged rationales: %w", err)
		}
		s.logger.Info("[Pipeline] Wrote %d flagged rationale documents", written)
	}
	if s.repository != nil {
		if err := s.repository.SaveRun(ctx, summary, results); err != nil {
			return nil, fmt.Errorf("failed to persist run: %w", err)
		}
		s.logger.Info("[Pipeline] Persisted run %s", runID)
	}

	elapsed := summary.CompletedAt.Time().Sub(startedAt.Time())
	return &RunResult{Summary: summary, Results: results, Elapsed: elapsed}, nil
}
