package app

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"biotriage/domain/pair"
	"biotriage/domain/rationale"
	"biotriage/domain/scoring"
	"biotriage/internal"
	"biotriage/ports"
)

// TriageService runs the row-level pipeline: validate, score, fuse, and
// explain each record. Rows are independent, so they are processed by a
// bounded worker group and written back by input index; the returned slice
// is always in input order regardless of scheduling.
type TriageService struct {
	generator *rationale.Generator
	workers   int
	logger    *internal.Logger
}

// TriageOptions tune one service instance
type TriageOptions struct {
	// Workers bounds concurrent row processing; <= 0 selects NumCPU.
	Workers int
	// MaxTokens and Temperature seed external narrative requests.
	MaxTokens   int
	Temperature float64
}

// NewTriageService creates a triage service. A nil client pins every
// rationale to the deterministic fallback narrative.
func NewTriageService(client ports.CompletionClient, opts TriageOptions) *TriageService {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &TriageService{
		generator: rationale.NewGenerator(client, opts.MaxTokens, opts.Temperature),
		workers:   workers,
		logger:    internal.DefaultLogger,
	}
}

// Process classifies every record and returns one result per input record
// in input order. Configuration problems abort before any row is touched;
// per-row conditions (validation failure, rationale service failure) are
// captured in the row's own result and never interrupt other rows. On
// context cancellation the completed rows are returned alongside ctx.Err();
// no partially scored row is ever included.
func (s *TriageService) Process(ctx context.Context, records []pair.GenePairRecord, cfg scoring.Config) ([]pair.RowResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slots := make([]*pair.RowResult, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, record := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result := s.processRow(gctx, i, record, cfg)
			slots[i] = &result
			return nil
		})
	}
	err := g.Wait()

	results := make([]pair.RowResult, 0, len(records))
	for _, slot := range slots {
		if slot != nil {
			results = append(results, *slot)
		}
	}
	if err != nil {
		s.logger.Warn("[Triage] run interrupted after %d of %d rows: %v", len(results), len(records), err)
		return results, err
	}
	return results, nil
}

// processRow handles a single record end to end. It never returns an
// error: every per-row condition lands in the result itself.
func (s *TriageService) processRow(ctx context.Context, index int, record pair.GenePairRecord, cfg scoring.Config) pair.RowResult {
	result := pair.RowResult{
		Index:       index,
		Record:      record,
		SymbolFlags: scoring.FlagGeneSymbols(record),
	}

	result.Outcome = scoring.Validate(record, cfg)
	if !result.Outcome.Valid {
		s.logger.Debug("[Triage] quarantined %s: %v", record.PairID, result.Outcome.Reasons)
		return result
	}

	bundle := scoring.ScoreRecord(record, cfg)
	result.Scores = &bundle

	report := s.generator.Generate(ctx, record, bundle, cfg)
	result.Rationale = &report
	return result
}
