package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"biotriage/domain/core"
	"biotriage/domain/pair"
	"biotriage/internal/errors"
	"biotriage/ports"
)

// runRepository implements ports.RunRepository on Postgres
type runRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &runRepository{db: db}
}

// SaveRun persists the run summary and every row outcome in one transaction
func (r *runRepository) SaveRun(ctx context.Context, summary pair.RunSummary, results []pair.RowResult) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	tierJSON, err := json.Marshal(summary.TierCounts)
	if err != nil {
		return fmt.Errorf("failed to marshal tier counts: %w", err)
	}
	reasonsJSON, err := json.Marshal(summary.QuarantineReasons)
	if err != nil {
		return fmt.Errorf("failed to marshal quarantine reasons: %w", err)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO triage_runs (
		id, profile, total, scored, quarantined, fallback_rationales,
		tier_counts, quarantine_reasons, mean_final, median_final, p90_final,
		started_at, completed_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		summary.RunID.String(), summary.Profile, summary.Total, summary.Scored, summary.Quarantined,
		summary.FallbackRationales, tierJSON, reasonsJSON,
		summary.MeanFinalScore, summary.MedianFinalScore, summary.P90FinalScore,
		summary.StartedAt.Time(), summary.CompletedAt.Time(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert triage run: %w", err)
	}

	for _, res := range results {
		recordJSON, err := json.Marshal(res.Record)
		if err != nil {
			return fmt.Errorf("failed to marshal record %s: %w", res.Record.PairID, err)
		}
		var scoresJSON, rationaleJSON []byte
		if res.Scores != nil {
			if scoresJSON, err = json.Marshal(res.Scores); err != nil {
				return fmt.Errorf("failed to marshal scores %s: %w", res.Record.PairID, err)
			}
		}
		if res.Rationale != nil {
			if rationaleJSON, err = json.Marshal(res.Rationale); err != nil {
				return fmt.Errorf("failed to marshal rationale %s: %w", res.Record.PairID, err)
			}
		}

		_, err = tx.ExecContext(ctx, `INSERT INTO triage_rows (
			run_id, row_index, pair_id, valid, reasons, record, scores, rationale
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			summary.RunID.String(), res.Index, res.Record.PairID,
			res.Outcome.Valid, joinReasons(res.Outcome.Reasons),
			recordJSON, nullable(scoresJSON), nullable(rationaleJSON),
		)
		if err != nil {
			return fmt.Errorf("failed to insert triage row %s: %w", res.Record.PairID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit triage run: %w", err)
	}
	return nil
}

// GetSummary retrieves a persisted run summary by ID
func (r *runRepository) GetSummary(ctx context.Context, runID string) (*pair.RunSummary, error) {
	rid, err := core.ParseRunID(runID)
	if err != nil {
		return nil, errors.InvalidInput(err.Error())
	}

	query := `SELECT
		id, profile, total, scored, quarantined, fallback_rationales,
		tier_counts, quarantine_reasons, mean_final, median_final, p90_final,
		started_at, completed_at
	FROM triage_runs WHERE id = $1`

	var summary pair.RunSummary
	var id string
	var tierJSON, reasonsJSON []byte
	var startedAt, completedAt sql.NullTime

	err = r.db.QueryRowContext(ctx, query, rid.String()).Scan(
		&id, &summary.Profile, &summary.Total, &summary.Scored, &summary.Quarantined,
		&summary.FallbackRationales, &tierJSON, &reasonsJSON,
		&summary.MeanFinalScore, &summary.MedianFinalScore, &summary.P90FinalScore,
		&startedAt, &completedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.DatabaseError(fmt.Sprintf("triage run not found: %s", rid))
		}
		return nil, fmt.Errorf("failed to get triage run: %w", err)
	}

	summary.RunID = core.RunID(id)
	if len(tierJSON) > 0 {
		if err := json.Unmarshal(tierJSON, &summary.TierCounts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tier counts: %w", err)
		}
	}
	if len(reasonsJSON) > 0 {
		if err := json.Unmarshal(reasonsJSON, &summary.QuarantineReasons); err != nil {
			return nil, fmt.Errorf("failed to unmarshal quarantine reasons: %w", err)
		}
	}
	if startedAt.Valid {
		summary.StartedAt = timestampOf(startedAt)
	}
	if completedAt.Valid {
		summary.CompletedAt = timestampOf(completedAt)
	}
	return &summary, nil
}
