package pair

import (
	"biotriage/domain/core"
)

// RowResult is the terminal outcome for one input record. Exactly one of
// the quarantined/scored states holds: an invalid record carries reasons
// and nil Scores/Rationale, a valid record carries a complete bundle and
// report. Results are emitted in input order regardless of internal
// processing order.
type RowResult struct {
	Index       int               `json:"index"`
	Record      GenePairRecord    `json:"record"`
	Outcome     ValidationOutcome `json:"outcome"`
	Scores      *ScoreBundle      `json:"scores,omitempty"`
	Rationale   *RationaleReport  `json:"rationale,omitempty"`
	SymbolFlags []string          `json:"symbol_flags,omitempty"`
}

// Quarantined reports whether the record failed validation
func (r RowResult) Quarantined() bool {
	return !r.Outcome.Valid
}

// RunSummary aggregates one triage run: tier and quarantine-reason counts
// plus distribution statistics of the final scores. No row silently
// disappears; Total always equals Scored + Quarantined.
type RunSummary struct {
	RunID              core.RunID     `json:"run_id"`
	Profile            string         `json:"profile"`
	Total              int            `json:"total"`
	Scored             int            `json:"scored"`
	Quarantined        int            `json:"quarantined"`
	TierCounts         map[Tier]int   `json:"tier_counts"`
	QuarantineReasons  map[string]int `json:"quarantine_reasons"`
	FallbackRationales int            `json:"fallback_rationales"`
	MeanFinalScore     float64        `json:"mean_final_score"`
	MedianFinalScore   float64        `json:"median_final_score"`
	P90FinalScore      float64        `json:"p90_final_score"`
	StartedAt          core.Timestamp `json:"started_at"`
	CompletedAt        core.Timestamp `json:"completed_at"`
}
