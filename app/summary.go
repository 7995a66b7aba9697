package app

import (
	"github.com/montanaflynn/stats"

	"biotriage/domain/core"
	"biotriage/domain/pair"
)

// BuildSummary aggregates a completed run: tier counts, quarantine reason
// counts, and the distribution of final scores. Every input row lands in
// exactly one of the scored or quarantined buckets.
func BuildSummary(runID core.RunID, profile string, results []pair.RowResult, startedAt core.Timestamp) pair.RunSummary {
	summary := pair.RunSummary{
		RunID:             runID,
		Profile:           profile,
		Total:             len(results),
		TierCounts:        map[pair.Tier]int{},
		QuarantineReasons: map[string]int{},
		StartedAt:         startedAt,
		CompletedAt:       core.Now(),
	}

	var finals []float64
	for _, res := range results {
		if res.Quarantined() {
			summary.Quarantined++
			for _, reason := range res.Outcome.Reasons {
				summary.QuarantineReasons[reason]++
			}
			continue
		}
		summary.Scored++
		summary.TierCounts[res.Scores.Tier]++
		finals = append(finals, res.Scores.FinalScore)
		if res.Rationale != nil && res.Rationale.FallbackMode {
			summary.FallbackRationales++
		}
	}

	if len(finals) > 0 {
		// stats errors only trigger on empty input, guarded above.
		summary.MeanFinalScore, _ = stats.Mean(finals)
		summary.MedianFinalScore, _ = stats.Median(finals)
		summary.P90FinalScore, _ = stats.Percentile(finals, 90)
	}
	return summary
}
