package scoring

import (
	"math"

	"biotriage/domain/pair"
)

// ScoreProgression derives the sepsis-to-shock progression signal from the
// two correlation fields. Missing correlations are treated as zero, which
// yields a stable pattern with no signal. Boundary deltas count as the
// non-stable pattern.
func ScoreProgression(record pair.GenePairRecord, cfg Config) (float64, pair.ProgressionPattern) {
	sepsis := 0.0
	if record.SepsisCorrelation != nil {
		sepsis = *record.SepsisCorrelation
	}
	shock := 0.0
	if record.ShockCorrelation != nil {
		shock = *record.ShockCorrelation
	}

	delta := shock - sepsis
	boundary := cfg.Thresholds.ProgressionBoundary

	pattern := pair.PatternStable
	switch {
	case delta >= boundary:
		pattern = pair.PatternAmplificationPositive
	case delta <= -boundary:
		pattern = pair.PatternAttenuationNegative
	}

	score := math.Min(100, math.Abs(delta)*100)
	return score, pattern
}
