package scoring

import (
	"biotriage/domain/pair"
)

// Fuse combines the three component scores into the final confidence value
// and assigns the tier. The combination is convex (weights sum to 1.0,
// enforced at config load), so increasing any component never lowers the
// final score. Tier rules evaluate in order with boundary values counting
// as the higher tier; this is the single authoritative classification
// decision point.
func Fuse(statistical, biological, progression float64, cfg Config) (float64, pair.Tier) {
	final := clamp100(cfg.Fusion.Statistical*statistical +
		cfg.Fusion.Biological*biological +
		cfg.Fusion.Progression*progression)

	switch {
	case final >= cfg.Cutoffs.GreenMin:
		return final, pair.TierGreen
	case final >= cfg.Cutoffs.AmberMin:
		return final, pair.TierAmber
	default:
		return final, pair.TierRed
	}
}

// ScoreRecord runs the three scorers and fusion over one validated record.
// The result is a pure function of (record, cfg); recomputation always
// yields an identical bundle.
func ScoreRecord(record pair.GenePairRecord, cfg Config) pair.ScoreBundle {
	statistical := ScoreStatistical(record, cfg)
	biological, neutral := ScoreBiological(record, cfg)
	progression, pattern := ScoreProgression(record, cfg)
	final, tier := Fuse(statistical, biological, progression, cfg)

	return pair.ScoreBundle{
		StatisticalScore:   statistical,
		BiologicalScore:    biological,
		BiologicalNeutral:  neutral,
		ProgressionScore:   progression,
		ProgressionPattern: pattern,
		FinalScore:         final,
		Tier:               tier,
	}
}
