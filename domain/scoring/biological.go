package scoring

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"

	"biotriage/domain/pair"
)

// NeutralBiologicalScore is returned when a record carries no biological
// signal fields at all. Reports flag these records so a neutral midpoint is
// never mistaken for evidence.
const NeutralBiologicalScore = 50.0

// signalIncrement is the log-odds contribution of one biological signal.
// A present signal adds the increment when it passes its threshold and
// subtracts it when it does not.
const signalIncrement = 1.0

var logistic = distuv.Logistic{Mu: 0, S: 1}

// ScoreBiological aggregates the optional, upstream-computed biological
// signals into a 0-100 plausibility score. Each present signal contributes
// a signed log-odds increment; the sum is squashed through a logistic CDF
// and scaled to [0,100]. The boolean result reports whether the neutral
// fallback was applied because no signal was present.
func ScoreBiological(record pair.GenePairRecord, cfg Config) (float64, bool) {
	present := false
	logOdds := 0.0

	if record.InteractionFlag != nil {
		present = true
		if strings.EqualFold(strings.TrimSpace(*record.InteractionFlag), "yes") {
			logOdds += signalIncrement
		} else {
			logOdds -= signalIncrement
		}
	}
	if record.PhenotypeFlag != nil {
		present = true
		if phenotypeSupportsLethality(*record.PhenotypeFlag) {
			logOdds += signalIncrement
		} else {
			logOdds -= signalIncrement
		}
	}
	if record.PathwayPValue != nil {
		present = true
		if *record.PathwayPValue < cfg.Thresholds.PathwayAlpha {
			logOdds += signalIncrement
		} else {
			logOdds -= signalIncrement
		}
	}
	if record.ExpressionZScore != nil {
		present = true
		if math.Abs(*record.ExpressionZScore) > cfg.Thresholds.ExpressionZMin {
			logOdds += signalIncrement
		} else {
			logOdds -= signalIncrement
		}
	}

	if !present {
		return NeutralBiologicalScore, true
	}
	return clamp100(logistic.CDF(logOdds) * 100), false
}

func phenotypeSupportsLethality(flag string) bool {
	switch strings.ToLower(strings.TrimSpace(flag)) {
	case "lethal", "immune":
		return true
	}
	return false
}
