package scoring

import (
	"math"

	"biotriage/domain/pair"
)

// clamp100 bounds a component score to the [0,100] scale
func clamp100(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

// pValueTransform maps a meta-analysis p-value onto [0,100] using a
// -log10 ramp saturating at p = 1e-6. A p-value of exactly zero is treated
// as the maximum attainable evidence rather than a log-domain error.
func pValueTransform(p float64) float64 {
	if p <= 0 {
		return 100
	}
	return clamp100(100 * -math.Log10(p) / 6)
}

// effectSizeTransform ramps |Cohen's d| linearly from 0 to 100, saturating
// at the configured full-effect magnitude (0.4 by default).
func effectSizeTransform(d, full float64) float64 {
	return clamp100(math.Abs(d) / full * 100)
}

// heterogeneityTransform rewards low between-study variance: I^2 of 0
// scores 100, I^2 of 100 scores 0.
func heterogeneityTransform(iSquared float64) float64 {
	return clamp100(100 - iSquared)
}

// consistencyTransform scales the kappa agreement statistic to [0,100]
func consistencyTransform(kappa float64) float64 {
	return clamp100(kappa * 100)
}

// eggerBiasTransform is a hard gate on publication bias: an Egger's test
// p-value under the significance level zeroes the component.
func eggerBiasTransform(eggerP, alpha float64) float64 {
	if eggerP < alpha {
		return 0
	}
	return 100
}

// powerTransform scales the meta-analysis power score to [0,100]
func powerTransform(power float64) float64 {
	return clamp100(power * 100)
}

// ScoreStatistical converts the six meta-analysis metrics of a validated
// record into a 0-100 composite via a weighted average. Missing optional
// metrics are excluded and their weights redistributed proportionally
// across the present metrics, so the composite stays in [0,100] with
// partial data.
func ScoreStatistical(record pair.GenePairRecord, cfg Config) float64 {
	type component struct {
		present bool
		weight  float64
		score   float64
	}

	components := []component{
		{record.PSS != nil, cfg.Statistical.PValue, 0},
		{record.DzSSMean != nil, cfg.Statistical.EffectSize, 0},
		{record.ISquared != nil, cfg.Statistical.Heterogeneity, 0},
		{record.Kappa != nil, cfg.Statistical.Consistency, 0},
		{record.EggerP != nil, cfg.Statistical.Bias, 0},
		{record.PowerScore != nil, cfg.Statistical.Power, 0},
	}
	if components[0].present {
		components[0].score = pValueTransform(*record.PSS)
	}
	if components[1].present {
		components[1].score = effectSizeTransform(*record.DzSSMean, cfg.Thresholds.EffectSizeFull)
	}
	if components[2].present {
		components[2].score = heterogeneityTransform(*record.ISquared)
	}
	if components[3].present {
		components[3].score = consistencyTransform(*record.Kappa)
	}
	if components[4].present {
		components[4].score = eggerBiasTransform(*record.EggerP, cfg.Thresholds.EggerAlpha)
	}
	if components[5].present {
		components[5].score = powerTransform(*record.PowerScore)
	}

	// Explicit renormalization: sum the weights of present metrics and
	// divide each by that sum.
	presentWeight := 0.0
	for _, c := range components {
		if c.present {
			presentWeight += c.weight
		}
	}
	if presentWeight <= 0 {
		return 0
	}

	weighted := 0.0
	for _, c := range components {
		if c.present {
			weighted += c.score * (c.weight / presentWeight)
		}
	}
	return clamp100(weighted)
}
