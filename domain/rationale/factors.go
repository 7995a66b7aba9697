package rationale

import (
	"fmt"
	"math"

	"biotriage/domain/pair"
	"biotriage/domain/scoring"
)

// BuildFactors assembles the ordered contributing-factor statements for a
// scored record: each present input metric with its nominal threshold and
// pass/fail state, then the three component scores and the fused result.
// Output is byte-identical across runs for identical inputs.
func BuildFactors(record pair.GenePairRecord, bundle pair.ScoreBundle, cfg scoring.Config) []pair.FactorStatement {
	t := cfg.Thresholds
	var factors []pair.FactorStatement

	if record.PSS != nil {
		factors = append(factors, pair.FactorStatement{
			Name:      "p_value",
			Value:     *record.PSS,
			Threshold: t.MaxPValue,
			Passed:    *record.PSS <= t.MaxPValue,
			Detail:    fmt.Sprintf("meta-analysis p-value %.3g against cap %.3g", *record.PSS, t.MaxPValue),
		})
	}
	if record.DzSSMean != nil {
		factors = append(factors, pair.FactorStatement{
			Name:      "effect_size",
			Value:     *record.DzSSMean,
			Threshold: t.EffectSizeFull,
			Passed:    math.Abs(*record.DzSSMean) >= t.EffectSizeFull,
			Detail:    fmt.Sprintf("Cohen's d %.2f against full-effect magnitude %.2f", *record.DzSSMean, t.EffectSizeFull),
		})
	}
	if record.ISquared != nil {
		factors = append(factors, pair.FactorStatement{
			Name:      "heterogeneity",
			Value:     *record.ISquared,
			Threshold: t.MaxHeterogeneity,
			Passed:    *record.ISquared <= t.MaxHeterogeneity,
			Detail:    fmt.Sprintf("I-squared %.1f%% against ceiling %.1f%%", *record.ISquared, t.MaxHeterogeneity),
		})
	}
	if record.Kappa != nil {
		factors = append(factors, pair.FactorStatement{
			Name:      "consistency",
			Value:     *record.Kappa,
			Threshold: nominalKappa,
			Passed:    *record.Kappa >= nominalKappa,
			Detail:    fmt.Sprintf("kappa agreement %.2f against nominal %.2f", *record.Kappa, nominalKappa),
		})
	}
	if record.EggerP != nil {
		factors = append(factors, pair.FactorStatement{
			Name:      "publication_bias",
			Value:     *record.EggerP,
			Threshold: t.EggerAlpha,
			Passed:    *record.EggerP >= t.EggerAlpha,
			Detail:    fmt.Sprintf("Egger's test p %.3g against alpha %.3g", *record.EggerP, t.EggerAlpha),
		})
	}
	if record.PowerScore != nil {
		factors = append(factors, pair.FactorStatement{
			Name:      "power",
			Value:     *record.PowerScore,
			Threshold: t.MinPower,
			Passed:    *record.PowerScore >= t.MinPower,
			Detail:    fmt.Sprintf("power score %.2f against floor %.2f", *record.PowerScore, t.MinPower),
		})
	}

	factors = append(factors,
		pair.FactorStatement{
			Name:      "statistical_score",
			Value:     bundle.StatisticalScore,
			Threshold: cfg.Cutoffs.AmberMin,
			Passed:    bundle.StatisticalScore >= cfg.Cutoffs.AmberMin,
			Detail:    fmt.Sprintf("statistical credibility composite %.2f", bundle.StatisticalScore),
		},
		pair.FactorStatement{
			Name:      "biological_score",
			Value:     bundle.BiologicalScore,
			Threshold: cfg.Cutoffs.AmberMin,
			Passed:    bundle.BiologicalScore >= cfg.Cutoffs.AmberMin,
			Detail:    biologicalDetail(bundle),
		},
		pair.FactorStatement{
			Name:      "progression_score",
			Value:     bundle.ProgressionScore,
			Threshold: 0,
			Passed:    bundle.ProgressionPattern != pair.PatternStable,
			Detail:    fmt.Sprintf("progression signal %.2f, pattern %s", bundle.ProgressionScore, bundle.ProgressionPattern),
		},
		pair.FactorStatement{
			Name:      "final_score",
			Value:     bundle.FinalScore,
			Threshold: cfg.Cutoffs.GreenMin,
			Passed:    bundle.FinalScore >= cfg.Cutoffs.GreenMin,
			Detail:    fmt.Sprintf("fused confidence %.2f, tier %s", bundle.FinalScore, bundle.Tier),
		},
	)
	return factors
}

// nominalKappa is the conventional substantial-agreement floor reported in
// the consistency factor statement.
const nominalKappa = 0.6

func biologicalDetail(bundle pair.ScoreBundle) string {
	if bundle.BiologicalNeutral {
		return "biological assessment unavailable - neutral score applied"
	}
	return fmt.Sprintf("biological plausibility ensemble %.2f", bundle.BiologicalScore)
}
