package rationale

import (
	"fmt"
	"strings"

	"biotriage/domain/pair"
)

// FallbackNarrative renders the deterministic template narrative from the
// structured facts. It is the narrative of record whenever the external
// service is absent, disabled, or failing, and is never empty.
func FallbackNarrative(record pair.GenePairRecord, bundle pair.ScoreBundle, factors []pair.FactorStatement) string {
	var sections []string

	genes := "unnamed genes"
	if record.GeneA != "" || record.GeneB != "" {
		genes = fmt.Sprintf("genes %s and %s", orDash(record.GeneA), orDash(record.GeneB))
	}
	sections = append(sections, fmt.Sprintf("Pair %s features %s.", record.PairID, genes))

	sections = append(sections, fmt.Sprintf(
		"Statistical review: credibility composite %.1f/100 (p-value %s, effect size %s, heterogeneity %s, consistency %s, publication bias %s, power %s).",
		bundle.StatisticalScore,
		factorState(factors, "p_value"),
		factorState(factors, "effect_size"),
		factorState(factors, "heterogeneity"),
		factorState(factors, "consistency"),
		factorState(factors, "publication_bias"),
		factorState(factors, "power"),
	))

	if bundle.BiologicalNeutral {
		sections = append(sections, "Biological assessment unavailable - neutral score applied.")
	} else {
		sections = append(sections, fmt.Sprintf("Biological plausibility ensemble scored %.1f/100.", bundle.BiologicalScore))
	}

	sections = append(sections, fmt.Sprintf(
		"Clinical progression shows pattern %s with signal strength %.1f/100.",
		bundle.ProgressionPattern, bundle.ProgressionScore,
	))

	sections = append(sections, fmt.Sprintf(
		"Fused confidence %.1f/100 places this pair in tier %s. Recommendation: %s.",
		bundle.FinalScore, bundle.Tier, recommendation(bundle.Tier),
	))

	return strings.Join(sections, " \n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func factorState(factors []pair.FactorStatement, name string) string {
	for _, f := range factors {
		if f.Name == name {
			if f.Passed {
				return "pass"
			}
			return "fail"
		}
	}
	return "n/a"
}

func recommendation(tier pair.Tier) string {
	switch tier {
	case pair.TierGreen:
		return "proceed to validation"
	case pair.TierAmber:
		return "hold for manual review"
	default:
		return "reject from the candidate set"
	}
}
