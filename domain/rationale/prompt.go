package rationale

import (
	"fmt"
	"strings"

	"biotriage/domain/pair"
)

// SystemPrompt frames the completion request for the external service
const SystemPrompt = "You are an expert sepsis biomarker analyst. Summarise statistical validity, " +
	"biological plausibility, clinical trajectory, and provide a clear recommendation with next steps."

// BuildPrompt seeds the external narrative request with the structured
// facts so the service can only rephrase, never re-decide, the tier.
func BuildPrompt(record pair.GenePairRecord, bundle pair.ScoreBundle, factors []pair.FactorStatement) string {
	var b strings.Builder
	b.WriteString("Analyse the following gene pair. Provide a concise but detailed rationale covering ")
	b.WriteString("statistical quality, biological plausibility, and clinical progression cues. ")
	b.WriteString("Do not change the classification; explain it.\n")
	fmt.Fprintf(&b, "Pair ID: %s\n", record.PairID)
	fmt.Fprintf(&b, "Genes: %s vs %s\n", orDash(record.GeneA), orDash(record.GeneB))
	for _, f := range factors {
		state := "fail"
		if f.Passed {
			state = "pass"
		}
		fmt.Fprintf(&b, "- %s: %s (%s)\n", f.Name, f.Detail, state)
	}
	fmt.Fprintf(&b, "Final score: %.2f\n", bundle.FinalScore)
	fmt.Fprintf(&b, "Classification: %s\n", bundle.Tier)
	return b.String()
}
