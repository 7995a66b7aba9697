package rationale

import (
	"context"
	"log"
	"strings"

	"biotriage/domain/core"
	"biotriage/domain/pair"
	"biotriage/domain/scoring"
	"biotriage/ports"
)

// Generator produces the per-row rationale report. The structured factor
// list and the fallback narrative are pure functions of (record, bundle,
// config); only the narrative text may be replaced by the external
// completion service, and any failure of that call silently reverts to the
// deterministic template without touching the tier or any score.
type Generator struct {
	client      ports.CompletionClient
	maxTokens   int
	temperature float64
}

// NewGenerator creates a rationale generator. A nil client permanently
// selects fallback mode.
func NewGenerator(client ports.CompletionClient, maxTokens int, temperature float64) *Generator {
	if maxTokens <= 0 {
		maxTokens = 512
	}
	return &Generator{client: client, maxTokens: maxTokens, temperature: temperature}
}

// Generate builds the rationale report for one scored record. It never
// returns an error and never leaves the narrative empty.
func (g *Generator) Generate(ctx context.Context, record pair.GenePairRecord, bundle pair.ScoreBundle, cfg scoring.Config) pair.RationaleReport {
	factors := BuildFactors(record, bundle, cfg)

	report := pair.RationaleReport{
		PairID:       record.PairID,
		Tier:         bundle.Tier,
		Factors:      factors,
		Narrative:    FallbackNarrative(record, bundle, factors),
		FallbackMode: true,
		GeneratedAt:  core.Now(),
	}

	if g.client == nil {
		return report
	}

	prompt := BuildPrompt(record, bundle, factors)
	text, err := g.client.Complete(ctx, prompt, g.maxTokens, g.temperature)
	if err != nil {
		log.Printf("[Rationale] falling back to deterministic narrative for %s: %v", record.PairID, err)
		return report
	}
	text = strings.TrimSpace(text)
	if text == "" {
		log.Printf("[Rationale] empty completion for %s, using deterministic narrative", record.PairID)
		return report
	}

	report.Narrative = text
	report.FallbackMode = false
	return report
}
