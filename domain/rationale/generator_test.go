package rationale

import (
	"context"
	"errors"
	"strings"
	"testing"

	"biotriage/domain/pair"
	"biotriage/domain/scoring"
)

type stubClient struct {
	response string
	err      error
	calls    int
}

func (s *stubClient) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	s.calls++
	return s.response, s.err
}

func fp(v float64) *float64 { return &v }
func sp(v string) *string   { return &v }

func scoredFixture() (pair.GenePairRecord, pair.ScoreBundle, scoring.Config) {
	cfg, _ := scoring.ProfileByName("balanced")
	record := pair.GenePairRecord{
		PairID:            "PAIR_100",
		GeneA:             "IL6",
		GeneB:             "TNF",
		PSS:               fp(0.0004),
		DzSSMean:          fp(0.5),
		ISquared:          fp(20),
		Kappa:             fp(0.7),
		EggerP:            fp(0.2),
		PowerScore:        fp(0.95),
		NStudies:          fp(5),
		SepsisCorrelation: fp(0.10),
		ShockCorrelation:  fp(0.30),
		InteractionFlag:   sp("yes"),
	}
	return record, scoring.ScoreRecord(record, cfg), cfg
}

func TestGenerate_NilClientUsesFallback(t *testing.T) {
	record, bundle, cfg := scoredFixture()

	report := NewGenerator(nil, 512, 0.6).Generate(context.Background(), record, bundle, cfg)
	if !report.FallbackMode {
		t.Error("Nil client must select fallback mode")
	}
	if strings.TrimSpace(report.Narrative) == "" {
		t.Error("Narrative must never be empty")
	}
	if report.Tier != bundle.Tier {
		t.Errorf("Report tier %s diverged from bundle tier %s", report.Tier, bundle.Tier)
	}
}

func TestGenerate_FailingClientNeverChangesClassification(t *testing.T) {
	record, bundle, cfg := scoredFixture()

	broken := &stubClient{err: errors.New("connection refused")}
	withBroken := NewGenerator(broken, 512, 0.6).Generate(context.Background(), record, bundle, cfg)
	withNil := NewGenerator(nil, 512, 0.6).Generate(context.Background(), record, bundle, cfg)

	if broken.calls != 1 {
		t.Errorf("Expected one completion attempt, got %d", broken.calls)
	}
	if !withBroken.FallbackMode {
		t.Error("Client failure must revert to fallback mode")
	}
	if withBroken.Narrative != withNil.Narrative {
		t.Error("Fallback narrative must be identical whether the client is absent or failing")
	}
	if withBroken.Tier != withNil.Tier {
		t.Error("A failing external service must not change the tier")
	}
}

func TestGenerate_SuccessfulClientReplacesNarrativeOnly(t *testing.T) {
	record, bundle, cfg := scoredFixture()

	client := &stubClient{response: "The evidence strongly supports this pair."}
	report := NewGenerator(client, 512, 0.6).Generate(context.Background(), record, bundle, cfg)

	if report.FallbackMode {
		t.Error("Successful completion should clear fallback mode")
	}
	if report.Narrative != "The evidence strongly supports this pair." {
		t.Errorf("Unexpected narrative %q", report.Narrative)
	}
	if report.Tier != bundle.Tier {
		t.Error("Completion text must not alter the tier")
	}
}

func TestGenerate_BlankCompletionFallsBack(t *testing.T) {
	record, bundle, cfg := scoredFixture()

	client := &stubClient{response: "   \n  "}
	report := NewGenerator(client, 512, 0.6).Generate(context.Background(), record, bundle, cfg)
	if !report.FallbackMode {
		t.Error("Whitespace-only completion must fall back to the deterministic narrative")
	}
	if strings.TrimSpace(report.Narrative) == "" {
		t.Error("Narrative must never be empty")
	}
}

func TestBuildFactors_DeterministicAndOrdered(t *testing.T) {
	record, bundle, cfg := scoredFixture()

	first := BuildFactors(record, bundle, cfg)
	second := BuildFactors(record, bundle, cfg)
	if len(first) != len(second) {
		t.Fatalf("Factor counts diverged: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Factor %d diverged between identical invocations", i)
		}
	}

	want := []string{
		"p_value", "effect_size", "heterogeneity", "consistency",
		"publication_bias", "power",
		"statistical_score", "biological_score", "progression_score", "final_score",
	}
	if len(first) != len(want) {
		t.Fatalf("Expected %d factors, got %d", len(want), len(first))
	}
	for i, name := range want {
		if first[i].Name != name {
			t.Errorf("Factor %d is %s, want %s", i, first[i].Name, name)
		}
	}
}

func TestBuildFactors_OmitsAbsentMetrics(t *testing.T) {
	cfg, _ := scoring.ProfileByName("balanced")
	record := pair.GenePairRecord{PairID: "PAIR_101", PSS: fp(0.001)}
	bundle := scoring.ScoreRecord(record, cfg)

	factors := BuildFactors(record, bundle, cfg)
	for _, f := range factors {
		if f.Name == "effect_size" || f.Name == "power" {
			t.Errorf("Absent metric %s must not yield a factor statement", f.Name)
		}
	}
}

func TestFallbackNarrative_FlagsNeutralBiology(t *testing.T) {
	cfg, _ := scoring.ProfileByName("balanced")
	record := pair.GenePairRecord{PairID: "PAIR_102", PSS: fp(0.001)}
	bundle := scoring.ScoreRecord(record, cfg)

	narrative := FallbackNarrative(record, bundle, BuildFactors(record, bundle, cfg))
	if !strings.Contains(narrative, "neutral score applied") {
		t.Errorf("Neutral biology must be called out, got %q", narrative)
	}
}
