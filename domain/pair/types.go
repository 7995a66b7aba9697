package pair

import (
	"biotriage/domain/core"
)

// Tier is the final categorical disposition of a scored gene pair.
type Tier string

const (
	TierGreen Tier = "Green"
	TierAmber Tier = "Amber"
	TierRed   Tier = "Red"
)

// ProgressionPattern labels the sepsis-to-shock correlation trajectory
type ProgressionPattern string

const (
	PatternAmplificationPositive ProgressionPattern = "amplification_positive"
	PatternAttenuationNegative   ProgressionPattern = "attenuation_negative"
	PatternStable                ProgressionPattern = "stable"
)

// GenePairRecord is one row of meta-analysis results for a candidate
// biomarker gene pair. Optional numeric fields are pointers: nil means the
// upstream source did not supply the value. Records are immutable once read;
// pair IDs are not required to be unique and duplicates are scored
// independently.
type GenePairRecord struct {
	PairID string `json:"pair_id"`
	GeneA  string `json:"gene_a_name"`
	GeneB  string `json:"gene_b_name"`

	// Statistical meta-analysis metrics
	PSS        *float64 `json:"p_ss"`
	DzSSMean   *float64 `json:"dz_ss_mean"`
	ISquared   *float64 `json:"dz_ss_i2"`
	Kappa      *float64 `json:"kappa_ss"`
	EggerP     *float64 `json:"eggers_p_ss"`
	PowerScore *float64 `json:"power_score"`
	NStudies   *float64 `json:"n_studies_ss"`

	// Correlation trajectory
	SepsisCorrelation *float64 `json:"sepsis_correlation"`
	ShockCorrelation  *float64 `json:"shock_correlation"`

	// Optional biological signals, precomputed upstream
	PathwayPValue    *float64 `json:"pathway_p_value,omitempty"`
	ExpressionZScore *float64 `json:"expression_z_score,omitempty"`
	InteractionFlag  *string  `json:"interaction_flag,omitempty"`
	PhenotypeFlag    *string  `json:"phenotype_flag,omitempty"`

	ConfidenceScore      *float64 `json:"confidence_score"`
	IsStatisticallySound bool     `json:"is_statistically_sound"`

	// Fields whose raw values failed numeric coercion during ingestion,
	// in canonical column order. The validator reports these as type
	// errors and skips range checks on them.
	CoercionErrors []string `json:"coercion_errors,omitempty"`
}

// HasCoercionError reports whether the named field failed numeric coercion
func (r GenePairRecord) HasCoercionError(field string) bool {
	for _, f := range r.CoercionErrors {
		if f == field {
			return true
		}
	}
	return false
}

// ValidationOutcome tags a record as valid or quarantined with the ordered
// list of violated rule identifiers.
type ValidationOutcome struct {
	Valid   bool     `json:"valid"`
	Reasons []string `json:"reasons,omitempty"`
}

// ScoreBundle holds every score computed for one valid record. It is
// derived entirely from (record, config) and never mutated after creation.
type ScoreBundle struct {
	StatisticalScore   float64            `json:"statistical_score"`
	BiologicalScore    float64            `json:"biological_score"`
	BiologicalNeutral  bool               `json:"biological_neutral"`
	ProgressionScore   float64            `json:"progression_score"`
	ProgressionPattern ProgressionPattern `json:"progression_pattern"`
	FinalScore         float64            `json:"final_score"`
	Tier               Tier               `json:"tier"`
}

// FactorStatement is one contributing-factor line of a rationale report
type FactorStatement struct {
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Passed    bool    `json:"passed"`
	Detail    string  `json:"detail"`
}

// RationaleReport explains one scored record. Factors and the fallback
// narrative are deterministic; only the narrative text may come from an
// external service, and FallbackMode records which path produced it.
type RationaleReport struct {
	PairID       string            `json:"pair_id"`
	Tier         Tier              `json:"tier"`
	Factors      []FactorStatement `json:"factors"`
	Narrative    string            `json:"narrative"`
	FallbackMode bool              `json:"fallback_mode"`
	GeneratedAt  core.Timestamp    `json:"generated_at"`
}

// QualityIssue records per-pair quality findings that do not affect scoring,
// such as suspicious gene symbols.
type QualityIssue struct {
	PairID string   `json:"pair_id"`
	Issues []string `json:"issues"`
}
