package scoring

import (
	"fmt"

	"biotriage/domain/pair"
)

// Canonical field names used in validation reason identifiers.
const (
	FieldPairID            = "pair_id"
	FieldPSS               = "p_ss"
	FieldDzSSMean          = "dz_ss_mean"
	FieldISquared          = "i_squared"
	FieldKappa             = "kappa"
	FieldEggerP            = "egger_p"
	FieldPowerScore        = "power_score"
	FieldNStudies          = "n_studies"
	FieldSepsisCorrelation = "sepsis_correlation"
	FieldShockCorrelation  = "shock_correlation"
	FieldConfidenceScore   = "confidence_score"
)

// coercionReportOrder fixes the order in which type errors are reported so
// an outcome is byte-identical across runs regardless of ingestion order.
var coercionReportOrder = []string{
	FieldPSS,
	FieldDzSSMean,
	FieldISquared,
	FieldKappa,
	FieldEggerP,
	FieldPowerScore,
	FieldNStudies,
	FieldSepsisCorrelation,
	FieldShockCorrelation,
	FieldConfidenceScore,
}

func missingReason(field string) string { return fmt.Sprintf("missing_field:%s", field) }
func rangeReason(field string) string   { return fmt.Sprintf("range_violation:%s", field) }
func typeErrReason(field string) string { return fmt.Sprintf("type_error:%s", field) }

// Validate checks one record against the required-field and range rules.
// Rules run in fixed order and every violation is collected; the outcome is
// a normal return value, never an error. An invalid record is terminal and
// must be routed to quarantine by the caller.
func Validate(record pair.GenePairRecord, cfg Config) pair.ValidationOutcome {
	var reasons []string

	// Rule 1: required-field presence. A field that failed numeric
	// coercion is present-but-unparseable and is reported by rule 3
	// instead.
	if record.PairID == "" {
		reasons = append(reasons, missingReason(FieldPairID))
	}
	for _, req := range []struct {
		name  string
		value *float64
	}{
		{FieldPSS, record.PSS},
		{FieldDzSSMean, record.DzSSMean},
		{FieldConfidenceScore, record.ConfidenceScore},
	} {
		if req.value == nil && !record.HasCoercionError(req.name) {
			reasons = append(reasons, missingReason(req.name))
		}
	}

	// Rule 2: range gates. A gate is skipped when its field is
	// unparseable (cannot evaluate range on unparseable data).
	if record.PSS != nil && !record.HasCoercionError(FieldPSS) {
		if *record.PSS < 0 || *record.PSS > 1 {
			reasons = append(reasons, rangeReason(FieldPSS))
		}
	}
	if record.ISquared != nil && !record.HasCoercionError(FieldISquared) {
		if *record.ISquared < 0 || *record.ISquared > 100 {
			reasons = append(reasons, rangeReason(FieldISquared))
		}
	}
	if !record.HasCoercionError(FieldNStudies) {
		if record.NStudies == nil || *record.NStudies < float64(cfg.Thresholds.MinStudies) {
			reasons = append(reasons, rangeReason(FieldNStudies))
		}
	}

	// Rule 3: coercion failures, reported in canonical field order.
	for _, field := range coercionReportOrder {
		if record.HasCoercionError(field) {
			reasons = append(reasons, typeErrReason(field))
		}
	}

	if len(reasons) > 0 {
		return pair.ValidationOutcome{Valid: false, Reasons: reasons}
	}
	return pair.ValidationOutcome{Valid: true}
}

// FlagGeneSymbols reports gene symbol columns whose value does not look
// like a conventional symbol (alphanumeric plus dash/underscore, upper
// case). Findings are quality annotations only and never affect the tier.
func FlagGeneSymbols(record pair.GenePairRecord) []string {
	var flagged []string
	if suspectSymbol(record.GeneA) {
		flagged = append(flagged, "gene_a_name")
	}
	if suspectSymbol(record.GeneB) {
		flagged = append(flagged, "gene_b_name")
	}
	return flagged
}

func suspectSymbol(symbol string) bool {
	if symbol == "" {
		return true
	}
	hasLetter := false
	for _, r := range symbol {
		switch {
		case r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return true
		}
	}
	return !hasLetter
}
