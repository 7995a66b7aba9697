package scoring

import (
	"reflect"
	"testing"

	"biotriage/domain/pair"
)

func fp(v float64) *float64 { return &v }

func validRecord() pair.GenePairRecord {
	return pair.GenePairRecord{
		PairID:          "PAIR_001",
		GeneA:           "IL6",
		GeneB:           "TNF",
		PSS:             fp(0.0004),
		DzSSMean:        fp(0.5),
		ISquared:        fp(20),
		Kappa:           fp(0.7),
		EggerP:          fp(0.2),
		PowerScore:      fp(0.95),
		NStudies:        fp(5),
		ConfidenceScore: fp(0.8),
	}
}

func TestValidate_AcceptsWellFormedRecord(t *testing.T) {
	cfg, _ := ProfileByName("balanced")
	outcome := Validate(validRecord(), cfg)
	if !outcome.Valid {
		t.Fatalf("Expected valid outcome, got reasons %v", outcome.Reasons)
	}
	if len(outcome.Reasons) != 0 {
		t.Errorf("Valid outcome should carry no reasons, got %v", outcome.Reasons)
	}
}

func TestValidate_CollectsEveryViolation(t *testing.T) {
	cfg, _ := ProfileByName("balanced")

	record := validRecord()
	record.PairID = ""
	record.PSS = fp(1.5)

	outcome := Validate(record, cfg)
	if outcome.Valid {
		t.Fatal("Expected invalid outcome")
	}

	want := []string{"missing_field:pair_id", "range_violation:p_ss"}
	if !reflect.DeepEqual(outcome.Reasons, want) {
		t.Errorf("Expected reasons %v, got %v", want, outcome.Reasons)
	}
}

func TestValidate_RangeGates(t *testing.T) {
	cfg, _ := ProfileByName("balanced")

	tests := []struct {
		name   string
		mutate func(*pair.GenePairRecord)
		reason string
	}{
		{"p above one", func(r *pair.GenePairRecord) { r.PSS = fp(1.01) }, "range_violation:p_ss"},
		{"p below zero", func(r *pair.GenePairRecord) { r.PSS = fp(-0.1) }, "range_violation:p_ss"},
		{"i2 above hundred", func(r *pair.GenePairRecord) { r.ISquared = fp(101) }, "range_violation:i_squared"},
		{"i2 below zero", func(r *pair.GenePairRecord) { r.ISquared = fp(-5) }, "range_violation:i_squared"},
		{"too few studies", func(r *pair.GenePairRecord) { r.NStudies = fp(2) }, "range_violation:n_studies"},
		{"missing studies", func(r *pair.GenePairRecord) { r.NStudies = nil }, "range_violation:n_studies"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := validRecord()
			tt.mutate(&record)
			outcome := Validate(record, cfg)
			if outcome.Valid {
				t.Fatal("Expected invalid outcome")
			}
			if !containsReason(outcome.Reasons, tt.reason) {
				t.Errorf("Expected reason %s in %v", tt.reason, outcome.Reasons)
			}
		})
	}
}

func TestValidate_MinStudiesIsProfileDriven(t *testing.T) {
	record := validRecord()
	record.NStudies = fp(2)

	balanced, _ := ProfileByName("balanced")
	if Validate(record, balanced).Valid {
		t.Error("balanced profile requires 3 studies, record with 2 should fail")
	}

	aggressive, _ := ProfileByName("aggressive")
	if !Validate(record, aggressive).Valid {
		t.Error("aggressive profile relaxes the floor to 2 studies")
	}
}

func TestValidate_TypeErrorSuppressesRangeAndMissing(t *testing.T) {
	cfg, _ := ProfileByName("balanced")

	record := validRecord()
	record.PSS = nil
	record.CoercionErrors = []string{FieldPSS}

	outcome := Validate(record, cfg)
	if outcome.Valid {
		t.Fatal("Expected invalid outcome")
	}
	if containsReason(outcome.Reasons, "missing_field:p_ss") {
		t.Error("Unparseable field must not also be reported as missing")
	}
	if containsReason(outcome.Reasons, "range_violation:p_ss") {
		t.Error("Cannot evaluate range on unparseable data")
	}
	if !containsReason(outcome.Reasons, "type_error:p_ss") {
		t.Errorf("Expected type_error:p_ss in %v", outcome.Reasons)
	}
}

func TestFlagGeneSymbols(t *testing.T) {
	tests := []struct {
		symbol  string
		suspect bool
	}{
		{"IL6", false},
		{"TNF-ALPHA", false},
		{"HLA_DRB1", false},
		{"il6", true},
		{"", true},
		{"IL6?", true},
		{"123", true},
	}
	for _, tt := range tests {
		if got := suspectSymbol(tt.symbol); got != tt.suspect {
			t.Errorf("suspectSymbol(%q) = %v, want %v", tt.symbol, got, tt.suspect)
		}
	}
}

func containsReason(reasons []string, want string) bool {
	for _, r := range reasons {
		if r == want {
			return true
		}
	}
	return false
}
