package postgres

import (
	"context"
	"testing"

	"biotriage/internal/errors"
)

func TestGetSummary_RejectsBlankRunID(t *testing.T) {
	repo := NewRunRepository(nil)

	for _, id := range []string{"", "   "} {
		_, err := repo.GetSummary(context.Background(), id)
		if err == nil {
			t.Fatalf("Expected error for run ID %q", id)
		}
		if !errors.HasCode(err, errors.CodeInvalidInput) {
			t.Errorf("Blank run ID is INVALID_INPUT, got code %s", errors.GetCode(err))
		}
	}
}

func TestJoinReasons(t *testing.T) {
	if got := joinReasons(nil); got != "" {
		t.Errorf("Expected empty string for no reasons, got %q", got)
	}
	if got := joinReasons([]string{"missing_field:pair_id", "range_violation:p_ss"}); got != "missing_field:pair_id;range_violation:p_ss" {
		t.Errorf("Unexpected join %q", got)
	}
}

func TestNullable(t *testing.T) {
	if nullable(nil) != nil {
		t.Error("Absent payload must map to SQL NULL")
	}
	if nullable([]byte{}) != nil {
		t.Error("Empty payload must map to SQL NULL")
	}
	if v := nullable([]byte(`{}`)); v == nil {
		t.Error("Present payload must pass through")
	}
}
