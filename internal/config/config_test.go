package config

import (
	"os"
	"path/filepath"
	"testing"

	"biotriage/internal/errors"
)

func TestLoad_ProfileDefaults(t *testing.T) {
	cfg, err := Load("balanced", "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Scoring.Profile != "balanced" {
		t.Errorf("Expected balanced profile, got %s", cfg.Scoring.Profile)
	}
	if cfg.Scoring.Cutoffs.GreenMin != 75 {
		t.Errorf("Expected green cutoff 75, got %.1f", cfg.Scoring.Cutoffs.GreenMin)
	}
	if cfg.API.MaxTokens != 512 {
		t.Errorf("Expected default max tokens 512, got %d", cfg.API.MaxTokens)
	}
}

func TestLoad_UnknownProfile(t *testing.T) {
	_, err := Load("reckless", "")
	if err == nil {
		t.Fatal("Expected error for unknown profile")
	}
	if !errors.HasCode(err, errors.CodeConfigInvalid) {
		t.Errorf("Expected CONFIG_INVALID, got %s", errors.GetCode(err))
	}
}

func TestLoad_OverrideFileMergesOverProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	override := `cutoffs:
  green_min: 85
thresholds:
  min_studies: 5
`
	if err := os.WriteFile(path, []byte(override), 0o644); err != nil {
		t.Fatalf("Failed to write override file: %v", err)
	}

	cfg, err := Load("balanced", path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Scoring.Cutoffs.GreenMin != 85 {
		t.Errorf("Override should raise green cutoff to 85, got %.1f", cfg.Scoring.Cutoffs.GreenMin)
	}
	if cfg.Scoring.Cutoffs.AmberMin != 50 {
		t.Errorf("Unset keys keep profile values, amber should stay 50, got %.1f", cfg.Scoring.Cutoffs.AmberMin)
	}
	if cfg.Scoring.Thresholds.MinStudies != 5 {
		t.Errorf("Override should raise min studies to 5, got %d", cfg.Scoring.Thresholds.MinStudies)
	}
	if cfg.Scoring.Fusion.Statistical != 0.45 {
		t.Error("Untouched sections must keep profile values")
	}
}

func TestLoad_InvalidOverrideIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	// Raising one fusion weight without rebalancing breaks the sum.
	override := `fusion_weights:
  statistical: 0.9
`
	if err := os.WriteFile(path, []byte(override), 0o644); err != nil {
		t.Fatalf("Failed to write override file: %v", err)
	}

	_, err := Load("balanced", path)
	if err == nil {
		t.Fatal("Expected validation failure for unbalanced fusion weights")
	}
	if !errors.HasCode(err, errors.CodeConfigInvalid) {
		t.Errorf("Expected CONFIG_INVALID, got %s", errors.GetCode(err))
	}
}

func TestLoad_MissingOverrideFile(t *testing.T) {
	_, err := Load("balanced", filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing override file")
	}
	if !errors.HasCode(err, errors.CodeConfigInvalid) {
		t.Errorf("Expected CONFIG_INVALID, got %s", errors.GetCode(err))
	}
}

func TestLoad_MalformedOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	if err := os.WriteFile(path, []byte("{unterminated"), 0o644); err != nil {
		t.Fatalf("Failed to write override file: %v", err)
	}
	if _, err := Load("balanced", path); err == nil {
		t.Fatal("Expected error for malformed override file")
	}
}
