package scoring

import (
	"strings"
	"testing"

	apperrors "biotriage/internal/errors"
)

func TestProfiles_AllValidate(t *testing.T) {
	for name, cfg := range Profiles() {
		if err := cfg.Validate(); err != nil {
			t.Errorf("Built-in profile %s failed validation: %v", name, err)
		}
	}
}

func TestProfileByName(t *testing.T) {
	tests := []struct {
		input   string
		profile string
		wantErr bool
	}{
		{"balanced", "balanced", false},
		{"CONSERVATIVE", "conservative", false},
		{" aggressive ", "aggressive", false},
		{"", "balanced", false},
		{"dual", "dual", false},
		{"reckless", "", true},
	}
	for _, tt := range tests {
		cfg, err := ProfileByName(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ProfileByName(%q) expected error", tt.input)
			} else if !apperrors.HasCode(err, apperrors.CodeConfigInvalid) {
				t.Errorf("ProfileByName(%q) error should carry CONFIG_INVALID, got %v", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ProfileByName(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if cfg.Profile != tt.profile {
			t.Errorf("ProfileByName(%q) resolved %s, want %s", tt.input, cfg.Profile, tt.profile)
		}
	}
}

func TestProfiles_ReturnFreshValues(t *testing.T) {
	first, _ := ProfileByName("balanced")
	first.Cutoffs.GreenMin = 99

	second, _ := ProfileByName("balanced")
	if second.Cutoffs.GreenMin != 75 {
		t.Error("Mutating a resolved profile must not leak into later lookups")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid balanced", func(c *Config) {}, ""},
		{"statistical weights off by too much", func(c *Config) { c.Statistical.PValue = 0.31 }, "statistical weights must sum"},
		{"fusion weights off", func(c *Config) { c.Fusion.Biological = 0.35 }, "fusion weights must sum"},
		{"negative fusion weight", func(c *Config) {
			c.Fusion = FusionWeights{Statistical: 1.3, Biological: -0.3, Progression: 0.0}
		}, "must not be negative"},
		{"amber above green", func(c *Config) { c.Cutoffs = TierCutoffs{GreenMin: 50, AmberMin: 60} }, "must not exceed"},
		{"green out of range", func(c *Config) { c.Cutoffs.GreenMin = 101 }, "green_min"},
		{"min studies too low", func(c *Config) { c.Thresholds.MinStudies = 1 }, "min_studies"},
		{"zero effect saturation", func(c *Config) { c.Thresholds.EffectSizeFull = 0 }, "effect_size_full"},
		{"egger alpha out of range", func(c *Config) { c.Thresholds.EggerAlpha = 1.0 }, "egger_alpha"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _ := ProfileByName("balanced")
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Error %q should mention %q", err.Error(), tt.wantErr)
			}
			if !apperrors.HasCode(err, apperrors.CodeConfigInvalid) {
				t.Errorf("Validation errors must carry CONFIG_INVALID, got %v", err)
			}
		})
	}
}

func TestConfigValidate_ToleratesFloatDrift(t *testing.T) {
	cfg, _ := ProfileByName("balanced")
	cfg.Fusion = FusionWeights{Statistical: 0.1 + 0.2, Biological: 0.3, Progression: 0.4}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Sum within 1e-6 of 1.0 must pass, got %v", err)
	}
}
