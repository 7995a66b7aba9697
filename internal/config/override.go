package config

import (
	"os"

	"github.com/goccy/go-yaml"

	"biotriage/domain/scoring"
	"biotriage/internal/errors"
)

// scoringOverride mirrors scoring.Config with pointer leaves so a YAML
// file can override any subset of the active profile. Unset keys keep the
// profile value.
type scoringOverride struct {
	StatisticalWeights *struct {
		PValue        *float64 `yaml:"p_value"`
		EffectSize    *float64 `yaml:"effect_size"`
		Heterogeneity *float64 `yaml:"heterogeneity"`
		Consistency   *float64 `yaml:"consistency"`
		Bias          *float64 `yaml:"bias"`
		Power         *float64 `yaml:"power"`
	} `yaml:"statistical_weights"`
	FusionWeights *struct {
		Statistical *float64 `yaml:"statistical"`
		Biological  *float64 `yaml:"biological"`
		Progression *float64 `yaml:"progression"`
	} `yaml:"fusion_weights"`
	Cutoffs *struct {
		GreenMin *float64 `yaml:"green_min"`
		AmberMin *float64 `yaml:"amber_min"`
	} `yaml:"cutoffs"`
	Thresholds *struct {
		MaxPValue           *float64 `yaml:"max_p_value"`
		EffectSizeFull      *float64 `yaml:"effect_size_full"`
		EggerAlpha          *float64 `yaml:"egger_alpha"`
		MaxHeterogeneity    *float64 `yaml:"max_heterogeneity"`
		MinStudies          *int     `yaml:"min_studies"`
		MinPower            *float64 `yaml:"min_power"`
		PathwayAlpha        *float64 `yaml:"pathway_alpha"`
		ExpressionZMin      *float64 `yaml:"expression_z_min"`
		ProgressionBoundary *float64 `yaml:"progression_boundary"`
	} `yaml:"thresholds"`
}

// applyOverrideFile merges a YAML override file over the profile values
func applyOverrideFile(base scoring.Config, path string) (scoring.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return scoring.Config{}, errors.ConfigInvalidf("cannot read config file %s: %v", path, err)
	}

	var override scoringOverride
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return scoring.Config{}, errors.ConfigInvalidf("cannot parse config file %s: %v", path, err)
	}

	cfg := base
	if o := override.StatisticalWeights; o != nil {
		setFloat(&cfg.Statistical.PValue, o.PValue)
		setFloat(&cfg.Statistical.EffectSize, o.EffectSize)
		setFloat(&cfg.Statistical.Heterogeneity, o.Heterogeneity)
		setFloat(&cfg.Statistical.Consistency, o.Consistency)
		setFloat(&cfg.Statistical.Bias, o.Bias)
		setFloat(&cfg.Statistical.Power, o.Power)
	}
	if o := override.FusionWeights; o != nil {
		setFloat(&cfg.Fusion.Statistical, o.Statistical)
		setFloat(&cfg.Fusion.Biological, o.Biological)
		setFloat(&cfg.Fusion.Progression, o.Progression)
	}
	if o := override.Cutoffs; o != nil {
		setFloat(&cfg.Cutoffs.GreenMin, o.GreenMin)
		setFloat(&cfg.Cutoffs.AmberMin, o.AmberMin)
	}
	if o := override.Thresholds; o != nil {
		setFloat(&cfg.Thresholds.MaxPValue, o.MaxPValue)
		setFloat(&cfg.Thresholds.EffectSizeFull, o.EffectSizeFull)
		setFloat(&cfg.Thresholds.EggerAlpha, o.EggerAlpha)
		setFloat(&cfg.Thresholds.MaxHeterogeneity, o.MaxHeterogeneity)
		if o.MinStudies != nil {
			cfg.Thresholds.MinStudies = *o.MinStudies
		}
		setFloat(&cfg.Thresholds.MinPower, o.MinPower)
		setFloat(&cfg.Thresholds.PathwayAlpha, o.PathwayAlpha)
		setFloat(&cfg.Thresholds.ExpressionZMin, o.ExpressionZMin)
		setFloat(&cfg.Thresholds.ProgressionBoundary, o.ProgressionBoundary)
	}
	return cfg, nil
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}
