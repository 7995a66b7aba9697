package scoring

import (
	"math"
	"sort"
	"strings"

	"biotriage/internal/errors"
)

// weightTolerance bounds the allowed drift when checking that weight
// vectors sum to 1.0.
const weightTolerance = 1e-6

// StatisticalWeights weight the six sub-metrics of the statistical
// credibility composite. They must sum to 1.0.
type StatisticalWeights struct {
	PValue        float64 `json:"p_value" yaml:"p_value"`
	EffectSize    float64 `json:"effect_size" yaml:"effect_size"`
	Heterogeneity float64 `json:"heterogeneity" yaml:"heterogeneity"`
	Consistency   float64 `json:"consistency" yaml:"consistency"`
	Bias          float64 `json:"bias" yaml:"bias"`
	Power         float64 `json:"power" yaml:"power"`
}

// FusionWeights weight the three component scores in the final fusion.
// They must sum to 1.0.
type FusionWeights struct {
	Statistical float64 `json:"statistical" yaml:"statistical"`
	Biological  float64 `json:"biological" yaml:"biological"`
	Progression float64 `json:"progression" yaml:"progression"`
}

// TierCutoffs are the lower bounds of the Green and Amber tiers on the
// 0-100 final score scale. Boundary values count as the higher tier.
type TierCutoffs struct {
	GreenMin float64 `json:"green_min" yaml:"green_min"`
	AmberMin float64 `json:"amber_min" yaml:"amber_min"`
}

// MetricThresholds hold the per-metric constants used inside transforms
// and validation gates.
type MetricThresholds struct {
	// MaxPValue is informational for reports; the validator's hard gate
	// on p_ss is the [0,1] range.
	MaxPValue float64 `json:"max_p_value" yaml:"max_p_value"`
	// EffectSizeFull is the |Cohen's d| at which the effect transform
	// saturates at 100.
	EffectSizeFull float64 `json:"effect_size_full" yaml:"effect_size_full"`
	// EggerAlpha is the Egger's test significance level below which
	// publication bias is assumed.
	EggerAlpha float64 `json:"egger_alpha" yaml:"egger_alpha"`
	// MaxHeterogeneity is the ideal I^2 ceiling, informational for reports.
	MaxHeterogeneity float64 `json:"max_heterogeneity" yaml:"max_heterogeneity"`
	// MinStudies is the minimum study count accepted by the validator.
	MinStudies int `json:"min_studies" yaml:"min_studies"`
	// MinPower is the nominal power-score floor reported in rationale
	// factor statements.
	MinPower float64 `json:"min_power" yaml:"min_power"`
	// PathwayAlpha is the pathway p-value significance level used by the
	// biological scorer.
	PathwayAlpha float64 `json:"pathway_alpha" yaml:"pathway_alpha"`
	// ExpressionZMin is the |z| magnitude treated as a positive
	// expression signal.
	ExpressionZMin float64 `json:"expression_z_min" yaml:"expression_z_min"`
	// ProgressionBoundary is the correlation-delta magnitude separating
	// stable from amplification/attenuation patterns.
	ProgressionBoundary float64 `json:"progression_boundary" yaml:"progression_boundary"`
}

// Config is the complete, immutable scoring configuration for one run.
// All scoring functions are pure over (record, Config); the value is safe
// for concurrent reads and is never mutated after Load/Validate.
type Config struct {
	Profile     string             `json:"profile" yaml:"profile"`
	Statistical StatisticalWeights `json:"statistical_weights" yaml:"statistical_weights"`
	Fusion      FusionWeights      `json:"fusion_weights" yaml:"fusion_weights"`
	Cutoffs     TierCutoffs        `json:"cutoffs" yaml:"cutoffs"`
	Thresholds  MetricThresholds   `json:"thresholds" yaml:"thresholds"`
}

func defaultStatisticalWeights() StatisticalWeights {
	return StatisticalWeights{
		PValue:        0.30,
		EffectSize:    0.20,
		Heterogeneity: 0.20,
		Consistency:   0.15,
		Bias:          0.10,
		Power:         0.05,
	}
}

// Profiles returns the built-in named configurations. Each call returns
// fresh values so callers can never mutate a shared profile in place.
func Profiles() map[string]Config {
	return map[string]Config{
		"balanced": {
			Profile:     "balanced",
			Statistical: defaultStatisticalWeights(),
			Fusion:      FusionWeights{Statistical: 0.45, Biological: 0.30, Progression: 0.25},
			Cutoffs:     TierCutoffs{GreenMin: 75, AmberMin: 50},
			Thresholds: MetricThresholds{
				MaxPValue:           0.01,
				EffectSizeFull:      0.4,
				EggerAlpha:          0.05,
				MaxHeterogeneity:    60.0,
				MinStudies:          3,
				MinPower:            0.7,
				PathwayAlpha:        0.05,
				ExpressionZMin:      1.5,
				ProgressionBoundary: 0.15,
			},
		},
		"conservative": {
			Profile:     "conservative",
			Statistical: defaultStatisticalWeights(),
			Fusion:      FusionWeights{Statistical: 0.55, Biological: 0.25, Progression: 0.20},
			Cutoffs:     TierCutoffs{GreenMin: 80, AmberMin: 60},
			Thresholds: MetricThresholds{
				MaxPValue:           0.001,
				EffectSizeFull:      0.4,
				EggerAlpha:          0.05,
				MaxHeterogeneity:    40.0,
				MinStudies:          4,
				MinPower:            0.8,
				PathwayAlpha:        0.01,
				ExpressionZMin:      2.0,
				ProgressionBoundary: 0.15,
			},
		},
		"aggressive": {
			Profile:     "aggressive",
			Statistical: defaultStatisticalWeights(),
			Fusion:      FusionWeights{Statistical: 0.40, Biological: 0.35, Progression: 0.25},
			Cutoffs:     TierCutoffs{GreenMin: 70, AmberMin: 45},
			Thresholds: MetricThresholds{
				MaxPValue:           0.05,
				EffectSizeFull:      0.4,
				EggerAlpha:          0.05,
				MaxHeterogeneity:    75.0,
				MinStudies:          2,
				MinPower:            0.6,
				PathwayAlpha:        0.10,
				ExpressionZMin:      1.0,
				ProgressionBoundary: 0.15,
			},
		},
		// dual reproduces the legacy two-factor scheme: statistical and
		// biological split evenly, progression weighted out entirely.
		"dual": {
			Profile:     "dual",
			Statistical: defaultStatisticalWeights(),
			Fusion:      FusionWeights{Statistical: 0.50, Biological: 0.50, Progression: 0.0},
			Cutoffs:     TierCutoffs{GreenMin: 75, AmberMin: 50},
			Thresholds: MetricThresholds{
				MaxPValue:           0.01,
				EffectSizeFull:      0.4,
				EggerAlpha:          0.05,
				MaxHeterogeneity:    60.0,
				MinStudies:          3,
				MinPower:            0.7,
				PathwayAlpha:        0.05,
				ExpressionZMin:      1.5,
				ProgressionBoundary: 0.15,
			},
		},
	}
}

// ProfileNames lists the built-in profile names in stable order
func ProfileNames() []string {
	profiles := Profiles()
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProfileByName resolves a built-in profile, case-insensitively
func ProfileByName(name string) (Config, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = "balanced"
	}
	cfg, ok := Profiles()[key]
	if !ok {
		return Config{}, errors.ConfigInvalidf("unknown profile %q, available: %s", name, strings.Join(ProfileNames(), ", "))
	}
	return cfg, nil
}

// Validate checks the configuration before any row is processed. A non-nil
// result is fatal for the run.
func (c Config) Validate() error {
	statSum := c.Statistical.PValue + c.Statistical.EffectSize + c.Statistical.Heterogeneity +
		c.Statistical.Consistency + c.Statistical.Bias + c.Statistical.Power
	if math.Abs(statSum-1.0) > weightTolerance {
		return errors.ConfigInvalidf("statistical weights must sum to 1.0, got %.6f", statSum)
	}
	for name, w := range map[string]float64{
		"p_value":       c.Statistical.PValue,
		"effect_size":   c.Statistical.EffectSize,
		"heterogeneity": c.Statistical.Heterogeneity,
		"consistency":   c.Statistical.Consistency,
		"bias":          c.Statistical.Bias,
		"power":         c.Statistical.Power,
	} {
		if w < 0 {
			return errors.ConfigInvalidf("statistical weight %s must not be negative", name)
		}
	}

	fusionSum := c.Fusion.Statistical + c.Fusion.Biological + c.Fusion.Progression
	if math.Abs(fusionSum-1.0) > weightTolerance {
		return errors.ConfigInvalidf("fusion weights must sum to 1.0, got %.6f", fusionSum)
	}
	if c.Fusion.Statistical < 0 || c.Fusion.Biological < 0 || c.Fusion.Progression < 0 {
		return errors.ConfigInvalid("fusion weights must not be negative")
	}

	if c.Cutoffs.GreenMin < 0 || c.Cutoffs.GreenMin > 100 {
		return errors.ConfigInvalidf("green_min must lie in [0,100], got %.3f", c.Cutoffs.GreenMin)
	}
	if c.Cutoffs.AmberMin < 0 || c.Cutoffs.AmberMin > 100 {
		return errors.ConfigInvalidf("amber_min must lie in [0,100], got %.3f", c.Cutoffs.AmberMin)
	}
	if c.Cutoffs.AmberMin > c.Cutoffs.GreenMin {
		return errors.ConfigInvalidf("amber_min %.3f must not exceed green_min %.3f", c.Cutoffs.AmberMin, c.Cutoffs.GreenMin)
	}

	if c.Thresholds.MinStudies < 2 {
		return errors.ConfigInvalidf("min_studies must be at least 2, got %d", c.Thresholds.MinStudies)
	}
	if c.Thresholds.EffectSizeFull <= 0 {
		return errors.ConfigInvalid("effect_size_full must be positive")
	}
	if c.Thresholds.ProgressionBoundary <= 0 {
		return errors.ConfigInvalid("progression_boundary must be positive")
	}
	if c.Thresholds.EggerAlpha <= 0 || c.Thresholds.EggerAlpha >= 1 {
		return errors.ConfigInvalid("egger_alpha must lie in (0,1)")
	}
	if c.Thresholds.PathwayAlpha <= 0 || c.Thresholds.PathwayAlpha >= 1 {
		return errors.ConfigInvalid("pathway_alpha must lie in (0,1)")
	}
	if c.Thresholds.ExpressionZMin < 0 {
		return errors.ConfigInvalid("expression_z_min must not be negative")
	}
	return nil
}
