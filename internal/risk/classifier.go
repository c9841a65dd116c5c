// Package risk buckets churn probabilities into presentation tiers.
package risk

import (
	"math"
	"strings"
)

// Tier is a discretized probability bucket.
type Tier int

const (
	// TierUnknown marks a probability that could not be classified.
	TierUnknown Tier = iota
	TierLow
	TierModerate
	TierHigh
)

// String returns the localized tier name used across the UI.
func (t Tier) String() string {
	switch t {
	case TierLow:
		return "Bajo"
	case TierModerate:
		return "Moderado"
	case TierHigh:
		return "Alto"
	default:
		return "Riesgo no calculado"
	}
}

// StoredLabel returns the tier the way the backend persists it
// ("Riesgo alto" / "Riesgo medio" / "Riesgo bajo"). Note the moderate tier
// is stored as "medio", not "moderado".
func (t Tier) StoredLabel() string {
	switch t {
	case TierLow:
		return "Riesgo bajo"
	case TierModerate:
		return "Riesgo medio"
	case TierHigh:
		return "Riesgo alto"
	default:
		return ""
	}
}

// Advisory hints per tier. The low tier carries a plain reassurance.
const (
	hintLow      = "Riesgo bajo de abandono según el modelo."
	hintModerate = "Riesgo medio: conviene monitorear y aplicar retención ligera."
	hintHigh     = "Riesgo alto: recomendar acción inmediata de retención."
)

// Classification is the result of bucketing one probability.
type Classification struct {
	Tier       Tier
	Percentage int
	Label      string
	Hint       string
}

// Classify buckets a churn probability. Out-of-range values are clamped
// into [0,1] first; NaN and ±Inf yield an unclassified result instead of
// failing. Thresholds are asymmetric: High is strictly above 0.7, Moderate
// includes both 0.3 and 0.7.
func Classify(probability float64) Classification {
	if math.IsNaN(probability) || math.IsInf(probability, 0) {
		return Classification{Tier: TierUnknown, Label: TierUnknown.String()}
	}

	p := math.Max(0, math.Min(1, probability))
	pct := int(math.Round(p * 100))

	var (
		tier Tier
		hint string
	)
	switch {
	case p > 0.7:
		tier, hint = TierHigh, hintHigh
	case p >= 0.3:
		tier, hint = TierModerate, hintModerate
	default:
		tier, hint = TierLow, hintLow
	}

	return Classification{
		Tier:       tier,
		Percentage: pct,
		Label:      tier.String(),
		Hint:       hint,
	}
}

// TierFromStoredLabel recovers a tier from a persisted risk label by
// substring match ("alto" / "medio" / "bajo"), case-insensitive. Unknown
// input maps to TierUnknown rather than blank output.
func TierFromStoredLabel(label string) Tier {
	v := strings.ToLower(label)
	switch {
	case strings.Contains(v, "alto"):
		return TierHigh
	case strings.Contains(v, "medio"):
		return TierModerate
	case strings.Contains(v, "bajo"):
		return TierLow
	default:
		return TierUnknown
	}
}
