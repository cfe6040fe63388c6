package report

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/academic-report-api/internal/models"
)

var (
	bandSuperiorFloor = decimal.RequireFromString("4.6")
	bandHighFloor     = decimal.RequireFromString("4.0")
	bandBasicFloor    = decimal.RequireFromString("3.0")
	hundred           = decimal.NewFromInt(100)
)

// fallbackScores assigns a score to knowledge items that were never graded.
// Keys match the knowledge name exactly, case included.
var fallbackScores = map[string]decimal.Decimal{
	"SER":     decimal.RequireFromString("4.8"),
	"HACER":   decimal.RequireFromString("4.8"),
	"CONOCER": decimal.RequireFromString("5.0"),
	"SABER":   decimal.RequireFromString("5.0"),
	"PENSAR":  decimal.RequireFromString("4.8"),
	"INNOVAR": decimal.RequireFromString("4.8"),
	"SENTIR":  decimal.RequireFromString("4.0"),
}

var defaultFallbackScore = decimal.RequireFromString("4.0")

// FallbackScore returns the policy score for an ungraded knowledge item.
func FallbackScore(knowledgeName string) decimal.Decimal {
	if score, ok := fallbackScores[knowledgeName]; ok {
		return score
	}
	return defaultFallbackScore
}

// ResolveScore prefers the recorded score and falls back to the name policy.
func ResolveScore(score decimal.NullDecimal, knowledgeName string) decimal.Decimal {
	if score.Valid {
		return score.Decimal
	}
	return FallbackScore(knowledgeName)
}

// DefinitiveScore weights score by percentage. A precomputed value is trusted as is.
func DefinitiveScore(precomputed decimal.NullDecimal, score decimal.Decimal, percentage int) decimal.Decimal {
	if precomputed.Valid {
		return precomputed.Decimal
	}
	return score.Mul(decimal.NewFromInt(int64(percentage))).Div(hundred)
}

// Band classifies a subject total. Lower bounds are inclusive.
func Band(total decimal.Decimal) models.PerformanceBand {
	switch {
	case total.GreaterThanOrEqual(bandSuperiorFloor):
		return models.BandSuperior
	case total.GreaterThanOrEqual(bandHighFloor):
		return models.BandHigh
	case total.GreaterThanOrEqual(bandBasicFloor):
		return models.BandBasic
	default:
		return models.BandLow
	}
}

// FormatScore prints a score with one decimal place, or two when needed.
func FormatScore(score decimal.Decimal) string {
	if score.Equal(score.Round(1)) {
		return score.StringFixed(1)
	}
	return score.StringFixed(2)
}
