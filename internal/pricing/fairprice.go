// Package pricing implements the fair-price quote diagnostic: given how many
// windows a homeowner is replacing and what they were quoted, grade the quote
// against a fair-market band.
package pricing

import "math"

// DefaultSqftMultiplier is the multiplier for a typical window size.
const DefaultSqftMultiplier = 1.0

// Per-window fair-market band for a standard vinyl replacement, installed.
const (
	perWindowLow  = 650.0
	perWindowHigh = 1100.0
)

// Quote grades, cheapest-relative to most expensive.
const (
	GradeExcellent  = "excellent"  // more than 15% under midpoint
	GradeGood       = "good"       // 5-15% under
	GradeDecent     = "decent"     // within 5% either way
	GradeElevated   = "elevated"   // 5-20% over
	GradeOverpriced = "overpriced" // more than 20% over
)

// Analysis is the diagnostic result.
type Analysis struct {
	FairMin    float64 `json:"fair_min"`
	FairMax    float64 `json:"fair_max"`
	FairMid    float64 `json:"fair_mid"`
	OveragePct float64 `json:"overage_pct"`
	Grade      string  `json:"grade"`
}

// CalculatePriceAnalysis grades a quote against the fair-market band for the
// given window count. sqftMultiplier scales the band for oversized or
// undersized windows; pass DefaultSqftMultiplier for typical sizes. A
// non-positive windowCount or quote yields a zeroed Analysis with no grade.
func CalculatePriceAnalysis(windowCount int, sqftMultiplier, quoteAmount float64) Analysis {
	if windowCount <= 0 || quoteAmount <= 0 {
		return Analysis{}
	}
	if sqftMultiplier <= 0 {
		sqftMultiplier = DefaultSqftMultiplier
	}

	n := float64(windowCount)
	min := round2(n * perWindowLow * sqftMultiplier)
	max := round2(n * perWindowHigh * sqftMultiplier)
	mid := round2((min + max) / 2)

	overage := round2((quoteAmount - mid) / mid * 100)

	return Analysis{
		FairMin:    min,
		FairMax:    max,
		FairMid:    mid,
		OveragePct: overage,
		Grade:      grade(overage),
	}
}

func grade(overagePct float64) string {
	switch {
	case overagePct < -15:
		return GradeExcellent
	case overagePct < -5:
		return GradeGood
	case overagePct <= 5:
		return GradeDecent
	case overagePct <= 20:
		return GradeElevated
	default:
		return GradeOverpriced
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
