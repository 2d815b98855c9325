package matching

import "github.com/shopspring/decimal"

// Confidence classifies how closely a candidate bill's amount matches a
// cycle's total.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"

	// ConfidenceExcluded means the difference exceeds the overall tolerance;
	// such bills are not candidates at all.
	ConfidenceExcluded Confidence = "excluded"
)

// AutoLinkable reports whether the confidence permits linking without human
// confirmation.
func (c Confidence) AutoLinkable() bool {
	return c == ConfidenceHigh || c == ConfidenceMedium
}

// Classify scores a candidate bill against a cycle total. Each tier bound is
// the greater of a percentage of the bill amount and an absolute floor, and
// every comparison is inclusive: a difference exactly on the high bound is
// still high.
func Classify(cycleTotal, billAmount decimal.Decimal, cfg Config) Confidence {
	diff := cycleTotal.Sub(billAmount).Abs()

	switch {
	case diff.LessThanOrEqual(bound(billAmount, cfg.HighConfidencePercent, cfg.HighConfidenceAbsolute)):
		return ConfidenceHigh
	case diff.LessThanOrEqual(bound(billAmount, cfg.MediumConfidencePercent, cfg.MediumConfidenceAbsolute)):
		return ConfidenceMedium
	case diff.LessThanOrEqual(cfg.Tolerance(billAmount)):
		return ConfidenceLow
	default:
		return ConfidenceExcluded
	}
}
