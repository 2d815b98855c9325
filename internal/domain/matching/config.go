// Package matching provides the bill-to-cycle matching rules: tolerance
// configuration, billing cycle keys and date windows, and the confidence
// scoring used to decide whether a bill payment can be linked automatically.
//
// All amount math uses shopspring/decimal so threshold comparisons are exact;
// the boundary between two confidence tiers is always inclusive of the lower
// tier's bound.
//
// Example usage:
//
//	cfg := matching.DefaultConfig()
//	conf := matching.Classify(cycleTotal, billAmount, cfg)
//	if conf == matching.ConfidenceHigh {
//		// safe to auto-link
//	}
package matching

import "github.com/shopspring/decimal"

// Config holds the tolerance and confidence thresholds used for matching.
// It is an immutable value object: callers pass it explicitly into every
// operation so tests can substitute deterministic thresholds.
type Config struct {
	// Overall amount tolerance: a candidate is excluded entirely when the
	// difference exceeds the greater of percent and absolute.
	AmountTolerancePercent  decimal.Decimal
	AmountToleranceAbsolute decimal.Decimal

	// DateToleranceDays widens the cycle month on both sides when searching
	// for candidate bills.
	DateToleranceDays int

	// Confidence tiers, each the greater of percent and absolute.
	HighConfidencePercent    decimal.Decimal
	HighConfidenceAbsolute   decimal.Decimal
	MediumConfidencePercent  decimal.Decimal
	MediumConfidenceAbsolute decimal.Decimal
}

// DefaultConfig returns the process-wide default matching policy:
// 2%/20.00 overall tolerance, 15-day window, 0.5%/5.00 high tier,
// 2%/20.00 medium tier.
func DefaultConfig() Config {
	return Config{
		AmountTolerancePercent:   decimal.NewFromFloat(0.02),
		AmountToleranceAbsolute:  decimal.NewFromInt(20),
		DateToleranceDays:        15,
		HighConfidencePercent:    decimal.NewFromFloat(0.005),
		HighConfidenceAbsolute:   decimal.NewFromInt(5),
		MediumConfidencePercent:  decimal.NewFromFloat(0.02),
		MediumConfidenceAbsolute: decimal.NewFromInt(20),
	}
}

// Tolerance returns the overall amount tolerance for a given bill amount:
// the greater of the percentage of the amount and the absolute floor.
func (c Config) Tolerance(billAmount decimal.Decimal) decimal.Decimal {
	return bound(billAmount, c.AmountTolerancePercent, c.AmountToleranceAbsolute)
}

// WithinTolerance reports whether the difference between a cycle total and a
// bill amount is inside the overall tolerance. The bound is inclusive.
func (c Config) WithinTolerance(cycleTotal, billAmount decimal.Decimal) bool {
	diff := cycleTotal.Sub(billAmount).Abs()
	return diff.LessThanOrEqual(c.Tolerance(billAmount))
}

func bound(billAmount, percent, absolute decimal.Decimal) decimal.Decimal {
	return decimal.Max(percent.Mul(billAmount.Abs()), absolute)
}
