package matching

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PotentialMatch describes one bill payment evaluated against one billing
// cycle's total. It is transient and never persisted.
type PotentialMatch struct {
	BillID      uuid.UUID
	Date        time.Time
	Description string
	Amount      decimal.Decimal

	// Difference is signed: cycle total minus bill amount. A bill larger
	// than the itemized total yields a negative difference.
	Difference decimal.Decimal

	// DifferencePercent is the absolute difference as a percentage of the
	// cycle total, zero when the cycle total is zero.
	DifferencePercent decimal.Decimal

	Confidence Confidence
}

var hundred = decimal.NewFromInt(100)

// Evaluate scores a single bill against a cycle total and builds the match
// record. ok is false when the bill falls outside the overall tolerance.
func Evaluate(cycleTotal decimal.Decimal, billID uuid.UUID, billDate time.Time, description string, billAmount decimal.Decimal, cfg Config) (PotentialMatch, bool) {
	confidence := Classify(cycleTotal, billAmount, cfg)
	if confidence == ConfidenceExcluded {
		return PotentialMatch{}, false
	}

	diff := cycleTotal.Sub(billAmount)
	pct := decimal.Zero
	if !cycleTotal.IsZero() {
		pct = diff.Abs().Div(cycleTotal.Abs()).Mul(hundred)
	}

	return PotentialMatch{
		BillID:            billID,
		Date:              billDate,
		Description:       description,
		Amount:            billAmount,
		Difference:        diff,
		DifferencePercent: pct,
		Confidence:        confidence,
	}, true
}
