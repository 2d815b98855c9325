package storage

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CardTransaction is an individual purchase line imported from a credit-card
// statement. Amount is always a positive magnitude. BillPaymentID is set by
// the linking operation and cleared by unlink; this subsystem never deletes
// card transactions.
type CardTransaction struct {
	ID               uuid.UUID
	UserID           string
	Title            string
	Amount           decimal.Decimal
	Date             time.Time
	InstallmentNum   sql.NullInt64
	InstallmentTotal sql.NullInt64
	BillingCycle     string
	BillPaymentID    uuid.NullUUID
	CreatedAt        time.Time
}

// BillPayment is the bank-side transaction aggregating a statement total.
// OriginalAmount and ExpandedAt are both null or both set: a bill is either
// untouched or fully expanded, never in between.
type BillPayment struct {
	ID             uuid.UUID
	UserID         string
	Description    string
	Amount         decimal.Decimal
	Date           time.Time
	OriginalAmount decimal.NullDecimal
	ExpandedAt     sql.NullTime
	CreatedAt      time.Time
}

// Expanded reports whether the bill is currently linked to a billing cycle.
func (b *BillPayment) Expanded() bool {
	return b.ExpandedAt.Valid
}

// CycleSummary aggregates the unlinked card transactions of one billing
// cycle.
type CycleSummary struct {
	Cycle            string
	TransactionCount int
	Total            decimal.Decimal
	OldestDate       time.Time
	NewestDate       time.Time
}

// LinkedCycle describes a billing cycle whose transactions all carry a bill
// reference.
type LinkedCycle struct {
	Cycle            string
	BillID           uuid.UUID
	TransactionCount int
	Total            decimal.Decimal
	LinkedAt         time.Time
}

// UnlinkOutcome reports the effect of reversing a link.
type UnlinkOutcome struct {
	RestoredAmount       decimal.Decimal
	AffectedTransactions int
}
