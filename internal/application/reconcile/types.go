package reconcile

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/billsync/reconcile-backend/internal/domain/matching"
	"github.com/billsync/reconcile-backend/internal/infrastructure/storage"
)

// Outcome classifies what reconciliation decided for one billing cycle.
type Outcome string

const (
	OutcomeAutoLinked        Outcome = "auto_linked"
	OutcomeRequiresSelection Outcome = "requires_selection"
	OutcomeNoMatch           Outcome = "no_match"
)

// PendingCycle is a billing cycle awaiting reconciliation, with its
// candidate bills pre-scored.
type PendingCycle struct {
	storage.CycleSummary
	Candidates []matching.PotentialMatch
}

// Summary holds the headline numbers for the reconciliation overview.
type Summary struct {
	PendingCycles int
	LinkedCycles  int
	PendingTotal  decimal.Decimal
}

// PendingReconciliations is the read-only overview returned to the caller.
type PendingReconciliations struct {
	PendingCycles []PendingCycle
	LinkedCycles  []storage.LinkedCycle
	Summary       Summary
}

// CycleDecision records the outcome of evaluating one billing cycle.
type CycleDecision struct {
	Cycle   string
	Outcome Outcome

	// Set when the outcome is auto_linked.
	BillID             uuid.UUID
	Confidence         matching.Confidence
	Difference         decimal.Decimal
	TransactionsLinked int

	// Set when the outcome is requires_selection.
	Candidates []matching.PotentialMatch
}

// Result holds the decisions of a reconciliation run, one bucket per
// outcome.
type Result struct {
	AutoLinked        []CycleDecision
	RequiresSelection []CycleDecision
	NoMatch           []CycleDecision
}

// ManualLinkResult reports the effect of an explicit user-driven link.
type ManualLinkResult struct {
	TransactionsLinked int

	// AmountDifference is signed: cycle total minus bill amount.
	AmountDifference decimal.Decimal

	// HasMismatch is true when the difference exceeded the overall
	// tolerance and the link went through anyway because force was set.
	HasMismatch bool
}

// UnlinkResult reports the effect of reversing a link.
type UnlinkResult struct {
	RestoredAmount       decimal.Decimal
	AffectedTransactions int
}

// AutoLinkResult reports what the bill-creation hook did.
type AutoLinkResult struct {
	Triggered          bool
	LinkedCycle        string
	Confidence         matching.Confidence
	TransactionsLinked int
}
