package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the complete storage interface. It allows swapping
// implementations (SQLite, the in-memory mock) and makes testing
// straightforward.
type Repository interface {
	CardTransactionRepository
	BillPaymentRepository
	LinkRepository
	Close() error
}

// CardTransactionRepository handles credit-card statement lines.
type CardTransactionRepository interface {
	// InsertCardTransaction saves one imported statement line.
	InsertCardTransaction(ctx context.Context, tx *CardTransaction) error

	// ListPendingCycles returns every billing cycle of the user with at
	// least one unlinked transaction, with count, total and date span.
	ListPendingCycles(ctx context.Context, userID string) ([]CycleSummary, error)

	// GetPendingCycle returns the summary for one cycle, or nil when the
	// cycle has no unlinked transactions.
	GetPendingCycle(ctx context.Context, userID, cycle string) (*CycleSummary, error)

	// ListLinkedCycles returns cycles whose transactions carry a bill
	// reference.
	ListLinkedCycles(ctx context.Context, userID string) ([]LinkedCycle, error)
}

// BillPaymentRepository handles bank-side bill payment transactions.
type BillPaymentRepository interface {
	// InsertBillPayment saves a new bill payment.
	InsertBillPayment(ctx context.Context, bill *BillPayment) error

	// GetBillPayment returns the bill owned by the user, or nil when it
	// does not exist or belongs to someone else.
	GetBillPayment(ctx context.Context, userID string, id uuid.UUID) (*BillPayment, error)

	// ListCandidateBills returns the user's unexpanded bills dated inside
	// [from, to], both days inclusive.
	ListCandidateBills(ctx context.Context, userID string, from, to time.Time) ([]*BillPayment, error)
}

// LinkRepository performs the atomic link and unlink operations.
type LinkRepository interface {
	// LinkCycle atomically points every unlinked transaction of the cycle
	// at the bill, moves the bill's amount into original_amount, zeroes the
	// amount and stamps expanded_at. Preconditions are re-checked inside
	// the same transaction that performs the writes; a violation rolls the
	// whole operation back and returns ErrBillNotFound, ErrBillAlreadyExpanded,
	// ErrCycleAlreadyLinked or ErrPendingCycleNotFound. Returns the number
	// of transactions linked.
	LinkCycle(ctx context.Context, userID, cycle string, billID uuid.UUID, now time.Time) (int, error)

	// UnlinkBill reverses LinkCycle: clears the bill reference on every
	// linked transaction and restores the bill's amount from
	// original_amount. Returns ErrBillNotFound or ErrBillNotExpanded.
	UnlinkBill(ctx context.Context, userID string, billID uuid.UUID) (*UnlinkOutcome, error)
}
