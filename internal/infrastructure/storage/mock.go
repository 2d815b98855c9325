package storage

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It mirrors the SQLite implementation's semantics, including the link
// precondition errors, so service tests exercise the same failure paths.
type MockRepository struct {
	transactions []*CardTransaction
	bills        map[uuid.UUID]*BillPayment

	// Hooks for test assertions
	LinkCycleCalled  bool
	UnlinkBillCalled bool
	LastLinkedCycle  string
	LastLinkedBill   uuid.UUID

	// Error injection for testing error paths
	ListPendingCyclesErr  error
	ListCandidateBillsErr error
	LinkCycleErr          error
	UnlinkBillErr         error
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		bills: make(map[uuid.UUID]*BillPayment),
	}
}

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

func (m *MockRepository) InsertCardTransaction(_ context.Context, tx *CardTransaction) error {
	copied := *tx
	m.transactions = append(m.transactions, &copied)
	return nil
}

func (m *MockRepository) InsertBillPayment(_ context.Context, bill *BillPayment) error {
	copied := *bill
	m.bills[bill.ID] = &copied
	return nil
}

// Transactions returns the stored card transactions for assertions.
func (m *MockRepository) Transactions() []*CardTransaction {
	return m.transactions
}

// Bill returns the stored bill for assertions, nil when absent.
func (m *MockRepository) Bill(id uuid.UUID) *BillPayment {
	return m.bills[id]
}

func (m *MockRepository) ListPendingCycles(_ context.Context, userID string) ([]CycleSummary, error) {
	if m.ListPendingCyclesErr != nil {
		return nil, m.ListPendingCyclesErr
	}

	byCycle := make(map[string]*CycleSummary)
	for _, tx := range m.transactions {
		if tx.UserID != userID || tx.BillPaymentID.Valid {
			continue
		}
		summary, ok := byCycle[tx.BillingCycle]
		if !ok {
			summary = &CycleSummary{
				Cycle:      tx.BillingCycle,
				OldestDate: tx.Date,
				NewestDate: tx.Date,
			}
			byCycle[tx.BillingCycle] = summary
		}
		summary.TransactionCount++
		summary.Total = summary.Total.Add(tx.Amount)
		if tx.Date.Before(summary.OldestDate) {
			summary.OldestDate = tx.Date
		}
		if tx.Date.After(summary.NewestDate) {
			summary.NewestDate = tx.Date
		}
	}

	cycles := make([]CycleSummary, 0, len(byCycle))
	for _, summary := range byCycle {
		cycles = append(cycles, *summary)
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i].Cycle < cycles[j].Cycle })
	return cycles, nil
}

func (m *MockRepository) GetPendingCycle(ctx context.Context, userID, cycle string) (*CycleSummary, error) {
	cycles, err := m.ListPendingCycles(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range cycles {
		if cycles[i].Cycle == cycle {
			return &cycles[i], nil
		}
	}
	return nil, nil
}

func (m *MockRepository) ListLinkedCycles(_ context.Context, userID string) ([]LinkedCycle, error) {
	byCycle := make(map[string]*LinkedCycle)
	for _, tx := range m.transactions {
		if tx.UserID != userID || !tx.BillPaymentID.Valid {
			continue
		}
		linked, ok := byCycle[tx.BillingCycle]
		if !ok {
			linked = &LinkedCycle{
				Cycle:  tx.BillingCycle,
				BillID: tx.BillPaymentID.UUID,
			}
			if bill := m.bills[tx.BillPaymentID.UUID]; bill != nil && bill.ExpandedAt.Valid {
				linked.LinkedAt = bill.ExpandedAt.Time
			}
			byCycle[tx.BillingCycle] = linked
		}
		linked.TransactionCount++
		linked.Total = linked.Total.Add(tx.Amount)
	}

	cycles := make([]LinkedCycle, 0, len(byCycle))
	for _, linked := range byCycle {
		cycles = append(cycles, *linked)
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i].Cycle < cycles[j].Cycle })
	return cycles, nil
}

func (m *MockRepository) GetBillPayment(_ context.Context, userID string, id uuid.UUID) (*BillPayment, error) {
	bill, ok := m.bills[id]
	if !ok || bill.UserID != userID {
		return nil, nil
	}
	copied := *bill
	return &copied, nil
}

func (m *MockRepository) ListCandidateBills(_ context.Context, userID string, from, to time.Time) ([]*BillPayment, error) {
	if m.ListCandidateBillsErr != nil {
		return nil, m.ListCandidateBillsErr
	}

	var bills []*BillPayment
	for _, bill := range m.bills {
		if bill.UserID != userID || bill.ExpandedAt.Valid {
			continue
		}
		day := time.Date(bill.Date.Year(), bill.Date.Month(), bill.Date.Day(), 0, 0, 0, 0, time.UTC)
		if day.Before(from) || day.After(to) {
			continue
		}
		copied := *bill
		bills = append(bills, &copied)
	}
	sort.Slice(bills, func(i, j int) bool {
		if !bills[i].Date.Equal(bills[j].Date) {
			return bills[i].Date.Before(bills[j].Date)
		}
		return bills[i].ID.String() < bills[j].ID.String()
	})
	return bills, nil
}

func (m *MockRepository) LinkCycle(_ context.Context, userID, cycle string, billID uuid.UUID, now time.Time) (int, error) {
	m.LinkCycleCalled = true
	m.LastLinkedCycle = cycle
	m.LastLinkedBill = billID
	if m.LinkCycleErr != nil {
		return 0, m.LinkCycleErr
	}

	bill, ok := m.bills[billID]
	if !ok || bill.UserID != userID {
		return 0, ErrBillNotFound
	}
	if bill.ExpandedAt.Valid {
		return 0, ErrBillAlreadyExpanded
	}
	for _, tx := range m.transactions {
		if tx.UserID == userID && tx.BillingCycle == cycle && tx.BillPaymentID.Valid && tx.BillPaymentID.UUID != billID {
			return 0, ErrCycleAlreadyLinked
		}
	}

	linked := 0
	for _, tx := range m.transactions {
		if tx.UserID == userID && tx.BillingCycle == cycle && !tx.BillPaymentID.Valid {
			tx.BillPaymentID = uuid.NullUUID{UUID: billID, Valid: true}
			linked++
		}
	}
	if linked == 0 {
		return 0, ErrPendingCycleNotFound
	}

	bill.OriginalAmount = decimal.NullDecimal{Decimal: bill.Amount, Valid: true}
	bill.Amount = decimal.Zero
	bill.ExpandedAt.Time = now
	bill.ExpandedAt.Valid = true
	return linked, nil
}

func (m *MockRepository) UnlinkBill(_ context.Context, userID string, billID uuid.UUID) (*UnlinkOutcome, error) {
	m.UnlinkBillCalled = true
	if m.UnlinkBillErr != nil {
		return nil, m.UnlinkBillErr
	}

	bill, ok := m.bills[billID]
	if !ok || bill.UserID != userID {
		return nil, ErrBillNotFound
	}
	if !bill.ExpandedAt.Valid || !bill.OriginalAmount.Valid {
		return nil, ErrBillNotExpanded
	}

	affected := 0
	for _, tx := range m.transactions {
		if tx.UserID == userID && tx.BillPaymentID.Valid && tx.BillPaymentID.UUID == billID {
			tx.BillPaymentID = uuid.NullUUID{}
			affected++
		}
	}

	restored := bill.OriginalAmount.Decimal
	bill.Amount = restored
	bill.OriginalAmount = decimal.NullDecimal{}
	bill.ExpandedAt.Valid = false
	bill.ExpandedAt.Time = time.Time{}

	return &UnlinkOutcome{RestoredAmount: restored, AffectedTransactions: affected}, nil
}
