package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InsertCardTransaction saves one imported statement line.
func (s *Storage) InsertCardTransaction(ctx context.Context, tx *CardTransaction) error {
	query := `
	INSERT INTO card_transactions
	(id, user_id, title, amount, date, installment_num, installment_total, billing_cycle, bill_payment_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		tx.ID,
		tx.UserID,
		tx.Title,
		tx.Amount,
		tx.Date,
		tx.InstallmentNum,
		tx.InstallmentTotal,
		tx.BillingCycle,
		tx.BillPaymentID,
	)

	return err
}

// ListPendingCycles returns cycles with at least one unlinked transaction.
// Amounts are summed in Go: the amount column holds decimal text and a SQL
// SUM would coerce it to float.
func (s *Storage) ListPendingCycles(ctx context.Context, userID string) ([]CycleSummary, error) {
	query := `
	SELECT billing_cycle, amount, date
	FROM card_transactions
	WHERE user_id = ? AND bill_payment_id IS NULL
	ORDER BY billing_cycle ASC, date ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var cycles []CycleSummary
	for rows.Next() {
		var (
			cycle  string
			amount decimal.Decimal
			date   time.Time
		)
		if err := rows.Scan(&cycle, &amount, &date); err != nil {
			return nil, err
		}

		if len(cycles) == 0 || cycles[len(cycles)-1].Cycle != cycle {
			cycles = append(cycles, CycleSummary{
				Cycle:      cycle,
				OldestDate: date,
				NewestDate: date,
			})
		}

		current := &cycles[len(cycles)-1]
		current.TransactionCount++
		current.Total = current.Total.Add(amount)
		if date.Before(current.OldestDate) {
			current.OldestDate = date
		}
		if date.After(current.NewestDate) {
			current.NewestDate = date
		}
	}

	return cycles, rows.Err()
}

// GetPendingCycle returns the summary for one cycle, nil when it has no
// unlinked transactions.
func (s *Storage) GetPendingCycle(ctx context.Context, userID, cycle string) (*CycleSummary, error) {
	query := `
	SELECT amount, date
	FROM card_transactions
	WHERE user_id = ? AND billing_cycle = ? AND bill_payment_id IS NULL
	ORDER BY date ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID, cycle)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var summary *CycleSummary
	for rows.Next() {
		var (
			amount decimal.Decimal
			date   time.Time
		)
		if err := rows.Scan(&amount, &date); err != nil {
			return nil, err
		}

		if summary == nil {
			summary = &CycleSummary{
				Cycle:      cycle,
				OldestDate: date,
				NewestDate: date,
			}
		}
		summary.TransactionCount++
		summary.Total = summary.Total.Add(amount)
		if date.After(summary.NewestDate) {
			summary.NewestDate = date
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summary, nil
}

// ListLinkedCycles returns cycles whose transactions carry a bill reference.
func (s *Storage) ListLinkedCycles(ctx context.Context, userID string) ([]LinkedCycle, error) {
	query := `
	SELECT t.billing_cycle, t.bill_payment_id, t.amount, b.expanded_at
	FROM card_transactions t
	JOIN bill_payments b ON b.id = t.bill_payment_id
	WHERE t.user_id = ?
	ORDER BY t.billing_cycle ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var cycles []LinkedCycle
	for rows.Next() {
		var (
			cycle      string
			billID     uuid.UUID
			amount     decimal.Decimal
			expandedAt time.Time
		)
		if err := rows.Scan(&cycle, &billID, &amount, &expandedAt); err != nil {
			return nil, err
		}

		if len(cycles) == 0 || cycles[len(cycles)-1].Cycle != cycle {
			cycles = append(cycles, LinkedCycle{
				Cycle:    cycle,
				BillID:   billID,
				LinkedAt: expandedAt,
			})
		}

		current := &cycles[len(cycles)-1]
		current.TransactionCount++
		current.Total = current.Total.Add(amount)
	}

	return cycles, rows.Err()
}
