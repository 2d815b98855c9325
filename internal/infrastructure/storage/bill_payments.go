package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// InsertBillPayment saves a new bill payment.
func (s *Storage) InsertBillPayment(ctx context.Context, bill *BillPayment) error {
	query := `
	INSERT INTO bill_payments
	(id, user_id, description, amount, date, original_amount, expanded_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		bill.ID,
		bill.UserID,
		bill.Description,
		bill.Amount,
		bill.Date,
		bill.OriginalAmount,
		bill.ExpandedAt,
	)

	return err
}

// GetBillPayment returns the bill owned by the user, nil when absent.
func (s *Storage) GetBillPayment(ctx context.Context, userID string, id uuid.UUID) (*BillPayment, error) {
	query := `
	SELECT id, user_id, description, amount, date, original_amount, expanded_at, created_at
	FROM bill_payments
	WHERE id = ? AND user_id = ?
	`

	bill := &BillPayment{}
	err := s.db.QueryRowContext(ctx, query, id, userID).Scan(
		&bill.ID,
		&bill.UserID,
		&bill.Description,
		&bill.Amount,
		&bill.Date,
		&bill.OriginalAmount,
		&bill.ExpandedAt,
		&bill.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return bill, nil
}

// ListCandidateBills returns the user's unexpanded bills dated inside
// [from, to], both calendar days inclusive.
func (s *Storage) ListCandidateBills(ctx context.Context, userID string, from, to time.Time) ([]*BillPayment, error) {
	// to is inclusive of the whole day, so the SQL bound is the next
	// midnight, exclusive.
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)

	query := `
	SELECT id, user_id, description, amount, date, original_amount, expanded_at, created_at
	FROM bill_payments
	WHERE user_id = ? AND expanded_at IS NULL AND date >= ? AND date < ?
	ORDER BY date ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID, from, end)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var bills []*BillPayment
	for rows.Next() {
		bill := &BillPayment{}
		err := rows.Scan(
			&bill.ID,
			&bill.UserID,
			&bill.Description,
			&bill.Amount,
			&bill.Date,
			&bill.OriginalAmount,
			&bill.ExpandedAt,
			&bill.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		bills = append(bills, bill)
	}

	return bills, rows.Err()
}
