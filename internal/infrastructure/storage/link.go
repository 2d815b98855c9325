package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LinkCycle performs the atomic link operation. All precondition checks run
// inside the same SQL transaction as the writes, and the bill update carries
// an optimistic "expanded_at IS NULL" guard so a race loser rolls back with
// ErrBillAlreadyExpanded instead of corrupting state.
func (s *Storage) LinkCycle(ctx context.Context, userID, cycle string, billID uuid.UUID, now time.Time) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin link transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Precondition (a): the bill exists, is owned by the user and is not
	// expanded yet.
	var expandedAt sql.NullTime
	err = tx.QueryRowContext(ctx,
		`SELECT expanded_at FROM bill_payments WHERE id = ? AND user_id = ?`,
		billID, userID,
	).Scan(&expandedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrBillNotFound
	}
	if err != nil {
		return 0, err
	}
	if expandedAt.Valid {
		return 0, ErrBillAlreadyExpanded
	}

	// Precondition (c): the cycle is not already linked to a different bill.
	var linkedElsewhere int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM card_transactions
		WHERE user_id = ? AND billing_cycle = ?
		  AND bill_payment_id IS NOT NULL AND bill_payment_id != ?`,
		userID, cycle, billID,
	).Scan(&linkedElsewhere)
	if err != nil {
		return 0, err
	}
	if linkedElsewhere > 0 {
		return 0, ErrCycleAlreadyLinked
	}

	// Expand the bill. The WHERE clause re-checks expanded_at so a
	// concurrent link loses here rather than double-expanding.
	res, err := tx.ExecContext(ctx, `
		UPDATE bill_payments
		SET original_amount = amount, amount = '0', expanded_at = ?
		WHERE id = ? AND user_id = ? AND expanded_at IS NULL`,
		now, billID, userID,
	)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, ErrBillAlreadyExpanded
	}

	// Precondition (b) doubles as the write: linking zero transactions
	// means the cycle had nothing unlinked.
	res, err = tx.ExecContext(ctx, `
		UPDATE card_transactions
		SET bill_payment_id = ?
		WHERE user_id = ? AND billing_cycle = ? AND bill_payment_id IS NULL`,
		billID, userID, cycle,
	)
	if err != nil {
		return 0, err
	}
	linked, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if linked == 0 {
		return 0, ErrPendingCycleNotFound
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit link: %w", err)
	}
	return int(linked), nil
}

// UnlinkBill reverses LinkCycle. The bill-side restoration is exact: the
// amount comes back from original_amount, and both original_amount and
// expanded_at are cleared. Detail transactions are disassociated, never
// deleted.
func (s *Storage) UnlinkBill(ctx context.Context, userID string, billID uuid.UUID) (*UnlinkOutcome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin unlink transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var originalAmount decimal.NullDecimal
	var expandedAt sql.NullTime
	err = tx.QueryRowContext(ctx,
		`SELECT original_amount, expanded_at FROM bill_payments WHERE id = ? AND user_id = ?`,
		billID, userID,
	).Scan(&originalAmount, &expandedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBillNotFound
	}
	if err != nil {
		return nil, err
	}
	if !expandedAt.Valid || !originalAmount.Valid {
		return nil, ErrBillNotExpanded
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE card_transactions
		SET bill_payment_id = NULL
		WHERE user_id = ? AND bill_payment_id = ?`,
		userID, billID,
	)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE bill_payments
		SET amount = original_amount, original_amount = NULL, expanded_at = NULL
		WHERE id = ? AND user_id = ? AND expanded_at IS NOT NULL`,
		billID, userID,
	)
	if err != nil {
		return nil, err
	}
	restored, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if restored == 0 {
		// Lost a race with a concurrent unlink.
		return nil, ErrBillNotExpanded
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit unlink: %w", err)
	}

	return &UnlinkOutcome{
		RestoredAmount:       originalAmount.Decimal,
		AffectedTransactions: int(affected),
	}, nil
}
