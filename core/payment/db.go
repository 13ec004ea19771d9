package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/coursemart/coursemart/database"
	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, p Payment) error {
	const q = `
	INSERT INTO payments
		(payment_id, transaction_id, user_id, course_id, amount, status, created_at, updated_at)
	VALUES
		(:payment_id, :transaction_id, :user_id, :course_id, :amount, :status, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, p); err != nil {
		return fmt.Errorf("inserting payment: %w", err)
	}

	return nil
}

// FetchByTransaction resolves a single-purchase session by its
// transaction id. Bulk sessions hold several rows under one id and must
// go through FetchPending instead; the oldest row wins here, matching
// the single-record contract of the single completion path.
func FetchByTransaction(ctx context.Context, db sqlx.ExtContext, transactionID string) (Payment, error) {
	const q = `SELECT * FROM payments WHERE transaction_id = $1 ORDER BY created_at LIMIT 1`

	var p Payment
	if err := sqlx.GetContext(ctx, db, &p, q, transactionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Payment{}, database.ErrDBNotFound
		}
		return Payment{}, fmt.Errorf("fetching payment by transaction[%s]: %w", transactionID, err)
	}

	return p, nil
}

// FetchPending returns the user's still-pending records of a session.
func FetchPending(ctx context.Context, db sqlx.ExtContext, transactionID string, userID string) ([]Payment, error) {
	const q = `
	SELECT * FROM payments
	WHERE transaction_id = $1 AND user_id = $2 AND status = 'pending'
	ORDER BY created_at`

	payments := []Payment{}
	if err := sqlx.SelectContext(ctx, db, &payments, q, transactionID, userID); err != nil {
		return nil, fmt.Errorf("fetching pending payments of transaction[%s]: %w", transactionID, err)
	}

	return payments, nil
}

// UpdateStatus completes a pending record. The status guard in the WHERE
// clause makes the pending to completed transition race-safe: the second
// of two concurrent completions affects zero rows and gets ErrDBNotFound.
func UpdateStatus(ctx context.Context, db sqlx.ExtContext, up StatusUp) error {
	const q = `
	UPDATE payments SET
		status = :status,
		payment_method = :payment_method,
		updated_at = :updated_at
	WHERE payment_id = :payment_id AND status = 'pending'`

	res, err := sqlx.NamedExecContext(ctx, db, q, up)
	if err != nil {
		return fmt.Errorf("updating payment[%s] status: %w", up.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return database.ErrDBNotFound
	}

	return nil
}
