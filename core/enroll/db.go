package enroll

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Grant records the entitlement and drops any cart entry for the same
// pair. Both writes must share the transaction passed in: a grant must
// never become visible while its cart item lingers.
//
// The insert relies on the (user_id, course_id) primary key: a concurrent
// or repeated grant hits the conflict clause and degrades to a no-op, so
// retried completions never error and never duplicate the entitlement.
func Grant(ctx context.Context, tx sqlx.ExtContext, userID string, courseID string) error {
	e := Enrollment{
		UserID:    userID,
		CourseID:  courseID,
		CreatedAt: time.Now().UTC(),
	}

	const q = `
	INSERT INTO course_users
		(user_id, course_id, created_at)
	VALUES
		(:user_id, :course_id, :created_at)
	ON CONFLICT (user_id, course_id) DO NOTHING`

	if _, err := sqlx.NamedExecContext(ctx, tx, q, e); err != nil {
		return fmt.Errorf("inserting enrollment: %w", err)
	}

	const clear = `DELETE FROM cart_items WHERE user_id = $1 AND course_id = $2`

	if _, err := tx.ExecContext(ctx, clear, userID, courseID); err != nil {
		return fmt.Errorf("clearing cart item: %w", err)
	}

	return nil
}

// Granted reports whether the user holds an entitlement for the course.
func Granted(ctx context.Context, db sqlx.ExtContext, userID string, courseID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM course_users WHERE user_id = $1 AND course_id = $2)`

	var granted bool
	if err := sqlx.GetContext(ctx, db, &granted, q, userID, courseID); err != nil {
		return false, fmt.Errorf("checking enrollment: %w", err)
	}

	return granted, nil
}
