package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/coursemart/coursemart/database"
	"github.com/jmoiron/sqlx"
)

// Upsert writes the user's review of a course, overwriting a previous
// one: one review per (user, course) pair.
func Upsert(ctx context.Context, db sqlx.ExtContext, rv Review) error {
	const q = `
	INSERT INTO reviews
		(user_id, course_id, rating, comment, created_at, updated_at)
	VALUES
		(:user_id, :course_id, :rating, :comment, :created_at, :updated_at)
	ON CONFLICT (user_id, course_id) DO UPDATE SET
		rating = EXCLUDED.rating,
		comment = EXCLUDED.comment,
		updated_at = EXCLUDED.updated_at`

	if _, err := sqlx.NamedExecContext(ctx, db, q, rv); err != nil {
		return fmt.Errorf("upserting review: %w", err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, userID string, courseID string) (Review, error) {
	const q = `SELECT * FROM reviews WHERE user_id = $1 AND course_id = $2`

	var rv Review
	if err := sqlx.GetContext(ctx, db, &rv, q, userID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Review{}, database.ErrDBNotFound
		}
		return Review{}, fmt.Errorf("fetching review: %w", err)
	}

	return rv, nil
}

func Delete(ctx context.Context, db sqlx.ExtContext, userID string, courseID string) error {
	const q = `DELETE FROM reviews WHERE user_id = $1 AND course_id = $2`

	if _, err := db.ExecContext(ctx, q, userID, courseID); err != nil {
		return fmt.Errorf("deleting review: %w", err)
	}

	return nil
}

// FetchByCourse lists a course's reviews newest first, joined with the
// reviewer's name.
func FetchByCourse(ctx context.Context, db sqlx.ExtContext, courseID string) ([]WithAuthor, error) {
	const q = `
	SELECT r.*, u.name AS user_name
	FROM reviews AS r
	JOIN users AS u ON u.user_id = r.user_id
	WHERE r.course_id = $1
	ORDER BY r.created_at DESC`

	reviews := []WithAuthor{}
	if err := sqlx.SelectContext(ctx, db, &reviews, q, courseID); err != nil {
		return nil, fmt.Errorf("fetching reviews of course[%s]: %w", courseID, err)
	}

	return reviews, nil
}
