package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/coursemart/coursemart/core/course"
	"github.com/coursemart/coursemart/database"
	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, it Item) error {
	const q = `
	INSERT INTO cart_items
		(item_id, user_id, course_id, created_at)
	VALUES
		(:item_id, :user_id, :course_id, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, it); err != nil {
		return fmt.Errorf("inserting cart item: %w", err)
	}

	return nil
}

// FetchItem resolves the single row for the pair, so deletions can
// target its id unambiguously.
func FetchItem(ctx context.Context, db sqlx.ExtContext, userID string, courseID string) (Item, error) {
	const q = `SELECT * FROM cart_items WHERE user_id = $1 AND course_id = $2`

	var it Item
	if err := sqlx.GetContext(ctx, db, &it, q, userID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Item{}, database.ErrDBNotFound
		}
		return Item{}, fmt.Errorf("fetching cart item: %w", err)
	}

	return it, nil
}

func DeleteByID(ctx context.Context, db sqlx.ExtContext, itemID string) error {
	const q = `DELETE FROM cart_items WHERE item_id = $1`

	if _, err := db.ExecContext(ctx, q, itemID); err != nil {
		return fmt.Errorf("deleting cart item[%s]: %w", itemID, err)
	}

	return nil
}

// FetchCourses lists the cart's courses joined with display metadata,
// oldest selection first.
func FetchCourses(ctx context.Context, db sqlx.ExtContext, userID string) ([]course.Summary, error) {
	const q = `
	SELECT c.course_id, c.slug, c.title, c.price, c.thumbnail_url
	FROM cart_items AS ci
	JOIN courses AS c ON c.course_id = ci.course_id
	WHERE ci.user_id = $1
	ORDER BY ci.created_at`

	courses := []course.Summary{}
	if err := sqlx.SelectContext(ctx, db, &courses, q, userID); err != nil {
		return nil, fmt.Errorf("fetching cart courses: %w", err)
	}

	return courses, nil
}
