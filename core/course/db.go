package course

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/coursemart/coursemart/database"
	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, c Course) error {
	const q = `
	INSERT INTO courses
		(course_id, slug, title, description, price, launched, thumbnail_url, created_at, updated_at)
	VALUES
		(:course_id, :slug, :title, :description, :price, :launched, :thumbnail_url, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, c); err != nil {
		return fmt.Errorf("inserting course: %w", err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Course, error) {
	const q = `SELECT * FROM courses WHERE course_id = $1`

	var c Course
	if err := sqlx.GetContext(ctx, db, &c, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, database.ErrDBNotFound
		}
		return Course{}, fmt.Errorf("fetching course[%s]: %w", id, err)
	}

	return c, nil
}

// FetchLaunched behaves like Fetch but only resolves purchasable courses.
func FetchLaunched(ctx context.Context, db sqlx.ExtContext, id string) (Course, error) {
	const q = `SELECT * FROM courses WHERE course_id = $1 AND launched`

	var c Course
	if err := sqlx.GetContext(ctx, db, &c, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, database.ErrDBNotFound
		}
		return Course{}, fmt.Errorf("fetching launched course[%s]: %w", id, err)
	}

	return c, nil
}

func FetchBySlug(ctx context.Context, db sqlx.ExtContext, slug string) (Course, error) {
	const q = `SELECT * FROM courses WHERE slug = $1 AND launched`

	var c Course
	if err := sqlx.GetContext(ctx, db, &c, q, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, database.ErrDBNotFound
		}
		return Course{}, fmt.Errorf("fetching course by slug[%s]: %w", slug, err)
	}

	return c, nil
}

// FetchManyLaunched resolves a set of ids against the catalog, keeping
// only launched courses. Callers compare the result length against the
// request to detect unknown or unlaunched ids.
func FetchManyLaunched(ctx context.Context, db sqlx.ExtContext, ids []string) ([]Course, error) {
	const q = `SELECT * FROM courses WHERE course_id IN (?) AND launched`

	query, args, err := sqlx.In(q, ids)
	if err != nil {
		return nil, fmt.Errorf("expanding course id list: %w", err)
	}

	courses := []Course{}
	if err := sqlx.SelectContext(ctx, db, &courses, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("fetching courses: %w", err)
	}

	return courses, nil
}

func FetchAllLaunched(ctx context.Context, db sqlx.ExtContext) ([]Course, error) {
	const q = `SELECT * FROM courses WHERE launched ORDER BY created_at`

	courses := []Course{}
	if err := sqlx.SelectContext(ctx, db, &courses, q); err != nil {
		return nil, fmt.Errorf("fetching launched courses: %w", err)
	}

	return courses, nil
}

// FetchOwned returns the courses the user holds an entitlement for.
func FetchOwned(ctx context.Context, db sqlx.ExtContext, userID string) ([]Course, error) {
	const q = `
	SELECT c.* FROM courses AS c
	JOIN course_users AS cu ON cu.course_id = c.course_id
	WHERE cu.user_id = $1
	ORDER BY cu.created_at`

	courses := []Course{}
	if err := sqlx.SelectContext(ctx, db, &courses, q, userID); err != nil {
		return nil, fmt.Errorf("fetching owned courses: %w", err)
	}

	return courses, nil
}
