package video

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/coursemart/coursemart/database"
	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, v Video) error {
	const q = `
	INSERT INTO videos
		(video_id, course_id, "index", title, description, url, thumbnail_url, created_at, updated_at)
	VALUES
		(:video_id, :course_id, :index, :title, :description, :url, :thumbnail_url, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, v); err != nil {
		return fmt.Errorf("inserting video: %w", err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Video, error) {
	const q = `SELECT * FROM videos WHERE video_id = $1`

	var v Video
	if err := sqlx.GetContext(ctx, db, &v, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Video{}, database.ErrDBNotFound
		}
		return Video{}, fmt.Errorf("fetching video[%s]: %w", id, err)
	}

	return v, nil
}

// FetchByCourse returns the course's videos in playback order.
func FetchByCourse(ctx context.Context, db sqlx.ExtContext, courseID string) ([]Video, error) {
	const q = `SELECT * FROM videos WHERE course_id = $1 ORDER BY "index"`

	videos := []Video{}
	if err := sqlx.SelectContext(ctx, db, &videos, q, courseID); err != nil {
		return nil, fmt.Errorf("fetching videos of course[%s]: %w", courseID, err)
	}

	return videos, nil
}
