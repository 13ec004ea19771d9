package review

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coursemart/coursemart/api/web"
	"github.com/coursemart/coursemart/api/weberr"
	"github.com/coursemart/coursemart/core/claims"
	"github.com/coursemart/coursemart/core/course"
	"github.com/coursemart/coursemart/core/enroll"
	"github.com/coursemart/coursemart/database"
	"github.com/coursemart/coursemart/validate"
	"github.com/jmoiron/sqlx"
)

func HandleListByCourse(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		slug := web.Param(r, "slug")

		c, err := course.FetchBySlug(ctx, db, slug)
		if err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotFound(err, "course not found")
			}
			return fmt.Errorf("fetching course by slug[%s]: %w", slug, err)
		}

		reviews, err := FetchByCourse(ctx, db, c.ID)
		if err != nil {
			return fmt.Errorf("fetching reviews: %w", err)
		}

		data := struct {
			Reviews []WithAuthor `json:"reviews"`
		}{Reviews: reviews}

		return web.Respond(ctx, w, "reviews fetched successfully", data, http.StatusOK)
	}
}

// HandleUpsert creates or replaces the caller's review. Reviewing
// requires owning the course.
func HandleUpsert(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		var rn ReviewNew
		if err := web.Decode(w, r, &rn); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding review body: %w", err), "rating must be between 1 and 5")
		}

		if err := validate.Check(rn); err != nil {
			return weberr.BadRequest(err, "rating must be between 1 and 5")
		}

		slug := web.Param(r, "slug")
		c, err := course.FetchBySlug(ctx, db, slug)
		if err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotFound(err, "course not found")
			}
			return fmt.Errorf("fetching course by slug[%s]: %w", slug, err)
		}

		granted, err := enroll.Granted(ctx, db, clm.UserID, c.ID)
		if err != nil {
			return fmt.Errorf("checking enrollment: %w", err)
		}
		if !granted {
			err := errors.New("user does not own the course")
			return weberr.Forbidden(err, "you must purchase this course before reviewing it")
		}

		now := time.Now().UTC()
		rv := Review{
			UserID:    clm.UserID,
			CourseID:  c.ID,
			Rating:    rn.Rating,
			Comment:   rn.Comment,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := Upsert(ctx, db, rv); err != nil {
			return fmt.Errorf("upserting review: %w", err)
		}

		data := struct {
			Review Review `json:"review"`
		}{Review: rv}

		return web.Respond(ctx, w, "review saved successfully", data, http.StatusOK)
	}
}

func HandleDelete(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		slug := web.Param(r, "slug")
		c, err := course.FetchBySlug(ctx, db, slug)
		if err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotFound(err, "course not found")
			}
			return fmt.Errorf("fetching course by slug[%s]: %w", slug, err)
		}

		if _, err := Fetch(ctx, db, clm.UserID, c.ID); err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotFound(err, "review not found")
			}
			return fmt.Errorf("fetching review: %w", err)
		}

		if err := Delete(ctx, db, clm.UserID, c.ID); err != nil {
			return fmt.Errorf("deleting review: %w", err)
		}

		return web.Respond(ctx, w, "review deleted successfully", nil, http.StatusOK)
	}
}
