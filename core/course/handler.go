package course

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coursemart/coursemart/api/web"
	"github.com/coursemart/coursemart/api/weberr"
	"github.com/coursemart/coursemart/core/claims"
	"github.com/coursemart/coursemart/database"
	"github.com/coursemart/coursemart/validate"
	"github.com/jmoiron/sqlx"
)

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courses, err := FetchAllLaunched(ctx, db)
		if err != nil {
			return fmt.Errorf("fetching courses: %w", err)
		}

		data := struct {
			Courses []Course `json:"courses"`
		}{Courses: courses}

		return web.Respond(ctx, w, "courses fetched successfully", data, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		slug := web.Param(r, "slug")

		c, err := FetchBySlug(ctx, db, slug)
		if err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotFound(err, "course not found")
			}
			return fmt.Errorf("fetching course by slug[%s]: %w", slug, err)
		}

		data := struct {
			Course Course `json:"course"`
		}{Course: c}

		return web.Respond(ctx, w, "course fetched successfully", data, http.StatusOK)
	}
}

// HandleListOwned serves the caller's purchased courses.
func HandleListOwned(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		courses, err := FetchOwned(ctx, db, clm.UserID)
		if err != nil {
			return fmt.Errorf("fetching owned courses: %w", err)
		}

		data := struct {
			Courses []Course `json:"courses"`
		}{Courses: courses}

		return web.Respond(ctx, w, "courses fetched successfully", data, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var cn CourseNew
		if err := web.Decode(w, r, &cn); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding course body: %w", err), "title, description, slug and price are required")
		}

		if err := validate.Check(cn); err != nil {
			return weberr.BadRequest(err, err.Error())
		}

		now := time.Now().UTC()
		c := Course{
			ID:           validate.GenerateID(),
			Slug:         cn.Slug,
			Title:        cn.Title,
			Description:  cn.Description,
			Price:        *cn.Price,
			Launched:     cn.Launched,
			ThumbnailURL: cn.ThumbnailURL,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := Create(ctx, db, c); err != nil {
			if database.IsUniqueViolation(err) {
				return weberr.Conflict(err, "slug already exists")
			}
			return fmt.Errorf("creating course: %w", err)
		}

		data := struct {
			ID string `json:"id"`
		}{ID: c.ID}

		return web.Respond(ctx, w, "course created successfully", data, http.StatusOK)
	}
}
