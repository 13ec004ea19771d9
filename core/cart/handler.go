package cart

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

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		courses, err := FetchCourses(ctx, db, clm.UserID)
		if err != nil {
			return fmt.Errorf("fetching cart of user[%s]: %w", clm.UserID, err)
		}

		data := struct {
			Cart []course.Summary `json:"cart"`
		}{Cart: courses}

		return web.Respond(ctx, w, "cart fetched successfully", data, http.StatusOK)
	}
}

func HandleCreateItem(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		courseID := web.Param(r, "course_id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.NotFound(err, "course does not exist")
		}

		c, err := course.FetchLaunched(ctx, db, courseID)
		if err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotFound(err, "course does not exist")
			}
			return fmt.Errorf("fetching course[%s]: %w", courseID, err)
		}

		// An entitled pair must never reappear in the cart.
		granted, err := enroll.Granted(ctx, db, clm.UserID, c.ID)
		if err != nil {
			return fmt.Errorf("checking enrollment: %w", err)
		}
		if granted {
			err := errors.New("user already owns the course")
			return weberr.Conflict(err, "you already have access to this course")
		}

		it := Item{
			ID:        validate.GenerateID(),
			UserID:    clm.UserID,
			CourseID:  c.ID,
			CreatedAt: time.Now().UTC(),
		}

		// The uniqueness constraint, not the handler, arbitrates
		// concurrent adds: the losing insert surfaces as a conflict.
		if err := Create(ctx, db, it); err != nil {
			if database.IsUniqueViolation(err) {
				return weberr.Conflict(err, "course already exists in cart")
			}
			return fmt.Errorf("creating cart item: %w", err)
		}

		return web.Respond(ctx, w, "item added to cart", nil, http.StatusOK)
	}
}

func HandleDeleteItem(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		courseID := web.Param(r, "course_id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.NotFound(err, "item does not exist in cart")
		}

		it, err := FetchItem(ctx, db, clm.UserID, courseID)
		if err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotFound(err, "item does not exist in cart")
			}
			return fmt.Errorf("fetching cart item: %w", err)
		}

		if err := DeleteByID(ctx, db, it.ID); err != nil {
			return fmt.Errorf("deleting cart item[%s]: %w", it.ID, err)
		}

		return web.Respond(ctx, w, "item deleted from cart", nil, http.StatusOK)
	}
}
