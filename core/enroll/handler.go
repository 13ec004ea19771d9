package enroll

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/coursemart/coursemart/api/web"
	"github.com/coursemart/coursemart/api/weberr"
	"github.com/coursemart/coursemart/core/claims"
	"github.com/coursemart/coursemart/core/course"
	"github.com/coursemart/coursemart/database"
	"github.com/jmoiron/sqlx"
)

// HandlePurchase is the "buy now" shortcut: it grants access directly,
// bypassing the payment session flow entirely.
func HandlePurchase(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		var in struct {
			CourseID string `json:"courseId"`
		}
		if err := web.Decode(w, r, &in); err != nil || in.CourseID == "" {
			return weberr.BadRequest(errors.New("missing course id"), "course ID is required")
		}

		c, err := course.FetchLaunched(ctx, db, in.CourseID)
		if err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotFound(err, "course not found")
			}
			return fmt.Errorf("fetching course[%s]: %w", in.CourseID, err)
		}

		granted, err := Granted(ctx, db, clm.UserID, c.ID)
		if err != nil {
			return fmt.Errorf("checking enrollment: %w", err)
		}
		if granted {
			err := errors.New("user already owns the course")
			return weberr.Conflict(err, "you already have access to this course")
		}

		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			return Grant(ctx, tx, clm.UserID, c.ID)
		})
		if err != nil {
			return fmt.Errorf("granting course[%s] to user[%s]: %w", c.ID, clm.UserID, err)
		}

		return web.Respond(ctx, w, "course purchased successfully", nil, http.StatusOK)
	}
}
