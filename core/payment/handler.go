package payment

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

// completeOne flips a single pending record and grants the entitlement in
// one unit of work. The payment must not complete without the grant, and
// a second completion attempt dies on the status guard.
func completeOne(ctx context.Context, db *sqlx.DB, p Payment, method string) error {
	return database.Transaction(db, func(tx sqlx.ExtContext) error {
		up := StatusUp{
			ID:            p.ID,
			Status:        Completed,
			PaymentMethod: method,
			UpdatedAt:     time.Now().UTC(),
		}

		if err := UpdateStatus(ctx, tx, up); err != nil {
			return err
		}

		if err := enroll.Grant(ctx, tx, p.UserID, p.CourseID); err != nil {
			return fmt.Errorf("granting course[%s]: %w", p.CourseID, err)
		}

		return nil
	})
}

func HandleInitiate(db *sqlx.DB) web.Handler {
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

		granted, err := enroll.Granted(ctx, db, clm.UserID, c.ID)
		if err != nil {
			return fmt.Errorf("checking enrollment: %w", err)
		}
		if granted {
			err := errors.New("user already owns the course")
			return weberr.Conflict(err, "you already have access to this course")
		}

		now := time.Now().UTC()
		p := Payment{
			ID:            validate.GenerateID(),
			TransactionID: validate.GenerateID(),
			UserID:        clm.UserID,
			CourseID:      c.ID,

			// Snapshot: later catalog price edits must not change
			// what this session charges.
			Amount: c.Price,

			Status:    Pending,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := Create(ctx, db, p); err != nil {
			return fmt.Errorf("creating payment: %w", err)
		}

		data := struct {
			PaymentSession struct {
				ID         string `json:"id"`
				Amount     int    `json:"amount"`
				CourseID   string `json:"courseId"`
				CourseName string `json:"courseName"`
			} `json:"paymentSession"`
			Course course.Summary `json:"course"`
		}{}
		data.PaymentSession.ID = p.TransactionID
		data.PaymentSession.Amount = p.Amount
		data.PaymentSession.CourseID = c.ID
		data.PaymentSession.CourseName = c.Title
		data.Course = c.Summary()

		return web.Respond(ctx, w, "payment initiated", data, http.StatusOK)
	}
}

// HandleComplete accepts the caller's payment-succeeded signal for a
// single-purchase session. A real gateway callback would land here
// without touching the entitlement logic below.
func HandleComplete(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		var in struct {
			TransactionID string `json:"transactionId"`
			PaymentMethod string `json:"paymentMethod"`
		}
		if err := web.Decode(w, r, &in); err != nil || in.TransactionID == "" {
			return weberr.BadRequest(errors.New("missing transaction id"), "transaction ID is required")
		}
		if in.PaymentMethod == "" {
			in.PaymentMethod = "card"
		}

		p, err := FetchByTransaction(ctx, db, in.TransactionID)
		if err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotFound(err, "payment not found")
			}
			return fmt.Errorf("fetching payment: %w", err)
		}

		if p.UserID != clm.UserID {
			err := errors.New("payment belongs to another user")
			return weberr.Forbidden(err, "unauthorized")
		}

		if p.Status == Completed {
			err := errors.New("payment already completed")
			return weberr.AlreadyProcessed(err, "payment already completed")
		}

		if err := completeOne(ctx, db, p, in.PaymentMethod); err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				// Lost the race against a concurrent completion.
				err := errors.New("payment already completed")
				return weberr.AlreadyProcessed(err, "payment already completed")
			}
			return fmt.Errorf("completing payment[%s]: %w", p.ID, err)
		}

		c, err := course.Fetch(ctx, db, p.CourseID)
		if err != nil {
			return fmt.Errorf("fetching course[%s]: %w", p.CourseID, err)
		}

		data := struct {
			Course course.Summary `json:"course"`
		}{Course: c.Summary()}

		return web.Respond(ctx, w, "payment completed successfully", data, http.StatusOK)
	}
}

func HandleInitiateBulk(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		var in struct {
			CartItems []string `json:"cartItems"`
		}
		if err := web.Decode(w, r, &in); err != nil || len(in.CartItems) == 0 {
			return weberr.BadRequest(errors.New("missing cart items"), "cart items are required")
		}

		for _, id := range in.CartItems {
			if err := validate.CheckID(id); err != nil {
				return weberr.BadRequest(err, "one or more courses are invalid")
			}
		}

		courses, err := course.FetchManyLaunched(ctx, db, in.CartItems)
		if err != nil {
			return fmt.Errorf("fetching courses: %w", err)
		}

		// All-or-nothing: any unknown, duplicated or unlaunched id
		// invalidates the whole batch.
		if len(courses) != len(in.CartItems) {
			err := errors.New("some requested courses are unknown or not launched")
			return weberr.BadRequest(err, "one or more courses are invalid")
		}

		transactionID := validate.GenerateID()
		now := time.Now().UTC()

		var tot int
		summaries := make([]course.Summary, 0, len(courses))

		// One transaction for the whole batch: a failure partway
		// through must leave zero records behind.
		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			for _, c := range courses {
				p := Payment{
					ID:            validate.GenerateID(),
					TransactionID: transactionID,
					UserID:        clm.UserID,
					CourseID:      c.ID,
					Amount:        c.Price,
					Status:        Pending,
					CreatedAt:     now,
					UpdatedAt:     now,
				}

				if err := Create(ctx, tx, p); err != nil {
					return fmt.Errorf("creating payment for course[%s]: %w", c.ID, err)
				}

				tot += c.Price
				summaries = append(summaries, c.Summary())
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("creating bulk payment session: %w", err)
		}

		data := struct {
			PaymentSession struct {
				ID      string           `json:"id"`
				Amount  int              `json:"amount"`
				Courses []course.Summary `json:"courses"`
			} `json:"paymentSession"`
		}{}
		data.PaymentSession.ID = transactionID
		data.PaymentSession.Amount = tot
		data.PaymentSession.Courses = summaries

		return web.Respond(ctx, w, "bulk payment initiated", data, http.StatusOK)
	}
}

// HandleCompleteBulk completes every pending record of the session,
// best-effort per course: one course's failure is reported but does not
// roll back siblings already completed.
func HandleCompleteBulk(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		var in struct {
			TransactionID string `json:"transactionId"`
			PaymentMethod string `json:"paymentMethod"`
		}
		if err := web.Decode(w, r, &in); err != nil || in.TransactionID == "" {
			return weberr.BadRequest(errors.New("missing transaction id"), "transaction ID is required")
		}
		if in.PaymentMethod == "" {
			in.PaymentMethod = "card"
		}

		payments, err := FetchPending(ctx, db, in.TransactionID, clm.UserID)
		if err != nil {
			return fmt.Errorf("fetching pending payments: %w", err)
		}
		if len(payments) == 0 {
			err := errors.New("no pending payments for transaction")
			return weberr.NotFound(err, "no pending payments found")
		}

		type failure struct {
			CourseID string `json:"courseId"`
			Reason   string `json:"reason"`
		}

		completed := make([]course.Summary, 0, len(payments))
		var failed []failure

		for _, p := range payments {
			if err := completeOne(ctx, db, p, in.PaymentMethod); err != nil {
				failed = append(failed, failure{CourseID: p.CourseID, Reason: err.Error()})
				continue
			}

			c, err := course.Fetch(ctx, db, p.CourseID)
			if err != nil {
				failed = append(failed, failure{CourseID: p.CourseID, Reason: err.Error()})
				continue
			}

			completed = append(completed, c.Summary())
		}

		data := struct {
			Courses []course.Summary `json:"courses"`
			Failed  []failure        `json:"failed,omitempty"`
		}{Courses: completed, Failed: failed}

		msg := "all payments completed successfully"
		if len(failed) > 0 {
			msg = "some payments could not be completed"
		}

		return web.Respond(ctx, w, msg, data, http.StatusOK)
	}
}
