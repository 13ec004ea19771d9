package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/coursemart/coursemart/api/web"
	"github.com/coursemart/coursemart/api/weberr"
	"github.com/coursemart/coursemart/core/claims"
	"github.com/coursemart/coursemart/core/user"
	"github.com/coursemart/coursemart/database"
	"github.com/coursemart/coursemart/rate"
	"github.com/coursemart/coursemart/validate"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

func HandleSignup(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in user.UserNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding signup body: %w", err), "name, email and password are required")
		}

		if err := validate.Check(in); err != nil {
			return weberr.BadRequest(err, err.Error())
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}

		now := time.Now().UTC()
		u := user.User{
			ID:           validate.GenerateID(),
			Name:         in.Name,
			Email:        in.Email,
			Role:         claims.RoleUser,
			PasswordHash: string(hash),
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := user.Create(ctx, db, u); err != nil {
			if database.IsUniqueViolation(err) {
				return weberr.Conflict(err, "an account with this email already exists")
			}
			return fmt.Errorf("creating user: %w", err)
		}

		if err := session.RenewToken(ctx); err != nil {
			return fmt.Errorf("renewing session token: %w", err)
		}
		session.Put(ctx, userIDKey, u.ID)
		session.Put(ctx, roleKey, u.Role)

		return web.Respond(ctx, w, "signed up successfully", nil, http.StatusOK)
	}
}

func HandleLogin(db *sqlx.DB, session *scs.SessionManager, limiter *rate.Limiter) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in struct {
			Email    string `json:"email" validate:"required,email"`
			Password string `json:"password" validate:"required"`
		}
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding login body: %w", err), "email and password are required")
		}

		if err := validate.Check(in); err != nil {
			return weberr.BadRequest(err, err.Error())
		}

		// Attempts are limited per email, not per address, so a
		// credential-stuffing run through proxies still hits the cap.
		if !limiter.Check(in.Email) {
			err := errors.New("too many login attempts")
			return weberr.NewError(err, "too many login attempts, retry later", http.StatusTooManyRequests)
		}

		u, err := user.FetchByEmail(ctx, db, in.Email)
		if err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotAuthorized(err)
			}
			return fmt.Errorf("fetching user by email: %w", err)
		}

		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
			return weberr.NotAuthorized(errors.New("wrong credentials"))
		}

		if err := session.RenewToken(ctx); err != nil {
			return fmt.Errorf("renewing session token: %w", err)
		}
		session.Put(ctx, userIDKey, u.ID)
		session.Put(ctx, roleKey, u.Role)

		return web.Respond(ctx, w, "logged in successfully", nil, http.StatusOK)
	}
}

func HandleLogout(session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := session.Destroy(ctx); err != nil {
			return fmt.Errorf("destroying session: %w", err)
		}

		return web.Respond(ctx, w, "logged out successfully", nil, http.StatusOK)
	}
}
