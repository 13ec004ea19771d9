package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/coursemart/coursemart/api/web"
	"github.com/coursemart/coursemart/api/weberr"
	"github.com/coursemart/coursemart/core/claims"
)

// Session keys for the authenticated identity.
const (
	userIDKey = "user_id"
	roleKey   = "role"
)

// LoadAndSave runs every handler inside the session manager's
// load-and-save cycle so session state set by handlers is persisted.
func LoadAndSave(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var err error

			sh := session.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				err = handler(r.Context(), w, r)
			}))
			sh.ServeHTTP(w, r)

			return err
		}
		return h
	}
	return m
}

// Authenticate requires a logged-in user and makes its claims available
// in the request context.
func Authenticate(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			userID := session.GetString(ctx, userIDKey)
			if userID == "" {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}

			c := claims.Claims{
				UserID: userID,
				Role:   session.GetString(ctx, roleKey),
			}

			ctx = claims.Set(ctx, c)
			return handler(ctx, w, r.WithContext(ctx))
		}
		return h
	}
	return m
}

// Admin requires an authenticated user holding the admin role.
func Admin(session *scs.SessionManager) web.Middleware {
	authen := Authenticate(session)

	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			if !claims.IsAdmin(ctx) {
				return weberr.Forbidden(errors.New("user is not an admin"), "not allowed to perform this action")
			}

			return handler(ctx, w, r)
		}
		return authen(h)
	}
	return m
}
