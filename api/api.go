package api

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/coursemart/coursemart/api/middleware"
	"github.com/coursemart/coursemart/api/web"
	"github.com/coursemart/coursemart/core/auth"
	"github.com/coursemart/coursemart/core/cart"
	"github.com/coursemart/coursemart/core/course"
	"github.com/coursemart/coursemart/core/enroll"
	"github.com/coursemart/coursemart/core/payment"
	"github.com/coursemart/coursemart/core/review"
	"github.com/coursemart/coursemart/core/video"
	"github.com/coursemart/coursemart/rate"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type APIConfig struct {
	CorsOrigin   string
	Log          logrus.FieldLogger
	DB           *sqlx.DB
	Session      *scs.SessionManager
	LoginLimiter *rate.Limiter
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, auth.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	authen := auth.Authenticate(cfg.Session)
	admin := auth.Admin(cfg.Session)

	a.Handle(http.MethodPost, "/auth/signup", auth.HandleSignup(cfg.DB, cfg.Session))
	a.Handle(http.MethodPost, "/auth/login", auth.HandleLogin(cfg.DB, cfg.Session, cfg.LoginLimiter))
	a.Handle(http.MethodPost, "/auth/logout", auth.HandleLogout(cfg.Session))

	a.Handle(http.MethodGet, "/course/all", course.HandleList(cfg.DB))
	a.Handle(http.MethodPost, "/course/new", course.HandleCreate(cfg.DB), admin)
	a.Handle(http.MethodPost, "/course/video/new", video.HandleCreate(cfg.DB), admin)
	a.Handle(http.MethodGet, "/course/my-courses", course.HandleListOwned(cfg.DB), authen)
	a.Handle(http.MethodGet, "/course/{slug}/videos", video.HandleListByCourse(cfg.DB), authen)
	a.Handle(http.MethodGet, "/course/{slug}/videos/{video_id}", video.HandleShow(cfg.DB), authen)
	a.Handle(http.MethodGet, "/course/{slug}", course.HandleShow(cfg.DB))

	a.Handle(http.MethodGet, "/cart", cart.HandleShow(cfg.DB), authen)
	a.Handle(http.MethodPut, "/cart/{course_id}", cart.HandleCreateItem(cfg.DB), authen)
	a.Handle(http.MethodDelete, "/cart/{course_id}", cart.HandleDeleteItem(cfg.DB), authen)
	a.Handle(http.MethodPost, "/cart/purchase", enroll.HandlePurchase(cfg.DB), authen)

	a.Handle(http.MethodPost, "/payment/initiate", payment.HandleInitiate(cfg.DB), authen)
	a.Handle(http.MethodPost, "/payment/complete", payment.HandleComplete(cfg.DB), authen)
	a.Handle(http.MethodPost, "/payment/bulk/initiate", payment.HandleInitiateBulk(cfg.DB), authen)
	a.Handle(http.MethodPost, "/payment/bulk/complete", payment.HandleCompleteBulk(cfg.DB), authen)

	a.Handle(http.MethodGet, "/reviews/{slug}", review.HandleListByCourse(cfg.DB))
	a.Handle(http.MethodPost, "/reviews/{slug}", review.HandleUpsert(cfg.DB), authen)
	a.Handle(http.MethodDelete, "/reviews/{slug}", review.HandleDelete(cfg.DB), authen)

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {
	handler = web.WrapMiddleware(mw, handler)
	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {
			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
