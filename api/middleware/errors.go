package middleware

import (
	"context"
	"net/http"

	"github.com/coursemart/coursemart/api/web"
	"github.com/coursemart/coursemart/api/weberr"
	"github.com/sirupsen/logrus"
)

// Errors renders the response attached to the returned error, or a
// uniform 500 envelope when the error carries none. Every error is
// logged with the request id before being rendered.
func Errors(log logrus.FieldLogger) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			err := handler(ctx, w, r)
			if err == nil {
				return nil
			}

			fields := map[string]interface{}{
				"req_id":  ContextRequestID(ctx),
				"message": err,
			}
			if f, ok := weberr.Fields(err); ok {
				for k, v := range f {
					fields[k] = v
				}
			}

			log.WithFields(logrus.Fields(fields)).Error("ERROR")

			if body, code, ok := weberr.Response(err); ok {
				if env, ok := body.(web.Envelope); ok {
					return web.RespondEnvelope(ctx, w, env, code)
				}
				env := web.Envelope{Success: false, Message: http.StatusText(code), Data: nil}
				return web.RespondEnvelope(ctx, w, env, code)
			}

			env := web.Envelope{
				Success: false,
				Message: "an unexpected error occurred",
				Data:    nil,
			}
			return web.RespondEnvelope(ctx, w, env, http.StatusInternalServerError)
		}
		return h
	}
	return m
}
