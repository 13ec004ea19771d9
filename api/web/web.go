package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

type Handler func(ctx context.Context, w http.ResponseWriter, r *http.Request) error

type Middleware func(Handler) Handler

func WrapMiddleware(mw []Middleware, handler Handler) Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h := mw[i]
		if h != nil {
			handler = h(handler)
		}
	}

	return handler
}

// Envelope is the uniform shape of every response body, success and
// error alike.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Respond writes data wrapped in a success envelope.
func Respond(ctx context.Context, w http.ResponseWriter, message string, data interface{}, statusCode int) error {
	return RespondEnvelope(ctx, w, Envelope{Success: true, Message: message, Data: data}, statusCode)
}

// RespondEnvelope writes an already-built envelope. The error middleware
// uses it to render failure bodies.
func RespondEnvelope(ctx context.Context, w http.ResponseWriter, env Envelope, statusCode int) error {
	jsonData, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("cannot marshal response data: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if _, err := w.Write(jsonData); err != nil {
		return fmt.Errorf("cannot write response data to response writer: %w", err)
	}

	return nil
}

func Decode(w http.ResponseWriter, r *http.Request, val interface{}) error {
	maxBytes := 1048576
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	if err := json.NewDecoder(r.Body).Decode(val); err != nil {
		return err
	}

	return nil
}

func Param(r *http.Request, key string) string {
	m := mux.Vars(r)
	return m[key]
}
