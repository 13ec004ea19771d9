package weberr

import (
	"net/http"

	"github.com/coursemart/coursemart/api/web"
)

type RequestError struct {
	Err error
}

func (r *RequestError) Error() string { return r.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }

// NewError builds a request error carrying msg as the envelope message of
// a response with the given status.
func NewError(err error, msg string, status int, opts ...Opt) error {
	e := &RequestError{Err: err}
	opts = append(opts, WithResponse(
		web.Envelope{Success: false, Message: msg, Data: nil},
		status,
	))

	return Wrap(e, opts...)
}

// BadRequest covers malformed or missing request fields.
func BadRequest(err error, msg string, opts ...Opt) error {
	return NewError(err, msg, http.StatusBadRequest, opts...)
}

// NotFound covers absent courses, videos, payments and cart items.
func NotFound(err error, msg string, opts ...Opt) error {
	return NewError(err, msg, http.StatusNotFound, opts...)
}

// Conflict covers duplicate cart entries and duplicate entitlement
// attempts. The surface maps it to 400, matching the rest of the API.
func Conflict(err error, msg string, opts ...Opt) error {
	return NewError(err, msg, http.StatusBadRequest, opts...)
}

// Forbidden covers missing entitlements and acting on another user's
// payment.
func Forbidden(err error, msg string, opts ...Opt) error {
	return NewError(err, msg, http.StatusForbidden, opts...)
}

// AlreadyProcessed covers completion attempts on a payment that has
// already transitioned to completed.
func AlreadyProcessed(err error, msg string, opts ...Opt) error {
	return NewError(err, msg, http.StatusBadRequest, opts...)
}

func NotAuthorized(err error, opts ...Opt) error {
	return NewError(
		err,
		"not authorized to access this resource",
		http.StatusUnauthorized,
		opts...,
	)
}

func InternalError(err error, opts ...Opt) error {
	return NewError(
		err,
		"the server encountered a problem and could not process your request",
		http.StatusInternalServerError,
		opts...,
	)
}
