package errors

import (
	stderr "errors"
	"fmt"
	"net/http"

	goi18n "github.com/nicksnyder/go-i18n/i18n"
)

// AppError is the error shape shared across the service: a stable id for
// clients and i18n, an HTTP-ish status code and a human detail, with an
// optional wrapped cause.
type AppError struct {
	params        map[string]any
	Id            string `json:"id"`
	Status        string `json:"status"`
	DetailedError string `json:"detail"`
	RequestId     string `json:"request_id,omitempty"`
	StatusCode    int    `json:"code,omitempty"`
	cause         error
}

type Option func(*AppError)

func WithID(id string) Option {
	return func(e *AppError) { e.Id = id }
}

func WithCause(cause error) Option {
	return func(e *AppError) { e.cause = cause }
}

func newAppError(id, detail string, code int, opts ...Option) *AppError {
	e := &AppError{
		Id:            id,
		DetailedError: detail,
		StatusCode:    code,
		Status:        http.StatusText(code),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// New returns a generic internal error with the given detail.
func New(detail string, opts ...Option) *AppError {
	return newAppError("app.internal.error", detail, http.StatusInternalServerError, opts...)
}

func Internal(detail string, opts ...Option) *AppError {
	return newAppError("app.internal.error", detail, http.StatusInternalServerError, opts...)
}

func NotFound(detail string, opts ...Option) *AppError {
	return newAppError("app.not_found.error", detail, http.StatusNotFound, opts...)
}

func BadRequest(detail string, opts ...Option) *AppError {
	return newAppError("app.bad_request.error", detail, http.StatusBadRequest, opts...)
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("AppError [%s]: %s, %s: %v", e.Id, e.Status, e.DetailedError, e.cause)
	}
	return fmt.Sprintf("AppError [%s]: %s, %s", e.Id, e.Status, e.DetailedError)
}

func (e *AppError) Unwrap() error { return e.cause }

func (e *AppError) SetTranslationParams(params map[string]any) *AppError {
	e.params = params
	return e
}

func (e *AppError) GetTranslationParams() map[string]any { return e.params }

func (e *AppError) SetStatusCode(code int) *AppError {
	e.StatusCode = code
	e.Status = http.StatusText(code)
	return e
}

func (e *AppError) GetStatusCode() int { return e.StatusCode }

func (e *AppError) SetRequestId(id string) { e.RequestId = id }

func (e *AppError) GetRequestId() string { return e.RequestId }

func (e *AppError) GetId() string { return e.Id }

// Translate replaces the detail with the localized message for the error id.
func (e *AppError) Translate(T goi18n.TranslateFunc) {
	if T == nil {
		if e.DetailedError == "" {
			e.DetailedError = e.Id
		}
		return
	}
	if e.params == nil {
		e.DetailedError = T(e.Id)
	} else {
		e.DetailedError = T(e.Id, e.params)
	}
}

// Code returns the HTTP status carried by err, or 500 for foreign errors.
func Code(err error) int {
	var appErr *AppError
	if stderr.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// Details returns the detail message carried by err.
func Details(err error) string {
	var appErr *AppError
	if stderr.As(err, &appErr) {
		return appErr.DetailedError
	}
	return err.Error()
}

// IsNotFound reports whether err is a not-found signal from any layer.
func IsNotFound(err error) bool {
	var appErr *AppError
	if stderr.As(err, &appErr) {
		return appErr.StatusCode == http.StatusNotFound
	}
	var dbErr *DBNotFoundError
	return stderr.As(err, &dbErr)
}

// Std library passthroughs so callers need a single errors import.
func Is(err, target error) bool { return stderr.Is(err, target) }

func As(err error, target any) bool { return stderr.As(err, target) }
