package domain

import (
	"errors"
	"net/http"
)

// ErrorKind is the single error taxonomy shared by the upstream client, the
// retry predicate and the console's HTTP error handler.
type ErrorKind string

const (
	KindNetwork        ErrorKind = "network"
	KindValidation     ErrorKind = "validation"
	KindAuthentication ErrorKind = "authentication"
	KindAuthorization  ErrorKind = "authorization"
	KindNotFound       ErrorKind = "not_found"
	KindTimeout        ErrorKind = "timeout"
	KindRateLimited    ErrorKind = "rate_limited"
	KindServer         ErrorKind = "server"
	KindCancelled      ErrorKind = "cancelled"
	KindUnknown        ErrorKind = "unknown"
)

// Sentinels, one per kind, so callers can use errors.Is.
var (
	ErrNetwork         = errors.New("network error")
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("access forbidden")
	ErrNotFound        = errors.New("not found")
	ErrTimeout         = errors.New("request timeout")
	ErrRateLimited     = errors.New("rate limited")
	ErrServer          = errors.New("server error")
	ErrCancelled       = errors.New("request cancelled")
	ErrUnknown         = errors.New("request failed")

	// ErrInvalidCredentials marks a rejected login. It is an authentication
	// failure, but no session existed to expire.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

var kindSentinels = map[ErrorKind]error{
	KindNetwork:        ErrNetwork,
	KindValidation:     ErrValidation,
	KindAuthentication: ErrUnauthenticated,
	KindAuthorization:  ErrForbidden,
	KindNotFound:       ErrNotFound,
	KindTimeout:        ErrTimeout,
	KindRateLimited:    ErrRateLimited,
	KindServer:         ErrServer,
	KindCancelled:      ErrCancelled,
	KindUnknown:        ErrUnknown,
}

// User-facing messages.
const (
	MsgNetwork        = "network connection failed, please check your network settings"
	MsgValidation     = "request validation failed"
	MsgAuthentication = "session expired, please log in again"
	MsgAuthorization  = "you do not have permission to access this resource"
	MsgNotFound       = "the requested resource does not exist"
	MsgTimeout        = "the request timed out, please try again"
	MsgRateLimited    = "too many requests, please try again later"
	MsgServer         = "internal server error, please try again later"
	MsgUnavailable    = "service temporarily unavailable, please try again later"
	MsgCancelled      = "request cancelled"
	MsgUnknown        = "request failed"

	MsgInvalidCredentials = "invalid username or password"
)

// Error is a classified failure. Message is safe to show to an operator;
// Detail is whatever the backend said, if anything.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	Detail  string
	Fields  map[string][]string
	Err     error
}

func (e *Error) Error() string {
	if e.Detail != "" && e.Detail != e.Message {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s, ok := kindSentinels[e.Kind]; ok {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Retryable reports whether the failure is transient: network trouble, 408,
// 429 and 5xx.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindNetwork, KindTimeout, KindRateLimited, KindServer:
		return true
	}
	return false
}

// Classify maps an HTTP status and the backend's detail text onto the
// taxonomy. 400 and 422 are both validation failures.
func Classify(status int, detail string) *Error {
	e := &Error{Status: status, Detail: detail}
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		e.Kind = KindValidation
		e.Message = orDefault(detail, MsgValidation)
	case status == http.StatusUnauthorized:
		e.Kind, e.Message = KindAuthentication, MsgAuthentication
	case status == http.StatusForbidden:
		e.Kind, e.Message = KindAuthorization, MsgAuthorization
	case status == http.StatusNotFound:
		e.Kind, e.Message = KindNotFound, MsgNotFound
	case status == http.StatusRequestTimeout:
		e.Kind, e.Message = KindTimeout, MsgTimeout
	case status == http.StatusTooManyRequests:
		e.Kind, e.Message = KindRateLimited, MsgRateLimited
	case status == http.StatusBadGateway, status == http.StatusServiceUnavailable, status == http.StatusGatewayTimeout:
		e.Kind, e.Message = KindServer, MsgUnavailable
	case status >= 500 && status < 600:
		e.Kind, e.Message = KindServer, MsgServer
	default:
		e.Kind = KindUnknown
		e.Message = orDefault(detail, MsgUnknown)
	}
	return e
}

// NetworkError wraps a transport failure where no response arrived.
func NetworkError(err error) *Error {
	return &Error{Kind: KindNetwork, Message: MsgNetwork, Err: err}
}

// TimeoutError wraps a request that ran past its deadline.
func TimeoutError(err error) *Error {
	return &Error{Kind: KindTimeout, Message: MsgTimeout, Err: err}
}

// CancelledError wraps an aborted request. Cancelled requests are never
// surfaced as notifications.
func CancelledError(err error) *Error {
	return &Error{Kind: KindCancelled, Message: MsgCancelled, Err: err}
}

// AuthenticationError is the failure for a missing or expired session.
func AuthenticationError() *Error {
	return &Error{Kind: KindAuthentication, Status: http.StatusUnauthorized, Message: MsgAuthentication}
}

// InvalidCredentials is a rejected login carrying the backend's reason, if
// it gave one.
func InvalidCredentials(detail string) *Error {
	return &Error{
		Kind:    KindAuthentication,
		Status:  http.StatusUnauthorized,
		Message: orDefault(detail, MsgInvalidCredentials),
		Detail:  detail,
		Err:     ErrInvalidCredentials,
	}
}

// ValidationError builds a local validation failure.
func ValidationError(msg string, fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Status: http.StatusUnprocessableEntity, Message: msg, Fields: fields}
}

// KindOf returns the taxonomy kind of err, or KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// HTTPStatus is the status the console answers with for a classified error.
// Upstream failures the operator cannot fix surface as 502.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		if e.Status == http.StatusBadRequest {
			return http.StatusBadRequest
		}
		return http.StatusUnprocessableEntity
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindServer:
		if e.Status == http.StatusServiceUnavailable {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	case KindNetwork:
		return http.StatusBadGateway
	case KindCancelled:
		return 499
	}
	if e.Status >= 400 {
		return e.Status
	}
	return http.StatusInternalServerError
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
