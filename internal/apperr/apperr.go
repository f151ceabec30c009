// Package apperr is the closed set of failures the coaching engine can
// produce. Every error carries the operation that failed and, when the
// oracle was involved, the raw text it returned.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota

	// oracle transport
	KindOracleUnavailable
	KindOracleTimeout

	// oracle payload
	KindMalformedOracleOutput
	KindOracleJSONParse
	KindIncompleteOracleReport
	KindInvalidTaskStructure
	KindInvalidCategoryStructure

	// storage
	KindPersistence

	// caller
	KindNotFound
	KindInvalidInput
	KindNoHistory
)

var kindNames = map[Kind]string{
	KindUnknown:                  "Unknown",
	KindOracleUnavailable:        "OracleUnavailable",
	KindOracleTimeout:            "OracleTimeout",
	KindMalformedOracleOutput:    "MalformedOracleOutput",
	KindOracleJSONParse:          "OracleJSONParseError",
	KindIncompleteOracleReport:   "IncompleteOracleReport",
	KindInvalidTaskStructure:     "InvalidTaskStructure",
	KindInvalidCategoryStructure: "InvalidCategoryStructure",
	KindPersistence:              "PersistenceError",
	KindNotFound:                 "NotFound",
	KindInvalidInput:             "InvalidInput",
	KindNoHistory:                "NoHistory",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is the only error type returned across package boundaries by the
// engine. Op names the engine operation ("score-progress", ...).
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Raw     string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind, so callers can write
// errors.Is(err, &apperr.Error{Kind: apperr.KindNotFound}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op)
}

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// WithRaw attaches the oracle text that produced the failure.
func (e *Error) WithRaw(raw string) *Error {
	e.Raw = raw
	return e
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// RawOf returns the raw oracle text attached to err, if any.
func RawOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Raw
	}
	return ""
}

// OpOf returns the operation attached to err, if any.
func OpOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// HTTPStatus maps a kind to the response status the API layer uses.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound, KindNoHistory:
		return http.StatusNotFound
	case KindOracleTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
