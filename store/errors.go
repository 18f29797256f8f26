package store

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// --------------------------------------------------------------------------
// Domain / Code
// --------------------------------------------------------------------------

// Domain classifies where an Error originated.
type Domain int

const (
	DomainHTTP   Domain = iota // maps to a conventional HTTP status code
	DomainEngine               // surfaced verbatim from the underlying KeyStore/engine
	DomainCore                 // raised by this package itself
)

func (d Domain) String() string {
	switch d {
	case DomainHTTP:
		return "HTTP"
	case DomainEngine:
		return "Engine"
	case DomainCore:
		return "Core"
	default:
		return "Unknown"
	}
}

// Well-known (domain, code) pairs, per spec §7.
const (
	CodeNotFound    = 404 // DomainHTTP-style code, but NotFound itself is raised as DomainEngine
	CodeConflict    = 409 // DomainHTTP
	CodeBadRequest  = 400 // DomainHTTP
	CodeGone        = 410 // DomainHTTP
	CodeUnknownCore = 2   // DomainCore
)

// --------------------------------------------------------------------------
// Error
// --------------------------------------------------------------------------

// Error is the structured error type every public operation returns.
type Error struct {
	Domain Domain
	Code   int
	msg    string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("store: %s/%d: %s: %v", e.Domain, e.Code, e.msg, e.cause)
	}
	return fmt.Sprintf("store: %s/%d: %s", e.Domain, e.Code, e.msg)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(domain Domain, code int, msg string) *Error {
	return &Error{Domain: domain, Code: code, msg: msg}
}

func wrapError(domain Domain, code int, cause error, msg string) *Error {
	return &Error{Domain: domain, Code: code, msg: msg, cause: cause}
}

// ErrNotFound reports that a key or document does not exist.
func ErrNotFound(msg string) *Error {
	return newError(DomainEngine, CodeNotFound, msg)
}

// ErrRevisionNotFound reports that a specific requested revision, as
// opposed to the whole document, does not exist in the rev-tree. Mirrors
// c4Database.cc's selectRevision failing with recordHTTPError(404,
// outError): a request-level 404, not an engine miss, so it carries
// DomainHTTP rather than ErrNotFound's DomainEngine despite sharing the
// same numeric code.
func ErrRevisionNotFound(msg string) *Error {
	return newError(DomainHTTP, CodeNotFound, msg)
}

// ErrConflict reports a disallowed concurrent branch, or a duplicate revID
// whose body differs from what's already stored.
func ErrConflict(msg string) *Error {
	return newError(DomainHTTP, CodeConflict, msg)
}

// ErrBadRequest reports a malformed revID, non-monotone history, or other
// bad input.
func ErrBadRequest(msg string) *Error {
	return newError(DomainHTTP, CodeBadRequest, msg)
}

// ErrGone reports that a revision's body was compacted away. Never
// surfaced as ErrNotFound — §9's body-on-demand design note is explicit
// that this distinction must be preserved.
func ErrGone(msg string) *Error {
	return newError(DomainHTTP, CodeGone, msg)
}

// ErrEngine wraps a lower-level IO/Corrupt/Unsupported failure surfaced
// from the KeyStore, without reinterpreting it.
func ErrEngine(cause error, msg string) *Error {
	return wrapError(DomainEngine, CodeUnknownCore, cause, msg)
}

// AsStoreError reports whether err is, or wraps, a *Error.
func AsStoreError(err error) (*Error, bool) {
	var se *Error
	ok := errors.As(err, &se)
	return se, ok
}

// IsCode reports whether err is a *Error with the given domain and code.
func IsCode(err error, domain Domain, code int) bool {
	se, ok := AsStoreError(err)
	return ok && se.Domain == domain && se.Code == code
}

// catchBoundary is called at the top of every public operation's error
// path. A *Error passes through unchanged; anything else is an unexpected
// internal failure and is logged at warning level and mapped to
// (Core, Unknown) per spec §7.
func catchBoundary(err error) *Error {
	if err == nil {
		return nil
	}
	if se, ok := AsStoreError(err); ok {
		return se
	}
	logStore.Warnf("unexpected internal error: %v", err)
	return wrapError(DomainCore, CodeUnknownCore, err, "unexpected internal error")
}
