// Package kerr defines the core error taxonomy shared by every layer of the
// radio pipeline (spec §7): ok, fail, invalid_arg, precondition_failed,
// timeout, not_ready. Every entry point that can fail returns one of these,
// optionally wrapping an underlying cause.
package kerr

import "fmt"

// Status is one of the six outcomes every core operation can report.
type Status int

const (
	OK Status = iota
	Fail
	InvalidArg
	PreconditionFailed
	Timeout
	NotReady
)

func (s Status) String() string {
	switch s {
	case OK:
		return "ok"
	case Fail:
		return "fail"
	case InvalidArg:
		return "invalid_arg"
	case PreconditionFailed:
		return "precondition_failed"
	case Timeout:
		return "timeout"
	case NotReady:
		return "not_ready"
	default:
		return "unknown"
	}
}

// Error is a Status plus an optional wrapped cause, implementing the error
// interface so call sites can use errors.Is/errors.As against it.
type Error struct {
	Status Status
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Status, e.Cause)
	}
	return e.Status.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, kerr.New(kerr.Fail)) match any *Error with that
// status, regardless of the wrapped cause. The target must be a bare
// sentinel from New; a target that carries a cause matches nothing here.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Status == e.Status && t.Cause == nil
}

// New builds a bare status sentinel, usable directly with errors.Is.
func New(s Status) *Error { return &Error{Status: s} }

// Wrap attaches a cause to a status.
func Wrap(s Status, cause error) *Error {
	if cause == nil {
		return New(s)
	}
	return &Error{Status: s, Cause: cause}
}

// StatusOf extracts the Status carried by err, or Fail if err is a plain
// non-kerr error, or OK if err is nil.
func StatusOf(err error) Status {
	if err == nil {
		return OK
	}
	var e *Error
	if ok := asError(err, &e); ok {
		return e.Status
	}
	return Fail
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// All reduces a set of errors to nil only if every one of them is nil (ok);
// otherwise it returns the first non-nil error found. Mirrors the source's
// compound result helper (spec §7).
func All(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
