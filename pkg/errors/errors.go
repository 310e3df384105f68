package errors

import (
	"errors"
	"fmt"
)

// Classification identifies why a collection failed. The set is fixed:
// callers dispatch on it, and the gRPC layer maps each value to a status
// code, so new values require touching both.
type Classification string

const (
	// Source errors, raised before any network I/O.
	ClassNotFound         Classification = "NOT_FOUND"
	ClassPermissionDenied Classification = "PERMISSION_DENIED"
	ClassUnreadable       Classification = "UNREADABLE"

	// Initiation errors, raised while the signed URL is first exercised.
	ClassUrlInvalid     Classification = "URL_INVALID"
	ClassUrlExpired     Classification = "URL_EXPIRED"
	ClassRemoteRejected Classification = "REMOTE_REJECTED"

	// Transfer errors, terminal to the detached session only.
	ClassNonResumableSource Classification = "NON_RESUMABLE_SOURCE"
)

var (
	ErrNotFound           = errors.New("file not found")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrUnreadable         = errors.New("file unreadable")
	ErrUrlInvalid         = errors.New("signed URL invalid")
	ErrUrlExpired         = errors.New("signed URL expired")
	ErrRemoteRejected     = errors.New("remote endpoint rejected the upload")
	ErrNonResumableSource = errors.New("source cannot resume at remote offset")
)

var sentinels = map[Classification]error{
	ClassNotFound:           ErrNotFound,
	ClassPermissionDenied:   ErrPermissionDenied,
	ClassUnreadable:         ErrUnreadable,
	ClassUrlInvalid:         ErrUrlInvalid,
	ClassUrlExpired:         ErrUrlExpired,
	ClassRemoteRejected:     ErrRemoteRejected,
	ClassNonResumableSource: ErrNonResumableSource,
}

// CollectError pairs a Classification with the underlying cause so that
// call sites can both dispatch on the class and unwrap the detail.
type CollectError struct {
	Class Classification
	Cause error
}

func (e *CollectError) Error() string {
	if e.Cause == nil {
		return string(e.Class)
	}
	return fmt.Sprintf("%s: %v", e.Class, e.Cause)
}

// Unwrap exposes the classification sentinel, so errors.Is(err, ErrUrlExpired)
// holds for any error classified ClassUrlExpired.
func (e *CollectError) Unwrap() []error {
	errs := []error{sentinels[e.Class]}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Classify wraps cause with a classification. A nil cause is allowed; the
// sentinel alone then carries the message.
func Classify(class Classification, cause error) error {
	return &CollectError{Class: class, Cause: cause}
}

// Classifyf is Classify with a formatted cause.
func Classifyf(class Classification, format string, args ...interface{}) error {
	return &CollectError{Class: class, Cause: fmt.Errorf(format, args...)}
}

// ClassOf extracts the classification from err, if it carries one.
func ClassOf(err error) (Classification, bool) {
	var ce *CollectError
	if errors.As(err, &ce) {
		return ce.Class, true
	}
	return "", false
}
