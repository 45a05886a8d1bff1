package core

import "errors"

// Sentinel errors for the vector store index state machine and the
// document loader.
var (
	// ErrUnsupportedFormat is returned for file extensions the loader
	// does not know how to parse.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrIndexAbsent is returned when an operation requires an index that
	// does not exist.
	ErrIndexAbsent = errors.New("index does not exist")

	// ErrIndexNotReady is returned when an index exists but has not
	// finished initializing.
	ErrIndexNotReady = errors.New("index is not ready")
)

// RetryableError marks a transient condition (network, rate limit, index
// warming) that the caller may retry.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return "retryable: " + e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// FatalError marks a condition retrying cannot fix (bad format, bad
// configuration).
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return "fatal: " + e.Err.Error() }

func (e *FatalError) Unwrap() error { return e.Err }

// Retryable wraps err as a RetryableError. Returns nil for a nil err.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// Fatal wraps err as a FatalError. Returns nil for a nil err.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsRetryable reports whether err is marked retryable anywhere in its
// chain. Index-not-ready always counts as retryable.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re) || errors.Is(err, ErrIndexNotReady)
}

// IsFatal reports whether err is marked fatal anywhere in its chain.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
