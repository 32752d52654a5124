package gateway

import (
	"errors"
	"fmt"
)

// FailureKind tags a gateway failure.
type FailureKind string

const (
	KindAuthentication FailureKind = "authentication"
	KindRateLimited    FailureKind = "rate_limited"
	KindNotFound       FailureKind = "not_found"
	KindValidation     FailureKind = "validation"
	KindRemote         FailureKind = "remote"
	KindNetwork        FailureKind = "network"
)

// Failure is the only error type returned by Client verbs.
type Failure struct {
	Kind       FailureKind
	Message    string
	StatusCode int

	cause error
}

func (f *Failure) Error() string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error {
	if f == nil {
		return nil
	}
	return f.cause
}

// AsFailure extracts a Failure from an error chain.
func AsFailure(err error) (*Failure, bool) {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure, true
	}
	return nil, false
}

// IsKind reports whether err carries a Failure of the given kind.
func IsKind(err error, kind FailureKind) bool {
	failure, ok := AsFailure(err)
	return ok && failure.Kind == kind
}
