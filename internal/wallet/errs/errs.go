// Package errs defines the error kinds surfaced by wallet operations.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a wallet failure. A Kind is itself an error so it can be
// matched with errors.Is against any *Error carrying it.
type Kind string

func (k Kind) Error() string {
	return string(k)
}

const (
	ErrInvalidInput       Kind = "invalid input"
	ErrUnknownToken       Kind = "unknown token"
	ErrChainUnavailable   Kind = "chain unavailable"
	ErrBuildFailed        Kind = "build failed"
	ErrSigning            Kind = "signing error"
	ErrVerification       Kind = "verification error"
	ErrBroadcastFailed    Kind = "broadcast failed"
	ErrFaucetUnconfigured Kind = "faucet not configured"
	ErrInvalidSeed        Kind = "invalid seed"
)

type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is the kind of this error.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && e != nil && e.Kind == k
}

// New returns an error of the given kind without an underlying cause.
func New(kind Kind, reason string) error {
	return &Error{Kind: kind, Reason: reason}
}

// Newf is New with a format string.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind and reason to err. A nil err yields nil.
func Wrap(kind Kind, err error, reason string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Reason: reason, Err: err}
}

// KindOf returns the kind carried by err, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return ""
}
