package order

import (
	"errors"
	"fmt"
)

// ErrorKind partitions every failure the engine can surface. Callers
// (and the API layer mapping onto transport codes) branch on the kind,
// not on message text.
type ErrorKind uint8

const (
	KindAuthorization ErrorKind = iota
	KindState
	KindValidation
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuthorization:
		return "authorization"
	case KindState:
		return "state"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not-found"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind ErrorKind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

func newError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, msg: msg}
}

func wrapError(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, msg: msg, err: err}
}

func ErrNotCreator() error { return newError(KindAuthorization, "not order creator") }

func ErrDecryptDenied() error {
	return newError(KindAuthorization, "caller not entitled to these ciphertexts")
}

func ErrOrderNotFound(id uint64) error {
	return newError(KindNotFound, fmt.Sprintf("order %d not found", id))
}

func ErrMatchNotFound(id uint64) error {
	return newError(KindNotFound, fmt.Sprintf("match %d not found", id))
}

func ErrNotPending(id uint64, s Status) error {
	return newError(KindState, fmt.Sprintf("order %d is %s, not Pending", id, s))
}

func ErrSelfMatch() error { return newError(KindValidation, "cannot match an order with itself") }

func ErrTokenPairMismatch() error {
	return newError(KindValidation, "orders do not form a complementary token pair")
}

func ErrSameToken() error {
	return newError(KindValidation, "input and output token must differ")
}

func ErrBadRevealInterval() error {
	return newError(KindValidation, "reveal interval must be positive")
}

func ErrIcebergKind() error {
	return newError(KindValidation, "iceberg orders are created through their own entry point")
}

func ErrNotIceberg(id uint64) error {
	return newError(KindValidation, fmt.Sprintf("order %d is not an iceberg order", id))
}

func ErrRevealTooSoon(id uint64) error {
	return newError(KindValidation, fmt.Sprintf("reveal interval for order %d has not elapsed", id))
}

func ErrBadProof(field string, err error) error {
	return wrapError(KindValidation, fmt.Sprintf("invalid proof for %s", field), err)
}

func ErrBadAuthorization(err error) error {
	return wrapError(KindAuthorization, "decryption authorization rejected", err)
}

// KindOf extracts the taxonomy kind, or ok=false for foreign errors.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
