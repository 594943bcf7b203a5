// Package fhe defines the boundary to the confidential-compute service
// that holds all encrypted order parameters. The engine never sees
// plaintext: it verifies input proofs, combines handles into derived
// handles, and forwards authorized decryption requests. Everything else
// (the actual homomorphic arithmetic) lives behind Compute.
package fhe

import (
	"errors"
	"math/big"
)

// Op selects a derivation performed by the compute service on encrypted
// operands. The engine only names the operation; the arithmetic is
// opaque to it.
type Op int

const (
	// OpTradeAmount derives the executable amount of a pairing from the
	// two sides' encrypted amounts.
	OpTradeAmount Op = iota
	// OpTradePrice derives a clearing price within the overlap of both
	// sides' encrypted price bounds.
	OpTradePrice
	// OpRevealChunk derives the next visible slice of an iceberg order
	// from its committed total and the currently visible slice.
	OpRevealChunk
)

var (
	ErrInvalidProof   = errors.New("fhe: input proof does not verify")
	ErrUnknownHandle  = errors.New("fhe: unknown ciphertext handle")
	ErrBadAuth        = errors.New("fhe: decryption authorization rejected")
	ErrUnsupportedOp  = errors.New("fhe: unsupported combine op")
	ErrMissingOperand = errors.New("fhe: combine requires operands")
)

// Compute is the narrow surface the engine consumes. Implementations
// are expected to be synchronous: a call returns only once the service
// has definitively accepted or rejected the request.
type Compute interface {
	// VerifyInput checks the validity proof accompanying a submitted
	// ciphertext handle.
	VerifyInput(h Handle, p Proof) error

	// Combine derives a new handle from existing ones. The returned
	// handle is owned by the compute service like any other.
	Combine(op Op, operands ...Handle) (Handle, error)

	// UserDecrypt returns the plaintexts behind the given handles for a
	// caller that presented a valid signed authorization. Values are
	// returned in operand order.
	UserDecrypt(auth *Authorization, handles ...Handle) ([]*big.Int, error)
}
