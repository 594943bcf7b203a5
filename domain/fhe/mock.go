package fhe

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"math/big"
	"sync"
	"time"
)

// MockCompute is a process-local stand-in for the confidential-compute
// service, usable in development and tests. Handles index plaintexts
// kept in memory; proofs are MACs binding a handle to this instance.
// Derivations are deterministic so replayed operations reproduce the
// same handles.
//
// It mirrors the behavior needed by the engine, nothing more: real
// deployments plug a remote implementation of Compute instead.
type MockCompute struct {
	mu     sync.Mutex
	secret [32]byte
	values map[Handle]*big.Int
}

func NewMockCompute() *MockCompute {
	m := &MockCompute{values: make(map[Handle]*big.Int)}
	if _, err := rand.Read(m.secret[:]); err != nil {
		panic(err)
	}
	return m
}

// Encrypt registers a plaintext and returns its handle plus the proof a
// submitter would attach. This is the mock's substitute for client-side
// encrypted input creation.
func (m *MockCompute) Encrypt(value *big.Int) (Handle, Proof) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var h Handle
	if _, err := rand.Read(h[:]); err != nil {
		panic(err)
	}
	m.values[h] = new(big.Int).Set(value)
	return h, m.proofFor(h)
}

// EncryptUint64 is a test convenience.
func (m *MockCompute) EncryptUint64(value uint64) (Handle, Proof) {
	return m.Encrypt(new(big.Int).SetUint64(value))
}

func (m *MockCompute) proofFor(h Handle) Proof {
	mac := hmac.New(sha256.New, m.secret[:])
	mac.Write(h[:])
	return mac.Sum(nil)
}

func (m *MockCompute) VerifyInput(h Handle, p Proof) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.values[h]; !ok {
		return ErrUnknownHandle
	}
	if !hmac.Equal(p, m.proofFor(h)) {
		return ErrInvalidProof
	}
	return nil
}

func (m *MockCompute) Combine(op Op, operands ...Handle) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(operands) == 0 {
		return Handle{}, ErrMissingOperand
	}
	vals := make([]*big.Int, len(operands))
	for i, h := range operands {
		v, ok := m.values[h]
		if !ok {
			return Handle{}, ErrUnknownHandle
		}
		vals[i] = v
	}

	var out *big.Int
	switch op {
	case OpTradeAmount:
		// min of the operand amounts
		out = vals[0]
		for _, v := range vals[1:] {
			if v.Cmp(out) < 0 {
				out = v
			}
		}
	case OpTradePrice:
		// midpoint of the overlap [max of mins, min of maxes];
		// operands arrive as minA, maxA, minB, maxB
		if len(vals) != 4 {
			return Handle{}, ErrMissingOperand
		}
		lo := maxBig(vals[0], vals[2])
		hi := minBig(vals[1], vals[3])
		out = new(big.Int).Add(lo, hi)
		out.Rsh(out, 1)
	case OpRevealChunk:
		// operands: committed total, currently visible; the next slice
		// doubles the visible amount, capped at the total
		if len(vals) != 2 {
			return Handle{}, ErrMissingOperand
		}
		next := new(big.Int).Lsh(vals[1], 1)
		out = minBig(next, vals[0])
	default:
		return Handle{}, ErrUnsupportedOp
	}

	// Derived handles are deterministic in the op and operands so that
	// replay reconstructs identical references.
	h := m.deriveHandle(op, operands)
	m.values[h] = new(big.Int).Set(out)
	return h, nil
}

func (m *MockCompute) deriveHandle(op Op, operands []Handle) Handle {
	mac := hmac.New(sha256.New, m.secret[:])
	mac.Write([]byte{byte(op)})
	for _, o := range operands {
		mac.Write(o[:])
	}
	var h Handle
	copy(h[:], mac.Sum(nil))
	return h
}

func (m *MockCompute) UserDecrypt(auth *Authorization, handles ...Handle) ([]*big.Int, error) {
	if auth == nil {
		return nil, ErrBadAuth
	}
	if err := auth.Verify(time.Now()); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*big.Int, len(handles))
	for i, h := range handles {
		v, ok := m.values[h]
		if !ok {
			return nil, ErrUnknownHandle
		}
		out[i] = new(big.Int).Set(v)
	}
	return out, nil
}

func minBig(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

func maxBig(a, b *big.Int) *big.Int {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}
