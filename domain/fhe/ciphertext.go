package fhe

import (
	"encoding/hex"
	"errors"
)

// Handle references an encrypted 256-bit integer held by the
// confidential-compute service. Possession of a handle carries no
// plaintext information; decryption requires an Authorization.
type Handle [32]byte

// Proof attests that the ciphertext behind a handle is a well-formed
// encrypted input bound to its submitter.
type Proof []byte

var zeroHandle Handle

func (h Handle) IsZero() bool {
	return h == zeroHandle
}

func (h Handle) String() string {
	return hex.EncodeToString(h[:])
}

// MarshalText encodes the handle as lowercase hex so handles survive
// JSON round trips through the operation log.
func (h Handle) MarshalText() ([]byte, error) {
	dst := make([]byte, hex.EncodedLen(len(h)))
	hex.Encode(dst, h[:])
	return dst, nil
}

func (h *Handle) UnmarshalText(text []byte) error {
	if hex.DecodedLen(len(text)) != len(h) {
		return errors.New("fhe: handle must be 32 bytes of hex")
	}
	_, err := hex.Decode(h[:], text)
	return err
}

// HandleFromBytes converts a raw 32-byte slice into a Handle.
func HandleFromBytes(b []byte) (Handle, error) {
	var h Handle
	if len(b) != len(h) {
		return h, errors.New("fhe: handle must be exactly 32 bytes")
	}
	copy(h[:], b)
	return h, nil
}
