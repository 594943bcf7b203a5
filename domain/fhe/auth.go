package fhe

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// Authorization is a caller-signed, time-bounded grant covering a set
// of contract scopes. The compute service only decrypts handles for
// callers presenting one that verifies; the engine additionally checks
// that the signer is entitled to the handles it presents.
type Authorization struct {
	PublicKey      []byte   `json:"publicKey"`
	Contracts      []string `json:"contracts"`
	StartTimestamp int64    `json:"startTimestamp"`
	DurationDays   uint32   `json:"durationDays"`
	Signature      []byte   `json:"signature"`
}

// digest covers every field except the signature itself.
func (a *Authorization) digest() [32]byte {
	h := sha256.New()
	h.Write(a.PublicKey)
	for _, c := range a.Contracts {
		h.Write([]byte(c))
		h.Write([]byte{0})
	}
	var ts [12]byte
	binary.BigEndian.PutUint64(ts[:8], uint64(a.StartTimestamp))
	binary.BigEndian.PutUint32(ts[8:], a.DurationDays)
	h.Write(ts[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Sign fills in PublicKey and Signature for the given key.
func (a *Authorization) Sign(priv *secp256k1.PrivateKey) {
	a.PublicKey = priv.PubKey().SerializeCompressed()
	d := a.digest()
	a.Signature = ecdsa.Sign(priv, d[:]).Serialize()
}

// Verify checks the signature and that now falls inside the validity
// window.
func (a *Authorization) Verify(now time.Time) error {
	pub, err := secp256k1.ParsePubKey(a.PublicKey)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadAuth, err)
	}
	sig, err := ecdsa.ParseDERSignature(a.Signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadAuth, err)
	}
	d := a.digest()
	if !sig.Verify(d[:], pub) {
		return fmt.Errorf("%w: signature mismatch", ErrBadAuth)
	}
	start := time.Unix(a.StartTimestamp, 0)
	end := start.Add(time.Duration(a.DurationDays) * 24 * time.Hour)
	if now.Before(start) || !now.Before(end) {
		return fmt.Errorf("%w: outside validity window", ErrBadAuth)
	}
	return nil
}

// Covers reports whether the authorization is scoped to the given
// contract identifier.
func (a *Authorization) Covers(contract string) bool {
	for _, c := range a.Contracts {
		if c == contract {
			return true
		}
	}
	return false
}

// SignerAddress derives the caller identity bound to the authorization
// from its public key.
func (a *Authorization) SignerAddress() string {
	return AddressFromPublicKey(a.PublicKey)
}

// AddressFromPublicKey maps a compressed secp256k1 public key to the
// address form used for order creators: 0x + last 20 bytes of the key's
// sha256 digest.
func AddressFromPublicKey(pub []byte) string {
	sum := sha256.Sum256(pub)
	return "0x" + hex.EncodeToString(sum[12:])
}
