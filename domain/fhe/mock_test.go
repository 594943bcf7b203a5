package fhe

import (
	"math/big"
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAuth(t *testing.T) (*Authorization, string) {
	t.Helper()
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)

	auth := &Authorization{
		Contracts:      []string{"solstice-engine"},
		StartTimestamp: time.Now().Add(-time.Minute).Unix(),
		DurationDays:   1,
	}
	auth.Sign(priv)
	return auth, auth.SignerAddress()
}

func TestEncryptVerifyDecryptRoundTrip(t *testing.T) {
	mc := NewMockCompute()
	h, p := mc.EncryptUint64(1234)

	require.NoError(t, mc.VerifyInput(h, p))

	auth, _ := testAuth(t)
	values, err := mc.UserDecrypt(auth, h)
	require.NoError(t, err)
	assert.Equal(t, uint64(1234), values[0].Uint64())

	// repeated decryption yields the same value
	again, err := mc.UserDecrypt(auth, h)
	require.NoError(t, err)
	assert.Zero(t, values[0].Cmp(again[0]))
}

func TestVerifyInputRejectsForgedProof(t *testing.T) {
	mc := NewMockCompute()
	h, p := mc.EncryptUint64(5)

	forged := append(Proof(nil), p...)
	forged[0] ^= 0xff
	assert.ErrorIs(t, mc.VerifyInput(h, forged), ErrInvalidProof)

	other := NewMockCompute()
	assert.ErrorIs(t, other.VerifyInput(h, p), ErrUnknownHandle)
}

func TestCombineOps(t *testing.T) {
	mc := NewMockCompute()
	auth, _ := testAuth(t)

	a, _ := mc.EncryptUint64(100)
	b, _ := mc.EncryptUint64(200)
	amount, err := mc.Combine(OpTradeAmount, a, b)
	require.NoError(t, err)
	values, err := mc.UserDecrypt(auth, amount)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), values[0].Uint64())

	minA, _ := mc.EncryptUint64(2)
	maxA, _ := mc.EncryptUint64(3)
	minB, _ := mc.EncryptUint64(1)
	maxB, _ := mc.EncryptUint64(2)
	price, err := mc.Combine(OpTradePrice, minA, maxA, minB, maxB)
	require.NoError(t, err)
	values, err = mc.UserDecrypt(auth, price)
	require.NoError(t, err)
	// overlap is [2,2]
	assert.Equal(t, uint64(2), values[0].Uint64())

	total, _ := mc.Encrypt(big.NewInt(1000))
	visible, _ := mc.EncryptUint64(100)
	next, err := mc.Combine(OpRevealChunk, total, visible)
	require.NoError(t, err)
	values, err = mc.UserDecrypt(auth, next)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), values[0].Uint64())

	// derived handles are deterministic in op and operands
	next2, err := mc.Combine(OpRevealChunk, total, visible)
	require.NoError(t, err)
	assert.Equal(t, next, next2)
}

func TestAuthorizationWindow(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)

	auth := &Authorization{
		Contracts:      []string{"solstice-engine"},
		StartTimestamp: time.Now().Unix(),
		DurationDays:   1,
	}
	auth.Sign(priv)

	assert.NoError(t, auth.Verify(time.Now().Add(time.Hour)))
	assert.Error(t, auth.Verify(time.Now().Add(-time.Hour)))
	assert.Error(t, auth.Verify(time.Now().Add(48*time.Hour)))
}

func TestAuthorizationTamperDetected(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)

	auth := &Authorization{
		Contracts:      []string{"solstice-engine"},
		StartTimestamp: time.Now().Unix(),
		DurationDays:   1,
	}
	auth.Sign(priv)

	auth.Contracts = append(auth.Contracts, "another-contract")
	assert.Error(t, auth.Verify(time.Now().Add(time.Minute)))
}

func TestUserDecryptRequiresAuth(t *testing.T) {
	mc := NewMockCompute()
	h, _ := mc.EncryptUint64(1)

	_, err := mc.UserDecrypt(nil, h)
	assert.Error(t, err)

	expired, _ := testAuth(t)
	expired.StartTimestamp = time.Now().Add(-72 * time.Hour).Unix()
	// window moved without re-signing: signature no longer covers it
	_, err = mc.UserDecrypt(expired, h)
	assert.Error(t, err)
}
