package service

import (
	"context"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solstice/domain/fhe"
	"solstice/domain/order"
)

const testScope = "solstice-engine"

type signer struct {
	priv *secp256k1.PrivateKey
	addr string
}

func newSigner(t *testing.T) *signer {
	t.Helper()
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	return &signer{
		priv: priv,
		addr: fhe.AddressFromPublicKey(priv.PubKey().SerializeCompressed()),
	}
}

func (s *signer) auth(scopes ...string) *fhe.Authorization {
	a := &fhe.Authorization{
		Contracts:      scopes,
		StartTimestamp: time.Now().Add(-time.Minute).Unix(),
		DurationDays:   1,
	}
	a.Sign(s.priv)
	return a
}

// countingCompute wraps the mock to observe decrypt traffic.
type countingCompute struct {
	*fhe.MockCompute
	decrypts atomic.Int64
}

func (c *countingCompute) UserDecrypt(auth *fhe.Authorization, handles ...fhe.Handle) ([]*big.Int, error) {
	c.decrypts.Add(1)
	return c.MockCompute.UserDecrypt(auth, handles...)
}

type captureSink struct {
	keys   [][]byte
	values [][]byte
}

func (s *captureSink) Publish(_ context.Context, key, value []byte) error {
	s.keys = append(s.keys, key)
	s.values = append(s.values, value)
	return nil
}

func TestDecryptOrderCreatorRoundTrip(t *testing.T) {
	cc := &countingCompute{MockCompute: fhe.NewMockCompute()}
	e, _ := newTestEngine(t, cc.MockCompute)
	g := NewGate(e, cc, testScope)

	creator := newSigner(t)
	id, err := e.CreateOrder(creator.addr, order.Limit, "ETH", "USDC",
		limitParams(cc.MockCompute, 100, 150000, 1400, 1600))
	require.NoError(t, err)

	pt, err := g.DecryptOrder(context.Background(), creator.addr, id, creator.auth(testScope))
	require.NoError(t, err)
	assert.Equal(t, uint64(100), pt.InputAmount.Uint64())
	assert.Equal(t, uint64(150000), pt.OutputAmount.Uint64())
	assert.Equal(t, uint64(1400), pt.MinPrice.Uint64())
	assert.Equal(t, uint64(1600), pt.MaxPrice.Uint64())
	assert.Nil(t, pt.TotalAmount)
	assert.Nil(t, pt.VisibleAmount)
}

func TestDecryptIcebergIncludesCommitment(t *testing.T) {
	mc := fhe.NewMockCompute()
	e, _ := newTestEngine(t, mc)
	g := NewGate(e, mc, testScope)

	creator := newSigner(t)
	id, err := e.CreateIcebergOrder(creator.addr,
		icebergParams(mc, 1000, 100, 150000, 1400, 1600), "ETH", "USDC", 3600)
	require.NoError(t, err)

	pt, err := g.DecryptOrder(context.Background(), creator.addr, id, creator.auth(testScope))
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), pt.TotalAmount.Uint64())
	assert.Equal(t, uint64(100), pt.VisibleAmount.Uint64())
	assert.Equal(t, uint64(100), pt.InputAmount.Uint64())
}

func TestDecryptOrderDeniesNonCreatorBeforeCompute(t *testing.T) {
	cc := &countingCompute{MockCompute: fhe.NewMockCompute()}
	e, _ := newTestEngine(t, cc.MockCompute)
	g := NewGate(e, cc, testScope)

	creator, intruder := newSigner(t), newSigner(t)
	id, err := e.CreateOrder(creator.addr, order.Limit, "ETH", "USDC",
		limitParams(cc.MockCompute, 100, 150000, 1400, 1600))
	require.NoError(t, err)

	_, err = g.DecryptOrder(context.Background(), intruder.addr, id, intruder.auth(testScope))
	require.Error(t, err)
	assert.True(t, order.IsKind(err, order.KindAuthorization))
	assert.Zero(t, cc.decrypts.Load())
}

func TestDecryptOrderAuthChecks(t *testing.T) {
	mc := fhe.NewMockCompute()
	e, _ := newTestEngine(t, mc)
	g := NewGate(e, mc, testScope)

	creator, other := newSigner(t), newSigner(t)
	id, err := e.CreateOrder(creator.addr, order.Limit, "ETH", "USDC",
		limitParams(mc, 100, 150000, 1400, 1600))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = g.DecryptOrder(ctx, creator.addr, id, nil)
	assert.True(t, order.IsKind(err, order.KindAuthorization))

	// authorization signed by someone other than the caller
	_, err = g.DecryptOrder(ctx, creator.addr, id, other.auth(testScope))
	assert.True(t, order.IsKind(err, order.KindAuthorization))

	// authorization scoped to a different contract
	_, err = g.DecryptOrder(ctx, creator.addr, id, creator.auth("somewhere-else"))
	assert.True(t, order.IsKind(err, order.KindAuthorization))

	// expired window
	stale := &fhe.Authorization{
		Contracts:      []string{testScope},
		StartTimestamp: time.Now().Add(-72 * time.Hour).Unix(),
		DurationDays:   1,
	}
	stale.Sign(creator.priv)
	_, err = g.DecryptOrder(ctx, creator.addr, id, stale)
	assert.True(t, order.IsKind(err, order.KindAuthorization))
}

func TestDecryptMatchEitherSide(t *testing.T) {
	mc := fhe.NewMockCompute()
	e, _ := newTestEngine(t, mc)
	g := NewGate(e, mc, testScope)

	buyer, seller, outsider := newSigner(t), newSigner(t), newSigner(t)
	buyID, err := e.CreateOrder(buyer.addr, order.Limit, "ETH", "USDC",
		limitParams(mc, 100, 150000, 1400, 1600))
	require.NoError(t, err)
	sellID, err := e.CreateOrder(seller.addr, order.Limit, "USDC", "ETH",
		limitParams(mc, 150000, 100, 1500, 1700))
	require.NoError(t, err)
	matchID, err := e.MatchOrders(outsider.addr, buyID, sellID)
	require.NoError(t, err)
	ctx := context.Background()

	buyerView, err := g.DecryptMatch(ctx, buyer.addr, matchID, buyer.auth(testScope))
	require.NoError(t, err)
	sellerView, err := g.DecryptMatch(ctx, seller.addr, matchID, seller.auth(testScope))
	require.NoError(t, err)

	// min(100, 150000) and the midpoint of [1500, 1600]
	assert.Equal(t, uint64(100), buyerView.TradeAmount.Uint64())
	assert.Equal(t, uint64(1550), buyerView.TradePrice.Uint64())
	assert.Equal(t, buyerView.TradeAmount, sellerView.TradeAmount)
	assert.Equal(t, buyerView.TradePrice, sellerView.TradePrice)

	_, err = g.DecryptMatch(ctx, outsider.addr, matchID, outsider.auth(testScope))
	assert.True(t, order.IsKind(err, order.KindAuthorization))
}

func TestDecryptReflectsRevealedChunk(t *testing.T) {
	mc := fhe.NewMockCompute()
	e, _ := newTestEngine(t, mc)
	g := NewGate(e, mc, testScope)

	base := time.Unix(1_700_000_000, 0)
	e.now = func() time.Time { return base }

	creator := newSigner(t)
	id, err := e.CreateIcebergOrder(creator.addr,
		icebergParams(mc, 1000, 100, 150000, 1400, 1600), "ETH", "USDC", 60)
	require.NoError(t, err)
	ctx := context.Background()
	auth := creator.auth(testScope)

	before, err := g.DecryptOrder(ctx, creator.addr, id, auth)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), before.VisibleAmount.Uint64())
	assert.Equal(t, uint64(100), before.InputAmount.Uint64())

	e.now = func() time.Time { return base.Add(time.Minute) }
	require.NoError(t, e.RevealNextChunk(creator.addr, id))

	// the reveal swapped the visible-slice handle; the plaintext cached
	// for the old handle must not be served for the new one
	after, err := g.DecryptOrder(ctx, creator.addr, id, auth)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), after.VisibleAmount.Uint64())
	assert.Equal(t, uint64(200), after.InputAmount.Uint64())
	assert.Equal(t, uint64(1000), after.TotalAmount.Uint64())
}

func TestDecryptCachesRepeatedRequests(t *testing.T) {
	cc := &countingCompute{MockCompute: fhe.NewMockCompute()}
	e, _ := newTestEngine(t, cc.MockCompute)
	g := NewGate(e, cc, testScope)

	creator := newSigner(t)
	id, err := e.CreateOrder(creator.addr, order.Limit, "ETH", "USDC",
		limitParams(cc.MockCompute, 100, 150000, 1400, 1600))
	require.NoError(t, err)

	auth := creator.auth(testScope)
	first, err := g.DecryptOrder(context.Background(), creator.addr, id, auth)
	require.NoError(t, err)
	second, err := g.DecryptOrder(context.Background(), creator.addr, id, auth)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), cc.decrypts.Load())
}

func TestDecryptAuditTrail(t *testing.T) {
	mc := fhe.NewMockCompute()
	e, _ := newTestEngine(t, mc)
	sink := &captureSink{}
	g := NewGate(e, mc, testScope, WithAudit(sink))

	creator := newSigner(t)
	id, err := e.CreateOrder(creator.addr, order.Limit, "ETH", "USDC",
		limitParams(mc, 100, 150000, 1400, 1600))
	require.NoError(t, err)

	_, err = g.DecryptOrder(context.Background(), creator.addr, id, creator.auth(testScope))
	require.NoError(t, err)

	require.Len(t, sink.keys, 1)
	assert.Equal(t, "order/1", string(sink.keys[0]))
	assert.Contains(t, string(sink.values[0]), creator.addr)
}
