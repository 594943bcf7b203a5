package service

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	log "github.com/inconshreveable/log15"

	"solstice/domain/fhe"
	"solstice/domain/order"
)

// Gate is the authorization boundary for plaintext disclosure. It
// decides which ciphertext handles a caller identity may present for
// decryption and rejects everything else before the compute layer is
// ever reached. The rule is fixed: an order's fields decrypt only for
// its creator; a match's trade fields decrypt for the creator of
// either referenced order.
type Gate struct {
	engine  *Engine
	compute fhe.Compute
	scope   string

	// repeated decrypts are idempotent, so plaintexts are cached per
	// caller, subject, and handle set
	cache *lru.Cache[string, []*big.Int]

	audit  AuditSink
	logger log.Logger
}

// AuditSink receives a record of every granted decryption. Best
// effort: delivery failure is logged, never surfaced to the caller.
type AuditSink interface {
	Publish(ctx context.Context, key, value []byte) error
}

const gateCacheSize = 4096

type GateOption func(*Gate)

func WithAudit(sink AuditSink) GateOption {
	return func(g *Gate) { g.audit = sink }
}

func WithGateLogger(l log.Logger) GateOption {
	return func(g *Gate) { g.logger = l }
}

// NewGate builds the gate for one engine instance. scope is the
// contract identifier an authorization must cover to be usable here.
func NewGate(engine *Engine, compute fhe.Compute, scope string, opts ...GateOption) *Gate {
	cache, _ := lru.New[string, []*big.Int](gateCacheSize)
	g := &Gate{
		engine:  engine,
		compute: compute,
		scope:   scope,
		cache:   cache,
		logger:  log.New("module", "gate"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// OrderPlaintext is the decrypted view of an order's own parameters,
// available only to its creator. Iceberg fields are nil for other
// kinds.
type OrderPlaintext struct {
	InputAmount  *big.Int
	OutputAmount *big.Int
	MinPrice     *big.Int
	MaxPrice     *big.Int

	TotalAmount   *big.Int
	VisibleAmount *big.Int
}

// TradePlaintext is the decrypted trade terms of a match, available to
// the creator of either side.
type TradePlaintext struct {
	TradeAmount *big.Int
	TradePrice  *big.Int
}

// checkAuth validates the signed authorization and binds it to the
// caller identity. Runs before any handle is presented downstream.
func (g *Gate) checkAuth(caller string, auth *fhe.Authorization) error {
	if auth == nil {
		return order.ErrBadAuthorization(fhe.ErrBadAuth)
	}
	if err := auth.Verify(time.Now()); err != nil {
		return order.ErrBadAuthorization(err)
	}
	if auth.SignerAddress() != caller {
		return order.ErrBadAuthorization(fmt.Errorf("authorization signer is not the caller"))
	}
	if !auth.Covers(g.scope) {
		return order.ErrBadAuthorization(fmt.Errorf("authorization does not cover %s", g.scope))
	}
	return nil
}

// DecryptOrder returns the plaintext parameters of the caller's own
// order.
func (g *Gate) DecryptOrder(ctx context.Context, caller string, orderID uint64, auth *fhe.Authorization) (*OrderPlaintext, error) {
	info, enc, err := g.engine.orderSnapshot(orderID)
	if err != nil {
		return nil, err
	}
	if info.Creator != caller {
		return nil, order.ErrDecryptDenied()
	}
	if err := g.checkAuth(caller, auth); err != nil {
		return nil, err
	}

	handles := []fhe.Handle{enc.InputAmount, enc.OutputAmount, enc.MinPrice, enc.MaxPrice}
	iceberg := info.Kind == order.Iceberg
	if iceberg {
		handles = append(handles, enc.TotalAmount, enc.VisibleAmount)
	}

	values, err := g.decrypt(fmt.Sprintf("order/%d", orderID), caller, auth, handles)
	if err != nil {
		return nil, err
	}

	out := &OrderPlaintext{
		InputAmount:  values[0],
		OutputAmount: values[1],
		MinPrice:     values[2],
		MaxPrice:     values[3],
	}
	if iceberg {
		out.TotalAmount = values[4]
		out.VisibleAmount = values[5]
	}
	g.auditGrant(ctx, caller, "order", orderID)
	return out, nil
}

// DecryptMatch returns the trade terms of a match for the creator of
// the buy or the sell order. Either side learns the terms that applied
// to them; neither gains access to the other side's order ciphertexts.
func (g *Gate) DecryptMatch(ctx context.Context, caller string, matchID uint64, auth *fhe.Authorization) (*TradePlaintext, error) {
	m, err := g.engine.GetMatchResult(matchID)
	if err != nil {
		return nil, err
	}
	buyCreator, _ := g.engine.creatorOf(m.BuyOrderID)
	sellCreator, _ := g.engine.creatorOf(m.SellOrderID)
	if caller != buyCreator && caller != sellCreator {
		return nil, order.ErrDecryptDenied()
	}
	if err := g.checkAuth(caller, auth); err != nil {
		return nil, err
	}

	values, err := g.decrypt(fmt.Sprintf("match/%d", matchID), caller, auth,
		[]fhe.Handle{m.TradeAmount, m.TradePrice})
	if err != nil {
		return nil, err
	}
	g.auditGrant(ctx, caller, "match", matchID)
	return &TradePlaintext{TradeAmount: values[0], TradePrice: values[1]}, nil
}

// cacheKey binds a cached plaintext to the exact handles it came from.
// An iceberg reveal swaps the visible-slice handle, so keys that named
// only the subject would keep serving the pre-reveal value.
func cacheKey(subject, caller string, handles []fhe.Handle) string {
	sum := sha256.New()
	for _, h := range handles {
		sum.Write(h[:])
	}
	return fmt.Sprintf("%s/%s/%x", subject, caller, sum.Sum(nil)[:8])
}

func (g *Gate) decrypt(subject, caller string, auth *fhe.Authorization, handles []fhe.Handle) ([]*big.Int, error) {
	key := cacheKey(subject, caller, handles)
	if values, ok := g.cache.Get(key); ok {
		return values, nil
	}
	values, err := g.compute.UserDecrypt(auth, handles...)
	if err != nil {
		return nil, order.ErrBadAuthorization(err)
	}
	g.cache.Add(key, values)
	return values, nil
}

func (g *Gate) auditGrant(ctx context.Context, caller, subject string, id uint64) {
	if g.audit == nil {
		return
	}
	rec, _ := json.Marshal(map[string]any{
		"caller":  caller,
		"subject": subject,
		"id":      id,
		"time":    time.Now().Unix(),
	})
	key := []byte(fmt.Sprintf("%s/%d", subject, id))
	if err := g.audit.Publish(ctx, key, rec); err != nil {
		g.logger.Warn("audit publish failed", "caller", caller, "subject", subject, "id", id, "err", err)
	}
}
