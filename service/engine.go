// Package service is the only write entry point into the engine. All
// coordination between the domain, the operation log, and the event
// outbox happens here, under a single writer lock: every mutation is
// atomic and totally ordered relative to every other mutation.
package service

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	log "github.com/inconshreveable/log15"

	"solstice/domain/fhe"
	"solstice/domain/order"
	"solstice/infra/outbox"
	"solstice/infra/sequence"
	"solstice/infra/wal"
)

// CiphertextInput is a submitted encrypted value: the handle plus the
// proof that must verify before the engine accepts it.
type CiphertextInput struct {
	Handle fhe.Handle
	Proof  fhe.Proof
}

// OrderParams carries the four encrypted parameters of a plain order.
type OrderParams struct {
	InputAmount  CiphertextInput
	OutputAmount CiphertextInput
	MinPrice     CiphertextInput
	MaxPrice     CiphertextInput
}

// IcebergParams carries the five encrypted parameters of an iceberg
// order.
type IcebergParams struct {
	TotalAmount   CiphertextInput
	VisibleAmount CiphertextInput
	OutputAmount  CiphertextInput
	MinPrice      CiphertextInput
	MaxPrice      CiphertextInput
}

// TransferFunc settles the token movement for an executed trade. It is
// an external collaborator: the engine only requires that it reports
// success before the status flip is committed.
type TransferFunc func(*order.MatchResult) error

type Engine struct {
	mu sync.Mutex

	compute  fhe.Compute
	oplog    *wal.WAL
	events   *outbox.Outbox
	transfer TransferFunc

	orders  map[uint64]*order.Order
	matches map[uint64]*order.MatchResult

	// pending order ids by side; an order is a buy of its output token
	// when its token pair reads in ascending lexical order
	pendingBuy  []uint64
	pendingSell []uint64

	orderSeq *sequence.Sequencer
	matchSeq *sequence.Sequencer
	opSeq    *sequence.Sequencer
	eventSeq *sequence.Sequencer

	now    func() time.Time
	logger log.Logger
}

type Option func(*Engine)

// WithOutbox attaches the durable event outbox. Without it, events are
// dropped (useful in tests exercising state only).
func WithOutbox(o *outbox.Outbox) Option {
	return func(e *Engine) { e.events = o }
}

// WithTransfer attaches the settlement collaborator invoked during
// ExecuteTrade.
func WithTransfer(t TransferFunc) Option {
	return func(e *Engine) { e.transfer = t }
}

func WithLogger(l log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func New(compute fhe.Compute, oplog *wal.WAL, opts ...Option) *Engine {
	e := &Engine{
		compute:  compute,
		oplog:    oplog,
		orders:   make(map[uint64]*order.Order),
		matches:  make(map[uint64]*order.MatchResult),
		orderSeq: sequence.New(0),
		matchSeq: sequence.New(0),
		opSeq:    sequence.New(0),
		eventSeq: sequence.New(0),
		now:      time.Now,
		logger:   log.New("module", "engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ──────────────────────────────────────────────────────────
// Commands
// ──────────────────────────────────────────────────────────

// CreateOrder registers a new swap order with status Pending and
// returns its id. Every ciphertext proof must verify; the call is
// all-or-nothing.
func (e *Engine) CreateOrder(creator string, kind order.Kind, inputToken, outputToken string, p OrderParams) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if kind == order.Iceberg {
		return 0, order.ErrIcebergKind()
	}
	if inputToken == outputToken {
		return 0, order.ErrSameToken()
	}
	if err := e.verifyInputs(map[string]CiphertextInput{
		"inputAmount":  p.InputAmount,
		"outputAmount": p.OutputAmount,
		"minPrice":     p.MinPrice,
		"maxPrice":     p.MaxPrice,
	}); err != nil {
		return 0, err
	}

	o := &order.Order{
		ID:           e.orderSeq.Next(),
		Creator:      creator,
		Kind:         kind,
		Status:       order.Pending,
		InputToken:   inputToken,
		OutputToken:  outputToken,
		InputAmount:  p.InputAmount.Handle,
		OutputAmount: p.OutputAmount.Handle,
		MinPrice:     p.MinPrice.Handle,
		MaxPrice:     p.MaxPrice.Handle,
		CreatedAt:    e.now().Unix(),
	}

	if err := e.commit(wal.RecordOrderCreated, o, e.createdEvent(o)); err != nil {
		return 0, err
	}
	e.insertOrder(o)

	e.logger.Info("order created",
		"id", o.ID, "creator", o.Creator, "kind", o.Kind.String(),
		"in", o.InputToken, "out", o.OutputToken)
	return o.ID, nil
}

// CreateIcebergOrder registers an order that discloses only a visible
// slice of a larger committed size. Matching sees the visible slice.
func (e *Engine) CreateIcebergOrder(creator string, p IcebergParams, inputToken, outputToken string, revealInterval int64) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if inputToken == outputToken {
		return 0, order.ErrSameToken()
	}
	if revealInterval <= 0 {
		return 0, order.ErrBadRevealInterval()
	}
	if err := e.verifyInputs(map[string]CiphertextInput{
		"totalAmount":   p.TotalAmount,
		"visibleAmount": p.VisibleAmount,
		"outputAmount":  p.OutputAmount,
		"minPrice":      p.MinPrice,
		"maxPrice":      p.MaxPrice,
	}); err != nil {
		return 0, err
	}

	now := e.now().Unix()
	o := &order.Order{
		ID:          e.orderSeq.Next(),
		Creator:     creator,
		Kind:        order.Iceberg,
		Status:      order.Pending,
		InputToken:  inputToken,
		OutputToken: outputToken,
		// counterparties only ever match against the visible slice
		InputAmount:    p.VisibleAmount.Handle,
		OutputAmount:   p.OutputAmount.Handle,
		MinPrice:       p.MinPrice.Handle,
		MaxPrice:       p.MaxPrice.Handle,
		CreatedAt:      now,
		TotalAmount:    p.TotalAmount.Handle,
		VisibleAmount:  p.VisibleAmount.Handle,
		RevealInterval: revealInterval,
		LastRevealTime: now,
	}

	if err := e.commit(wal.RecordIcebergCreated, o, e.createdEvent(o)); err != nil {
		return 0, err
	}
	e.insertOrder(o)

	e.logger.Info("iceberg order created",
		"id", o.ID, "creator", o.Creator, "revealInterval", revealInterval)
	return o.ID, nil
}

// CancelOrder moves a Pending order to Cancelled. Creator only.
func (e *Engine) CancelOrder(caller string, orderID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, ok := e.orders[orderID]
	if !ok {
		return order.ErrOrderNotFound(orderID)
	}
	if caller != o.Creator {
		return order.ErrNotCreator()
	}
	if o.Status != order.Pending {
		return order.ErrNotPending(orderID, o.Status)
	}

	op := cancelOp{OrderID: orderID, Caller: caller, Time: e.now().Unix()}
	ev := &order.Event{
		Type: order.EventOrderCancelled, Time: op.Time,
		OrderID: orderID, Creator: o.Creator, Status: order.Cancelled.String(),
	}
	if err := e.commit(wal.RecordOrderCancelled, op, ev); err != nil {
		return err
	}
	e.applyCancel(op)

	e.logger.Info("order cancelled", "id", orderID, "creator", caller)
	return nil
}

// RevealNextChunk replaces an iceberg order's visible slice once the
// minimum reveal interval has elapsed. The new slice is derived by the
// compute service so it never exceeds the committed total; the caller
// is unrestricted, so keepers can drive reveals. Status is untouched.
func (e *Engine) RevealNextChunk(caller string, orderID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, ok := e.orders[orderID]
	if !ok {
		return order.ErrOrderNotFound(orderID)
	}
	if !o.IsIceberg() {
		return order.ErrNotIceberg(orderID)
	}
	now := e.now().Unix()
	if !o.RevealDue(now) {
		return order.ErrRevealTooSoon(orderID)
	}

	next, err := e.compute.Combine(fhe.OpRevealChunk, o.TotalAmount, o.VisibleAmount)
	if err != nil {
		return fmt.Errorf("derive next chunk: %w", err)
	}

	op := revealOp{OrderID: orderID, NewVisible: next, Time: now}
	ev := &order.Event{
		Type: order.EventChunkRevealed, Time: now,
		OrderID: orderID, Creator: o.Creator,
	}
	if err := e.commit(wal.RecordChunkRevealed, op, ev); err != nil {
		return err
	}
	e.applyReveal(op)

	e.logger.Info("iceberg chunk revealed", "id", orderID, "caller", caller)
	return nil
}

// MatchOrders records a pairing of two pending, complementary orders
// and returns the match id. Matching is a public-good operation: any
// caller may pair orders since no plaintext is exposed. Neither order
// is mutated; execution closes them later, so one pending order may
// appear in several candidate matches.
func (e *Engine) MatchOrders(caller string, buyOrderID, sellOrderID uint64) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if buyOrderID == sellOrderID {
		return 0, order.ErrSelfMatch()
	}
	buy, ok := e.orders[buyOrderID]
	if !ok {
		return 0, order.ErrOrderNotFound(buyOrderID)
	}
	sell, ok := e.orders[sellOrderID]
	if !ok {
		return 0, order.ErrOrderNotFound(sellOrderID)
	}
	if buy.Status != order.Pending {
		return 0, order.ErrNotPending(buyOrderID, buy.Status)
	}
	if sell.Status != order.Pending {
		return 0, order.ErrNotPending(sellOrderID, sell.Status)
	}
	if !order.Complementary(buy, sell) {
		return 0, order.ErrTokenPairMismatch()
	}

	tradeAmount, err := e.compute.Combine(fhe.OpTradeAmount, buy.InputAmount, sell.InputAmount)
	if err != nil {
		return 0, fmt.Errorf("derive trade amount: %w", err)
	}
	tradePrice, err := e.compute.Combine(fhe.OpTradePrice,
		buy.MinPrice, buy.MaxPrice, sell.MinPrice, sell.MaxPrice)
	if err != nil {
		return 0, fmt.Errorf("derive trade price: %w", err)
	}

	m := &order.MatchResult{
		ID:          e.matchSeq.Next(),
		BuyOrderID:  buyOrderID,
		SellOrderID: sellOrderID,
		TradeAmount: tradeAmount,
		TradePrice:  tradePrice,
		Timestamp:   e.now().Unix(),
	}
	ev := &order.Event{
		Type: order.EventOrderMatched, Time: m.Timestamp,
		MatchID: m.ID, BuyOrderID: buyOrderID, SellOrderID: sellOrderID,
	}
	if err := e.commit(wal.RecordOrdersMatched, m, ev); err != nil {
		return 0, err
	}
	e.insertMatch(m)

	e.logger.Info("orders matched",
		"matchId", m.ID, "buy", buyOrderID, "sell", sellOrderID, "matcher", caller)
	return m.ID, nil
}

// ExecuteTrade finalizes a match: both referenced orders flip to
// Filled, irreversibly. Racing executions against a shared order are
// serialized by the writer lock; only the first sees Pending orders.
func (e *Engine) ExecuteTrade(caller string, matchID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, ok := e.matches[matchID]
	if !ok {
		return order.ErrMatchNotFound(matchID)
	}
	buy, sell := e.orders[m.BuyOrderID], e.orders[m.SellOrderID]
	if buy.Status != order.Pending {
		return order.ErrNotPending(m.BuyOrderID, buy.Status)
	}
	if sell.Status != order.Pending {
		return order.ErrNotPending(m.SellOrderID, sell.Status)
	}

	// Settlement must succeed before the status flip is committed.
	if e.transfer != nil {
		if err := e.transfer(m); err != nil {
			return fmt.Errorf("settlement failed: %w", err)
		}
	}

	now := e.now().Unix()
	op := executeOp{MatchID: matchID, Caller: caller, Time: now}
	events := []*order.Event{
		{Type: order.EventOrderFilled, Time: now, OrderID: buy.ID,
			Creator: buy.Creator, Status: order.Filled.String()},
		{Type: order.EventOrderFilled, Time: now, OrderID: sell.ID,
			Creator: sell.Creator, Status: order.Filled.String()},
		{Type: order.EventTradeExecuted, Time: now, TradeID: matchID,
			MatchID: matchID, Buyer: buy.Creator, Seller: sell.Creator},
	}
	if err := e.commit(wal.RecordTradeExecuted, op, events...); err != nil {
		return err
	}
	e.applyExecute(op)

	e.logger.Info("trade executed",
		"matchId", matchID, "buy", buy.ID, "sell", sell.ID, "caller", caller)
	return nil
}

// ──────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────

// GetOrder returns the public projection. Ciphertext handles are
// deliberately absent; see GetOrderEncryptedValues.
func (e *Engine) GetOrder(orderID uint64) (order.Info, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, ok := e.orders[orderID]
	if !ok {
		return order.Info{}, order.ErrOrderNotFound(orderID)
	}
	return o.Info(), nil
}

// GetOrderEncryptedValues returns the raw ciphertext handles. Open to
// anyone: a handle without decryption authorization carries nothing.
func (e *Engine) GetOrderEncryptedValues(orderID uint64) (order.EncryptedValues, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, ok := e.orders[orderID]
	if !ok {
		return order.EncryptedValues{}, order.ErrOrderNotFound(orderID)
	}
	return o.EncryptedValues(), nil
}

func (e *Engine) GetMatchResult(matchID uint64) (order.MatchResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, ok := e.matches[matchID]
	if !ok {
		return order.MatchResult{}, order.ErrMatchNotFound(matchID)
	}
	return *m, nil
}

// orderSnapshot returns the projection and the ciphertext handles
// under a single lock acquisition, so the decryption gate never sees a
// reveal land between the kind check and the handle fetch.
func (e *Engine) orderSnapshot(orderID uint64) (order.Info, order.EncryptedValues, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, ok := e.orders[orderID]
	if !ok {
		return order.Info{}, order.EncryptedValues{}, order.ErrOrderNotFound(orderID)
	}
	return o.Info(), o.EncryptedValues(), nil
}

// creatorOf reports the creator of an order, for the decryption gate.
func (e *Engine) creatorOf(orderID uint64) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	o, ok := e.orders[orderID]
	if !ok {
		return "", false
	}
	return o.Creator, true
}

func (e *Engine) NextOrderID() uint64 { return e.orderSeq.Last() + 1 }
func (e *Engine) NextMatchID() uint64 { return e.matchSeq.Last() + 1 }

func (e *Engine) PendingBuyCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pendingBuy)
}

func (e *Engine) PendingSellCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pendingSell)
}

func (e *Engine) PendingBuyOrders() []uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]uint64(nil), e.pendingBuy...)
}

func (e *Engine) PendingSellOrders() []uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]uint64(nil), e.pendingSell...)
}

// ──────────────────────────────────────────────────────────
// Commit path
// ──────────────────────────────────────────────────────────

func (e *Engine) verifyInputs(inputs map[string]CiphertextInput) error {
	for field, in := range inputs {
		if err := e.compute.VerifyInput(in.Handle, in.Proof); err != nil {
			return order.ErrBadProof(field, err)
		}
	}
	return nil
}

func (e *Engine) createdEvent(o *order.Order) *order.Event {
	return &order.Event{
		Type: order.EventOrderCreated, Time: o.CreatedAt,
		OrderID: o.ID, Creator: o.Creator,
		Kind: o.Kind.String(), Status: o.Status.String(),
		InputToken: o.InputToken, OutputToken: o.OutputToken,
	}
}

// commit appends the operation to the log, then queues its events.
// State is mutated by the caller only after commit returns nil, so a
// failed append leaves nothing behind. The log is the source of truth;
// an outbox failure loses notifications, never state.
func (e *Engine) commit(t wal.RecordType, payload any, events ...*order.Event) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := e.oplog.Append(wal.NewRecord(t, e.opSeq.Next(), data)); err != nil {
		return fmt.Errorf("oplog append: %w", err)
	}
	for _, ev := range events {
		ev.V = 1
		ev.Seq = e.eventSeq.Next()
		if e.events == nil {
			continue
		}
		b, err := ev.Encode()
		if err == nil {
			err = e.events.Append(ev.Seq, b)
		}
		if err != nil {
			e.logger.Error("outbox append failed", "seq", ev.Seq, "type", ev.Type, "err", err)
		}
	}
	return nil
}
