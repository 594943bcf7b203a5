package service

import (
	"encoding/json"
	"fmt"
	"sort"

	"solstice/domain/order"
	"solstice/infra/wal"
)

/*
Restore rebuilds in-memory state from the operation log.

It must run before the engine accepts traffic. Proofs are not
re-verified and no events are re-emitted: the log only ever contains
operations that were fully validated and committed.
*/
func (e *Engine) Restore(dir string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	lastSeq, err := wal.Replay(dir, e.applyRecord)
	if err != nil {
		return err
	}
	e.opSeq.Restore(lastSeq)

	e.logger.Info("operation log replayed",
		"lastSeq", lastSeq, "orders", len(e.orders), "matches", len(e.matches))
	return nil
}

func (e *Engine) applyRecord(rec *wal.Record) error {
	switch rec.Type {
	case wal.RecordOrderCreated, wal.RecordIcebergCreated:
		var o order.Order
		if err := json.Unmarshal(rec.Payload, &o); err != nil {
			return fmt.Errorf("replay seq %d: %w", rec.Seq, err)
		}
		e.insertOrder(&o)

	case wal.RecordOrderCancelled:
		var op cancelOp
		if err := json.Unmarshal(rec.Payload, &op); err != nil {
			return fmt.Errorf("replay seq %d: %w", rec.Seq, err)
		}
		e.applyCancel(op)

	case wal.RecordChunkRevealed:
		var op revealOp
		if err := json.Unmarshal(rec.Payload, &op); err != nil {
			return fmt.Errorf("replay seq %d: %w", rec.Seq, err)
		}
		e.applyReveal(op)

	case wal.RecordOrdersMatched:
		var m order.MatchResult
		if err := json.Unmarshal(rec.Payload, &m); err != nil {
			return fmt.Errorf("replay seq %d: %w", rec.Seq, err)
		}
		e.insertMatch(&m)

	case wal.RecordTradeExecuted:
		var op executeOp
		if err := json.Unmarshal(rec.Payload, &op); err != nil {
			return fmt.Errorf("replay seq %d: %w", rec.Seq, err)
		}
		e.applyExecute(op)

	default:
		return fmt.Errorf("replay seq %d: unknown record type %d", rec.Seq, rec.Type)
	}
	return nil
}

// ──────────────────────────────────────────────────────────
// Apply helpers, shared by the live path and replay. They assume the
// operation was validated when first committed and cannot fail.
// ──────────────────────────────────────────────────────────

// buySide classifies an order's direction for the pending-side
// bookkeeping: a token pair reading in ascending lexical order counts
// as a buy of the output token.
func buySide(o *order.Order) bool {
	return o.InputToken < o.OutputToken
}

func (e *Engine) insertOrder(o *order.Order) {
	e.orders[o.ID] = o
	if buySide(o) {
		e.pendingBuy = append(e.pendingBuy, o.ID)
	} else {
		e.pendingSell = append(e.pendingSell, o.ID)
	}
	e.orderSeq.Restore(o.ID)
}

func (e *Engine) insertMatch(m *order.MatchResult) {
	e.matches[m.ID] = m
	e.matchSeq.Restore(m.ID)
}

func (e *Engine) applyCancel(op cancelOp) {
	o := e.orders[op.OrderID]
	o.Status = order.Cancelled
	e.removePending(o)
}

func (e *Engine) applyReveal(op revealOp) {
	o := e.orders[op.OrderID]
	o.VisibleAmount = op.NewVisible
	o.InputAmount = op.NewVisible
	o.LastRevealTime = op.Time
}

func (e *Engine) applyExecute(op executeOp) {
	m := e.matches[op.MatchID]
	for _, id := range []uint64{m.BuyOrderID, m.SellOrderID} {
		o := e.orders[id]
		o.Status = order.Filled
		e.removePending(o)
	}
}

func (e *Engine) removePending(o *order.Order) {
	side := &e.pendingSell
	if buySide(o) {
		side = &e.pendingBuy
	}
	ids := *side
	i := sort.Search(len(ids), func(i int) bool { return ids[i] >= o.ID })
	if i < len(ids) && ids[i] == o.ID {
		*side = append(ids[:i], ids[i+1:]...)
	}
}
