package order

import "solstice/domain/fhe"

// MatchResult records a proposed pairing of two pending orders. It is
// the prepare half of the two-phase protocol: recording a match does
// not mutate either order, and several matches may reference the same
// pending order. Execution is what finally closes them.
type MatchResult struct {
	ID          uint64
	BuyOrderID  uint64
	SellOrderID uint64

	TradeAmount fhe.Handle
	TradePrice  fhe.Handle

	Timestamp int64
}
