package service

import "solstice/domain/fhe"

// Operation payloads written to the log. Create and match records
// carry the full record snapshot (the order / match struct itself);
// the ops below carry the deltas for the remaining mutations.

type cancelOp struct {
	OrderID uint64 `json:"orderId"`
	Caller  string `json:"caller"`
	Time    int64  `json:"time"`
}

type revealOp struct {
	OrderID    uint64     `json:"orderId"`
	NewVisible fhe.Handle `json:"newVisible"`
	Time       int64      `json:"time"`
}

type executeOp struct {
	MatchID uint64 `json:"matchId"`
	Caller  string `json:"caller"`
	Time    int64  `json:"time"`
}
