// Package sequence provides the monotonic id state behind order ids,
// match ids, and log sequence numbers. Ids are 1-based and never
// reused; after a restart the owner restores the last durable value
// before accepting traffic.
package sequence

import "sync/atomic"

type Sequencer struct {
	last atomic.Uint64
}

// New returns a sequencer whose next id is last+1. A fresh system
// passes 0 so the first issued id is 1.
func New(last uint64) *Sequencer {
	s := &Sequencer{}
	s.last.Store(last)
	return s
}

// Next issues the next id.
func (s *Sequencer) Next() uint64 {
	return s.last.Add(1)
}

// Last returns the most recently issued id, 0 if none.
func (s *Sequencer) Last() uint64 {
	return s.last.Load()
}

// Restore jumps the sequencer forward after log replay. It never moves
// backwards.
func (s *Sequencer) Restore(v uint64) {
	for {
		cur := s.last.Load()
		if v <= cur || s.last.CompareAndSwap(cur, v) {
			return
		}
	}
}
