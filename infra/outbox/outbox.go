// Package outbox is the durable event side channel. Domain events are
// appended here in the same operation that mutates engine state and
// drained to Kafka by the broadcaster job. The outbox is never read
// back into engine state: it is a delivery queue, not a source of
// truth.
package outbox

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
)

type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Entry is one queued event. Payload is the JSON-encoded domain event;
// the broadcaster treats it as opaque bytes.
type Entry struct {
	Seq         uint64
	State       State
	Retries     uint32
	LastAttempt int64
	Payload     []byte
}

// value encoding: [state:1][retries:4][lastAttempt:8][payload:rest]
const entryHeaderSize = 13

func encodeEntry(e *Entry) []byte {
	buf := make([]byte, entryHeaderSize+len(e.Payload))
	buf[0] = byte(e.State)
	binary.BigEndian.PutUint32(buf[1:5], e.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(e.LastAttempt))
	copy(buf[entryHeaderSize:], e.Payload)
	return buf
}

func decodeEntry(seq uint64, b []byte) (*Entry, error) {
	if len(b) < entryHeaderSize {
		return nil, errors.New("outbox: entry too short")
	}
	return &Entry{
		Seq:         seq,
		State:       State(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
		Payload:     append([]byte(nil), b[entryHeaderSize:]...),
	}, nil
}

type Outbox struct {
	db *pebble.DB
}

func Open(dir string) (*Outbox, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &Outbox{db: db}, nil
}

func (o *Outbox) Close() error {
	return o.db.Close()
}

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf("event/%020d", seq))
}

func parseKey(k []byte) (uint64, error) {
	var seq uint64
	_, err := fmt.Sscanf(string(k), "event/%d", &seq)
	return seq, err
}

// Append enqueues a new event. Called by the engine inside its
// mutation path, so it must be durable before returning.
func (o *Outbox) Append(seq uint64, payload []byte) error {
	e := &Entry{Seq: seq, State: StateNew, Payload: payload}
	return o.db.Set(keyFor(seq), encodeEntry(e), pebble.Sync)
}

func (o *Outbox) Get(seq uint64) (*Entry, error) {
	val, closer, err := o.db.Get(keyFor(seq))
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return decodeEntry(seq, val)
}

func (o *Outbox) setState(seq uint64, state State, bumpRetry bool) error {
	e, err := o.Get(seq)
	if err != nil {
		return err
	}
	e.State = state
	e.LastAttempt = time.Now().UnixNano()
	if bumpRetry {
		e.Retries++
	}
	return o.db.Set(keyFor(seq), encodeEntry(e), pebble.Sync)
}

func (o *Outbox) MarkSent(seq uint64) error   { return o.setState(seq, StateSent, true) }
func (o *Outbox) MarkAcked(seq uint64) error  { return o.setState(seq, StateAcked, false) }
func (o *Outbox) MarkFailed(seq uint64) error { return o.setState(seq, StateFailed, false) }

// Delete removes an entry after it has been acked and is no longer
// interesting for inspection.
func (o *Outbox) Delete(seq uint64) error {
	return o.db.Delete(keyFor(seq), pebble.Sync)
}

// ScanPending visits entries still awaiting delivery (NEW or SENT but
// never acked) in sequence order. SENT entries are revisited so a crash
// between send and ack results in redelivery, not loss. ACKED entries
// are done and FAILED entries are dead-lettered; both are skipped.
func (o *Outbox) ScanPending(fn func(*Entry) error) error {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte("event/"),
		UpperBound: []byte("event/~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		seq, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		e, err := decodeEntry(seq, iter.Value())
		if err != nil {
			return err
		}
		if e.State == StateAcked || e.State == StateFailed {
			continue
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return iter.Error()
}
