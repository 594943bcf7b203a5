package wal

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEncodeDecodeFrame(t *testing.T) {
	in := NewRecord(RecordOrderCreated, 7, []byte(`{"id":7}`))
	frame := Encode(in)

	out, n, err := DecodeFrame(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != len(frame) {
		t.Fatalf("consumed %d bytes, want %d", n, len(frame))
	}
	if out.Type != in.Type || out.Seq != in.Seq || out.Time != in.Time {
		t.Fatalf("decoded header %+v, want %+v", out, in)
	}
	if string(out.Payload) != string(in.Payload) {
		t.Fatalf("payload %q, want %q", out.Payload, in.Payload)
	}
}

func TestDecodeFrameCorruptBody(t *testing.T) {
	frame := Encode(NewRecord(RecordOrderCreated, 1, []byte("x")))
	frame[len(frame)-1] ^= 0xff
	if _, _, err := DecodeFrame(frame); err != ErrCorruptRecord {
		t.Fatalf("err = %v, want ErrCorruptRecord", err)
	}
}

func TestAppendReplayRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(Config{Dir: dir})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	for seq := uint64(1); seq <= 5; seq++ {
		rec := NewRecord(RecordOrderCreated, seq, []byte(fmt.Sprintf("op-%d", seq)))
		if err := w.Append(rec); err != nil {
			t.Fatalf("append %d: %v", seq, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var seqs []uint64
	last, err := Replay(dir, func(r *Record) error {
		seqs = append(seqs, r.Seq)
		return nil
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if last != 5 {
		t.Fatalf("last seq = %d, want 5", last)
	}
	for i, s := range seqs {
		if s != uint64(i+1) {
			t.Fatalf("record %d has seq %d", i, s)
		}
	}
}

func TestReplayToleratesTornTail(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(Config{Dir: dir})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for seq := uint64(1); seq <= 3; seq++ {
		if err := w.Append(NewRecord(RecordOrderCancelled, seq, []byte("op"))); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	w.Close()

	// Truncate mid-record to simulate a crash during the last write.
	path := segmentPath(dir, 0)
	st, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if err := os.Truncate(path, st.Size()-3); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	var count int
	last, err := Replay(dir, func(*Record) error {
		count++
		return nil
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if count != 2 || last != 2 {
		t.Fatalf("replayed %d records, last %d; want 2, 2", count, last)
	}
}

func TestSegmentRotationBySize(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(Config{Dir: dir, SegmentSize: 64, SegmentDuration: time.Hour})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	payload := make([]byte, 48)
	for seq := uint64(1); seq <= 4; seq++ {
		if err := w.Append(NewRecord(RecordOrdersMatched, seq, payload)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	w.Close()

	paths, err := filepath.Glob(filepath.Join(dir, "segment-*.wal"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(paths) < 2 {
		t.Fatalf("got %d segments, want rotation to produce at least 2", len(paths))
	}

	last, err := Replay(dir, func(*Record) error { return nil })
	if err != nil {
		t.Fatalf("replay across segments: %v", err)
	}
	if last != 4 {
		t.Fatalf("last seq = %d, want 4", last)
	}
}

func TestOpenResumesHighestSegment(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(Config{Dir: dir, SegmentSize: 64, SegmentDuration: time.Hour})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	payload := make([]byte, 48)
	for seq := uint64(1); seq <= 3; seq++ {
		if err := w.Append(NewRecord(RecordOrderCreated, seq, payload)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	w.Close()

	w2, err := Open(Config{Dir: dir, SegmentSize: 1 << 20, SegmentDuration: time.Hour})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := w2.Append(NewRecord(RecordOrderCreated, 4, []byte("op"))); err != nil {
		t.Fatalf("append after reopen: %v", err)
	}
	w2.Close()

	last, err := Replay(dir, func(*Record) error { return nil })
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if last != 4 {
		t.Fatalf("last seq = %d, want 4", last)
	}
}
