package wal

import (
	"errors"
	"os"
)

// Replay walks every record across all segments in write order and
// hands each to fn. It tolerates a torn final record (crash mid-write)
// but fails loudly on corruption anywhere else. Returns the highest
// sequence number seen, 0 for an empty log.
func Replay(dir string, fn func(*Record) error) (uint64, error) {
	segments, err := listSegments(dir)
	if err != nil {
		return 0, err
	}

	var lastSeq uint64
	for i, seg := range segments {
		data, err := os.ReadFile(seg.path)
		if err != nil {
			return lastSeq, err
		}

		for len(data) > 0 {
			rec, n, err := DecodeFrame(data)
			if errors.Is(err, ErrShortFrame) {
				// Only the tail of the newest segment may be torn.
				if i == len(segments)-1 {
					return lastSeq, nil
				}
				return lastSeq, ErrCorruptRecord
			}
			if err != nil {
				return lastSeq, err
			}
			data = data[n:]

			if err := fn(rec); err != nil {
				return lastSeq, err
			}
			if rec.Seq > lastSeq {
				lastSeq = rec.Seq
			}
		}
	}
	return lastSeq, nil
}
