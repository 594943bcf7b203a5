// Package wal is the durable operation log. Every state-changing
// operation is appended here before it is applied; replaying the log in
// order reproduces the engine's exact state, which is what makes the
// engine behave like a deterministic ledger across restarts.
package wal

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

type Config struct {
	Dir             string
	SegmentSize     int64
	SegmentDuration time.Duration
}

const (
	DefaultSegmentSize     = 8 * 1024 * 1024
	DefaultSegmentDuration = 15 * time.Minute
)

type WAL struct {
	cfg Config

	file         *os.File
	offset       int64
	segmentIndex int
	lastRotation time.Time
}

func Open(cfg Config) (*WAL, error) {
	if cfg.SegmentSize <= 0 {
		cfg.SegmentSize = DefaultSegmentSize
	}
	if cfg.SegmentDuration <= 0 {
		cfg.SegmentDuration = DefaultSegmentDuration
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}

	// Resume appending to the highest existing segment.
	segments, err := listSegments(cfg.Dir)
	if err != nil {
		return nil, err
	}
	index := 0
	if len(segments) > 0 {
		index = segments[len(segments)-1].index
	}

	w := &WAL{cfg: cfg, segmentIndex: index, lastRotation: time.Now()}
	if err := w.openSegment(index); err != nil {
		return nil, err
	}
	return w, nil
}

func segmentPath(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("segment-%06d.wal", index))
}

func (w *WAL) openSegment(index int) error {
	f, err := os.OpenFile(segmentPath(w.cfg.Dir, index), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	w.file = f
	w.offset = st.Size()
	return nil
}

// Append durably writes one record. The record is fsynced before
// Append returns: the caller may apply the operation afterwards.
func (w *WAL) Append(r *Record) error {
	frame := Encode(r)
	n, err := w.file.Write(frame)
	if err != nil {
		return err
	}
	w.offset += int64(n)
	if err := w.file.Sync(); err != nil {
		return err
	}
	if w.shouldRotate() {
		return w.rotate()
	}
	return nil
}

func (w *WAL) shouldRotate() bool {
	return w.offset >= w.cfg.SegmentSize ||
		time.Since(w.lastRotation) >= w.cfg.SegmentDuration
}

func (w *WAL) rotate() error {
	if err := w.file.Close(); err != nil {
		return err
	}
	w.segmentIndex++
	w.lastRotation = time.Now()
	return w.openSegment(w.segmentIndex)
}

func (w *WAL) Close() error {
	return w.file.Close()
}

type segmentFile struct {
	path  string
	index int
}

func listSegments(dir string) ([]segmentFile, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "segment-*.wal"))
	if err != nil {
		return nil, err
	}
	out := make([]segmentFile, 0, len(paths))
	for _, p := range paths {
		var idx int
		if _, err := fmt.Sscanf(filepath.Base(p), "segment-%06d.wal", &idx); err != nil {
			continue
		}
		out = append(out, segmentFile{path: p, index: idx})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].index < out[j].index })
	return out, nil
}
