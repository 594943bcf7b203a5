package wal

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// RecordType names the operation a log record carries. One record per
// state-changing operation; the payload is the operation's full data.
type RecordType uint8

const (
	RecordOrderCreated RecordType = iota
	RecordIcebergCreated
	RecordOrderCancelled
	RecordChunkRevealed
	RecordOrdersMatched
	RecordTradeExecuted
)

// Record is an immutable operation-log entry. Seq totally orders all
// mutations; replaying records in Seq order rebuilds the exact state.
type Record struct {
	Type    RecordType
	Seq     uint64
	Time    int64
	Payload []byte
}

func NewRecord(t RecordType, seq uint64, payload []byte) *Record {
	return &Record{
		Type:    t,
		Seq:     seq,
		Time:    time.Now().UnixNano(),
		Payload: payload,
	}
}

var (
	ErrCorruptRecord = errors.New("wal: corrupt record")
	ErrShortFrame    = errors.New("wal: truncated frame")
)

// Records are framed as [len u32 LE][crc u32 LE][body], with the body
// in protobuf wire format:
//
//	1: type   (varint)
//	2: seq    (varint)
//	3: time   (varint, unix nanos)
//	4: payload (bytes)
const frameHeaderSize = 8

func encodeBody(r *Record) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.Type))
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, r.Seq)
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.Time))
	b = protowire.AppendTag(b, 4, protowire.BytesType)
	b = protowire.AppendBytes(b, r.Payload)
	return b
}

func decodeBody(body []byte) (*Record, error) {
	r := &Record{}
	for len(body) > 0 {
		num, typ, n := protowire.ConsumeTag(body)
		if n < 0 {
			return nil, ErrCorruptRecord
		}
		body = body[n:]

		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(body)
			if n < 0 {
				return nil, ErrCorruptRecord
			}
			body = body[n:]
			switch num {
			case 1:
				r.Type = RecordType(v)
			case 2:
				r.Seq = v
			case 3:
				r.Time = int64(v)
			}
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(body)
			if n < 0 {
				return nil, ErrCorruptRecord
			}
			body = body[n:]
			if num == 4 {
				r.Payload = append([]byte(nil), v...)
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, body)
			if n < 0 {
				return nil, ErrCorruptRecord
			}
			body = body[n:]
		}
	}
	return r, nil
}

// Encode frames a record for appending.
func Encode(r *Record) []byte {
	body := encodeBody(r)
	frame := make([]byte, frameHeaderSize, frameHeaderSize+len(body))
	binary.LittleEndian.PutUint32(frame[:4], uint32(len(body)))
	binary.LittleEndian.PutUint32(frame[4:8], crc32.ChecksumIEEE(body))
	return append(frame, body...)
}

// DecodeFrame reads one framed record from buf, returning the record
// and the number of bytes consumed. ErrShortFrame means buf ends
// mid-record (a torn tail after a crash): the caller stops there.
func DecodeFrame(buf []byte) (*Record, int, error) {
	if len(buf) < frameHeaderSize {
		return nil, 0, ErrShortFrame
	}
	size := binary.LittleEndian.Uint32(buf[:4])
	want := binary.LittleEndian.Uint32(buf[4:8])
	end := frameHeaderSize + int(size)
	if len(buf) < end {
		return nil, 0, ErrShortFrame
	}
	body := buf[frameHeaderSize:end]
	if crc32.ChecksumIEEE(body) != want {
		return nil, 0, ErrCorruptRecord
	}
	r, err := decodeBody(body)
	if err != nil {
		return nil, 0, err
	}
	return r, end, nil
}
