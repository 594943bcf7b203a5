// Package pb defines the engine's RPC messages and their protobuf wire
// encoding. Messages are encoded by hand with protowire rather than
// generated code; field numbers are stable and zero values are omitted
// per proto3 convention.
package pb

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Name is the codec name registered with gRPC.
const Name = "solstice"

// Message is implemented by every RPC message in this package.
type Message interface {
	MarshalWire() []byte
	UnmarshalWire(data []byte) error
}

// Codec adapts Message to gRPC's encoding.Codec. Install it with
// grpc.ForceServerCodec on servers and grpc.ForceCodec per call on
// clients.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(Message)
	if !ok {
		return nil, fmt.Errorf("pb: %T does not implement Message", v)
	}
	return m.MarshalWire(), nil
}

func (Codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(Message)
	if !ok {
		return fmt.Errorf("pb: %T does not implement Message", v)
	}
	return m.UnmarshalWire(data)
}

func (Codec) Name() string { return Name }

// ──────────────────────────────────────────────────────────
// wire helpers
// ──────────────────────────────────────────────────────────

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendStringField(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// walk dispatches each field to fn: varint fields arrive in vint,
// length-delimited fields in vbytes. Unknown wire types are skipped.
func walk(data []byte, fn func(num protowire.Number, vint uint64, vbytes []byte) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]

		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			data = data[n:]
			if err := fn(num, v, nil); err != nil {
				return err
			}
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			data = data[n:]
			if err := fn(num, 0, v); err != nil {
				return err
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			data = data[n:]
		}
	}
	return nil
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return append([]byte(nil), b...)
}
