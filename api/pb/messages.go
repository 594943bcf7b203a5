package pb

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// CiphertextInput is a submitted encrypted value plus its proof.
type CiphertextInput struct {
	Handle []byte
	Proof  []byte
}

func (m *CiphertextInput) MarshalWire() []byte {
	var b []byte
	b = appendBytesField(b, 1, m.Handle)
	b = appendBytesField(b, 2, m.Proof)
	return b
}

func (m *CiphertextInput) UnmarshalWire(data []byte) error {
	return walk(data, func(num protowire.Number, vi uint64, vb []byte) error {
		switch num {
		case 1:
			m.Handle = cloneBytes(vb)
		case 2:
			m.Proof = cloneBytes(vb)
		}
		return nil
	})
}

// appendMessageField skips absent sub-messages; the pointer constraint
// keeps the nil check on the concrete pointer, not the interface.
func appendMessageField[T any, P interface {
	*T
	Message
}](b []byte, num protowire.Number, m P) []byte {
	if m == nil {
		return b
	}
	return appendBytesField(b, num, m.MarshalWire())
}

type CreateOrderRequest struct {
	Creator      string
	Kind         uint32
	InputToken   string
	OutputToken  string
	InputAmount  *CiphertextInput
	OutputAmount *CiphertextInput
	MinPrice     *CiphertextInput
	MaxPrice     *CiphertextInput
}

func (m *CreateOrderRequest) MarshalWire() []byte {
	var b []byte
	b = appendStringField(b, 1, m.Creator)
	b = appendVarintField(b, 2, uint64(m.Kind))
	b = appendStringField(b, 3, m.InputToken)
	b = appendStringField(b, 4, m.OutputToken)
	b = appendMessageField(b, 5, m.InputAmount)
	b = appendMessageField(b, 6, m.OutputAmount)
	b = appendMessageField(b, 7, m.MinPrice)
	b = appendMessageField(b, 8, m.MaxPrice)
	return b
}

func (m *CreateOrderRequest) UnmarshalWire(data []byte) error {
	return walk(data, func(num protowire.Number, vi uint64, vb []byte) error {
		switch num {
		case 1:
			m.Creator = string(vb)
		case 2:
			m.Kind = uint32(vi)
		case 3:
			m.InputToken = string(vb)
		case 4:
			m.OutputToken = string(vb)
		case 5, 6, 7, 8:
			in := &CiphertextInput{}
			if err := in.UnmarshalWire(vb); err != nil {
				return err
			}
			switch num {
			case 5:
				m.InputAmount = in
			case 6:
				m.OutputAmount = in
			case 7:
				m.MinPrice = in
			case 8:
				m.MaxPrice = in
			}
		}
		return nil
	})
}

type CreateOrderResponse struct {
	OrderId uint64
}

func (m *CreateOrderResponse) MarshalWire() []byte {
	return appendVarintField(nil, 1, m.OrderId)
}

func (m *CreateOrderResponse) UnmarshalWire(data []byte) error {
	return walk(data, func(num protowire.Number, vi uint64, vb []byte) error {
		if num == 1 {
			m.OrderId = vi
		}
		return nil
	})
}

type CreateIcebergOrderRequest struct {
	Creator        string
	InputToken     string
	OutputToken    string
	RevealInterval int64
	TotalAmount    *CiphertextInput
	VisibleAmount  *CiphertextInput
	OutputAmount   *CiphertextInput
	MinPrice       *CiphertextInput
	MaxPrice       *CiphertextInput
}

func (m *CreateIcebergOrderRequest) MarshalWire() []byte {
	var b []byte
	b = appendStringField(b, 1, m.Creator)
	b = appendStringField(b, 2, m.InputToken)
	b = appendStringField(b, 3, m.OutputToken)
	b = appendVarintField(b, 4, uint64(m.RevealInterval))
	b = appendMessageField(b, 5, m.TotalAmount)
	b = appendMessageField(b, 6, m.VisibleAmount)
	b = appendMessageField(b, 7, m.OutputAmount)
	b = appendMessageField(b, 8, m.MinPrice)
	b = appendMessageField(b, 9, m.MaxPrice)
	return b
}

func (m *CreateIcebergOrderRequest) UnmarshalWire(data []byte) error {
	return walk(data, func(num protowire.Number, vi uint64, vb []byte) error {
		switch num {
		case 1:
			m.Creator = string(vb)
		case 2:
			m.InputToken = string(vb)
		case 3:
			m.OutputToken = string(vb)
		case 4:
			m.RevealInterval = int64(vi)
		case 5, 6, 7, 8, 9:
			in := &CiphertextInput{}
			if err := in.UnmarshalWire(vb); err != nil {
				return err
			}
			switch num {
			case 5:
				m.TotalAmount = in
			case 6:
				m.VisibleAmount = in
			case 7:
				m.OutputAmount = in
			case 8:
				m.MinPrice = in
			case 9:
				m.MaxPrice = in
			}
		}
		return nil
	})
}

type CancelOrderRequest struct {
	Caller  string
	OrderId uint64
}

func (m *CancelOrderRequest) MarshalWire() []byte {
	var b []byte
	b = appendStringField(b, 1, m.Caller)
	b = appendVarintField(b, 2, m.OrderId)
	return b
}

func (m *CancelOrderRequest) UnmarshalWire(data []byte) error {
	return walk(data, func(num protowire.Number, vi uint64, vb []byte) error {
		switch num {
		case 1:
			m.Caller = string(vb)
		case 2:
			m.OrderId = vi
		}
		return nil
	})
}

type RevealChunkRequest struct {
	Caller  string
	OrderId uint64
}

func (m *RevealChunkRequest) MarshalWire() []byte {
	var b []byte
	b = appendStringField(b, 1, m.Caller)
	b = appendVarintField(b, 2, m.OrderId)
	return b
}

func (m *RevealChunkRequest) UnmarshalWire(data []byte) error {
	return walk(data, func(num protowire.Number, vi uint64, vb []byte) error {
		switch num {
		case 1:
			m.Caller = string(vb)
		case 2:
			m.OrderId = vi
		}
		return nil
	})
}

type MatchOrdersRequest struct {
	Caller      string
	BuyOrderId  uint64
	SellOrderId uint64
}

func (m *MatchOrdersRequest) MarshalWire() []byte {
	var b []byte
	b = appendStringField(b, 1, m.Caller)
	b = appendVarintField(b, 2, m.BuyOrderId)
	b = appendVarintField(b, 3, m.SellOrderId)
	return b
}

func (m *MatchOrdersRequest) UnmarshalWire(data []byte) error {
	return walk(data, func(num protowire.Number, vi uint64, vb []byte) error {
		switch num {
		case 1:
			m.Caller = string(vb)
		case 2:
			m.BuyOrderId = vi
		case 3:
			m.SellOrderId = vi
		}
		return nil
	})
}

type MatchOrdersResponse struct {
	MatchId uint64
}

func (m *MatchOrdersResponse) MarshalWire() []byte {
	return appendVarintField(nil, 1, m.MatchId)
}

func (m *MatchOrdersResponse) UnmarshalWire(data []byte) error {
	return walk(data, func(num protowire.Number, vi uint64, vb []byte) error {
		if num == 1 {
			m.MatchId = vi
		}
		return nil
	})
}

type ExecuteTradeRequest struct {
	Caller  string
	MatchId uint64
}

func (m *ExecuteTradeRequest) MarshalWire() []byte {
	var b []byte
	b = appendStringField(b, 1, m.Caller)
	b = appendVarintField(b, 2, m.MatchId)
	return b
}

func (m *ExecuteTradeRequest) UnmarshalWire(data []byte) error {
	return walk(data, func(num protowire.Number, vi uint64, vb []byte) error {
		switch num {
		case 1:
			m.Caller = string(vb)
		case 2:
			m.MatchId = vi
		}
		return nil
	})
}

// Ack is the empty success response for commands without a payload.
type Ack struct{}

func (m *Ack) MarshalWire() []byte { return nil }
func (m *Ack) UnmarshalWire(data []byte) error {
	return walk(data, func(protowire.Number, uint64, []byte) error { return nil })
}

type GetOrderRequest struct {
	OrderId uint64
}

func (m *GetOrderRequest) MarshalWire() []byte {
	return appendVarintField(nil, 1, m.OrderId)
}

func (m *GetOrderRequest) UnmarshalWire(data []byte) error {
	return walk(data, func(num protowire.Number, vi uint64, vb []byte) error {
		if num == 1 {
			m.OrderId = vi
		}
		return nil
	})
}

type GetOrderResponse struct {
	OrderId     uint64
	Creator     string
	Kind        uint32
	Status      uint32
	InputToken  string
	OutputToken string
	CreatedAt   int64
}

func (m *GetOrderResponse) MarshalWire() []byte {
	var b []byte
	b = appendVarintField(b, 1, m.OrderId)
	b = appendStringField(b, 2, m.Creator)
	b = appendVarintField(b, 3, uint64(m.Kind))
	b = appendVarintField(b, 4, uint64(m.Status))
	b = appendStringField(b, 5, m.InputToken)
	b = appendStringField(b, 6, m.OutputToken)
	b = appendVarintField(b, 7, uint64(m.CreatedAt))
	return b
}

func (m *GetOrderResponse) UnmarshalWire(data []byte) error {
	return walk(data, func(num protowire.Number, vi uint64, vb []byte) error {
		switch num {
		case 1:
			m.OrderId = vi
		case 2:
			m.Creator = string(vb)
		case 3:
			m.Kind = uint32(vi)
		case 4:
			m.Status = uint32(vi)
		case 5:
			m.InputToken = string(vb)
		case 6:
			m.OutputToken = string(vb)
		case 7:
			m.CreatedAt = int64(vi)
		}
		return nil
	})
}

type EncryptedValuesResponse struct {
	InputAmount   []byte
	OutputAmount  []byte
	MinPrice      []byte
	MaxPrice      []byte
	TotalAmount   []byte
	VisibleAmount []byte
}

func (m *EncryptedValuesResponse) MarshalWire() []byte {
	var b []byte
	b = appendBytesField(b, 1, m.InputAmount)
	b = appendBytesField(b, 2, m.OutputAmount)
	b = appendBytesField(b, 3, m.MinPrice)
	b = appendBytesField(b, 4, m.MaxPrice)
	b = appendBytesField(b, 5, m.TotalAmount)
	b = appendBytesField(b, 6, m.VisibleAmount)
	return b
}

func (m *EncryptedValuesResponse) UnmarshalWire(data []byte) error {
	return walk(data, func(num protowire.Number, vi uint64, vb []byte) error {
		switch num {
		case 1:
			m.InputAmount = cloneBytes(vb)
		case 2:
			m.OutputAmount = cloneBytes(vb)
		case 3:
			m.MinPrice = cloneBytes(vb)
		case 4:
			m.MaxPrice = cloneBytes(vb)
		case 5:
			m.TotalAmount = cloneBytes(vb)
		case 6:
			m.VisibleAmount = cloneBytes(vb)
		}
		return nil
	})
}

type GetMatchRequest struct {
	MatchId uint64
}

func (m *GetMatchRequest) MarshalWire() []byte {
	return appendVarintField(nil, 1, m.MatchId)
}

func (m *GetMatchRequest) UnmarshalWire(data []byte) error {
	return walk(data, func(num protowire.Number, vi uint64, vb []byte) error {
		if num == 1 {
			m.MatchId = vi
		}
		return nil
	})
}

type GetMatchResponse struct {
	MatchId     uint64
	BuyOrderId  uint64
	SellOrderId uint64
	TradeAmount []byte
	TradePrice  []byte
	Timestamp   int64
}

func (m *GetMatchResponse) MarshalWire() []byte {
	var b []byte
	b = appendVarintField(b, 1, m.MatchId)
	b = appendVarintField(b, 2, m.BuyOrderId)
	b = appendVarintField(b, 3, m.SellOrderId)
	b = appendBytesField(b, 4, m.TradeAmount)
	b = appendBytesField(b, 5, m.TradePrice)
	b = appendVarintField(b, 6, uint64(m.Timestamp))
	return b
}

func (m *GetMatchResponse) UnmarshalWire(data []byte) error {
	return walk(data, func(num protowire.Number, vi uint64, vb []byte) error {
		switch num {
		case 1:
			m.MatchId = vi
		case 2:
			m.BuyOrderId = vi
		case 3:
			m.SellOrderId = vi
		case 4:
			m.TradeAmount = cloneBytes(vb)
		case 5:
			m.TradePrice = cloneBytes(vb)
		case 6:
			m.Timestamp = int64(vi)
		}
		return nil
	})
}

type StatsRequest struct{}

func (m *StatsRequest) MarshalWire() []byte             { return nil }
func (m *StatsRequest) UnmarshalWire(data []byte) error { return (&Ack{}).UnmarshalWire(data) }

type StatsResponse struct {
	NextOrderId      uint64
	NextMatchId      uint64
	PendingBuyCount  uint64
	PendingSellCount uint64
}

func (m *StatsResponse) MarshalWire() []byte {
	var b []byte
	b = appendVarintField(b, 1, m.NextOrderId)
	b = appendVarintField(b, 2, m.NextMatchId)
	b = appendVarintField(b, 3, m.PendingBuyCount)
	b = appendVarintField(b, 4, m.PendingSellCount)
	return b
}

func (m *StatsResponse) UnmarshalWire(data []byte) error {
	return walk(data, func(num protowire.Number, vi uint64, vb []byte) error {
		switch num {
		case 1:
			m.NextOrderId = vi
		case 2:
			m.NextMatchId = vi
		case 3:
			m.PendingBuyCount = vi
		case 4:
			m.PendingSellCount = vi
		}
		return nil
	})
}

type Authorization struct {
	PublicKey      []byte
	Signature      []byte
	StartTimestamp int64
	DurationDays   uint32
	Contracts      []string
}

func (m *Authorization) MarshalWire() []byte {
	var b []byte
	b = appendBytesField(b, 1, m.PublicKey)
	b = appendBytesField(b, 2, m.Signature)
	b = appendVarintField(b, 3, uint64(m.StartTimestamp))
	b = appendVarintField(b, 4, uint64(m.DurationDays))
	for _, c := range m.Contracts {
		b = appendStringField(b, 5, c)
	}
	return b
}

func (m *Authorization) UnmarshalWire(data []byte) error {
	return walk(data, func(num protowire.Number, vi uint64, vb []byte) error {
		switch num {
		case 1:
			m.PublicKey = cloneBytes(vb)
		case 2:
			m.Signature = cloneBytes(vb)
		case 3:
			m.StartTimestamp = int64(vi)
		case 4:
			m.DurationDays = uint32(vi)
		case 5:
			m.Contracts = append(m.Contracts, string(vb))
		}
		return nil
	})
}

type DecryptOrderRequest struct {
	Caller  string
	OrderId uint64
	Auth    *Authorization
}

func (m *DecryptOrderRequest) MarshalWire() []byte {
	var b []byte
	b = appendStringField(b, 1, m.Caller)
	b = appendVarintField(b, 2, m.OrderId)
	b = appendMessageField(b, 3, m.Auth)
	return b
}

func (m *DecryptOrderRequest) UnmarshalWire(data []byte) error {
	return walk(data, func(num protowire.Number, vi uint64, vb []byte) error {
		switch num {
		case 1:
			m.Caller = string(vb)
		case 2:
			m.OrderId = vi
		case 3:
			m.Auth = &Authorization{}
			return m.Auth.UnmarshalWire(vb)
		}
		return nil
	})
}

// Decrypted values travel as big-endian unsigned integers.
type DecryptOrderResponse struct {
	InputAmount   []byte
	OutputAmount  []byte
	MinPrice      []byte
	MaxPrice      []byte
	TotalAmount   []byte
	VisibleAmount []byte
}

func (m *DecryptOrderResponse) MarshalWire() []byte {
	var b []byte
	b = appendBytesField(b, 1, m.InputAmount)
	b = appendBytesField(b, 2, m.OutputAmount)
	b = appendBytesField(b, 3, m.MinPrice)
	b = appendBytesField(b, 4, m.MaxPrice)
	b = appendBytesField(b, 5, m.TotalAmount)
	b = appendBytesField(b, 6, m.VisibleAmount)
	return b
}

func (m *DecryptOrderResponse) UnmarshalWire(data []byte) error {
	return walk(data, func(num protowire.Number, vi uint64, vb []byte) error {
		switch num {
		case 1:
			m.InputAmount = cloneBytes(vb)
		case 2:
			m.OutputAmount = cloneBytes(vb)
		case 3:
			m.MinPrice = cloneBytes(vb)
		case 4:
			m.MaxPrice = cloneBytes(vb)
		case 5:
			m.TotalAmount = cloneBytes(vb)
		case 6:
			m.VisibleAmount = cloneBytes(vb)
		}
		return nil
	})
}

type DecryptMatchRequest struct {
	Caller  string
	MatchId uint64
	Auth    *Authorization
}

func (m *DecryptMatchRequest) MarshalWire() []byte {
	var b []byte
	b = appendStringField(b, 1, m.Caller)
	b = appendVarintField(b, 2, m.MatchId)
	b = appendMessageField(b, 3, m.Auth)
	return b
}

func (m *DecryptMatchRequest) UnmarshalWire(data []byte) error {
	return walk(data, func(num protowire.Number, vi uint64, vb []byte) error {
		switch num {
		case 1:
			m.Caller = string(vb)
		case 2:
			m.MatchId = vi
		case 3:
			m.Auth = &Authorization{}
			return m.Auth.UnmarshalWire(vb)
		}
		return nil
	})
}

type DecryptMatchResponse struct {
	TradeAmount []byte
	TradePrice  []byte
}

func (m *DecryptMatchResponse) MarshalWire() []byte {
	var b []byte
	b = appendBytesField(b, 1, m.TradeAmount)
	b = appendBytesField(b, 2, m.TradePrice)
	return b
}

func (m *DecryptMatchResponse) UnmarshalWire(data []byte) error {
	return walk(data, func(num protowire.Number, vi uint64, vb []byte) error {
		switch num {
		case 1:
			m.TradeAmount = cloneBytes(vb)
		case 2:
			m.TradePrice = cloneBytes(vb)
		}
		return nil
	})
}
