package order

import "encoding/json"

// EventType tags a domain event for external consumers.
type EventType string

const (
	EventOrderCreated   EventType = "order_created"
	EventOrderCancelled EventType = "order_cancelled"
	EventOrderMatched   EventType = "order_matched"
	EventOrderFilled    EventType = "order_filled"
	EventChunkRevealed  EventType = "chunk_revealed"
	EventTradeExecuted  EventType = "trade_executed"
)

// Event is the envelope appended to the outbox on every successful
// mutation. It carries plaintext metadata only: ids, addresses, tags,
// timestamps. Ciphertext content never leaves through events.
type Event struct {
	V    int       `json:"v"`
	Seq  uint64    `json:"seq"`
	Type EventType `json:"type"`
	Time int64     `json:"time"`

	OrderID uint64 `json:"orderId,omitempty"`
	MatchID uint64 `json:"matchId,omitempty"`
	TradeID uint64 `json:"tradeId,omitempty"`

	Creator string `json:"creator,omitempty"`
	Buyer   string `json:"buyer,omitempty"`
	Seller  string `json:"seller,omitempty"`

	Kind        string `json:"kind,omitempty"`
	Status      string `json:"status,omitempty"`
	InputToken  string `json:"inputToken,omitempty"`
	OutputToken string `json:"outputToken,omitempty"`

	BuyOrderID  uint64 `json:"buyOrderId,omitempty"`
	SellOrderID uint64 `json:"sellOrderId,omitempty"`
}

func (e *Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

func DecodeEvent(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
