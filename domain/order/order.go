// Package order holds the pure domain entities of the confidential
// matching engine: orders, match results, their status machine, the
// error taxonomy, and the domain events emitted on mutation.
package order

import (
	"solstice/domain/fhe"
)

type Kind uint8

const (
	Limit Kind = iota
	Market
	Iceberg
	// Stop is reserved; accepted as a tag with standard lifecycle only.
	Stop
)

func (k Kind) String() string {
	switch k {
	case Limit:
		return "Limit"
	case Market:
		return "Market"
	case Iceberg:
		return "Iceberg"
	case Stop:
		return "Stop"
	default:
		return "Unknown"
	}
}

type Status uint8

const (
	Pending Status = iota
	PartiallyFilled
	Filled
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "Pending"
	case PartiallyFilled:
		return "PartiallyFilled"
	case Filled:
		return "Filled"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transition is permitted.
func (s Status) Terminal() bool {
	return s == Filled || s == Cancelled
}

// CanTransition enforces the monotonic lifecycle:
// Pending → PartiallyFilled → Filled, or Pending → Cancelled.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case Pending:
		return to == PartiallyFilled || to == Filled || to == Cancelled
	case PartiallyFilled:
		return to == Filled
	default:
		return false
	}
}

// Order is a submitted swap intent. Token identities are public;
// amounts and price bounds exist only as ciphertext handles. Ciphertext
// fields are assigned at creation and never change, with one exception:
// an iceberg reveal replaces VisibleAmount (and the matching-facing
// InputAmount alias) while the committed TotalAmount stays fixed.
type Order struct {
	ID      uint64
	Creator string
	Kind    Kind
	Status  Status

	InputToken  string
	OutputToken string

	InputAmount  fhe.Handle
	OutputAmount fhe.Handle
	MinPrice     fhe.Handle
	MaxPrice     fhe.Handle

	CreatedAt int64

	// FilledAmount is reserved for a future proportional-fill path; no
	// current operation advances it.
	FilledAmount uint64

	// Iceberg fields; zero for other kinds.
	TotalAmount    fhe.Handle
	VisibleAmount  fhe.Handle
	RevealInterval int64
	LastRevealTime int64
}

func (o *Order) IsIceberg() bool {
	return o.Kind == Iceberg
}

// RevealDue reports whether the minimum reveal interval has elapsed at
// the given unix time.
func (o *Order) RevealDue(now int64) bool {
	return now-o.LastRevealTime >= o.RevealInterval
}

// Complementary reports whether two orders form opposite sides of the
// same token pair. A plaintext check: token identity is public.
func Complementary(buy, sell *Order) bool {
	return buy.InputToken == sell.OutputToken && buy.OutputToken == sell.InputToken
}

// Info is the public projection of an order. It deliberately excludes
// ciphertext handles; those are served by EncryptedValues.
type Info struct {
	ID          uint64 `json:"id"`
	Creator     string `json:"creator"`
	Kind        Kind   `json:"kind"`
	Status      Status `json:"status"`
	InputToken  string `json:"inputToken"`
	OutputToken string `json:"outputToken"`
	CreatedAt   int64  `json:"createdAt"`
}

func (o *Order) Info() Info {
	return Info{
		ID:          o.ID,
		Creator:     o.Creator,
		Kind:        o.Kind,
		Status:      o.Status,
		InputToken:  o.InputToken,
		OutputToken: o.OutputToken,
		CreatedAt:   o.CreatedAt,
	}
}

// EncryptedValues exposes the raw ciphertext handles of an order.
// Handles leak nothing by themselves; decryption authorization is
// enforced separately at the gate.
type EncryptedValues struct {
	InputAmount  fhe.Handle `json:"inputAmount"`
	OutputAmount fhe.Handle `json:"outputAmount"`
	MinPrice     fhe.Handle `json:"minPrice"`
	MaxPrice     fhe.Handle `json:"maxPrice"`

	TotalAmount   fhe.Handle `json:"totalAmount,omitempty"`
	VisibleAmount fhe.Handle `json:"visibleAmount,omitempty"`
}

func (o *Order) EncryptedValues() EncryptedValues {
	return EncryptedValues{
		InputAmount:   o.InputAmount,
		OutputAmount:  o.OutputAmount,
		MinPrice:      o.MinPrice,
		MaxPrice:      o.MaxPrice,
		TotalAmount:   o.TotalAmount,
		VisibleAmount: o.VisibleAmount,
	}
}
