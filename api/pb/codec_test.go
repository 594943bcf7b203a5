package pb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTripNestedMessage(t *testing.T) {
	in := &CreateOrderRequest{
		Creator:     "0xalice",
		Kind:        1,
		InputToken:  "ETH",
		OutputToken: "USDC",
		InputAmount: &CiphertextInput{Handle: []byte("handle-a"), Proof: []byte("proof-a")},
		MinPrice:    &CiphertextInput{Handle: []byte("handle-b")},
	}

	data, err := Codec{}.Marshal(in)
	require.NoError(t, err)

	out := &CreateOrderRequest{}
	require.NoError(t, Codec{}.Unmarshal(data, out))

	assert.Equal(t, in, out)
	// absent sub-messages stay absent, they do not decode as empty
	assert.Nil(t, out.OutputAmount)
	assert.Nil(t, out.MaxPrice)
}

func TestCodecRoundTripRepeatedField(t *testing.T) {
	in := &DecryptOrderRequest{
		Caller:  "0xalice",
		OrderId: 7,
		Auth: &Authorization{
			PublicKey:      []byte{0x02, 0x01},
			Signature:      []byte{0x30, 0x01},
			StartTimestamp: 1_700_000_000,
			DurationDays:   7,
			Contracts:      []string{"solstice-engine", "other-scope"},
		},
	}

	data, err := Codec{}.Marshal(in)
	require.NoError(t, err)

	out := &DecryptOrderRequest{}
	require.NoError(t, Codec{}.Unmarshal(data, out))
	assert.Equal(t, in, out)
}

func TestCodecNilAuthStaysNil(t *testing.T) {
	in := &DecryptOrderRequest{Caller: "0xalice", OrderId: 7}

	data, err := Codec{}.Marshal(in)
	require.NoError(t, err)

	out := &DecryptOrderRequest{}
	require.NoError(t, Codec{}.Unmarshal(data, out))
	assert.Nil(t, out.Auth)
	assert.Equal(t, in, out)
}

func TestCodecRejectsForeignType(t *testing.T) {
	_, err := Codec{}.Marshal(struct{}{})
	assert.Error(t, err)
	assert.Error(t, Codec{}.Unmarshal(nil, struct{}{}))
}
