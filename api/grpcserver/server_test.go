package grpcserver

import (
	"context"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"solstice/api/pb"
	"solstice/domain/fhe"
	"solstice/domain/order"
	"solstice/infra/wal"
	"solstice/service"
)

const testScope = "solstice-engine"

func startServer(t *testing.T, mc *fhe.MockCompute) *pb.EngineClient {
	t.Helper()

	w, err := wal.Open(wal.Config{Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	svc := service.New(mc, w)
	gate := service.NewGate(svc, mc, testScope)

	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(svc, gate)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return pb.NewEngineClient(conn)
}

func pbInput(mc *fhe.MockCompute, v uint64) *pb.CiphertextInput {
	h, p := mc.EncryptUint64(v)
	return &pb.CiphertextInput{Handle: h[:], Proof: p}
}

func createOrderReq(mc *fhe.MockCompute, creator, in, out string, amtIn, amtOut, min, max uint64) *pb.CreateOrderRequest {
	return &pb.CreateOrderRequest{
		Creator:      creator,
		Kind:         uint32(order.Limit),
		InputToken:   in,
		OutputToken:  out,
		InputAmount:  pbInput(mc, amtIn),
		OutputAmount: pbInput(mc, amtOut),
		MinPrice:     pbInput(mc, min),
		MaxPrice:     pbInput(mc, max),
	}
}

func signedAuth(priv *secp256k1.PrivateKey) *pb.Authorization {
	a := &fhe.Authorization{
		Contracts:      []string{testScope},
		StartTimestamp: time.Now().Add(-time.Minute).Unix(),
		DurationDays:   1,
	}
	a.Sign(priv)
	return &pb.Authorization{
		PublicKey:      a.PublicKey,
		Contracts:      a.Contracts,
		StartTimestamp: a.StartTimestamp,
		DurationDays:   a.DurationDays,
		Signature:      a.Signature,
	}
}

func TestFullTradeFlowOverRPC(t *testing.T) {
	mc := fhe.NewMockCompute()
	client := startServer(t, mc)
	ctx := context.Background()

	buyResp, err := client.CreateOrder(ctx, createOrderReq(mc, "0xbuyer", "ETH", "USDC", 100, 150000, 1400, 1600))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), buyResp.OrderId)

	sellResp, err := client.CreateOrder(ctx, createOrderReq(mc, "0xseller", "USDC", "ETH", 150000, 100, 1500, 1700))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), sellResp.OrderId)

	stats, err := client.GetStats(ctx, &pb.StatsRequest{})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), stats.NextOrderId)
	assert.Equal(t, uint64(1), stats.PendingBuyCount)
	assert.Equal(t, uint64(1), stats.PendingSellCount)

	matchResp, err := client.MatchOrders(ctx, &pb.MatchOrdersRequest{
		Caller: "0xkeeper", BuyOrderId: buyResp.OrderId, SellOrderId: sellResp.OrderId,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), matchResp.MatchId)

	m, err := client.GetMatchResult(ctx, &pb.GetMatchRequest{MatchId: matchResp.MatchId})
	require.NoError(t, err)
	assert.Equal(t, buyResp.OrderId, m.BuyOrderId)
	assert.Equal(t, sellResp.OrderId, m.SellOrderId)
	assert.Len(t, m.TradeAmount, 32)
	assert.Len(t, m.TradePrice, 32)

	_, err = client.ExecuteTrade(ctx, &pb.ExecuteTradeRequest{Caller: "0xkeeper", MatchId: matchResp.MatchId})
	require.NoError(t, err)

	got, err := client.GetOrder(ctx, &pb.GetOrderRequest{OrderId: buyResp.OrderId})
	require.NoError(t, err)
	assert.Equal(t, uint32(order.Filled), got.Status)
	assert.Equal(t, "0xbuyer", got.Creator)
	assert.Equal(t, "ETH", got.InputToken)

	// re-execution surfaces as a precondition failure
	_, err = client.ExecuteTrade(ctx, &pb.ExecuteTradeRequest{Caller: "0xkeeper", MatchId: matchResp.MatchId})
	require.Error(t, err)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestErrorCodeMapping(t *testing.T) {
	mc := fhe.NewMockCompute()
	client := startServer(t, mc)
	ctx := context.Background()

	_, err := client.GetOrder(ctx, &pb.GetOrderRequest{OrderId: 99})
	assert.Equal(t, codes.NotFound, status.Code(err))

	resp, err := client.CreateOrder(ctx, createOrderReq(mc, "0xalice", "ETH", "USDC", 100, 150000, 1400, 1600))
	require.NoError(t, err)

	_, err = client.CancelOrder(ctx, &pb.CancelOrderRequest{Caller: "0xmallory", OrderId: resp.OrderId})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = client.MatchOrders(ctx, &pb.MatchOrdersRequest{
		Caller: "0xkeeper", BuyOrderId: resp.OrderId, SellOrderId: resp.OrderId,
	})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.CreateOrder(ctx, &pb.CreateOrderRequest{Creator: "0xalice", InputToken: "ETH", OutputToken: "USDC"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestIcebergOverRPC(t *testing.T) {
	mc := fhe.NewMockCompute()
	client := startServer(t, mc)
	ctx := context.Background()

	resp, err := client.CreateIcebergOrder(ctx, &pb.CreateIcebergOrderRequest{
		Creator:        "0xalice",
		InputToken:     "ETH",
		OutputToken:    "USDC",
		TotalAmount:    pbInput(mc, 1000),
		VisibleAmount:  pbInput(mc, 100),
		OutputAmount:   pbInput(mc, 150000),
		MinPrice:       pbInput(mc, 1400),
		MaxPrice:       pbInput(mc, 1600),
		RevealInterval: 3600,
	})
	require.NoError(t, err)

	enc, err := client.GetOrderEncryptedValues(ctx, &pb.GetOrderRequest{OrderId: resp.OrderId})
	require.NoError(t, err)
	assert.Equal(t, enc.VisibleAmount, enc.InputAmount)
	assert.Len(t, enc.TotalAmount, 32)

	// interval has not elapsed yet
	_, err = client.RevealNextChunk(ctx, &pb.RevealChunkRequest{Caller: "0xkeeper", OrderId: resp.OrderId})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestDecryptOverRPC(t *testing.T) {
	mc := fhe.NewMockCompute()
	client := startServer(t, mc)
	ctx := context.Background()

	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	creator := fhe.AddressFromPublicKey(priv.PubKey().SerializeCompressed())

	resp, err := client.CreateOrder(ctx, createOrderReq(mc, creator, "ETH", "USDC", 100, 150000, 1400, 1600))
	require.NoError(t, err)

	pt, err := client.DecryptOrder(ctx, &pb.DecryptOrderRequest{
		Caller: creator, OrderId: resp.OrderId, Auth: signedAuth(priv),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(100), new(big.Int).SetBytes(pt.InputAmount).Uint64())
	assert.Equal(t, uint64(150000), new(big.Int).SetBytes(pt.OutputAmount).Uint64())
	assert.Equal(t, uint64(1400), new(big.Int).SetBytes(pt.MinPrice).Uint64())
	assert.Equal(t, uint64(1600), new(big.Int).SetBytes(pt.MaxPrice).Uint64())
	assert.Empty(t, pt.TotalAmount)

	// a different caller with their own valid authorization is refused
	otherPriv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	other := fhe.AddressFromPublicKey(otherPriv.PubKey().SerializeCompressed())
	_, err = client.DecryptOrder(ctx, &pb.DecryptOrderRequest{
		Caller: other, OrderId: resp.OrderId, Auth: signedAuth(otherPriv),
	})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	// decryption without any authorization is refused
	_, err = client.DecryptOrder(ctx, &pb.DecryptOrderRequest{Caller: creator, OrderId: resp.OrderId})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}
