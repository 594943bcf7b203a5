// Package grpcserver adapts the engine and the decryption gate to the
// RPC surface in api/pb.
package grpcserver

import (
	"context"
	"math/big"

	log "github.com/inconshreveable/log15"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"solstice/api/pb"
	"solstice/domain/fhe"
	"solstice/domain/order"
	"solstice/service"
)

type Server struct {
	svc    *service.Engine
	gate   *service.Gate
	logger log.Logger
}

func NewServer(svc *service.Engine, gate *service.Gate) *Server {
	return &Server{svc: svc, gate: gate, logger: log.New("module", "grpc")}
}

// NewGRPCServer returns a grpc.Server with the engine service and the
// package codec installed.
func NewGRPCServer(svc *service.Engine, gate *service.Gate, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ForceServerCodec(pb.Codec{}))
	s := grpc.NewServer(opts...)
	pb.RegisterEngineServer(s, NewServer(svc, gate))
	return s
}

// toStatus maps the domain error taxonomy onto transport codes so UI
// collaborators can distinguish "not order creator" from "already
// filled" without parsing messages.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	kind, ok := order.KindOf(err)
	if !ok {
		return status.Error(codes.Internal, err.Error())
	}
	switch kind {
	case order.KindAuthorization:
		return status.Error(codes.PermissionDenied, err.Error())
	case order.KindNotFound:
		return status.Error(codes.NotFound, err.Error())
	case order.KindState:
		return status.Error(codes.FailedPrecondition, err.Error())
	case order.KindValidation:
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func toCiphertext(in *pb.CiphertextInput, field string) (service.CiphertextInput, error) {
	if in == nil {
		return service.CiphertextInput{}, status.Errorf(codes.InvalidArgument, "missing ciphertext for %s", field)
	}
	h, err := fhe.HandleFromBytes(in.Handle)
	if err != nil {
		return service.CiphertextInput{}, status.Errorf(codes.InvalidArgument, "bad handle for %s: %v", field, err)
	}
	return service.CiphertextInput{Handle: h, Proof: fhe.Proof(in.Proof)}, nil
}

func toAuth(in *pb.Authorization) *fhe.Authorization {
	if in == nil {
		return nil
	}
	return &fhe.Authorization{
		PublicKey:      in.PublicKey,
		Signature:      in.Signature,
		StartTimestamp: in.StartTimestamp,
		DurationDays:   in.DurationDays,
		Contracts:      in.Contracts,
	}
}

func bigBytes(v *big.Int) []byte {
	if v == nil {
		return nil
	}
	return v.Bytes()
}

// -------------------- Commands --------------------

func (s *Server) CreateOrder(ctx context.Context, req *pb.CreateOrderRequest) (*pb.CreateOrderResponse, error) {
	var p service.OrderParams
	var err error
	if p.InputAmount, err = toCiphertext(req.InputAmount, "inputAmount"); err != nil {
		return nil, err
	}
	if p.OutputAmount, err = toCiphertext(req.OutputAmount, "outputAmount"); err != nil {
		return nil, err
	}
	if p.MinPrice, err = toCiphertext(req.MinPrice, "minPrice"); err != nil {
		return nil, err
	}
	if p.MaxPrice, err = toCiphertext(req.MaxPrice, "maxPrice"); err != nil {
		return nil, err
	}

	id, err := s.svc.CreateOrder(req.Creator, order.Kind(req.Kind), req.InputToken, req.OutputToken, p)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.CreateOrderResponse{OrderId: id}, nil
}

func (s *Server) CreateIcebergOrder(ctx context.Context, req *pb.CreateIcebergOrderRequest) (*pb.CreateOrderResponse, error) {
	var p service.IcebergParams
	var err error
	if p.TotalAmount, err = toCiphertext(req.TotalAmount, "totalAmount"); err != nil {
		return nil, err
	}
	if p.VisibleAmount, err = toCiphertext(req.VisibleAmount, "visibleAmount"); err != nil {
		return nil, err
	}
	if p.OutputAmount, err = toCiphertext(req.OutputAmount, "outputAmount"); err != nil {
		return nil, err
	}
	if p.MinPrice, err = toCiphertext(req.MinPrice, "minPrice"); err != nil {
		return nil, err
	}
	if p.MaxPrice, err = toCiphertext(req.MaxPrice, "maxPrice"); err != nil {
		return nil, err
	}

	id, err := s.svc.CreateIcebergOrder(req.Creator, p, req.InputToken, req.OutputToken, req.RevealInterval)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.CreateOrderResponse{OrderId: id}, nil
}

func (s *Server) CancelOrder(ctx context.Context, req *pb.CancelOrderRequest) (*pb.Ack, error) {
	if err := s.svc.CancelOrder(req.Caller, req.OrderId); err != nil {
		return nil, toStatus(err)
	}
	return &pb.Ack{}, nil
}

func (s *Server) RevealNextChunk(ctx context.Context, req *pb.RevealChunkRequest) (*pb.Ack, error) {
	if err := s.svc.RevealNextChunk(req.Caller, req.OrderId); err != nil {
		return nil, toStatus(err)
	}
	return &pb.Ack{}, nil
}

func (s *Server) MatchOrders(ctx context.Context, req *pb.MatchOrdersRequest) (*pb.MatchOrdersResponse, error) {
	id, err := s.svc.MatchOrders(req.Caller, req.BuyOrderId, req.SellOrderId)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.MatchOrdersResponse{MatchId: id}, nil
}

func (s *Server) ExecuteTrade(ctx context.Context, req *pb.ExecuteTradeRequest) (*pb.Ack, error) {
	if err := s.svc.ExecuteTrade(req.Caller, req.MatchId); err != nil {
		return nil, toStatus(err)
	}
	return &pb.Ack{}, nil
}

// -------------------- Queries --------------------

func (s *Server) GetOrder(ctx context.Context, req *pb.GetOrderRequest) (*pb.GetOrderResponse, error) {
	info, err := s.svc.GetOrder(req.OrderId)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.GetOrderResponse{
		OrderId:     info.ID,
		Creator:     info.Creator,
		Kind:        uint32(info.Kind),
		Status:      uint32(info.Status),
		InputToken:  info.InputToken,
		OutputToken: info.OutputToken,
		CreatedAt:   info.CreatedAt,
	}, nil
}

func (s *Server) GetOrderEncryptedValues(ctx context.Context, req *pb.GetOrderRequest) (*pb.EncryptedValuesResponse, error) {
	enc, err := s.svc.GetOrderEncryptedValues(req.OrderId)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := &pb.EncryptedValuesResponse{
		InputAmount:  enc.InputAmount[:],
		OutputAmount: enc.OutputAmount[:],
		MinPrice:     enc.MinPrice[:],
		MaxPrice:     enc.MaxPrice[:],
	}
	if !enc.TotalAmount.IsZero() {
		resp.TotalAmount = enc.TotalAmount[:]
		resp.VisibleAmount = enc.VisibleAmount[:]
	}
	return resp, nil
}

func (s *Server) GetMatchResult(ctx context.Context, req *pb.GetMatchRequest) (*pb.GetMatchResponse, error) {
	m, err := s.svc.GetMatchResult(req.MatchId)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.GetMatchResponse{
		MatchId:     m.ID,
		BuyOrderId:  m.BuyOrderID,
		SellOrderId: m.SellOrderID,
		TradeAmount: m.TradeAmount[:],
		TradePrice:  m.TradePrice[:],
		Timestamp:   m.Timestamp,
	}, nil
}

func (s *Server) GetStats(ctx context.Context, req *pb.StatsRequest) (*pb.StatsResponse, error) {
	return &pb.StatsResponse{
		NextOrderId:      s.svc.NextOrderID(),
		NextMatchId:      s.svc.NextMatchID(),
		PendingBuyCount:  uint64(s.svc.PendingBuyCount()),
		PendingSellCount: uint64(s.svc.PendingSellCount()),
	}, nil
}

// -------------------- Decryption --------------------

func (s *Server) DecryptOrder(ctx context.Context, req *pb.DecryptOrderRequest) (*pb.DecryptOrderResponse, error) {
	values, err := s.gate.DecryptOrder(ctx, req.Caller, req.OrderId, toAuth(req.Auth))
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.DecryptOrderResponse{
		InputAmount:   bigBytes(values.InputAmount),
		OutputAmount:  bigBytes(values.OutputAmount),
		MinPrice:      bigBytes(values.MinPrice),
		MaxPrice:      bigBytes(values.MaxPrice),
		TotalAmount:   bigBytes(values.TotalAmount),
		VisibleAmount: bigBytes(values.VisibleAmount),
	}, nil
}

func (s *Server) DecryptMatch(ctx context.Context, req *pb.DecryptMatchRequest) (*pb.DecryptMatchResponse, error) {
	values, err := s.gate.DecryptMatch(ctx, req.Caller, req.MatchId, toAuth(req.Auth))
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.DecryptMatchResponse{
		TradeAmount: bigBytes(values.TradeAmount),
		TradePrice:  bigBytes(values.TradePrice),
	}, nil
}
