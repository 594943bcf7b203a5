package pb

import (
	"context"

	"google.golang.org/grpc"
)

const (
	Engine_CreateOrder_FullMethodName             = "/solstice.v1.Engine/CreateOrder"
	Engine_CreateIcebergOrder_FullMethodName      = "/solstice.v1.Engine/CreateIcebergOrder"
	Engine_CancelOrder_FullMethodName             = "/solstice.v1.Engine/CancelOrder"
	Engine_RevealNextChunk_FullMethodName         = "/solstice.v1.Engine/RevealNextChunk"
	Engine_MatchOrders_FullMethodName             = "/solstice.v1.Engine/MatchOrders"
	Engine_ExecuteTrade_FullMethodName            = "/solstice.v1.Engine/ExecuteTrade"
	Engine_GetOrder_FullMethodName                = "/solstice.v1.Engine/GetOrder"
	Engine_GetOrderEncryptedValues_FullMethodName = "/solstice.v1.Engine/GetOrderEncryptedValues"
	Engine_GetMatchResult_FullMethodName          = "/solstice.v1.Engine/GetMatchResult"
	Engine_GetStats_FullMethodName                = "/solstice.v1.Engine/GetStats"
	Engine_DecryptOrder_FullMethodName            = "/solstice.v1.Engine/DecryptOrder"
	Engine_DecryptMatch_FullMethodName            = "/solstice.v1.Engine/DecryptMatch"
)

// EngineServer is the full RPC surface of the matching engine.
type EngineServer interface {
	CreateOrder(context.Context, *CreateOrderRequest) (*CreateOrderResponse, error)
	CreateIcebergOrder(context.Context, *CreateIcebergOrderRequest) (*CreateOrderResponse, error)
	CancelOrder(context.Context, *CancelOrderRequest) (*Ack, error)
	RevealNextChunk(context.Context, *RevealChunkRequest) (*Ack, error)
	MatchOrders(context.Context, *MatchOrdersRequest) (*MatchOrdersResponse, error)
	ExecuteTrade(context.Context, *ExecuteTradeRequest) (*Ack, error)
	GetOrder(context.Context, *GetOrderRequest) (*GetOrderResponse, error)
	GetOrderEncryptedValues(context.Context, *GetOrderRequest) (*EncryptedValuesResponse, error)
	GetMatchResult(context.Context, *GetMatchRequest) (*GetMatchResponse, error)
	GetStats(context.Context, *StatsRequest) (*StatsResponse, error)
	DecryptOrder(context.Context, *DecryptOrderRequest) (*DecryptOrderResponse, error)
	DecryptMatch(context.Context, *DecryptMatchRequest) (*DecryptMatchResponse, error)
}

func RegisterEngineServer(s grpc.ServiceRegistrar, srv EngineServer) {
	s.RegisterService(&Engine_ServiceDesc, srv)
}

func unaryHandler[Req any, Resp any](
	method string,
	call func(EngineServer, context.Context, *Req) (*Resp, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(EngineServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv.(EngineServer), ctx, req.(*Req))
		})
	}
}

var Engine_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "solstice.v1.Engine",
	HandlerType: (*EngineServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreateOrder",
			Handler: unaryHandler(Engine_CreateOrder_FullMethodName,
				func(s EngineServer, ctx context.Context, in *CreateOrderRequest) (*CreateOrderResponse, error) {
					return s.CreateOrder(ctx, in)
				}),
		},
		{
			MethodName: "CreateIcebergOrder",
			Handler: unaryHandler(Engine_CreateIcebergOrder_FullMethodName,
				func(s EngineServer, ctx context.Context, in *CreateIcebergOrderRequest) (*CreateOrderResponse, error) {
					return s.CreateIcebergOrder(ctx, in)
				}),
		},
		{
			MethodName: "CancelOrder",
			Handler: unaryHandler(Engine_CancelOrder_FullMethodName,
				func(s EngineServer, ctx context.Context, in *CancelOrderRequest) (*Ack, error) {
					return s.CancelOrder(ctx, in)
				}),
		},
		{
			MethodName: "RevealNextChunk",
			Handler: unaryHandler(Engine_RevealNextChunk_FullMethodName,
				func(s EngineServer, ctx context.Context, in *RevealChunkRequest) (*Ack, error) {
					return s.RevealNextChunk(ctx, in)
				}),
		},
		{
			MethodName: "MatchOrders",
			Handler: unaryHandler(Engine_MatchOrders_FullMethodName,
				func(s EngineServer, ctx context.Context, in *MatchOrdersRequest) (*MatchOrdersResponse, error) {
					return s.MatchOrders(ctx, in)
				}),
		},
		{
			MethodName: "ExecuteTrade",
			Handler: unaryHandler(Engine_ExecuteTrade_FullMethodName,
				func(s EngineServer, ctx context.Context, in *ExecuteTradeRequest) (*Ack, error) {
					return s.ExecuteTrade(ctx, in)
				}),
		},
		{
			MethodName: "GetOrder",
			Handler: unaryHandler(Engine_GetOrder_FullMethodName,
				func(s EngineServer, ctx context.Context, in *GetOrderRequest) (*GetOrderResponse, error) {
					return s.GetOrder(ctx, in)
				}),
		},
		{
			MethodName: "GetOrderEncryptedValues",
			Handler: unaryHandler(Engine_GetOrderEncryptedValues_FullMethodName,
				func(s EngineServer, ctx context.Context, in *GetOrderRequest) (*EncryptedValuesResponse, error) {
					return s.GetOrderEncryptedValues(ctx, in)
				}),
		},
		{
			MethodName: "GetMatchResult",
			Handler: unaryHandler(Engine_GetMatchResult_FullMethodName,
				func(s EngineServer, ctx context.Context, in *GetMatchRequest) (*GetMatchResponse, error) {
					return s.GetMatchResult(ctx, in)
				}),
		},
		{
			MethodName: "GetStats",
			Handler: unaryHandler(Engine_GetStats_FullMethodName,
				func(s EngineServer, ctx context.Context, in *StatsRequest) (*StatsResponse, error) {
					return s.GetStats(ctx, in)
				}),
		},
		{
			MethodName: "DecryptOrder",
			Handler: unaryHandler(Engine_DecryptOrder_FullMethodName,
				func(s EngineServer, ctx context.Context, in *DecryptOrderRequest) (*DecryptOrderResponse, error) {
					return s.DecryptOrder(ctx, in)
				}),
		},
		{
			MethodName: "DecryptMatch",
			Handler: unaryHandler(Engine_DecryptMatch_FullMethodName,
				func(s EngineServer, ctx context.Context, in *DecryptMatchRequest) (*DecryptMatchResponse, error) {
					return s.DecryptMatch(ctx, in)
				}),
		},
	},
	Streams: []grpc.StreamDesc{},
}

// EngineClient invokes the engine over a client connection, forcing
// this package's codec on every call.
type EngineClient struct {
	cc grpc.ClientConnInterface
}

func NewEngineClient(cc grpc.ClientConnInterface) *EngineClient {
	return &EngineClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *EngineClient, method string, in Message, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *EngineClient) CreateOrder(ctx context.Context, in *CreateOrderRequest, opts ...grpc.CallOption) (*CreateOrderResponse, error) {
	return invoke[CreateOrderResponse](ctx, c, Engine_CreateOrder_FullMethodName, in, opts)
}

func (c *EngineClient) CreateIcebergOrder(ctx context.Context, in *CreateIcebergOrderRequest, opts ...grpc.CallOption) (*CreateOrderResponse, error) {
	return invoke[CreateOrderResponse](ctx, c, Engine_CreateIcebergOrder_FullMethodName, in, opts)
}

func (c *EngineClient) CancelOrder(ctx context.Context, in *CancelOrderRequest, opts ...grpc.CallOption) (*Ack, error) {
	return invoke[Ack](ctx, c, Engine_CancelOrder_FullMethodName, in, opts)
}

func (c *EngineClient) RevealNextChunk(ctx context.Context, in *RevealChunkRequest, opts ...grpc.CallOption) (*Ack, error) {
	return invoke[Ack](ctx, c, Engine_RevealNextChunk_FullMethodName, in, opts)
}

func (c *EngineClient) MatchOrders(ctx context.Context, in *MatchOrdersRequest, opts ...grpc.CallOption) (*MatchOrdersResponse, error) {
	return invoke[MatchOrdersResponse](ctx, c, Engine_MatchOrders_FullMethodName, in, opts)
}

func (c *EngineClient) ExecuteTrade(ctx context.Context, in *ExecuteTradeRequest, opts ...grpc.CallOption) (*Ack, error) {
	return invoke[Ack](ctx, c, Engine_ExecuteTrade_FullMethodName, in, opts)
}

func (c *EngineClient) GetOrder(ctx context.Context, in *GetOrderRequest, opts ...grpc.CallOption) (*GetOrderResponse, error) {
	return invoke[GetOrderResponse](ctx, c, Engine_GetOrder_FullMethodName, in, opts)
}

func (c *EngineClient) GetOrderEncryptedValues(ctx context.Context, in *GetOrderRequest, opts ...grpc.CallOption) (*EncryptedValuesResponse, error) {
	return invoke[EncryptedValuesResponse](ctx, c, Engine_GetOrderEncryptedValues_FullMethodName, in, opts)
}

func (c *EngineClient) GetMatchResult(ctx context.Context, in *GetMatchRequest, opts ...grpc.CallOption) (*GetMatchResponse, error) {
	return invoke[GetMatchResponse](ctx, c, Engine_GetMatchResult_FullMethodName, in, opts)
}

func (c *EngineClient) GetStats(ctx context.Context, in *StatsRequest, opts ...grpc.CallOption) (*StatsResponse, error) {
	return invoke[StatsResponse](ctx, c, Engine_GetStats_FullMethodName, in, opts)
}

func (c *EngineClient) DecryptOrder(ctx context.Context, in *DecryptOrderRequest, opts ...grpc.CallOption) (*DecryptOrderResponse, error) {
	return invoke[DecryptOrderResponse](ctx, c, Engine_DecryptOrder_FullMethodName, in, opts)
}

func (c *EngineClient) DecryptMatch(ctx context.Context, in *DecryptMatchRequest, opts ...grpc.CallOption) (*DecryptMatchResponse, error) {
	return invoke[DecryptMatchResponse](ctx, c, Engine_DecryptMatch_FullMethodName, in, opts)
}
