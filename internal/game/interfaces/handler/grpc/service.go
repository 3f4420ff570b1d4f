package grpc

import (
	"context"
	"encoding/json"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/protobuf/types/dynamicpb"
)

const (
	ServiceName   = "regnum.game.v1.GameService"
	executeMethod = "/" + ServiceName + "/Execute"
)

// ExecuteRequest name 与 WS 路由同名（war.declare 等），msg 是该命令的 JSON 参数。
type ExecuteRequest struct {
	Name string
	Msg  json.RawMessage
}

// Result 业务拒绝不走 gRPC status，放在响应里（code 与 HTTP/WS 相同）。
type Result struct {
	OK      bool
	Code    int
	Reason  string
	Message string
}

type ExecuteReply struct {
	Result Result
	Data   json.RawMessage
}

type GameServiceServer interface {
	Execute(ctx context.Context, req *ExecuteRequest) (*ExecuteReply, error)
}

type GameServiceClient interface {
	Execute(ctx context.Context, req *ExecuteRequest, opts ...gogrpc.CallOption) (*ExecuteReply, error)
}

// GameServiceDesc 手写的服务描述，消息是 game.proto 的动态消息。
var GameServiceDesc = gogrpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GameServiceServer)(nil),
	Methods: []gogrpc.MethodDesc{
		{
			MethodName: "Execute",
			Handler:    executeHandler,
		},
	},
	Streams:  []gogrpc.StreamDesc{},
	Metadata: "regnum/game/v1/game.proto",
}

func RegisterGameServiceServer(s gogrpc.ServiceRegistrar, srv GameServiceServer) {
	s.RegisterService(&GameServiceDesc, srv)
}

func executeHandler(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
	raw := dynamicpb.NewMessage(requestDesc)
	if err := dec(raw); err != nil {
		return nil, err
	}
	in := requestFromProto(raw)
	if interceptor == nil {
		return executeProto(ctx, srv.(GameServiceServer), in)
	}
	info := &gogrpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: executeMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return executeProto(ctx, srv.(GameServiceServer), req.(*ExecuteRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func executeProto(ctx context.Context, srv GameServiceServer, in *ExecuteRequest) (any, error) {
	out, err := srv.Execute(ctx, in)
	if err != nil {
		return nil, err
	}
	return out.toProto(), nil
}

type gameServiceClient struct {
	cc gogrpc.ClientConnInterface
}

func NewGameServiceClient(cc gogrpc.ClientConnInterface) GameServiceClient {
	return &gameServiceClient{cc: cc}
}

func (c *gameServiceClient) Execute(ctx context.Context, req *ExecuteRequest, opts ...gogrpc.CallOption) (*ExecuteReply, error) {
	if req == nil {
		req = &ExecuteRequest{}
	}
	out := dynamicpb.NewMessage(replyDesc)
	if err := c.cc.Invoke(ctx, executeMethod, req.toProto(), out, opts...); err != nil {
		return nil, err
	}
	return replyFromProto(out), nil
}
