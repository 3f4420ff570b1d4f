package grpc

import (
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// NewServer 创建带 trace 拦截器的 grpc.Server。
func NewServer(opts ...grpc.ServerOption) *grpc.Server {
	base := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(UnaryServerTraceInterceptor()),
		grpc.ChainStreamInterceptor(StreamServerTraceInterceptor()),
	}
	return grpc.NewServer(append(base, opts...)...)
}

// Dial 建立 grpc 连接（明文、自动注入 trace）。
func Dial(target string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(UnaryClientTraceInterceptor()),
		grpc.WithChainStreamInterceptor(StreamClientTraceInterceptor()),
	}
	// grpc.NewClient 不会立即建连：resolver/balancer 异步启动，第一次调用时才真正连接
	conn, err := grpc.NewClient(target, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("dial grpc service failed: %w", err)
	}
	return conn, nil
}
