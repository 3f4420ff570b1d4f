package transport

import "context"

// Principal 鉴权后的调用方身份，由身份提供方的 token 解出。HTTP/WS/gRPC 共用。
type Principal struct {
	PlayerID string
	Username string
	Email    string
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom 读取调用方身份；未鉴权返回零值（PlayerID 为空）。
func PrincipalFrom(ctx context.Context) Principal {
	if ctx == nil {
		return Principal{}
	}
	p, _ := ctx.Value(principalKey{}).(Principal)
	return p
}
