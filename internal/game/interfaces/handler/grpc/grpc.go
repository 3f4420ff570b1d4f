package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"Regnum/internal/game/interfaces/handler"
	"Regnum/internal/shared/security"
	"Regnum/internal/shared/transport"
	"Regnum/modules/kit/errx"
	"Regnum/modules/kit/logx"
)

// TokenParser 即 security.Signer。
type TokenParser interface {
	ParseToken(token string) (*security.Claims, error)
}

type GameService struct {
	game *handler.Game
	log  logx.Logger
}

func NewGameService(g *handler.Game, l logx.Logger) *GameService {
	if l == nil {
		l = logx.NewZapLogger(nil)
	}
	return &GameService{game: g, log: l}
}

func (s *GameService) RegisterRoutes(r gogrpc.ServiceRegistrar) {
	RegisterGameServiceServer(r, s)
}

// Execute 业务拒绝返回 Result.OK=false，技术错误返回 gRPC status。
func (s *GameService) Execute(ctx context.Context, req *ExecuteRequest) (*ExecuteReply, error) {
	name := ""
	if req != nil {
		name = req.Name
	}
	ctx = transport.NewContextWithParent(ctx, "GRPC "+name)
	if p := transport.PrincipalFrom(ctx); p.PlayerID != "" {
		transport.SetPlayer(ctx, p.PlayerID)
	}
	defer transport.WriteAccessLog(ctx, s.log)

	var decode handler.Decoder
	if req != nil && len(req.Msg) > 0 {
		decode = func(dst any) error {
			return json.Unmarshal(req.Msg, dst)
		}
	}

	data, err := s.game.Execute(ctx, handler.IdentityFrom(ctx), name, decode)
	if err != nil {
		code, msg := handler.HandleError(ctx, err)
		transport.SetBizCode(ctx, transport.BizCode(code))
		if errx.IsBiz(err) {
			return &ExecuteReply{Result: Result{Code: code, Reason: handler.ReasonOf(err), Message: msg}}, nil
		}
		return nil, toRPCError(err)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		transport.SetBizCode(ctx, transport.BizCode(transport.SystemError))
		return nil, status.Error(codes.Internal, err.Error())
	}
	transport.SetBizCode(ctx, transport.BizCode(transport.OK))
	return &ExecuteReply{Result: Result{OK: true, Code: transport.OK}, Data: raw}, nil
}

func toRPCError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, handler.ErrJournalDisabled):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// AuthInterceptor 解析 metadata `authorization: Bearer <jwt>`。
// 没有 token 时放行（引擎返回 Unauthenticated），token 非法直接拒绝。
func AuthInterceptor(parser TokenParser) gogrpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *gogrpc.UnaryServerInfo, next gogrpc.UnaryHandler) (any, error) {
		raw := bearerFromIncoming(ctx)
		if raw == "" || parser == nil {
			return next(ctx, req)
		}
		claims, err := parser.ParseToken(raw)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "token 无效")
		}
		ctx = transport.WithPrincipal(ctx, transport.Principal{
			PlayerID: claims.PID,
			Username: claims.Username,
			Email:    claims.Email,
		})
		return next(ctx, req)
	}
}

func bearerFromIncoming(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	const prefix = "bearer "
	h := vals[0]
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}
