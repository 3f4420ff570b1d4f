package interfaces

import (
	"github.com/gin-gonic/gin"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"Regnum/internal/game/interfaces/handler"
	grpchandler "Regnum/internal/game/interfaces/handler/grpc"
	"Regnum/internal/game/interfaces/handler/http"
	ws2 "Regnum/internal/game/interfaces/handler/ws"
	transporthttp "Regnum/internal/shared/transport/http"
	"Regnum/internal/shared/transport/ws"
	"Regnum/modules/kit/logx"
)

type Module struct {
	wsHandler   *ws2.WsHandler
	httpHandler *http.HttpHandler
	grpcService *grpchandler.GameService
	health      *health.Server
}

func New(engine handler.Engine, journal handler.Journal, l logx.Logger) *Module {
	game := handler.NewGame(engine, journal, l)
	return &Module{
		wsHandler:   ws2.NewWsHandler(game),
		httpHandler: http.NewHttpHandler(game),
		grpcService: grpchandler.NewGameService(game, l),
		health:      health.NewServer(),
	}
}

func (m *Module) WsRegister(r *ws.Router) {
	m.wsHandler.RegisterRoutes(r)
}

func (m *Module) HttpRegister(g *gin.RouterGroup) {
	m.httpHandler.RegisterRoutes(g)
}

// GrpcRegister 同时注册标准健康检查。
func (m *Module) GrpcRegister(s *gogrpc.Server) {
	m.grpcService.RegisterRoutes(s)
	healthpb.RegisterHealthServer(s, m.health)
	m.health.SetServingStatus(grpchandler.ServiceName, healthpb.HealthCheckResponse_SERVING)
}

// Shutdown 健康检查切到 NOT_SERVING，之后再停 gRPC。
func (m *Module) Shutdown() {
	m.health.Shutdown()
}

var _ ws.Registrar = (*Module)(nil)
var _ transporthttp.Registrar = (*Module)(nil)
