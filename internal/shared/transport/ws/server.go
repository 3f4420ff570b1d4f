package ws

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"Regnum/internal/shared/security"
	"Regnum/internal/shared/transport"
	"Regnum/modules/kit/logx"
)

// TokenParser 即 security.Signer。
type TokenParser interface {
	ParseToken(token string) (*security.Claims, error)
}

type Server struct {
	router *Router
	hub    *Hub
	auth   TokenParser
	log    logx.Logger
}

func NewServer(r *Router, hub *Hub, auth TokenParser, l logx.Logger) *Server {
	if l == nil {
		l = logx.NewZapLogger(nil)
	}
	return &Server{
		router: r,
		hub:    hub,
		auth:   auth,
		log:    l,
	}
}

func (s *Server) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	principal, ok := s.authenticate(req)
	if !ok {
		http.Error(resp, "invalid token", http.StatusUnauthorized)
		return
	}

	upgrader := websocket.Upgrader{
		// 允许所有CORS跨域请求
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	wsConn, err := upgrader.Upgrade(resp, req, nil)
	if err != nil {
		s.log.Error("websocket upgrade error", zap.Error(err))
		return
	}

	s.log.Info("websocket upgrade success", zap.String("player_id", principal.PlayerID))

	wsServer := NewWsServer(wsConn, s.log)
	wsServer.SetProperty(ConnKeyPrincipal, principal)
	wsServer.Router(s.router)
	if s.hub != nil {
		s.hub.Register(wsServer)
		go func() {
			<-wsServer.Done()
			s.hub.Unregister(wsServer)
		}()
	}
	wsServer.Run()
}

// authenticate token 取 `?token=` 或 Authorization 头；没有 token 视为匿名连接（只能收推送）。
func (s *Server) authenticate(req *http.Request) (transport.Principal, bool) {
	raw := req.URL.Query().Get("token")
	if raw == "" {
		h := req.Header.Get("Authorization")
		if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
			raw = strings.TrimSpace(h[7:])
		}
	}
	if raw == "" || s.auth == nil {
		return transport.Principal{}, true
	}
	claims, err := s.auth.ParseToken(raw)
	if err != nil {
		s.log.Info("websocket auth rejected", zap.Error(err))
		return transport.Principal{}, false
	}
	return transport.Principal{PlayerID: claims.PID, Username: claims.Username, Email: claims.Email}, true
}
