package http

import (
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"Regnum/internal/shared/security"
	"Regnum/internal/shared/transport/http/middleware"
	"Regnum/modules/kit/logx"
)

type fakeParser struct{}

func (fakeParser) ParseToken(token string) (*security.Claims, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return &security.Claims{PID: "p-1", Username: "cesare"}, nil
}

func newTestServer(opts Options) *Server {
	gin.SetMode(gin.TestMode)
	s := NewHttpServer(":0", gin.New(), logx.NewZapLogger(nil), opts)
	s.Group().GET("/whoami", func(c *gin.Context) {
		c.JSON(nethttp.StatusOK, gin.H{"code": 0, "data": middleware.CurrentPrincipal(c).PlayerID})
	})
	return s
}

func TestNewHttpServer_Healthz(t *testing.T) {
	s := newTestServer(Options{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(nethttp.MethodGet, "/healthz", nil)
	s.Handler().ServeHTTP(w, req)

	if w.Code != nethttp.StatusOK {
		t.Fatalf("unexpected status code: got=%d want=%d", w.Code, nethttp.StatusOK)
	}
}

func TestAuth_合法token注入身份(t *testing.T) {
	s := newTestServer(Options{Auth: fakeParser{}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(nethttp.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer good")
	s.Handler().ServeHTTP(w, req)

	if w.Code != nethttp.StatusOK || w.Body.String() != `{"code":0,"data":"p-1"}` {
		t.Fatalf("期望返回 p-1, got=%d %s", w.Code, w.Body.String())
	}
}

func TestAuth_非法token返回401(t *testing.T) {
	s := newTestServer(Options{Auth: fakeParser{}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(nethttp.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer bad")
	s.Handler().ServeHTTP(w, req)

	if w.Code != nethttp.StatusUnauthorized {
		t.Fatalf("期望 401, got=%d", w.Code)
	}
}

func TestRateLimit_超出突发返回429(t *testing.T) {
	s := newTestServer(Options{Auth: fakeParser{}, Limiters: middleware.NewLimiters(0.001, 2)})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(nethttp.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer good")
		s.Handler().ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != nethttp.StatusOK || codes[1] != nethttp.StatusOK || codes[2] != nethttp.StatusTooManyRequests {
		t.Fatalf("期望前两次通过第三次 429, got=%v", codes)
	}
}
