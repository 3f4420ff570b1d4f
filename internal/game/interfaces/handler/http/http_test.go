package http

import (
	"encoding/json"
	"math/rand"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"

	"Regnum/internal/game/app"
	"Regnum/internal/game/domain"
	"Regnum/internal/game/interfaces/handler"
	"Regnum/internal/shared/transport"
)

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) NextID() int64 { return s.n.Add(1) }

type body struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// newRouter 用 X-Player 头代替 jwt 鉴权。
func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	e, err := app.New(app.Deps{
		IDs:     &seqIDs{},
		Regions: []domain.Region{{Name: "lazio"}, {Name: "sicilia"}, {Name: "puglia"}},
		Rand:    rand.New(rand.NewSource(7)),
	})
	if err != nil {
		t.Fatalf("app.New err=%v", err)
	}
	t.Cleanup(e.Close)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if pid := c.GetHeader("X-Player"); pid != "" {
			ctx := transport.WithPrincipal(c.Request.Context(), transport.Principal{PlayerID: pid, Username: pid})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	})
	NewHttpHandler(handler.NewGame(e, nil, nil)).RegisterRoutes(r.Group(""))
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, player, payload string) body {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if player != "" {
		req.Header.Set("X-Player", player)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != nethttp.StatusOK {
		t.Fatalf("%s %s 期望 HTTP 200, got=%d", method, path, w.Code)
	}
	var out body
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("响应体不是 JSON: %s", w.Body.String())
	}
	return out
}

func TestEnter_返回初始档案(t *testing.T) {
	r := newRouter(t)

	out := do(t, r, nethttp.MethodPost, "/api/enter", "a", "")
	if out.Code != transport.OK {
		t.Fatalf("期望 code=0, got=%+v", out)
	}
	var p domain.Player
	_ = json.Unmarshal(out.Data, &p)
	if p.ID != "a" || p.CurrentRegion == "" {
		t.Fatalf("期望玩家 a 有初始领地, got=%+v", p)
	}

	out = do(t, r, nethttp.MethodGet, "/api/balance", "a", "")
	var bal domain.Balance
	_ = json.Unmarshal(out.Data, &bal)
	if bal != domain.StartingBalance {
		t.Fatalf("期望初始资源, got=%+v", bal)
	}
}

func TestCommand_没有身份返回401业务码(t *testing.T) {
	r := newRouter(t)
	out := do(t, r, nethttp.MethodGet, "/api/snapshot", "", "")
	if out.Code != transport.Unauthenticated {
		t.Fatalf("期望 401, got=%+v", out)
	}
}

func TestConquer_路径参数与业务码(t *testing.T) {
	r := newRouter(t)
	do(t, r, nethttp.MethodPost, "/api/enter", "a", "")
	b := do(t, r, nethttp.MethodPost, "/api/enter", "b", "")
	var pb domain.Player
	_ = json.Unmarshal(b.Data, &pb)

	out := do(t, r, nethttp.MethodPost, "/api/territories/"+pb.CurrentRegion+"/conquer", "a", "")
	if out.Code != handler.RegionOccupied {
		t.Fatalf("期望 RegionOccupied(%d), got=%+v", handler.RegionOccupied, out)
	}
	out = do(t, r, nethttp.MethodPost, "/api/territories/atlantis/conquer", "a", "")
	if out.Code != transport.NotFound {
		t.Fatalf("期望 404, got=%+v", out)
	}
}

func TestBuild_坏请求体(t *testing.T) {
	r := newRouter(t)
	out := do(t, r, nethttp.MethodPost, "/api/buildings", "a", `{"region":`)
	if out.Code != transport.InvalidParam {
		t.Fatalf("期望 400, got=%+v", out)
	}
	out = do(t, r, nethttp.MethodPost, "/api/buildings/abc/upgrade", "a", "")
	if out.Code != transport.InvalidParam {
		t.Fatalf("期望非法 id 400, got=%+v", out)
	}
}

func TestAlliance_提议并接受(t *testing.T) {
	r := newRouter(t)
	do(t, r, nethttp.MethodPost, "/api/enter", "a", "")
	do(t, r, nethttp.MethodPost, "/api/enter", "b", "")

	out := do(t, r, nethttp.MethodPost, "/api/alliances", "a", `{"target":"b","message":"ave"}`)
	if out.Code != transport.OK {
		t.Fatalf("propose 期望成功, got=%+v", out)
	}
	var al domain.Alliance
	_ = json.Unmarshal(out.Data, &al)

	path := "/api/alliances/" + jsonNumber(int64(al.ID)) + "/accept"
	if out = do(t, r, nethttp.MethodPost, path, "a", ""); out.Code != transport.Forbidden {
		t.Fatalf("期望发起方接受 403, got=%+v", out)
	}
	out = do(t, r, nethttp.MethodPost, path, "b", "")
	_ = json.Unmarshal(out.Data, &al)
	if out.Code != transport.OK || al.State != domain.AllianceActive {
		t.Fatalf("期望 active, got=%+v", out)
	}

	out = do(t, r, nethttp.MethodPost, "/api/alliances", "b", `{"target":"a"}`)
	if out.Code != handler.AllianceExists {
		t.Fatalf("期望反向提议 AllianceExists, got=%+v", out)
	}
}

func TestEvents_未启用流水(t *testing.T) {
	r := newRouter(t)
	if out := do(t, r, nethttp.MethodGet, "/api/events?since=x", "a", ""); out.Code != transport.InvalidParam {
		t.Fatalf("期望 400, got=%+v", out)
	}
	if out := do(t, r, nethttp.MethodGet, "/api/events?since=0", "a", ""); out.Code != transport.Unavailable {
		t.Fatalf("期望 503, got=%+v", out)
	}
}

func jsonNumber(v int64) string {
	raw, _ := json.Marshal(v)
	return string(raw)
}
