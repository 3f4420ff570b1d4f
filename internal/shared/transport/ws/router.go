package ws

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strings"

	"Regnum/internal/shared/logs"
	"Regnum/internal/shared/transport"
	"Regnum/modules/kit/logx"
)

type HandlerFunc func(ctx context.Context, req *WsMsgReq, resp *WsMsgResp)

// Group 路由名前缀，Handle 注册 prefix.name。
type Group struct {
	prefix string
	router *Router
}

// Handle 同名路由重复注册直接 panic，启动期暴露。
func (g *Group) Handle(name string, h HandlerFunc) {
	route := g.prefix + "." + name
	if _, dup := g.router.routes[route]; dup {
		panic(fmt.Sprintf("ws: duplicate route %q", route))
	}
	g.router.routes[route] = h
}

// Limiter 即 middleware.Limiters，和 HTTP 共用同一组令牌桶。
type Limiter interface {
	Allow(key string) bool
}

// Router 注册只发生在启动期，Dispatch 期间只读，所以不加锁。
type Router struct {
	routes  map[string]HandlerFunc
	groups  map[string]struct{}
	log     logx.Logger
	limiter Limiter
}

func NewRouter(l logx.Logger) *Router {
	if l == nil {
		l = logx.NewZapLogger(logs.Logger())
	}
	return &Router{
		routes: make(map[string]HandlerFunc),
		groups: make(map[string]struct{}),
		log:    l,
	}
}

// Limit 每条消息按玩家（匿名连接按地址）取令牌，取不到返回 RateLimited。
func (r *Router) Limit(l Limiter) {
	r.limiter = l
}

func (r *Router) Group(prefix string) *Group {
	r.groups[prefix] = struct{}{}
	return &Group{prefix: prefix, router: r}
}

// Routes 已注册的路由名，按字典序。
func (r *Router) Routes() []string {
	out := make([]string, 0, len(r.routes))
	for name := range r.routes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Dispatch 按 req.Body.Name（group.action，例如 war.declare）找到 handler 执行，结束时写一条 access 日志。
// handler 开始前响应码先置为 SystemError，漏设时不会被当成成功。
func (r *Router) Dispatch(req *WsMsgReq, resp *WsMsgResp) {
	ctx := r.dispatchContext(req)
	defer r.writeAccessLog(ctx, resp)

	if req == nil || req.Body == nil || resp == nil || resp.Body == nil {
		fail(resp, transport.InvalidParam, "参数有误")
		return
	}
	resp.Body.Code = transport.SystemError
	resp.Body.Msg = nil

	if r.limiter != nil && !r.limiter.Allow(limitKey(ctx, req)) {
		transport.SetErrorReason(ctx, "RATE_LIMITED")
		fail(resp, transport.RateLimited, "请求过于频繁")
		return
	}

	h, msg := r.lookup(req.Body.Name)
	if h == nil {
		fail(resp, transport.InvalidParam, msg)
		return
	}
	h(ctx, req, resp)
}

func (r *Router) dispatchContext(req *WsMsgReq) context.Context {
	action := "WS unknown"
	if req != nil && req.Body != nil {
		action = "WS " + req.Body.Name
	}
	ctx := transport.NewContext(action)
	if req == nil || req.Conn == nil {
		return ctx
	}
	if p, ok := req.Conn.GetProperty(ConnKeyPrincipal).(transport.Principal); ok {
		ctx = transport.WithPrincipal(ctx, p)
		transport.SetPlayer(ctx, p.PlayerID)
	}
	return ctx
}

func limitKey(ctx context.Context, req *WsMsgReq) string {
	if id := transport.PrincipalFrom(ctx).PlayerID; id != "" {
		return id
	}
	if req.Conn != nil {
		if host, _, err := net.SplitHostPort(req.Conn.Addr()); err == nil {
			return host
		}
		return req.Conn.Addr()
	}
	return ""
}

// lookup 找不到时返回给客户端的提示。
func (r *Router) lookup(name string) (HandlerFunc, string) {
	prefix, action, ok := strings.Cut(name, ".")
	if !ok || prefix == "" || action == "" || strings.Contains(action, ".") {
		return nil, "路由参数有误"
	}
	if _, ok := r.groups[prefix]; !ok {
		return nil, "路由组不存在"
	}
	h := r.routes[name]
	if h == nil {
		return nil, "路由处理器不存在"
	}
	return h, ""
}

func fail(resp *WsMsgResp, code int, msg string) {
	if resp == nil || resp.Body == nil {
		return
	}
	resp.Body.Code = code
	resp.Body.Msg = msg
}

func (r *Router) writeAccessLog(ctx context.Context, resp *WsMsgResp) {
	code := transport.SystemError
	if resp != nil && resp.Body != nil {
		code = resp.Body.Code
	}
	transport.SetBizCode(ctx, transport.BizCode(code))
	transport.WriteAccessLog(ctx, r.log)
}
