package transport

import (
	"context"
	"sync"
	"time"

	"Regnum/modules/kit/logx"
	"Regnum/modules/kit/tracex"

	"go.uber.org/zap"
)

// AccessLog 一次请求的日志上下文，WS/HTTP/gRPC 共用。
// 入口创建，鉴权和 handler 往里填，结束时 WriteAccessLog 打一条。
type AccessLog struct {
	mu       sync.Mutex
	action   string
	start    time.Time
	code     BizCode
	reason   string
	playerID string
}

type accessLogKey struct{}

// NewContext 以 background 为父 context，用于 WS 这类没有请求 context 的入口。
func NewContext(action string) context.Context {
	return NewContextWithParent(context.Background(), action)
}

// NewContextWithParent 保留父 context 的取消信号；父 context 已有 trace_id 时沿用。
// 业务码初始为 SystemError，没人设置时按失败记。
func NewContextWithParent(parent context.Context, action string) context.Context {
	if parent == nil {
		parent = context.Background()
	}
	if action == "" {
		action = "unknown"
	}
	al := &AccessLog{action: action, start: time.Now(), code: BizCode(SystemError)}
	return context.WithValue(tracex.Ensure(parent, "game"), accessLogKey{}, al)
}

func FromContext(ctx context.Context) *AccessLog {
	if ctx == nil {
		return nil
	}
	al, _ := ctx.Value(accessLogKey{}).(*AccessLog)
	return al
}

func (al *AccessLog) Action() string { return al.action }

func (al *AccessLog) Code() BizCode {
	al.mu.Lock()
	defer al.mu.Unlock()
	return al.code
}

func (al *AccessLog) Reason() string {
	al.mu.Lock()
	defer al.mu.Unlock()
	return al.reason
}

func (al *AccessLog) update(f func(al *AccessLog)) {
	al.mu.Lock()
	f(al)
	al.mu.Unlock()
}

func SetBizCode(ctx context.Context, code BizCode) {
	if al := FromContext(ctx); al != nil {
		al.update(func(al *AccessLog) { al.code = code })
	}
}

// SetPlayer 鉴权通过后调用。
func SetPlayer(ctx context.Context, playerID string) {
	if al := FromContext(ctx); al != nil {
		al.update(func(al *AccessLog) { al.playerID = playerID })
	}
}

// SetErrorReason 空串忽略，已有的 reason 不会被清掉。
func SetErrorReason(ctx context.Context, reason string) {
	if reason == "" {
		return
	}
	if al := FromContext(ctx); al != nil {
		al.update(func(al *AccessLog) { al.reason = reason })
	}
}

// WriteAccessLog 在入口 defer 调用；级别由 logx.ReportAccessWithLoggerContext 按业务码决定。
func WriteAccessLog(ctx context.Context, log logx.Logger) {
	al := FromContext(ctx)
	if al == nil || log == nil {
		return
	}
	al.mu.Lock()
	code, reason, player := al.code, al.reason, al.playerID
	al.mu.Unlock()

	fields := []zap.Field{zap.Duration("latency", time.Since(al.start))}
	if player != "" {
		fields = append(fields, zap.String("player_id", player))
	}
	if code == BizCode(OK) {
		fields = append(fields, zap.String("result", "success"))
	} else {
		fields = append(fields, zap.String("result", "failure"))
		if reason != "" {
			fields = append(fields, zap.String("error_reason", reason))
		}
	}
	logx.ReportAccessWithLoggerContext(ctx, log, al.action, int(code), fields...)
}
