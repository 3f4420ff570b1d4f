package tracex

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

// Trace 一次请求的链路标识：trace_id 跨进程透传，span_id 标记当前处理方（例如 game）。
type Trace struct {
	TraceID string
	SpanID  string
}

type traceKey struct{}

// From 读取 context 里的链路标识；没有时返回零值。
func From(ctx context.Context) Trace {
	if ctx == nil {
		return Trace{}
	}
	t, _ := ctx.Value(traceKey{}).(Trace)
	return t
}

func with(ctx context.Context, t Trace) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, traceKey{}, t)
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	t := From(ctx)
	t.TraceID = traceID
	return with(ctx, t)
}

func TraceIDFrom(ctx context.Context) (string, bool) {
	id := From(ctx).TraceID
	return id, id != ""
}

func WithSpanID(ctx context.Context, spanID string) context.Context {
	t := From(ctx)
	t.SpanID = spanID
	return with(ctx, t)
}

func SpanIDFrom(ctx context.Context) (string, bool) {
	id := From(ctx).SpanID
	return id, id != ""
}

// Ensure 沿用上游 trace_id，没有则新生成；span 覆盖为当前处理方。
func Ensure(ctx context.Context, span string) context.Context {
	t := From(ctx)
	if t.TraceID == "" {
		t.TraceID = NewTraceID()
	}
	if span != "" {
		t.SpanID = span
	}
	return with(ctx, t)
}

// NewTraceID 16 字节随机数的 hex。
func NewTraceID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return ""
	}
	return hex.EncodeToString(b[:])
}
