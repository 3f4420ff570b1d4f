package grpc

import (
	"context"
	"testing"

	"Regnum/modules/kit/tracex"

	"google.golang.org/grpc/metadata"
)

func TestTrace_出站注入入站提取(t *testing.T) {
	ctx := tracex.WithTraceID(context.Background(), "t-9")
	ctx = tracex.WithSpanID(ctx, "game")

	out := outgoing(ctx)
	md, ok := metadata.FromOutgoingContext(out)
	if !ok {
		t.Fatalf("期望出站 context 带 metadata")
	}

	in := incoming(metadata.NewIncomingContext(context.Background(), md))
	if tid, _ := tracex.TraceIDFrom(in); tid != "t-9" {
		t.Fatalf("期望提取 trace_id=t-9, got=%q", tid)
	}
	if sid, _ := tracex.SpanIDFrom(in); sid != "game" {
		t.Fatalf("期望提取 span_id=game, got=%q", sid)
	}
}
