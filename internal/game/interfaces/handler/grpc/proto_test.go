package grpc

import (
	"testing"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/dynamicpb"
)

func TestProto_雪花id原样经过线上编码(t *testing.T) {
	msg := []byte(`{"building_id":1234567890123456789}`)
	raw, err := proto.Marshal((&ExecuteRequest{Name: "building.upgrade", Msg: msg}).toProto())
	if err != nil {
		t.Fatalf("Marshal err=%v", err)
	}
	m := dynamicpb.NewMessage(requestDesc)
	if err := proto.Unmarshal(raw, m); err != nil {
		t.Fatalf("Unmarshal err=%v", err)
	}
	got := requestFromProto(m)
	if got.Name != "building.upgrade" || string(got.Msg) != string(msg) {
		t.Fatalf("期望请求原样还原, got=%+v", got)
	}

	reply := &ExecuteReply{Result: Result{Code: 409, Reason: "NOT_ENOUGH_RESOURCES", Message: "资源不足"}}
	raw, err = proto.Marshal(reply.toProto())
	if err != nil {
		t.Fatalf("Marshal err=%v", err)
	}
	out := dynamicpb.NewMessage(replyDesc)
	if err := proto.Unmarshal(raw, out); err != nil {
		t.Fatalf("Unmarshal err=%v", err)
	}
	if r := replyFromProto(out).Result; r.OK || r.Code != 409 || r.Reason != "NOT_ENOUGH_RESOURCES" {
		t.Fatalf("期望业务拒绝字段还原, got=%+v", r)
	}
}
