package grpc

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

// game.proto 在运行时构建描述符，消息走默认的 proto 编解码：
//
//	syntax = "proto3";
//	package regnum.game.v1;
//	message Result { bool ok = 1; int32 code = 2; string reason = 3; string message = 4; }
//	message ExecuteRequest { string name = 1; bytes msg = 2; }
//	message ExecuteReply { Result result = 1; bytes data = 2; }
//
// msg/data 是 JSON 字节：实体 id 是超过 2^53 的雪花 id，用 bytes 原样传递。
var (
	resultDesc  protoreflect.MessageDescriptor
	requestDesc protoreflect.MessageDescriptor
	replyDesc   protoreflect.MessageDescriptor
)

func init() {
	fd, err := protodesc.NewFile(gameFile(), nil)
	if err != nil {
		panic(fmt.Sprintf("build game.proto descriptor: %v", err))
	}
	msgs := fd.Messages()
	resultDesc = msgs.ByName("Result")
	requestDesc = msgs.ByName("ExecuteRequest")
	replyDesc = msgs.ByName("ExecuteReply")
}

func gameFile() *descriptorpb.FileDescriptorProto {
	field := func(name string, num int32, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
		return &descriptorpb.FieldDescriptorProto{
			Name:     proto.String(name),
			JsonName: proto.String(name),
			Number:   proto.Int32(num),
			Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
			Type:     typ.Enum(),
		}
	}
	result := field("result", 1, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE)
	result.TypeName = proto.String(".regnum.game.v1.Result")

	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String("regnum/game/v1/game.proto"),
		Package: proto.String("regnum.game.v1"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("Result"),
				Field: []*descriptorpb.FieldDescriptorProto{
					field("ok", 1, descriptorpb.FieldDescriptorProto_TYPE_BOOL),
					field("code", 2, descriptorpb.FieldDescriptorProto_TYPE_INT32),
					field("reason", 3, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					field("message", 4, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				},
			},
			{
				Name: proto.String("ExecuteRequest"),
				Field: []*descriptorpb.FieldDescriptorProto{
					field("name", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					field("msg", 2, descriptorpb.FieldDescriptorProto_TYPE_BYTES),
				},
			},
			{
				Name: proto.String("ExecuteReply"),
				Field: []*descriptorpb.FieldDescriptorProto{
					result,
					field("data", 2, descriptorpb.FieldDescriptorProto_TYPE_BYTES),
				},
			},
		},
	}
}

func (r *ExecuteRequest) toProto() *dynamicpb.Message {
	m := dynamicpb.NewMessage(requestDesc)
	f := requestDesc.Fields()
	m.Set(f.ByName("name"), protoreflect.ValueOfString(r.Name))
	if len(r.Msg) > 0 {
		m.Set(f.ByName("msg"), protoreflect.ValueOfBytes(r.Msg))
	}
	return m
}

func requestFromProto(m *dynamicpb.Message) *ExecuteRequest {
	f := requestDesc.Fields()
	return &ExecuteRequest{
		Name: m.Get(f.ByName("name")).String(),
		Msg:  m.Get(f.ByName("msg")).Bytes(),
	}
}

func (r *ExecuteReply) toProto() *dynamicpb.Message {
	res := dynamicpb.NewMessage(resultDesc)
	rf := resultDesc.Fields()
	res.Set(rf.ByName("ok"), protoreflect.ValueOfBool(r.Result.OK))
	res.Set(rf.ByName("code"), protoreflect.ValueOfInt32(int32(r.Result.Code)))
	res.Set(rf.ByName("reason"), protoreflect.ValueOfString(r.Result.Reason))
	res.Set(rf.ByName("message"), protoreflect.ValueOfString(r.Result.Message))

	m := dynamicpb.NewMessage(replyDesc)
	f := replyDesc.Fields()
	m.Set(f.ByName("result"), protoreflect.ValueOfMessage(res))
	if len(r.Data) > 0 {
		m.Set(f.ByName("data"), protoreflect.ValueOfBytes(r.Data))
	}
	return m
}

func replyFromProto(m *dynamicpb.Message) *ExecuteReply {
	f := replyDesc.Fields()
	res := m.Get(f.ByName("result")).Message()
	rf := resultDesc.Fields()
	return &ExecuteReply{
		Result: Result{
			OK:      res.Get(rf.ByName("ok")).Bool(),
			Code:    int(res.Get(rf.ByName("code")).Int()),
			Reason:  res.Get(rf.ByName("reason")).String(),
			Message: res.Get(rf.ByName("message")).String(),
		},
		Data: m.Get(f.ByName("data")).Bytes(),
	}
}
