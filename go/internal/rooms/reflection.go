package rooms

import (
	"fmt"
	"sync"

	"connectrpc.com/grpcreflect"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// roomProtoPath is the virtual file the room service descriptor lives in
const roomProtoPath = "tunequiz/room/v1/room.proto"

var (
	descriptorsOnce sync.Once
	descriptors     *protoregistry.Files
	descriptorsErr  error
)

// Descriptors returns a registry holding the room service descriptor and the
// well-known types its procedures exchange
func Descriptors() (*protoregistry.Files, error) {
	descriptorsOnce.Do(func() {
		descriptors, descriptorsErr = buildDescriptors()
	})
	return descriptors, descriptorsErr
}

func buildDescriptors() (*protoregistry.Files, error) {
	files := new(protoregistry.Files)
	for _, fd := range []protoreflect.FileDescriptor{
		wrapperspb.File_google_protobuf_wrappers_proto,
		structpb.File_google_protobuf_struct_proto,
		emptypb.File_google_protobuf_empty_proto,
		timestamppb.File_google_protobuf_timestamp_proto,
	} {
		if err := files.RegisterFile(fd); err != nil {
			return nil, fmt.Errorf("register %s: %w", fd.Path(), err)
		}
	}

	method := func(name, input, output string) *descriptorpb.MethodDescriptorProto {
		return &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(name),
			InputType:  proto.String(".google.protobuf." + input),
			OutputType: proto.String(".google.protobuf." + output),
		}
	}
	file := &descriptorpb.FileDescriptorProto{
		Name:    proto.String(roomProtoPath),
		Package: proto.String("tunequiz.room.v1"),
		Syntax:  proto.String("proto3"),
		Dependency: []string{
			"google/protobuf/wrappers.proto",
			"google/protobuf/struct.proto",
			"google/protobuf/empty.proto",
			"google/protobuf/timestamp.proto",
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("RoomService"),
			Method: []*descriptorpb.MethodDescriptorProto{
				method("ResolveRoom", "StringValue", "StringValue"),
				method("IsHost", "Struct", "BoolValue"),
				method("CreateRoom", "Struct", "Struct"),
				method("JoinRoom", "Struct", "StringValue"),
				method("ServerTime", "Empty", "Timestamp"),
			},
		}},
	}

	fd, err := protodesc.NewFile(file, files)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", roomProtoPath, err)
	}
	if err := files.RegisterFile(fd); err != nil {
		return nil, fmt.Errorf("register %s: %w", roomProtoPath, err)
	}
	return files, nil
}

// NewReflector returns a gRPC reflection source advertising the room service,
// so grpcurl and buf curl can discover its procedures without a proto file
func NewReflector() (*grpcreflect.Reflector, error) {
	files, err := Descriptors()
	if err != nil {
		return nil, err
	}
	return grpcreflect.NewReflector(
		grpcreflect.NamerFunc(func() []string { return []string{RoomServiceName} }),
		grpcreflect.WithDescriptorResolver(files),
	), nil
}
