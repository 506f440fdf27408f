package server

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "threadshift.v1.Threadshift"

// Method names, relative to ServiceName.
const (
	MethodValidate   = "Validate"
	MethodSwap       = "Swap"
	MethodReverse    = "Reverse"
	MethodPreview    = "Preview"
	MethodReciprocal = "Reciprocal"
	MethodStatus     = "Status"
)

// FullMethod returns "/threadshift.v1.Threadshift/<method>".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// ThreadshiftServer is the service implementation. Every method takes and
// returns a google.protobuf.Struct.
type ThreadshiftServer interface {
	Validate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Swap(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Reverse(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Preview(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Reciprocal(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Status(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryFunc func(ThreadshiftServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(method string, fn unaryFunc) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return fn(srv.(ThreadshiftServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return fn(srv.(ThreadshiftServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes the Threadshift service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ThreadshiftServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodValidate, ThreadshiftServer.Validate),
		unary(MethodSwap, ThreadshiftServer.Swap),
		unary(MethodReverse, ThreadshiftServer.Reverse),
		unary(MethodPreview, ThreadshiftServer.Preview),
		unary(MethodReciprocal, ThreadshiftServer.Reciprocal),
		unary(MethodStatus, ThreadshiftServer.Status),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "threadshift/v1/threadshift.proto",
}

// RegisterThreadshiftServer registers srv on s.
func RegisterThreadshiftServer(s grpc.ServiceRegistrar, srv ThreadshiftServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// FromStruct decodes a Struct into dst through its JSON form.
func FromStruct(in *structpb.Struct, dst any) error {
	data, err := in.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

// ToStruct encodes v, which must marshal to a JSON object, as a Struct.
func ToStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	out := &structpb.Struct{}
	if err := out.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return out, nil
}
