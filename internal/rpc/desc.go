package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "playfair.v1.Cipher"

const (
	encryptMethod = "/" + ServiceName + "/Encrypt"
	decryptMethod = "/" + ServiceName + "/Decrypt"
	gridMethod    = "/" + ServiceName + "/Grid"
)

// CipherServer is the server API for the playfair.v1.Cipher service.
// Requests are structs with the fields keyword, text, fold_j, and filler.
type CipherServer interface {
	Encrypt(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	Decrypt(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	Grid(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterCipherServer registers srv on s.
func RegisterCipherServer(s grpc.ServiceRegistrar, srv CipherServer) {
	s.RegisterService(&cipherServiceDesc, srv)
}

var cipherServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CipherServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Encrypt", Handler: encryptHandler},
		{MethodName: "Decrypt", Handler: decryptHandler},
		{MethodName: "Grid", Handler: gridHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "playfair/v1/cipher.proto",
}

func encryptHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CipherServer).Encrypt(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: encryptMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CipherServer).Encrypt(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func decryptHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CipherServer).Decrypt(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: decryptMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CipherServer).Decrypt(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func gridHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CipherServer).Grid(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: gridMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CipherServer).Grid(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
