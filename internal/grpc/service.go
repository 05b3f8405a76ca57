package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// The photo service speaks protobuf well-known types so clients need no
// generated stubs:
//
//	IssueToken(Struct{username, password}) -> Struct{access_token, token_type}
//	ListFeed(Empty) -> Struct{posts: [{username, image, caption, timestamp}]}
//	CreatePost(Struct{caption, filename, image: base64}) -> Struct{status, image_path, caption}
const serviceName = "photoshare.v1.PhotoService"

const (
	IssueTokenMethod = "/" + serviceName + "/IssueToken"
	ListFeedMethod   = "/" + serviceName + "/ListFeed"
	CreatePostMethod = "/" + serviceName + "/CreatePost"
)

// PhotoServiceServer is implemented by Server.
type PhotoServiceServer interface {
	IssueToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListFeed(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	CreatePost(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterPhotoServiceServer registers srv on s.
func RegisterPhotoServiceServer(s grpc.ServiceRegistrar, srv PhotoServiceServer) {
	s.RegisterService(&photoServiceDesc, srv)
}

var photoServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*PhotoServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "IssueToken", Handler: issueTokenHandler},
		{MethodName: "ListFeed", Handler: listFeedHandler},
		{MethodName: "CreatePost", Handler: createPostHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func issueTokenHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PhotoServiceServer).IssueToken(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: IssueTokenMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PhotoServiceServer).IssueToken(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func listFeedHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PhotoServiceServer).ListFeed(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListFeedMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PhotoServiceServer).ListFeed(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func createPostHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PhotoServiceServer).CreatePost(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CreatePostMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PhotoServiceServer).CreatePost(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
