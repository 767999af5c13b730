package grpc

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/vanish/internal/common"
	"github.com/dmitrijs2005/vanish/internal/rpc"
	"google.golang.org/grpc"
)

// ProtectedMediaServer is the handler set behind the service descriptor.
type ProtectedMediaServer interface {
	CreateMedia(context.Context, *rpc.CreateMediaRequest) (*rpc.CreateMediaResponse, error)
	GetMediaInfo(context.Context, *rpc.MediaRequest) (*rpc.GetMediaInfoResponse, error)
	ListChatMedia(context.Context, *rpc.ListChatMediaRequest) (*rpc.ListChatMediaResponse, error)
	ClaimView(context.Context, *rpc.MediaRequest) (*rpc.ClaimViewResponse, error)
	FinalizeView(context.Context, *rpc.MediaRequest) (*rpc.OKResponse, error)
	Revoke(context.Context, *rpc.MediaRequest) (*rpc.OKResponse, error)
	ReportMedia(context.Context, *rpc.ReportMediaRequest) (*rpc.ReportMediaResponse, error)
	ReportScreenshot(context.Context, *rpc.MediaRequest) (*rpc.ReportScreenshotResponse, error)
	GetMediaURL(context.Context, *rpc.MediaRequest) (*rpc.MediaURLResponse, error)
	GetUploadURL(context.Context, *rpc.UploadURLRequest) (*rpc.UploadURLResponse, error)
	DeleteMedia(context.Context, *rpc.MediaRequest) (*rpc.OKResponse, error)
	Ping(context.Context, *rpc.PingRequest) (*rpc.PingResponse, error)
}

// unary builds a MethodDesc whose handler decodes Req and dispatches to
// call through the server's interceptor chain.
func unary[Req, Resp any](method string, call func(ProtectedMediaServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, rpc.ToStatus(fmt.Errorf("%w: %v", common.ErrorValidation, err))
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ProtectedMediaServer), ctx, req.(*Req))
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: rpc.FullMethod(method)}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: rpc.ServiceName,
	HandlerType: (*ProtectedMediaServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(rpc.CreateMedia, ProtectedMediaServer.CreateMedia),
		unary(rpc.GetMediaInfo, ProtectedMediaServer.GetMediaInfo),
		unary(rpc.ListChatMedia, ProtectedMediaServer.ListChatMedia),
		unary(rpc.ClaimView, ProtectedMediaServer.ClaimView),
		unary(rpc.FinalizeView, ProtectedMediaServer.FinalizeView),
		unary(rpc.Revoke, ProtectedMediaServer.Revoke),
		unary(rpc.ReportMedia, ProtectedMediaServer.ReportMedia),
		unary(rpc.ReportScreenshot, ProtectedMediaServer.ReportScreenshot),
		unary(rpc.GetMediaURL, ProtectedMediaServer.GetMediaURL),
		unary(rpc.GetUploadURL, ProtectedMediaServer.GetUploadURL),
		unary(rpc.DeleteMedia, ProtectedMediaServer.DeleteMedia),
		unary(rpc.Ping, ProtectedMediaServer.Ping),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "vanish/v1/protected_media",
}
