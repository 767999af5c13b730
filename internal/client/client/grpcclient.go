package client

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/vanish/internal/common"
	"github.com/dmitrijs2005/vanish/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// DefaultCallTimeout bounds calls whose context has no deadline.
const DefaultCallTimeout = 12 * time.Second

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn

	mu          sync.RWMutex
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if tok := s.AccessToken(); tok != "" {
		ctx = withAccessToken(ctx, tok)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewVanishClient connects to endpointURL. Extra dial options are appended
// after the defaults, so tests can swap the transport.
func NewVanishClient(endpointURL, accessToken string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, accessToken: accessToken}
	if err := c.InitGRPCClient(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(rpc.CodecName)),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, dialOpts...)
	if err != nil {
		return err
	}
	s.conn = conn
	return nil
}

func (s *GRPCClient) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *GRPCClient) SetAccessToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = token
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) invoke(ctx context.Context, method string, req, resp any) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultCallTimeout)
		defer cancel()
	}
	return rpc.FromStatus(s.conn.Invoke(ctx, rpc.FullMethod(method), req, resp))
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	var resp rpc.PingResponse
	return s.invoke(ctx, rpc.Ping, &rpc.PingRequest{}, &resp)
}

func (s *GRPCClient) CreateMedia(ctx context.Context, req *rpc.CreateMediaRequest) (string, error) {
	var resp rpc.CreateMediaResponse
	if err := s.invoke(ctx, rpc.CreateMedia, req, &resp); err != nil {
		return "", err
	}
	return resp.MediaID, nil
}

func (s *GRPCClient) GetMediaInfo(ctx context.Context, mediaID string) (*rpc.MediaInfo, error) {
	var resp rpc.GetMediaInfoResponse
	if err := s.invoke(ctx, rpc.GetMediaInfo, &rpc.MediaRequest{MediaID: mediaID}, &resp); err != nil {
		return nil, err
	}
	return &resp.Info, nil
}

func (s *GRPCClient) ListChatMedia(ctx context.Context, chatID string) ([]rpc.MediaInfo, error) {
	var resp rpc.ListChatMediaResponse
	if err := s.invoke(ctx, rpc.ListChatMedia, &rpc.ListChatMediaRequest{ChatID: chatID}, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (s *GRPCClient) ClaimView(ctx context.Context, mediaID string) (*rpc.ClaimViewResponse, error) {
	var resp rpc.ClaimViewResponse
	if err := s.invoke(ctx, rpc.ClaimView, &rpc.MediaRequest{MediaID: mediaID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *GRPCClient) FinalizeView(ctx context.Context, mediaID string) error {
	var resp rpc.OKResponse
	return s.invoke(ctx, rpc.FinalizeView, &rpc.MediaRequest{MediaID: mediaID}, &resp)
}

func (s *GRPCClient) Revoke(ctx context.Context, mediaID string) error {
	var resp rpc.OKResponse
	return s.invoke(ctx, rpc.Revoke, &rpc.MediaRequest{MediaID: mediaID}, &resp)
}

func (s *GRPCClient) ReportMedia(ctx context.Context, mediaID, reason string) (string, error) {
	var resp rpc.ReportMediaResponse
	if err := s.invoke(ctx, rpc.ReportMedia, &rpc.ReportMediaRequest{MediaID: mediaID, Reason: reason}, &resp); err != nil {
		return "", err
	}
	return resp.ReportID, nil
}

func (s *GRPCClient) ReportScreenshot(ctx context.Context, mediaID string) (bool, error) {
	var resp rpc.ReportScreenshotResponse
	if err := s.invoke(ctx, rpc.ReportScreenshot, &rpc.MediaRequest{MediaID: mediaID}, &resp); err != nil {
		return false, err
	}
	return resp.Allowed, nil
}

func (s *GRPCClient) GetMediaURL(ctx context.Context, mediaID string) (string, error) {
	var resp rpc.MediaURLResponse
	if err := s.invoke(ctx, rpc.GetMediaURL, &rpc.MediaRequest{MediaID: mediaID}, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

func (s *GRPCClient) GetUploadURL(ctx context.Context) (string, string, error) {
	var resp rpc.UploadURLResponse
	if err := s.invoke(ctx, rpc.GetUploadURL, &rpc.UploadURLRequest{}, &resp); err != nil {
		return "", "", err
	}
	return resp.StorageKey, resp.URL, nil
}

func (s *GRPCClient) DeleteMedia(ctx context.Context, mediaID string) error {
	var resp rpc.OKResponse
	return s.invoke(ctx, rpc.DeleteMedia, &rpc.MediaRequest{MediaID: mediaID}, &resp)
}
