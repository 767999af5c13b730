package client

import (
	"context"

	"github.com/dmitrijs2005/vanish/internal/rpc"
)

type Client interface {
	Close() error
	Ping(ctx context.Context) error
	CreateMedia(ctx context.Context, req *rpc.CreateMediaRequest) (string, error)
	GetMediaInfo(ctx context.Context, mediaID string) (*rpc.MediaInfo, error)
	ListChatMedia(ctx context.Context, chatID string) ([]rpc.MediaInfo, error)
	ClaimView(ctx context.Context, mediaID string) (*rpc.ClaimViewResponse, error)
	FinalizeView(ctx context.Context, mediaID string) error
	Revoke(ctx context.Context, mediaID string) error
	ReportMedia(ctx context.Context, mediaID, reason string) (string, error)
	ReportScreenshot(ctx context.Context, mediaID string) (bool, error)
	GetMediaURL(ctx context.Context, mediaID string) (string, error)
	GetUploadURL(ctx context.Context) (key, url string, err error)
	DeleteMedia(ctx context.Context, mediaID string) error
}
