package grpc

import (
	"context"

	"github.com/dmitrijs2005/vanish/internal/rpc"
	"github.com/dmitrijs2005/vanish/internal/server/models"
	"github.com/dmitrijs2005/vanish/internal/server/services"
)

func toWireInfo(i *services.MediaInfo) rpc.MediaInfo {
	return rpc.MediaInfo{
		MediaID:          i.MediaID,
		ChatID:           i.ChatID,
		OwnerID:          i.OwnerID,
		MediaType:        string(i.Type),
		TimerSeconds:     i.TimerSeconds,
		CanScreenshot:    i.CanScreenshot,
		ViewOnce:         i.ViewOnce,
		WatermarkEnabled: i.WatermarkEnabled,
		IsExpired:        i.IsExpired,
		State:            string(i.State),
		ExpiresAt:        i.ExpiresAt,
		ViewCount:        i.ViewCount,
		Placeholder:      i.Placeholder,
		Hidden:           i.Hidden,
		Origin:           string(i.Origin),
		OriginRef:        i.OriginRef,
		CreatedAt:        i.CreatedAt,
	}
}

func (s *GRPCServer) CreateMedia(ctx context.Context, req *rpc.CreateMediaRequest) (*rpc.CreateMediaResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}

	id, err := s.media.Create(ctx, services.CreateParams{
		OwnerID:          userID,
		ChatID:           req.ChatID,
		Type:             models.MediaType(req.MediaType),
		StorageRef:       req.StorageRef,
		TimerSeconds:     req.TimerSeconds,
		ViewOnce:         req.ViewOnce,
		WatermarkEnabled: req.WatermarkEnabled,
		AllowScreenshots: req.AllowScreenshots,
		Recipients:       req.Recipients,
		Origin:           models.Origin(req.Origin),
		OriginRef:        req.OriginRef,
	})
	if err != nil {
		return nil, rpc.ToStatus(err)
	}

	return &rpc.CreateMediaResponse{MediaID: id}, nil
}

func (s *GRPCServer) GetMediaInfo(ctx context.Context, req *rpc.MediaRequest) (*rpc.GetMediaInfoResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}

	info, err := s.media.GetInfo(ctx, req.MediaID, userID)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}

	return &rpc.GetMediaInfoResponse{Info: toWireInfo(info)}, nil
}

func (s *GRPCServer) ListChatMedia(ctx context.Context, req *rpc.ListChatMediaRequest) (*rpc.ListChatMediaResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}

	items, err := s.media.ListChat(ctx, req.ChatID, userID)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}

	out := make([]rpc.MediaInfo, 0, len(items))
	for _, i := range items {
		out = append(out, toWireInfo(i))
	}
	return &rpc.ListChatMediaResponse{Items: out}, nil
}

func (s *GRPCServer) ClaimView(ctx context.Context, req *rpc.MediaRequest) (*rpc.ClaimViewResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}

	res, err := s.views.Claim(ctx, req.MediaID, userID)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}

	resp := &rpc.ClaimViewResponse{
		RemainingSeconds: res.RemainingSeconds,
		Owner:            res.Owner,
		ViewOnce:         res.ViewOnce,
		TimerSeconds:     res.TimerSeconds,
		CanScreenshot:    res.CanScreenshot,
		ViewCount:        res.ViewCount,
		Watermark:        res.Watermark,
	}
	if !res.ExpiresAt.IsZero() {
		t := res.ExpiresAt
		resp.ExpiresAt = &t
	}
	return resp, nil
}

func (s *GRPCServer) FinalizeView(ctx context.Context, req *rpc.MediaRequest) (*rpc.OKResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}

	if err := s.views.Finalize(ctx, req.MediaID, userID); err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &rpc.OKResponse{OK: true}, nil
}

func (s *GRPCServer) Revoke(ctx context.Context, req *rpc.MediaRequest) (*rpc.OKResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}

	if err := s.views.Revoke(ctx, req.MediaID, userID); err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &rpc.OKResponse{OK: true}, nil
}

func (s *GRPCServer) ReportMedia(ctx context.Context, req *rpc.ReportMediaRequest) (*rpc.ReportMediaResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}

	id, err := s.reports.Report(ctx, userID, req.MediaID, req.Reason)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &rpc.ReportMediaResponse{ReportID: id}, nil
}

func (s *GRPCServer) ReportScreenshot(ctx context.Context, req *rpc.MediaRequest) (*rpc.ReportScreenshotResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}

	allowed, err := s.views.ReportScreenshot(ctx, req.MediaID, userID)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &rpc.ReportScreenshotResponse{Allowed: allowed}, nil
}

func (s *GRPCServer) GetMediaURL(ctx context.Context, req *rpc.MediaRequest) (*rpc.MediaURLResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}

	url, err := s.views.MediaURL(ctx, req.MediaID, userID)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &rpc.MediaURLResponse{URL: url}, nil
}

func (s *GRPCServer) GetUploadURL(ctx context.Context, req *rpc.UploadURLRequest) (*rpc.UploadURLResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}

	key, url, err := s.media.UploadURL(ctx, userID)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &rpc.UploadURLResponse{StorageKey: key, URL: url}, nil
}

func (s *GRPCServer) DeleteMedia(ctx context.Context, req *rpc.MediaRequest) (*rpc.OKResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}

	if err := s.media.Delete(ctx, req.MediaID, userID); err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &rpc.OKResponse{OK: true}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *rpc.PingRequest) (*rpc.PingResponse, error) {
	return &rpc.PingResponse{Time: s.now().UTC()}, nil
}
