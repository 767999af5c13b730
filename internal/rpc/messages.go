package rpc

import "time"

type CreateMediaRequest struct {
	ChatID           string   `json:"chat_id"`
	MediaType        string   `json:"media_type"`
	StorageRef       string   `json:"storage_ref"`
	TimerSeconds     int      `json:"timer_seconds"`
	ViewOnce         bool     `json:"view_once"`
	WatermarkEnabled bool     `json:"watermark_enabled"`
	AllowScreenshots bool     `json:"allow_screenshots"`
	Recipients       []string `json:"recipients"`
	Origin           string   `json:"origin,omitempty"`
	OriginRef        string   `json:"origin_ref,omitempty"`
}

type CreateMediaResponse struct {
	MediaID string `json:"media_id"`
}

// MediaRequest addresses one item. It is the request of every per-item
// method except ReportMedia.
type MediaRequest struct {
	MediaID string `json:"media_id"`
}

type MediaInfo struct {
	MediaID          string     `json:"media_id"`
	ChatID           string     `json:"chat_id"`
	OwnerID          string     `json:"owner_id"`
	MediaType        string     `json:"media_type"`
	TimerSeconds     int        `json:"timer_seconds"`
	CanScreenshot    bool       `json:"can_screenshot"`
	ViewOnce         bool       `json:"view_once"`
	WatermarkEnabled bool       `json:"watermark_enabled"`
	IsExpired        bool       `json:"is_expired"`
	State            string     `json:"state"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	ViewCount        int        `json:"view_count"`
	Placeholder      bool       `json:"placeholder"`
	Hidden           bool       `json:"hidden"`
	Origin           string     `json:"origin"`
	OriginRef        string     `json:"origin_ref,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

type GetMediaInfoResponse struct {
	Info MediaInfo `json:"info"`
}

type ListChatMediaRequest struct {
	ChatID string `json:"chat_id"`
}

type ListChatMediaResponse struct {
	Items []MediaInfo `json:"items"`
}

type ClaimViewResponse struct {
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	RemainingSeconds int        `json:"remaining_seconds"`
	Owner            bool       `json:"owner"`
	ViewOnce         bool       `json:"view_once"`
	TimerSeconds     int        `json:"timer_seconds"`
	CanScreenshot    bool       `json:"can_screenshot"`
	ViewCount        int        `json:"view_count"`
	Watermark        string     `json:"watermark,omitempty"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

type ReportMediaRequest struct {
	MediaID string `json:"media_id"`
	Reason  string `json:"reason"`
}

type ReportMediaResponse struct {
	ReportID string `json:"report_id"`
}

type ReportScreenshotResponse struct {
	Allowed bool `json:"allowed"`
}

type MediaURLResponse struct {
	URL string `json:"url"`
}

type UploadURLRequest struct{}

type UploadURLResponse struct {
	StorageKey string `json:"storage_key"`
	URL        string `json:"url"`
}

type PingRequest struct{}

type PingResponse struct {
	Time time.Time `json:"time"`
}
