// Package services contains server-side business logic: the media registry,
// the view coordinator, the audit log, abuse reports and the expiry reaper.
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/vanish/internal/common"
	"github.com/dmitrijs2005/vanish/internal/logging"
	"github.com/dmitrijs2005/vanish/internal/observability/metrics"
	"github.com/dmitrijs2005/vanish/internal/server/models"
	"github.com/dmitrijs2005/vanish/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vanish/internal/server/visibility"
	"github.com/google/uuid"
)

// CreateParams describes one protected item at send time.
type CreateParams struct {
	OwnerID          string
	ChatID           string
	Type             models.MediaType
	StorageRef       string
	TimerSeconds     int
	ViewOnce         bool
	WatermarkEnabled bool
	AllowScreenshots bool
	Recipients       []string
	Origin           models.Origin
	OriginRef        string
}

// MediaInfo is the requester's view of one item.
type MediaInfo struct {
	MediaID          string
	ChatID           string
	OwnerID          string
	Type             models.MediaType
	TimerSeconds     int
	CanScreenshot    bool
	ViewOnce         bool
	WatermarkEnabled bool
	IsExpired        bool
	State            visibility.State
	ExpiresAt        *time.Time
	ViewCount        int
	Placeholder      bool
	Hidden           bool
	Origin           models.Origin
	OriginRef        string
	CreatedAt        time.Time
}

// MediaService is the media registry.
type MediaService struct {
	repomanager repomanager.RepositoryManager
	audit       *AuditLog
	blobs       BlobStore
	logger      logging.Logger
	now         func() time.Time
}

func NewMediaService(m repomanager.RepositoryManager, audit *AuditLog, blobs BlobStore, logger logging.Logger) *MediaService {
	return &MediaService{
		repomanager: m,
		audit:       audit,
		blobs:       blobs,
		logger:      logger.With("module", "media"),
		now:         time.Now,
	}
}

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", common.ErrorValidation, msg)
}

// normalizeRecipients trims, de-duplicates and drops the owner.
func normalizeRecipients(owner string, in []string) []string {
	seen := map[string]struct{}{owner: {}}
	var out []string
	for _, r := range in {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Create stores the item, one grant per recipient and a created event in
// one transaction, and returns the new media id.
func (s *MediaService) Create(ctx context.Context, p CreateParams) (string, error) {
	if p.OwnerID == "" || p.ChatID == "" || p.StorageRef == "" {
		return "", validationError("owner, chat and storage reference are required")
	}
	if !p.Type.Valid() {
		return "", validationError(fmt.Sprintf("unsupported media type %q", p.Type))
	}
	if !models.ValidTimer(p.TimerSeconds) {
		return "", validationError(fmt.Sprintf("timer must be one of %v", models.AllowedTimers))
	}
	if p.Origin == "" {
		p.Origin = models.OriginDirect
	}
	if !p.Origin.Valid() {
		return "", validationError(fmt.Sprintf("unknown origin %q", p.Origin))
	}
	recipients := normalizeRecipients(p.OwnerID, p.Recipients)
	if len(recipients) == 0 {
		return "", validationError("at least one recipient other than the owner is required")
	}

	item := &models.MediaItem{
		ID:               uuid.NewString(),
		OwnerID:          p.OwnerID,
		ChatID:           p.ChatID,
		Type:             p.Type,
		StorageRef:       p.StorageRef,
		TimerSeconds:     p.TimerSeconds,
		ViewOnce:         p.ViewOnce || p.TimerSeconds == 0,
		WatermarkEnabled: p.WatermarkEnabled,
		Origin:           p.Origin,
		OriginRef:        p.OriginRef,
	}

	grants := make([]*models.PermissionGrant, 0, len(recipients))
	for _, r := range recipients {
		grants = append(grants, &models.PermissionGrant{
			MediaID:       item.ID,
			SenderID:      p.OwnerID,
			RecipientID:   r,
			CanView:       true,
			CanScreenshot: p.AllowScreenshots,
		})
	}

	err := s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		if err := r.Media().Create(ctx, item); err != nil {
			return err
		}
		if err := r.Grants().CreateMany(ctx, grants); err != nil {
			return err
		}
		return s.audit.Record(ctx, r, &models.SecurityEvent{
			ChatID:  item.ChatID,
			MediaID: item.ID,
			ActorID: item.OwnerID,
			Type:    models.EventCreated,
			Metadata: map[string]string{
				models.MetaGrants: strconv.Itoa(len(grants)),
				"timer_seconds":   strconv.Itoa(item.TimerSeconds),
				"view_once":       strconv.FormatBool(item.ViewOnce),
				"origin":          string(item.Origin),
			},
		})
	})
	if err != nil {
		s.logger.Error(ctx, "create media failed", "owner_id", p.OwnerID, "chat_id", p.ChatID, "error", err)
		return "", fmt.Errorf("error creating media: %w", err)
	}

	metrics.MediaCreatedTotal.WithLabelValues(string(item.Type), string(item.Origin)).Inc()
	s.logger.Info(ctx, "media created", "media_id", item.ID, "chat_id", item.ChatID, "grants", len(grants))
	return item.ID, nil
}

// loadLive returns the item unless it is missing or the owner deleted it.
// Reaped items are returned: their grants still decide access.
func loadLive(ctx context.Context, r repomanager.Repositories, mediaID string) (*models.MediaItem, error) {
	item, err := r.Media().GetByID(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	if item.Withdrawn() {
		return nil, common.ErrorNotFound
	}
	return item, nil
}

func ownerInfo(item *models.MediaItem) *MediaInfo {
	info := baseInfo(item)
	info.CanScreenshot = true
	info.State = visibility.StateCreated
	info.IsExpired = item.Deleted()
	return info
}

func baseInfo(item *models.MediaItem) *MediaInfo {
	return &MediaInfo{
		MediaID:          item.ID,
		ChatID:           item.ChatID,
		OwnerID:          item.OwnerID,
		Type:             item.Type,
		TimerSeconds:     item.TimerSeconds,
		ViewOnce:         item.ViewOnce,
		WatermarkEnabled: item.WatermarkEnabled,
		Origin:           item.Origin,
		OriginRef:        item.OriginRef,
		CreatedAt:        item.CreatedAt,
	}
}

func recipientInfo(item *models.MediaItem, g *models.PermissionGrant, now time.Time) *MediaInfo {
	info := baseInfo(item)
	info.CanScreenshot = g.CanScreenshot
	info.State = visibility.Evaluate(item, g, now)
	info.IsExpired = visibility.IsExpired(info.State)
	info.ViewCount = g.ViewCount
	if exp, ok := g.ExpiresAt(item.TimerSeconds); ok {
		info.ExpiresAt = &exp
	}
	proj := visibility.Project(item, g, now)
	info.Placeholder = proj.Placeholder
	info.Hidden = proj.Hidden
	return info
}

// GetInfo joins the requester's own grant. Requesters that are neither the
// owner nor a grant holder get ErrorNotFound.
func (s *MediaService) GetInfo(ctx context.Context, mediaID, requesterID string) (*MediaInfo, error) {
	r := s.repomanager
	item, err := loadLive(ctx, r, mediaID)
	if err != nil {
		return nil, err
	}
	if item.IsOwner(requesterID) {
		return ownerInfo(item), nil
	}
	g, err := r.Grants().Get(ctx, mediaID, requesterID)
	if err != nil {
		return nil, err
	}
	return recipientInfo(item, g, s.now().UTC()), nil
}

// ListChat returns every item of the chat the requester can see, oldest
// first. Items past their placeholder grace are left out.
func (s *MediaService) ListChat(ctx context.Context, chatID, requesterID string) ([]*MediaInfo, error) {
	r := s.repomanager
	items, err := r.Media().ListByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	out := make([]*MediaInfo, 0, len(items))
	for _, item := range items {
		if item.IsOwner(requesterID) {
			out = append(out, ownerInfo(item))
			continue
		}
		g, err := r.Grants().Get(ctx, item.ID, requesterID)
		if errors.Is(err, common.ErrorNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		info := recipientInfo(item, g, now)
		if info.Hidden {
			continue
		}
		out = append(out, info)
	}
	return out, nil
}

// Delete soft-deletes the item and revokes its grants. Only the owner may
// delete; deleting twice is a no-op.
func (s *MediaService) Delete(ctx context.Context, mediaID, actorID string) error {
	return s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		item, err := r.Media().GetByID(ctx, mediaID)
		if err != nil {
			return err
		}
		if !item.IsOwner(actorID) {
			return common.ErrPermissionDenied
		}
		now := s.now().UTC()
		deleted, err := r.Media().SoftDelete(ctx, mediaID, now)
		if err != nil || !deleted {
			return err
		}
		n, err := r.Grants().RevokeAll(ctx, mediaID, now)
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, r, &models.SecurityEvent{
			ChatID:  item.ChatID,
			MediaID: item.ID,
			ActorID: actorID,
			Type:    models.EventRevoked,
			Metadata: map[string]string{
				models.MetaOutcome: models.OutcomeOK,
				models.MetaGrants:  strconv.FormatInt(n, 10),
				"deleted":          "true",
			},
		})
	})
}

// UploadURL returns a fresh storage key and a presigned PUT URL for it.
func (s *MediaService) UploadURL(ctx context.Context, ownerID string) (key, url string, err error) {
	key, url, err = s.blobs.PresignPut(ctx, ownerID)
	if err != nil {
		s.logger.Error(ctx, "presign put failed", "owner_id", ownerID, "error", err)
		return "", "", fmt.Errorf("%w: %v", common.ErrTransientStorage, err)
	}
	return key, url, nil
}
