package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/vanish/internal/common"
	"github.com/dmitrijs2005/vanish/internal/logging"
	"github.com/dmitrijs2005/vanish/internal/observability/metrics"
	"github.com/dmitrijs2005/vanish/internal/server/models"
	"github.com/dmitrijs2005/vanish/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vanish/internal/server/visibility"
)

// ClaimResult is returned by a successful claim. A zero ExpiresAt means the
// view has no countdown (owner views and "once" items).
type ClaimResult struct {
	MediaID          string
	ExpiresAt        time.Time
	RemainingSeconds int
	Owner            bool
	ViewOnce         bool
	TimerSeconds     int
	CanScreenshot    bool
	ViewCount        int
	// Watermark is the text the client overlays when the item asks for it.
	Watermark string
}

// ViewService is the view session coordinator: the only writer of grants
// after creation.
type ViewService struct {
	repomanager repomanager.RepositoryManager
	audit       *AuditLog
	blobs       BlobStore
	limiter     *ClaimLimiter
	policy      visibility.Policy
	logger      logging.Logger
	now         func() time.Time
}

func NewViewService(m repomanager.RepositoryManager, audit *AuditLog, blobs BlobStore,
	limiter *ClaimLimiter, policy visibility.Policy, logger logging.Logger) *ViewService {
	return &ViewService{
		repomanager: m,
		audit:       audit,
		blobs:       blobs,
		limiter:     limiter,
		policy:      policy,
		logger:      logger.With("module", "view"),
		now:         time.Now,
	}
}

func watermarkText(viewerID string, at time.Time) string {
	return fmt.Sprintf("%s %s", viewerID, at.Format(time.RFC3339))
}

// Claim grants permission to start a view. The owner always succeeds and
// never touches a grant. For anyone else the grant row is locked, checked
// and updated in one transaction, so concurrent claims on one grant are
// serialised and a view-once grant yields exactly one success.
func (s *ViewService) Claim(ctx context.Context, mediaID, viewerID string) (res *ClaimResult, err error) {
	failed := &models.SecurityEvent{MediaID: mediaID, ActorID: viewerID, Type: models.EventClaimed}
	defer func() {
		metrics.ClaimsTotal.WithLabelValues(common.Code(err)).Inc()
		if err == nil {
			return
		}
		s.audit.RecordFailure(ctx, failed, err)
		if common.Code(err) == "internal" {
			s.logger.Error(ctx, "claim failed", "media_id", mediaID, "viewer_id", viewerID, "error", err)
		} else {
			s.logger.Warn(ctx, "claim denied", "media_id", mediaID, "viewer_id", viewerID, "reason", common.Code(err))
		}
	}()

	if !s.limiter.Allow(viewerID) {
		return nil, common.ErrRateLimited
	}

	item, err := loadLive(ctx, s.repomanager, mediaID)
	if err != nil {
		return nil, err
	}
	failed.ChatID = item.ChatID

	if item.IsOwner(viewerID) {
		now := s.now().UTC()
		res := &ClaimResult{
			MediaID:       item.ID,
			Owner:         true,
			ViewOnce:      item.ViewOnce,
			TimerSeconds:  item.TimerSeconds,
			CanScreenshot: true,
		}
		if item.WatermarkEnabled {
			res.Watermark = watermarkText(viewerID, now)
		}
		if err := s.audit.Record(ctx, s.repomanager, &models.SecurityEvent{
			ChatID:   item.ChatID,
			MediaID:  item.ID,
			ActorID:  viewerID,
			Type:     models.EventClaimed,
			Metadata: map[string]string{models.MetaOutcome: models.OutcomeOK, "owner": "true"},
		}); err != nil {
			s.logger.Error(ctx, "failed to audit owner claim", "media_id", item.ID, "error", err)
		}
		return res, nil
	}

	err = s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		now := s.now().UTC()

		g, err := r.Grants().GetForUpdate(ctx, mediaID, viewerID)
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrPermissionDenied
		}
		if err != nil {
			return err
		}
		if err := visibility.CheckClaim(item, g, now, s.policy); err != nil {
			return err
		}

		g, err = r.Grants().RecordClaim(ctx, mediaID, viewerID, now)
		if err != nil {
			return err
		}

		res = &ClaimResult{
			MediaID:       item.ID,
			ViewOnce:      item.ViewOnce,
			TimerSeconds:  item.TimerSeconds,
			CanScreenshot: g.CanScreenshot,
			ViewCount:     g.ViewCount,
		}
		if exp, ok := g.ExpiresAt(item.TimerSeconds); ok {
			res.ExpiresAt = exp
			res.RemainingSeconds = visibility.RemainingSeconds(exp, now)
		}
		if item.WatermarkEnabled {
			res.Watermark = watermarkText(viewerID, now)
		}

		return s.audit.Record(ctx, r, &models.SecurityEvent{
			ChatID:  item.ChatID,
			MediaID: item.ID,
			ActorID: viewerID,
			Type:    models.EventClaimed,
			Metadata: map[string]string{
				models.MetaOutcome: models.OutcomeOK,
				"view_count":       strconv.Itoa(g.ViewCount),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "claim granted", "media_id", mediaID, "viewer_id", viewerID, "view_count", res.ViewCount)
	return res, nil
}

// Finalize ends a view session. It is idempotent: only the first call
// changes the grant, later calls are recorded and succeed.
func (s *ViewService) Finalize(ctx context.Context, mediaID, viewerID string) (err error) {
	failed := &models.SecurityEvent{MediaID: mediaID, ActorID: viewerID, Type: models.EventFinalized}
	defer func() {
		metrics.FinalizesTotal.WithLabelValues(common.Code(err)).Inc()
		if err != nil {
			s.audit.RecordFailure(ctx, failed, err)
			s.logger.Warn(ctx, "finalize failed", "media_id", mediaID, "viewer_id", viewerID, "error", err)
		}
	}()

	item, err := loadLive(ctx, s.repomanager, mediaID)
	if err != nil {
		return err
	}
	failed.ChatID = item.ChatID

	event := &models.SecurityEvent{
		ChatID:   item.ChatID,
		MediaID:  item.ID,
		ActorID:  viewerID,
		Type:     models.EventFinalized,
		Metadata: map[string]string{models.MetaOutcome: models.OutcomeOK},
	}

	if item.IsOwner(viewerID) {
		event.Metadata["owner"] = "true"
		return s.audit.Record(ctx, s.repomanager, event)
	}

	consume := visibility.ConsumesOnFinalize(item, s.policy)
	return s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		g, err := r.Grants().GetForUpdate(ctx, mediaID, viewerID)
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrPermissionDenied
		}
		if err != nil {
			return err
		}
		if g.OpenedAt == nil {
			if g.Revoked {
				return common.ErrPermissionDenied
			}
			return fmt.Errorf("%w: finalize before claim", common.ErrorValidation)
		}

		changed, err := r.Grants().MarkFinalized(ctx, mediaID, viewerID, s.now().UTC(), consume)
		if err != nil {
			return err
		}
		event.Metadata["consumed"] = strconv.FormatBool(consume)
		if !changed {
			event.Metadata["duplicate"] = "true"
		}
		return s.audit.Record(ctx, r, event)
	})
}

// Revoke voids every grant of the item. Only the owner may revoke;
// revoking twice succeeds.
func (s *ViewService) Revoke(ctx context.Context, mediaID, actorID string) error {
	item, err := loadLive(ctx, s.repomanager, mediaID)
	if err != nil {
		return err
	}
	if !item.IsOwner(actorID) {
		s.logger.Warn(ctx, "revoke denied", "media_id", mediaID, "actor_id", actorID)
		return common.ErrPermissionDenied
	}

	var n int64
	err = s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		n, err = r.Grants().RevokeAll(ctx, mediaID, s.now().UTC())
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
			},
		})
	})
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "media revoked", "media_id", mediaID, "grants", n)
	return nil
}

// canFetch reports whether a grant in state st may fetch the blob. Only an
// open viewing session may, plus a repeat view reopened after a finalize.
func (s *ViewService) canFetch(g *models.PermissionGrant, st visibility.State) error {
	switch st {
	case visibility.StateViewing:
		return nil
	case visibility.StateAvailable:
		if s.policy.RepeatViews && g.LastViewedAt != nil && g.FinalizedAt != nil && g.LastViewedAt.After(*g.FinalizedAt) {
			return nil
		}
		return common.ErrPermissionDenied
	case visibility.StateExpired:
		return common.ErrExpired
	case visibility.StateConsumed:
		return common.ErrAlreadyViewed
	default:
		return common.ErrPermissionDenied
	}
}

// MediaURL returns a short-lived URL for the blob. Recipients must hold a
// claimed, unfinished view.
func (s *ViewService) MediaURL(ctx context.Context, mediaID, viewerID string) (string, error) {
	item, err := loadLive(ctx, s.repomanager, mediaID)
	if err != nil {
		return "", err
	}
	if !item.IsOwner(viewerID) {
		g, err := s.repomanager.Grants().Get(ctx, mediaID, viewerID)
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrPermissionDenied
		}
		if err != nil {
			return "", err
		}
		if err := s.canFetch(g, visibility.Evaluate(item, g, s.now().UTC())); err != nil {
			return "", err
		}
	}

	url, err := s.blobs.PresignGet(ctx, item.StorageRef)
	if err != nil {
		s.logger.Error(ctx, "presign get failed", "media_id", mediaID, "error", err)
		return "", fmt.Errorf("%w: %v", common.ErrTransientStorage, err)
	}
	return url, nil
}

// ReportScreenshot records a client-detected screenshot and reports whether
// the actor's grant allowed it.
func (s *ViewService) ReportScreenshot(ctx context.Context, mediaID, actorID string) (bool, error) {
	item, err := loadLive(ctx, s.repomanager, mediaID)
	if err != nil {
		return false, err
	}
	allowed := true
	if !item.IsOwner(actorID) {
		g, err := s.repomanager.Grants().Get(ctx, mediaID, actorID)
		if errors.Is(err, common.ErrorNotFound) {
			return false, common.ErrPermissionDenied
		}
		if err != nil {
			return false, err
		}
		allowed = g.CanScreenshot
	}

	err = s.audit.Record(ctx, s.repomanager, &models.SecurityEvent{
		ChatID:   item.ChatID,
		MediaID:  item.ID,
		ActorID:  actorID,
		Type:     models.EventScreenshotDetected,
		Metadata: map[string]string{"allowed": strconv.FormatBool(allowed)},
	})
	if err != nil {
		return false, err
	}
	metrics.ScreenshotEventsTotal.WithLabelValues(strconv.FormatBool(allowed)).Inc()
	if !allowed {
		s.logger.Warn(ctx, "screenshot of protected media", "media_id", mediaID, "actor_id", actorID)
	}
	return allowed, nil
}
