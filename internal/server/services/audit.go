package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/vanish/internal/common"
	"github.com/dmitrijs2005/vanish/internal/logging"
	"github.com/dmitrijs2005/vanish/internal/server/models"
	"github.com/dmitrijs2005/vanish/internal/server/repositories/repomanager"
)

// AuditLog appends security events. It never updates or removes one.
type AuditLog struct {
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewAuditLog(m repomanager.RepositoryManager, logger logging.Logger) *AuditLog {
	return &AuditLog{repomanager: m, logger: logger.With("module", "audit")}
}

// Record appends e through r, so that it commits or rolls back with the
// caller's transaction.
func (a *AuditLog) Record(ctx context.Context, r repomanager.Repositories, e *models.SecurityEvent) error {
	if err := r.Events().Append(ctx, e); err != nil {
		return fmt.Errorf("error appending %s event: %w", e.Type, err)
	}
	return nil
}

// RecordFailure appends a failed attempt in its own write, after the
// attempt's transaction was rolled back. A failure to audit is logged and
// otherwise ignored: the caller already has an error to return.
func (a *AuditLog) RecordFailure(ctx context.Context, e *models.SecurityEvent, cause error) {
	if e.Metadata == nil {
		e.Metadata = map[string]string{}
	}
	e.Metadata[models.MetaOutcome] = models.OutcomeFailed
	e.Metadata[models.MetaReason] = common.Code(cause)

	if err := a.repomanager.Events().Append(context.WithoutCancel(ctx), e); err != nil {
		a.logger.Error(ctx, "failed to audit failed attempt",
			"event", e.Type, "media_id", e.MediaID, "actor_id", e.ActorID, "error", err)
	}
}

func (a *AuditLog) ListByMedia(ctx context.Context, mediaID string) ([]*models.SecurityEvent, error) {
	return a.repomanager.Events().ListByMedia(ctx, mediaID)
}

func (a *AuditLog) ListByChat(ctx context.Context, chatID string, limit int) ([]*models.SecurityEvent, error) {
	return a.repomanager.Events().ListByChat(ctx, chatID, limit)
}
