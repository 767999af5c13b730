package services

import (
	"context"
	"strings"
	"unicode/utf8"
	"time"

	"github.com/dmitrijs2005/vanish/internal/logging"
	"github.com/dmitrijs2005/vanish/internal/server/models"
	"github.com/dmitrijs2005/vanish/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	defaultReportReason = "unspecified"
	maxReportReasonLen  = 1024
	DefaultReportsLimit = 100
)

// ReportService writes abuse reports for the moderation collaborator. It
// never looks at view state.
type ReportService struct {
	repomanager repomanager.RepositoryManager
	audit       *AuditLog
	logger      logging.Logger
	now         func() time.Time
}

func NewReportService(m repomanager.RepositoryManager, audit *AuditLog, logger logging.Logger) *ReportService {
	return &ReportService{
		repomanager: m,
		audit:       audit,
		logger:      logger.With("module", "reports"),
		now:         time.Now,
	}
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Report succeeds whenever mediaID exists, including soft-deleted items.
func (s *ReportService) Report(ctx context.Context, reporterID, mediaID, reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultReportReason
	}
	reason = truncateUTF8(reason, maxReportReasonLen)

	rep := &models.Report{
		ID:         uuid.NewString(),
		MediaID:    mediaID,
		ReporterID: reporterID,
		Reason:     reason,
		Status:     models.ReportStatusOpen,
	}

	err := s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		item, err := r.Media().GetByID(ctx, mediaID)
		if err != nil {
			return err
		}
		rep.ChatID = item.ChatID
		if err := r.Reports().Create(ctx, rep); err != nil {
			return err
		}
		return s.audit.Record(ctx, r, &models.SecurityEvent{
			ChatID:   item.ChatID,
			MediaID:  item.ID,
			ActorID:  reporterID,
			Type:     models.EventReported,
			Metadata: map[string]string{"report_id": rep.ID, models.MetaReason: reason},
		})
	})
	if err != nil {
		return "", err
	}
	s.logger.Info(ctx, "media reported", "media_id", mediaID, "report_id", rep.ID)
	return rep.ID, nil
}

// ListOpen returns up to limit open reports, oldest first.
func (s *ReportService) ListOpen(ctx context.Context, limit int) ([]*models.Report, error) {
	if limit <= 0 || limit > DefaultReportsLimit {
		limit = DefaultReportsLimit
	}
	return s.repomanager.Reports().ListOpen(ctx, limit)
}
