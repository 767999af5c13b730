package reports

import (
	"context"

	"github.com/dmitrijs2005/vanish/internal/server/models"
)

// Repository persists abuse reports for the moderation collaborator.
type Repository interface {
	Create(ctx context.Context, r *models.Report) error
	ListOpen(ctx context.Context, limit int) ([]*models.Report, error)
}
