package grants

import (
	"context"
	"time"

	"github.com/dmitrijs2005/vanish/internal/server/models"
)

// Repository is the PermissionLedger storage. Mutating methods are only
// called by the view coordinator.
type Repository interface {
	CreateMany(ctx context.Context, grants []*models.PermissionGrant) error
	Get(ctx context.Context, mediaID, recipientID string) (*models.PermissionGrant, error)
	// GetForUpdate reads the grant and locks its row until the enclosing
	// transaction ends.
	GetForUpdate(ctx context.Context, mediaID, recipientID string) (*models.PermissionGrant, error)
	ListByMedia(ctx context.Context, mediaID string) ([]*models.PermissionGrant, error)
	// RecordClaim sets opened_at if unset, increments view_count and sets
	// last_viewed_at, returning the updated row.
	RecordClaim(ctx context.Context, mediaID, recipientID string, at time.Time) (*models.PermissionGrant, error)
	// MarkFinalized sets finalized_at (and consumed_at when consume is true)
	// unless already set. It reports whether anything changed.
	MarkFinalized(ctx context.Context, mediaID, recipientID string, at time.Time, consume bool) (bool, error)
	// RevokeAll revokes every still-active grant of the item.
	RevokeAll(ctx context.Context, mediaID string, at time.Time) (int64, error)
}
