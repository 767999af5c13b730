package models

import "time"

// PermissionGrant is one recipient's access record for one media item.
// There is exactly one grant per (MediaID, RecipientID).
//
// OpenedAt is written once, by the first successful claim. ViewCount never
// decreases. Once Revoked is set, no claim on the grant can succeed.
type PermissionGrant struct {
	MediaID       string
	SenderID      string
	RecipientID   string
	CanView       bool
	CanScreenshot bool
	Revoked       bool
	OpenedAt      *time.Time
	ViewCount     int
	LastViewedAt  *time.Time
	FinalizedAt   *time.Time
	ConsumedAt    *time.Time
	RevokedAt     *time.Time
	CreatedAt     time.Time
}

// ExpiresAt derives the end of the viewing window from OpenedAt and the
// item's timer. ok is false when the grant was never opened or the item has
// no timer.
func (g *PermissionGrant) ExpiresAt(timerSeconds int) (t time.Time, ok bool) {
	if g.OpenedAt == nil || timerSeconds <= 0 {
		return time.Time{}, false
	}
	return g.OpenedAt.Add(time.Duration(timerSeconds) * time.Second), true
}

// Consumed reports whether the grant was used up by a finalize.
func (g *PermissionGrant) Consumed() bool {
	return g.ConsumedAt != nil
}
