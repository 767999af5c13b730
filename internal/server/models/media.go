// Package models defines server-side data models persisted in the database.
package models

import "time"

// MediaType is the kind of protected blob.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// Valid reports whether t is a supported media type.
func (t MediaType) Valid() bool {
	return t == MediaTypeImage || t == MediaTypeVideo
}

// Origin names the feature that produced the item. Both features share the
// same grant state machine.
type Origin string

const (
	OriginDirect      Origin = "direct"
	OriginTruthOrDare Origin = "truth_or_dare"
)

// Valid reports whether o is a known origin.
func (o Origin) Valid() bool {
	return o == OriginDirect || o == OriginTruthOrDare
}

// AllowedTimers lists the timer values a sender may pick. 0 means "once".
var AllowedTimers = []int{0, 3, 10, 30, 60}

// ValidTimer reports whether seconds is one of AllowedTimers.
func ValidTimer(seconds int) bool {
	for _, t := range AllowedTimers {
		if t == seconds {
			return true
		}
	}
	return false
}

// MediaItem is the registry row of one protected photo or video. It is
// immutable after creation except for DeletedAt and Reaped.
type MediaItem struct {
	ID               string
	OwnerID          string
	ChatID           string
	Type             MediaType
	StorageRef       string
	TimerSeconds     int
	ViewOnce         bool
	WatermarkEnabled bool
	Origin           Origin
	OriginRef        string
	CreatedAt        time.Time
	DeletedAt        *time.Time
	// Reaped marks a soft-delete made by the expiry sweep rather than by
	// the owner.
	Reaped bool
}

// IsOwner reports whether userID sent the item.
func (m *MediaItem) IsOwner(userID string) bool {
	return m.OwnerID == userID
}

// Timer returns the viewing window, zero for "once" items.
func (m *MediaItem) Timer() time.Duration {
	return time.Duration(m.TimerSeconds) * time.Second
}

// Deleted reports whether the item was soft-deleted.
func (m *MediaItem) Deleted() bool {
	return m.DeletedAt != nil
}

// Withdrawn reports whether the owner deleted the item. Swept items stay
// reachable through their grants.
func (m *MediaItem) Withdrawn() bool {
	return m.Deleted() && !m.Reaped
}
