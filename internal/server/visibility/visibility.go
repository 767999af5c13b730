// Package visibility is the expiration evaluator: a set of pure functions
// that derive a grant's state from stored timestamps and the current time.
// Nothing here writes; expiry is evaluated lazily on every read and claim.
package visibility

import (
	"math"
	"time"

	"github.com/dmitrijs2005/vanish/internal/common"
	"github.com/dmitrijs2005/vanish/internal/server/models"
)

// State is the viewer-facing state of one grant.
type State string

const (
	StateCreated   State = "created"
	StateViewing   State = "viewing"
	StateAvailable State = "available"
	StateConsumed  State = "consumed"
	StateExpired   State = "expired"
	StateRevoked   State = "revoked"
)

// PlaceholderGrace is how long a terminal item stays in chat lists as a
// placeholder before it must be omitted.
const PlaceholderGrace = 60 * time.Second

// Policy holds the product decisions the evaluator depends on.
type Policy struct {
	// RepeatViews lets a non-view-once item be claimed again while its
	// window is open. Off by default: every non-owner view is single use.
	RepeatViews bool
}

// Terminal reports whether no further claim can succeed from s.
func (s State) Terminal() bool {
	return s == StateConsumed || s == StateExpired || s == StateRevoked
}

// Evaluate derives the state of grant at now. A nil grant is the owner's
// view, which always stays in StateCreated.
func Evaluate(item *models.MediaItem, grant *models.PermissionGrant, now time.Time) State {
	if grant == nil {
		return StateCreated
	}
	if grant.Revoked {
		return StateRevoked
	}
	if grant.Consumed() {
		return StateConsumed
	}
	if exp, ok := grant.ExpiresAt(item.TimerSeconds); ok && !now.Before(exp) {
		return StateExpired
	}
	if grant.OpenedAt == nil {
		return StateCreated
	}
	if grant.FinalizedAt == nil {
		return StateViewing
	}
	return StateAvailable
}

// CheckClaim applies the claim guards in order and returns the sentinel for
// the first one that fails, or nil when the claim may proceed.
func CheckClaim(item *models.MediaItem, grant *models.PermissionGrant, now time.Time, p Policy) error {
	if grant == nil || grant.Revoked || !grant.CanView {
		return common.ErrPermissionDenied
	}
	if item.ViewOnce && grant.ViewCount >= 1 {
		return common.ErrAlreadyViewed
	}
	if exp, ok := grant.ExpiresAt(item.TimerSeconds); ok && !now.Before(exp) {
		return common.ErrExpired
	}
	if grant.Consumed() {
		return common.ErrAlreadyViewed
	}
	if !p.RepeatViews && grant.ViewCount >= 1 {
		return common.ErrAlreadyViewed
	}
	return nil
}

// ConsumesOnFinalize reports whether finalizing a view of item uses the
// grant up for good.
func ConsumesOnFinalize(item *models.MediaItem, p Policy) bool {
	return item.ViewOnce || !p.RepeatViews
}

// IsExpired is the single flag chat placeholders are rendered from.
func IsExpired(s State) bool {
	return s.Terminal()
}

// RemainingSeconds is max(0, ceil((expiresAt-now)/1s)).
func RemainingSeconds(expiresAt, now time.Time) int {
	d := expiresAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

// TerminalAt returns the moment grant entered a terminal state.
func TerminalAt(item *models.MediaItem, grant *models.PermissionGrant, now time.Time) (time.Time, bool) {
	switch Evaluate(item, grant, now) {
	case StateRevoked:
		if grant.RevokedAt != nil {
			return *grant.RevokedAt, true
		}
		return now, true
	case StateConsumed:
		return *grant.ConsumedAt, true
	case StateExpired:
		return grant.ExpiresAt(item.TimerSeconds)
	}
	return time.Time{}, false
}

// Projection tells the chat list how to render an item.
type Projection struct {
	// Placeholder is set while a terminal item is inside PlaceholderGrace.
	Placeholder bool
	// Hidden is set once the grace has elapsed; the item must be omitted.
	Hidden bool
}

// Project computes the list projection of grant at now.
func Project(item *models.MediaItem, grant *models.PermissionGrant, now time.Time) Projection {
	at, ok := TerminalAt(item, grant, now)
	if !ok {
		return Projection{}
	}
	if now.Before(at.Add(PlaceholderGrace)) {
		return Projection{Placeholder: true}
	}
	return Projection{Hidden: true}
}
