package models

import "time"

// EventType enumerates audit events.
type EventType string

const (
	EventCreated            EventType = "created"
	EventClaimed            EventType = "claimed"
	EventFinalized          EventType = "finalized"
	EventRevoked            EventType = "revoked"
	EventReported           EventType = "reported"
	EventScreenshotDetected EventType = "screenshot_detected"
)

// Metadata keys written on events.
const (
	MetaOutcome = "outcome"
	MetaReason  = "reason"
	MetaGrants  = "grants"

	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// SecurityEvent is one append-only audit record. MediaID is empty for
// chat-level events.
type SecurityEvent struct {
	ID        int64
	ChatID    string
	MediaID   string
	ActorID   string
	Type      EventType
	Metadata  map[string]string
	CreatedAt time.Time
}
