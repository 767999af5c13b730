package models

import "time"

const ReportStatusOpen = "open"

// Report is handed to the moderation collaborator. It is written
// independently of any view state.
type Report struct {
	ID         string
	MediaID    string
	ChatID     string
	ReporterID string
	Reason     string
	Status     string
	CreatedAt  time.Time
}
