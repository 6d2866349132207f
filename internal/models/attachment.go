package models

// Attachment is one stored file payload, linked to a ReportRecord through
// ID. Data holds the full content as a data URI.
type Attachment struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Data      string `json:"data"`
	Timestamp string `json:"timestamp"`
}
