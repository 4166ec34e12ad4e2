package domain

import "time"

// RawPosting is one job advertisement as captured from one source at one
// point in time. Immutable once created; owned by the coordinator until it
// is handed to the dedup engine.
type RawPosting struct {
	SourceID    string // adapter name: eluta/greenhouse/lever/rssfeed/emailalert
	SourceURL   string
	Title       string
	Company     string
	Location    string
	Description string // plain text, HTML already stripped
	WorkMode    string // Remote/Hybrid/Onsite/Unknown
	PostedAt    *time.Time
	ScrapedAt   time.Time
}
