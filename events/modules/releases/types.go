// Package release defines types for Kafka event production of release save events.
package release

import (
	"time"
)

// ReleaseSavedEvent represents a release create/update event published to Kafka.
// Downstream consumers (the website cache warmer, the docs builder) key off
// the version string and support-state fields.
type ReleaseSavedEvent struct {
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EventTime     time.Time `json:"event_time"`
	SchemaVersion string    `json:"schema_version"`

	Release ReleasePayload `json:"release"`
}

// ReleasePayload is the release snapshot carried by a ReleaseSavedEvent.
type ReleasePayload struct {
	Version  string     `json:"version"`
	IsActive bool       `json:"is_active"`
	IsLTS    bool       `json:"is_lts"`
	Date     *time.Time `json:"date,omitempty"`
	EOLDate  *time.Time `json:"eol_date,omitempty"`
	Major    int        `json:"major"`
	Minor    int        `json:"minor"`
	Micro    int        `json:"micro"`
	Status   string     `json:"status"`
}
