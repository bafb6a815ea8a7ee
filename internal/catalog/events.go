package catalog

import (
	"context"
	"encoding/json"
	"time"
)

// Catalog event types, carried in the event_type message header.
const (
	EventVideoIngested     = "catalog.video.ingested"
	EventVideoRemoved      = "catalog.video.removed"
	EventManifestRefreshed = "catalog.manifest.refreshed"
)

// EventPublisher is the producer surface the catalog emits on.
// *kafka.Producer satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, key []byte, value []byte) error
}

// VideoEvent is emitted when a record enters or leaves the catalog.
type VideoEvent struct {
	VideoID       string    `json:"video_id"`
	AccountID     string    `json:"account_id"`
	AccountLogin  string    `json:"account_login"`
	DestinationID string    `json:"destination_id"`
	RemotePath    string    `json:"remote_path"`
	SizeBytes     int64     `json:"size_bytes"`
	Status        string    `json:"status,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ManifestEvent is emitted after a per-account manifest regeneration.
type ManifestEvent struct {
	AccountID    string    `json:"account_id"`
	AccountLogin string    `json:"account_login"`
	ManifestPath string    `json:"manifest_path"`
	Entries      int       `json:"entries"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func publishEvent(ctx context.Context, p EventPublisher, eventType, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.PublishEvent(ctx, eventType, []byte(key), value)
}
