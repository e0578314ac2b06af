// Package release handles Kafka event production for release save events.
package release

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/releaseops/relman-backend/model"
)

// ReleaseProducer handles sending release save events to Kafka
type ReleaseProducer struct {
	Writer *kafka.Writer
	logger *zap.Logger
}

// NewReleaseProducer initializes a new Kafka writer for release events
func NewReleaseProducer(brokers []string, topic string, logger *zap.Logger) *ReleaseProducer {
	return &ReleaseProducer{
		Writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
		logger: logger,
	}
}

// ReleaseSaved publishes a release.saved event. Delivery is best effort:
// the release write has already been committed, so a broker outage only
// costs the notification, never the release.
func (p *ReleaseProducer) ReleaseSaved(ctx context.Context, release *model.Release) {
	event := ReleaseSavedEvent{
		EventType:     "release.saved",
		EventID:       uuid.New().String(),
		EventTime:     time.Now().UTC(),
		SchemaVersion: "v1",
		Release: ReleasePayload{
			Version:  release.Version,
			IsActive: release.IsActive,
			IsLTS:    release.IsLTS,
			Date:     release.Date,
			EOLDate:  release.EOLDate,
			Major:    release.Major,
			Minor:    release.Minor,
			Micro:    release.Micro,
			Status:   release.Status,
		},
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Sugar().Errorf("Failed to marshal release.saved event: %v", err)
		return
	}

	if err := p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(release.Version),
		Value: payload,
	}); err != nil {
		p.logger.Sugar().Errorf("Failed to publish release.saved event for %s: %v", release.Version, err)
	}
}

// Close cleans up the Kafka writer
func (p *ReleaseProducer) Close() error {
	return p.Writer.Close()
}
