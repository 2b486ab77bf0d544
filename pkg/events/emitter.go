// Package events emits lifecycle events for index builds and scans.
package events

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/huymai96/package-confirmation-app/pkg/kafka"
	"github.com/huymai96/package-confirmation-app/pkg/models"
	"github.com/huymai96/package-confirmation-app/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Event is the envelope every published event shares.
type Event struct {
	EventType     string    `json:"event_type"`
	SchemaVersion string    `json:"schema_version"`
	EmittedAt     time.Time `json:"emitted_at"`
	Data          any       `json:"data"`
}

// Emitter publishes pipeline events. A nil producer disables emission, so
// deployments without Kafka run unchanged.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitIndexPublished emits an index.published event after a successful
// build run.
func (e *Emitter) EmitIndexPublished(ctx context.Context, report *models.BuildReport) error {
	if e.producer == nil {
		return nil
	}

	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitIndexPublished")
	defer span.End()

	event := Event{
		EventType:     "index.published",
		SchemaVersion: SchemaVersion,
		EmittedAt:     time.Now().UTC(),
		Data:          report,
	}

	if err := e.producer.Publish(ctx, report.BuildID, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit index.published event")
		return err
	}

	return nil
}

// EmitScanRecorded emits a scan.recorded event for each station scan.
func (e *Emitter) EmitScanRecorded(ctx context.Context, scan *models.ScanRecord) error {
	if e.producer == nil {
		return nil
	}

	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitScanRecorded")
	defer span.End()

	event := Event{
		EventType:     "scan.recorded",
		SchemaVersion: SchemaVersion,
		EmittedAt:     time.Now().UTC(),
		Data:          scan,
	}

	if err := e.producer.Publish(ctx, scan.Tracking, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit scan.recorded event")
		return err
	}

	return nil
}
