package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"

	"github.com/alejandroruanova/crm-resolution-service/internal/core/domain"
	"github.com/alejandroruanova/crm-resolution-service/internal/core/services/deduplication"
	"github.com/alejandroruanova/crm-resolution-service/internal/core/services/merge"
	"github.com/alejandroruanova/crm-resolution-service/internal/pkg/config"
	"github.com/alejandroruanova/crm-resolution-service/internal/pkg/tracing"
)

// Event types
const (
	EventDuplicatesDetected = "duplicates.detected"
	EventRecordsMerged      = "records.merged"

	schemaVersion = "1.0"
)

// DuplicatesDetectedEvent carries one duplicate group found by a scan
type DuplicatesDetectedEvent struct {
	EventType         string                         `json:"event_type"`
	TenantID          string                         `json:"tenant_id"`
	EntityType        string                         `json:"entity_type"`
	MasterCandidateID string                         `json:"master_candidate_id"`
	Matches           []deduplication.DuplicateMatch `json:"matches"`
	Timestamp         time.Time                      `json:"timestamp"`
}

// RecordsMergedEvent announces a committed merge
type RecordsMergedEvent struct {
	EventType   string           `json:"event_type"`
	TenantID    string           `json:"tenant_id"`
	EntityType  string           `json:"entity_type"`
	MasterID    string           `json:"master_id"`
	MergedIDs   []string         `json:"merged_ids"`
	MergedCount int              `json:"merged_count"`
	Reassigned  map[string]int64 `json:"reassigned,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
}

// messageWriter is the part of kafka.Writer the producer needs
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes entity resolution events to Kafka
type Producer struct {
	writer messageWriter
	topic  string
	now    func() time.Time
	logger *slog.Logger
}

// NewProducer creates a Kafka producer from the events configuration
func NewProducer(cfg *config.EventsConfig, logger *slog.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return newProducer(writer, cfg.Topic, logger)
}

func newProducer(writer messageWriter, topic string, logger *slog.Logger) *Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Producer{
		writer: writer,
		topic:  topic,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// Close flushes pending messages and closes the writer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// PublishDuplicateGroups writes one event per group in a single batch.
// Messages are keyed by tenant so a tenant's events stay ordered on one partition.
func (p *Producer) PublishDuplicateGroups(ctx context.Context, tenantID uuid.UUID, groups []deduplication.DuplicateGroup) error {
	ctx, span := tracing.StartSpan(ctx, "events.Producer.PublishDuplicateGroups",
		attribute.Int("groups", len(groups)))
	defer span.End()

	if len(groups) == 0 {
		return nil
	}

	now := p.now()
	messages := make([]kafka.Message, 0, len(groups))
	for _, group := range groups {
		event := DuplicatesDetectedEvent{
			EventType:         EventDuplicatesDetected,
			TenantID:          tenantID.String(),
			EntityType:        string(group.EntityType),
			MasterCandidateID: group.MasterCandidateID.String(),
			Matches:           group.Matches,
			Timestamp:         now,
		}

		msg, err := p.message(tenantID, group.EntityType, EventDuplicatesDetected, event)
		if err != nil {
			tracing.RecordError(span, err)
			return err
		}
		messages = append(messages, msg)
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		tracing.RecordError(span, err)
		p.logger.Error("Failed to publish duplicate groups",
			slog.String("tenant_id", tenantID.String()),
			slog.Int("batch_size", len(messages)),
			slog.Any("error", err))
		return fmt.Errorf("failed to publish %s events: %w", EventDuplicatesDetected, err)
	}

	p.logger.Debug("Published duplicate groups",
		slog.String("tenant_id", tenantID.String()),
		slog.Int("batch_size", len(messages)))

	return nil
}

// PublishRecordsMerged writes a records.merged event
func (p *Producer) PublishRecordsMerged(ctx context.Context, tenantID uuid.UUID, entityType domain.EntityType, result *merge.MergeResult) error {
	ctx, span := tracing.StartSpan(ctx, "events.Producer.PublishRecordsMerged")
	defer span.End()

	mergedIDs := make([]string, len(result.MergedIDs))
	for i, id := range result.MergedIDs {
		mergedIDs[i] = id.String()
	}

	event := RecordsMergedEvent{
		EventType:   EventRecordsMerged,
		TenantID:    tenantID.String(),
		EntityType:  string(entityType),
		MasterID:    result.MasterID.String(),
		MergedIDs:   mergedIDs,
		MergedCount: result.MergedCount,
		Reassigned:  result.Reassigned,
		Timestamp:   p.now(),
	}

	msg, err := p.message(tenantID, entityType, EventRecordsMerged, event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		tracing.RecordError(span, err)
		p.logger.Error("Failed to publish merge event",
			slog.String("tenant_id", tenantID.String()),
			slog.String("master_id", result.MasterID.String()),
			slog.Any("error", err))
		return fmt.Errorf("failed to publish %s event: %w", EventRecordsMerged, err)
	}

	return nil
}

func (p *Producer) message(tenantID uuid.UUID, entityType domain.EntityType, eventType string, event any) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	return kafka.Message{
		Topic: p.topic,
		Key:   []byte(tenantID.String()),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "tenant_id", Value: []byte(tenantID.String())},
			{Key: "entity_type", Value: []byte(entityType)},
			{Key: "schema_version", Value: []byte(schemaVersion)},
		},
	}, nil
}
