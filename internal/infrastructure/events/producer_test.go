package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandroruanova/crm-resolution-service/internal/core/domain"
	"github.com/alejandroruanova/crm-resolution-service/internal/core/services/deduplication"
	"github.com/alejandroruanova/crm-resolution-service/internal/core/services/merge"
	"github.com/alejandroruanova/crm-resolution-service/internal/pkg/config"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func newTestProducer(w *recordingWriter) *Producer {
	p := newProducer(w, "crm.entity-resolution", nil)
	p.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return p
}

func TestProducer_PublishDuplicateGroups(t *testing.T) {
	writer := &recordingWriter{}
	producer := newTestProducer(writer)
	tenant := uuid.New()
	master, candidate := uuid.New(), uuid.New()

	groups := []deduplication.DuplicateGroup{{
		MasterCandidateID: master,
		EntityType:        domain.EntityTypeCustomer,
		Matches: []deduplication.DuplicateMatch{
			{RecordID: candidate, RuleName: "Email Match", Confidence: 90, MatchedFields: []string{"Email"}},
		},
	}}

	require.NoError(t, producer.PublishDuplicateGroups(context.Background(), tenant, groups))
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, "crm.entity-resolution", msg.Topic)
	assert.Equal(t, tenant.String(), string(msg.Key))
	assert.Equal(t, EventDuplicatesDetected, header(msg, "event_type"))
	assert.Equal(t, "Customer", header(msg, "entity_type"))

	var event DuplicatesDetectedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, master.String(), event.MasterCandidateID)
	require.Len(t, event.Matches, 1)
	assert.Equal(t, candidate, event.Matches[0].RecordID)
	assert.Equal(t, 90, event.Matches[0].Confidence)
	assert.Equal(t, 2026, event.Timestamp.Year())
}

func TestProducer_PublishDuplicateGroups_Empty(t *testing.T) {
	writer := &recordingWriter{err: errors.New("must not be called")}
	producer := newTestProducer(writer)

	assert.NoError(t, producer.PublishDuplicateGroups(context.Background(), uuid.New(), nil))
}

func TestProducer_PublishRecordsMerged(t *testing.T) {
	writer := &recordingWriter{}
	producer := newTestProducer(writer)
	tenant, master, dup := uuid.New(), uuid.New(), uuid.New()

	result := &merge.MergeResult{
		MasterID:    master,
		MergedIDs:   []uuid.UUID{dup},
		MergedCount: 1,
		Success:     true,
		Reassigned:  map[string]int64{"activities": 4},
	}

	require.NoError(t, producer.PublishRecordsMerged(context.Background(), tenant, domain.EntityTypeLead, result))
	require.Len(t, writer.messages, 1)
	assert.Equal(t, EventRecordsMerged, header(writer.messages[0], "event_type"))

	var event RecordsMergedEvent
	require.NoError(t, json.Unmarshal(writer.messages[0].Value, &event))
	assert.Equal(t, "Lead", event.EntityType)
	assert.Equal(t, []string{dup.String()}, event.MergedIDs)
	assert.Equal(t, int64(4), event.Reassigned["activities"])
}

func TestProducer_WriteFailure(t *testing.T) {
	brokerErr := errors.New("leader not available")
	producer := newTestProducer(&recordingWriter{err: brokerErr})

	err := producer.PublishRecordsMerged(context.Background(), uuid.New(), domain.EntityTypeCustomer, &merge.MergeResult{})
	assert.ErrorIs(t, err, brokerErr)
}

func TestNewProducer_FromConfig(t *testing.T) {
	producer := NewProducer(&config.EventsConfig{
		Brokers:      []string{"localhost:9092"},
		Topic:        "crm.entity-resolution",
		BatchSize:    50,
		BatchTimeout: time.Second,
		RequiredAcks: 1,
		Compression:  "zstd",
	}, nil)

	writer, ok := producer.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, kafka.Zstd, writer.Compression)
	assert.Equal(t, 50, writer.BatchSize)
	assert.NoError(t, producer.Close())
}
