//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/couchcryptid/retrofit-advisor/internal/adapter/kafka"
	"github.com/couchcryptid/retrofit-advisor/internal/advisor"
	"github.com/couchcryptid/retrofit-advisor/internal/config"
	"github.com/couchcryptid/retrofit-advisor/internal/domain"
	"github.com/couchcryptid/retrofit-advisor/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEventsTopic = "test-retrofit-events"

type publishedEvent struct {
	Event   domain.Event
	Key     string
	Headers map[string]string
}

func readEvent(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedEvent {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from events topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var event domain.Event
	require.NoError(t, json.Unmarshal(msg.Value, &event), "unmarshal event")

	return publishedEvent{Event: event, Key: string(msg.Key), Headers: headers}
}

func newConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testEventsTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// TestKafkaWriter verifies a single event lands on the topic with its key and headers.
func TestKafkaWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testEventsTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaEventsTopic: testEventsTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	cfgBuilding := domain.DefaultConfiguration()
	assessment := domain.NewAssessment(cfgBuilding, domain.Assess(cfgBuilding), domain.SourceFallback)
	event := domain.AssessmentCompleted(assessment)
	require.NoError(t, writer.Publish(ctx, event))

	got := readEvent(ctx, t, newConsumer(t, broker))
	assert.Equal(t, assessment.ID, got.Key)
	assert.Equal(t, string(domain.EventAssessmentCompleted), got.Headers["event_type"])
	assert.Equal(t, event.ID, got.Headers["event_id"])
	_, err := time.Parse(time.RFC3339, got.Headers["occurred_at"])
	assert.NoError(t, err, "occurred_at should be valid RFC3339")

	assert.Equal(t, event.ID, got.Event.ID)
	assert.Equal(t, assessment.Result.VulnerabilityScore, got.Event.VulnerabilityScore)
	assert.Equal(t, domain.SourceFallback, got.Event.Source)
}

// TestAssessmentEventsEndToEnd runs assessments through the assessor and the
// outbox and reads the resulting events back in order.
func TestAssessmentEventsEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testEventsTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaEventsTopic: testEventsTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	outbox := advisor.NewOutbox(writer, 16, discardLogger(), metrics)
	assessor := advisor.New(discardLogger(), metrics, advisor.WithEvents(outbox))

	outboxCtx, outboxCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- outbox.Run(outboxCtx) }()

	buildings := []domain.BuildingConfiguration{
		{Year: 1985, Typology: domain.StiltApartment, Material: domain.Concrete, Floors: 5, SeismicZone: domain.ZoneIV, Occupancy: domain.Residential},
		{Year: 2020, Typology: domain.IndependentHouse, Material: domain.Steel, Floors: 2, SeismicZone: domain.ZoneII, Occupancy: domain.Residential},
		{Year: 1970, Typology: domain.KutchaHouse, Material: domain.MudMortar, Floors: 1, SeismicZone: domain.ZoneV, Occupancy: domain.Residential},
	}
	assessments := make([]domain.Assessment, 0, len(buildings))
	for _, b := range buildings {
		assessments = append(assessments, assessor.Assess(ctx, b))
	}
	outbox.Emit(domain.EmergencyCleared("operator"))

	consumer := newConsumer(t, broker)
	for _, a := range assessments {
		got := readEvent(ctx, t, consumer)
		assert.Equal(t, domain.EventAssessmentCompleted, got.Event.Type)
		assert.Equal(t, a.ID, got.Key)
		assert.Equal(t, a.Result.VulnerabilityScore, got.Event.VulnerabilityScore)
	}

	cleared := readEvent(ctx, t, consumer)
	assert.Equal(t, domain.EventEmergencyCleared, cleared.Event.Type)
	assert.Equal(t, "operator", cleared.Event.Reason)
	assert.Equal(t, cleared.Event.ID, cleared.Key, "events without an assessment are keyed by their own ID")

	outboxCancel()
	require.NoError(t, <-errCh)
}
