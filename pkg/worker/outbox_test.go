package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medbridge/portal-api/internal/model"
	"github.com/medbridge/portal-api/pkg/logger"
	"github.com/medbridge/portal-api/pkg/messaging"
	"github.com/medbridge/portal-api/pkg/metrics"
)

type fakeOutboxRepo struct {
	pending   []*model.OutboxEvent
	processed []uuid.UUID
	failed    map[uuid.UUID]string
}

func newFakeOutboxRepo(events ...*model.OutboxEvent) *fakeOutboxRepo {
	return &fakeOutboxRepo{pending: events, failed: make(map[uuid.UUID]string)}
}

func (r *fakeOutboxRepo) GetPendingEvents(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	if len(r.pending) > limit {
		return r.pending[:limit], nil
	}
	return r.pending, nil
}

func (r *fakeOutboxRepo) MarkProcessed(_ context.Context, id uuid.UUID) error {
	r.processed = append(r.processed, id)
	return nil
}

func (r *fakeOutboxRepo) MarkFailed(_ context.Context, id uuid.UUID, errMsg string) error {
	r.failed[id] = errMsg
	return nil
}

func (r *fakeOutboxRepo) DeleteProcessedBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type published struct {
	channel string
	message interface{}
}

type fakeBroker struct {
	published []published
	failures  int
}

func (b *fakeBroker) Publish(_ context.Context, channel string, message interface{}) error {
	if b.failures > 0 {
		b.failures--
		return errors.New("broker unavailable")
	}
	b.published = append(b.published, published{channel, message})
	return nil
}

func (b *fakeBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, errors.New("not implemented")
}

func (b *fakeBroker) Close() error { return nil }

func event(eventType string) *model.OutboxEvent {
	payload, _ := json.Marshal(map[string]string{"event": eventType})
	return &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   payload,
		Status:    model.OutboxStatusPending,
		CreatedAt: time.Now(),
	}
}

func newProcessor(repo *fakeOutboxRepo, broker messaging.Broker) *OutboxProcessor {
	return NewOutboxProcessor(repo, broker, OutboxProcessorConfig{
		BatchSize:     10,
		PollInterval:  time.Millisecond,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
	}, logger.NewLogger(nil), metrics.NewMetrics("test_outbox", uuid.NewString()[:8]))
}

func TestProcessEvents_PublishesAndMarksProcessed(t *testing.T) {
	evt := event("notification.created")
	repo := newFakeOutboxRepo(evt)
	broker := &fakeBroker{}

	err := newProcessor(repo, broker).processEvents(context.Background())

	require.NoError(t, err)
	require.Len(t, broker.published, 1)
	assert.Equal(t, messaging.ChannelNotifications, broker.published[0].channel)
	assert.Equal(t, []uuid.UUID{evt.ID}, repo.processed)
	assert.Empty(t, repo.failed)
}

func TestProcessEvents_RetriesTransientPublishFailure(t *testing.T) {
	evt := event("notification.created")
	repo := newFakeOutboxRepo(evt)
	broker := &fakeBroker{failures: 1}

	err := newProcessor(repo, broker).processEvents(context.Background())

	require.NoError(t, err)
	require.Len(t, broker.published, 1)
	assert.Equal(t, []uuid.UUID{evt.ID}, repo.processed)
}

func TestProcessEvents_ExhaustedRetriesMarkFailed(t *testing.T) {
	evt := event("notification.created")
	repo := newFakeOutboxRepo(evt)
	broker := &fakeBroker{failures: 10}

	err := newProcessor(repo, broker).processEvents(context.Background())

	require.NoError(t, err)
	assert.Empty(t, repo.processed)
	assert.Contains(t, repo.failed, evt.ID)
}

func TestProcessEvents_OneFailureDoesNotBlockOthers(t *testing.T) {
	// First publish attempt fails twice (exhausting retries for the
	// first event); the second event publishes cleanly.
	first := event("notification.created")
	second := event("notification.created")
	repo := newFakeOutboxRepo(first, second)
	broker := &fakeBroker{failures: 2}

	err := newProcessor(repo, broker).processEvents(context.Background())

	require.NoError(t, err)
	assert.Contains(t, repo.failed, first.ID)
	assert.Equal(t, []uuid.UUID{second.ID}, repo.processed)
}

func TestChannelFor(t *testing.T) {
	assert.Equal(t, messaging.ChannelNotifications, channelFor("notification.created"))
	assert.Equal(t, messaging.ChannelAppointments, channelFor("appointment.updated"))
}
