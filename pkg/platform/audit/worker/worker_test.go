package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accessgate/pkg/platform/audit/store/postgres"
)

type fakeOutbox struct {
	pending   []postgres.Entry
	published []uuid.UUID
}

func (f *fakeOutbox) FetchPending(_ context.Context, limit int) ([]postgres.Entry, error) {
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeOutbox) MarkPublished(_ context.Context, ids []uuid.UUID, _ time.Time) error {
	f.published = append(f.published, ids...)
	return nil
}

type fakeProducer struct {
	failOn string
	keys   []string
}

func (p *fakeProducer) Produce(_ context.Context, key string, _ []byte, _ map[string]string) error {
	if key == p.failOn {
		return errors.New("broker unavailable")
	}
	p.keys = append(p.keys, key)
	return nil
}

func entry(key string) postgres.Entry {
	return postgres.Entry{ID: uuid.New(), AggregateID: key, EventType: "tier_enabled", Payload: []byte(`{}`)}
}

func TestRelayOnceMarksDeliveredEntries(t *testing.T) {
	outbox := &fakeOutbox{pending: []postgres.Entry{entry("a"), entry("b")}}
	producer := &fakeProducer{}

	n, err := NewWorker(outbox, producer).RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"a", "b"}, producer.keys)
	assert.Len(t, outbox.published, 2)
}

func TestRelayOnceStopsAtFirstFailure(t *testing.T) {
	first := entry("a")
	outbox := &fakeOutbox{pending: []postgres.Entry{first, entry("b"), entry("c")}}
	producer := &fakeProducer{failOn: "b"}

	n, err := NewWorker(outbox, producer).RelayOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []uuid.UUID{first.ID}, outbox.published)
}

func TestRelayOnceRespectsBatchSize(t *testing.T) {
	outbox := &fakeOutbox{pending: []postgres.Entry{entry("a"), entry("b"), entry("c")}}
	producer := &fakeProducer{}

	n, err := NewWorker(outbox, producer, WithBatchSize(2)).RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
