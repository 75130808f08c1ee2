package kafka

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventMessage(t *testing.T, topic, eventType, id string) kafka.Message {
	t.Helper()
	e, err := NewEvent(eventType, id, "product", "catalog", map[string]string{"id": id})
	require.NoError(t, err)
	raw, err := e.Marshal()
	require.NoError(t, err)
	return kafka.Message{Topic: topic, Key: []byte(id), Value: raw, Offset: 7}
}

func newTestConsumer(r MessageReader, h Handler) *Consumer {
	c := NewConsumerWithReader(r, "search-indexer", h, discardLogger())
	c.backoff = func(int) time.Duration { return 0 }
	return c
}

func TestConsumer_ProcessSuccessCommits(t *testing.T) {
	r := newFakeReader()
	var seen string
	c := newTestConsumer(r, func(_ context.Context, e *Event) error {
		seen = e.AggregateID
		return nil
	})

	require.NoError(t, c.process(context.Background(), eventMessage(t, "ecommerce.product.updated", "product.updated", "p-1")))
	assert.Equal(t, "p-1", seen)
	assert.Equal(t, 1, r.commits())
}

func TestConsumer_RetriesThenSucceeds(t *testing.T) {
	r := newFakeReader()
	var calls int32
	c := newTestConsumer(r, func(context.Context, *Event) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		return nil
	})
	dlq := &fakeWriter{}
	c.WithDeadLetter(dlq)

	require.NoError(t, c.process(context.Background(), eventMessage(t, "ecommerce.product.updated", "product.updated", "p-1")))
	assert.EqualValues(t, 3, calls)
	assert.Empty(t, dlq.written())
	assert.Equal(t, 1, r.commits())
}

func TestConsumer_ExhaustedRetriesDeadLetters(t *testing.T) {
	r := newFakeReader()
	dlq := &fakeWriter{}
	c := newTestConsumer(r, func(context.Context, *Event) error { return errors.New("reindex failed") })
	c.WithDeadLetter(dlq)

	require.NoError(t, c.process(context.Background(), eventMessage(t, "ecommerce.product.updated", "product.updated", "p-1")))

	msgs := dlq.written()
	require.Len(t, msgs, 1)
	assert.Equal(t, "ecommerce.dlq.ecommerce.product.updated", msgs[0].Topic)
	hc := NewHeaderCarrier(&msgs[0].Headers)
	assert.Equal(t, "reindex failed", hc.Get("dlq.error"))
	assert.Equal(t, "7", hc.Get("dlq.original_offset"))
	assert.Equal(t, "search-indexer", hc.Get("dlq.consumer_group"))
	assert.Equal(t, 1, r.commits())
}

func TestConsumer_MalformedMessageCommitted(t *testing.T) {
	r := newFakeReader()
	called := false
	c := newTestConsumer(r, func(context.Context, *Event) error { called = true; return nil })

	require.NoError(t, c.process(context.Background(), kafka.Message{Topic: "t", Value: []byte("{bad")}))
	assert.False(t, called)
	assert.Equal(t, 1, r.commits())
}

func TestConsumer_StartStopsOnCancel(t *testing.T) {
	r := newFakeReader(
		eventMessage(t, "t", "product.created", "p-1"),
		eventMessage(t, "t", "product.created", "p-2"),
	)
	var handled int32
	c := newTestConsumer(r, func(context.Context, *Event) error {
		atomic.AddInt32(&handled, 1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&handled) == 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
	require.NoError(t, c.Close())
	assert.True(t, r.closed)
}
