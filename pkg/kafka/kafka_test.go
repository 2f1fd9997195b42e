package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"meetingroom/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu       sync.Mutex
	err      error
	messages []kafka.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func (w *fakeWriter) written() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.messages...)
}

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func headerMap(msg kafka.Message) map[string]string {
	out := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		out[h.Key] = string(h.Value)
	}
	return out
}

func TestMessageBuilder(t *testing.T) {
	msg := NewMessage().
		WithKey("room-1").
		WithValue(map[string]string{"title": "Planning"}).
		WithEventType("booking.created").
		WithSource("meetingroom-api").
		Build()

	assert.Equal(t, "room-1", msg.Key)
	assert.JSONEq(t, `{"title":"Planning"}`, string(msg.Value))
	assert.NotEmpty(t, msg.GetEventID())
	assert.NotEmpty(t, msg.Headers[HeaderTimestamp])
	assert.Equal(t, "booking.created", msg.GetEventType())
}

func TestMessageBuilder_EncodeFailure(t *testing.T) {
	builder := NewMessage().WithKey("k").WithValue(make(chan int))
	msg := builder.Build()

	assert.Error(t, builder.Err())
	assert.Empty(t, msg.Value)
}

func TestRetryCount(t *testing.T) {
	msg := Message{}
	assert.Equal(t, 0, msg.GetRetryCount())

	for range 12 {
		msg.IncrementRetryCount()
	}
	assert.Equal(t, 12, msg.GetRetryCount())
	assert.Equal(t, "12", msg.Headers[HeaderRetryCount])
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{name: "nil", err: nil, want: ErrorTypeUnknown},
		{name: "explicit transient", err: NewTransientError("busy", nil), want: ErrorTypeTransient},
		{name: "explicit permanent", err: fmt.Errorf("wrapped: %w", NewPermanentError("bad", nil)), want: ErrorTypePermanent},
		{name: "deadline", err: fmt.Errorf("write: %w", context.DeadlineExceeded), want: ErrorTypeTransient},
		{name: "network message", err: errors.New("dial tcp: Connection Refused"), want: ErrorTypeTransient},
		{name: "unknown", err: errors.New("something odd"), want: ErrorTypePermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}

func TestShouldRetry(t *testing.T) {
	transient := NewTransientError("busy", nil)
	assert.True(t, ShouldRetry(transient, 0, 3))
	assert.False(t, ShouldRetry(transient, 3, 3))
	assert.False(t, ShouldRetry(NewPermanentError("bad", nil), 0, 3))
	assert.False(t, ShouldRetry(nil, 0, 3))
}

func newTestProducer(writer, dlq *fakeWriter) *Producer {
	p := &Producer{
		writer: writer,
		topic:  "meetingroom.bookings",
		log:    logger.Discard(),
	}
	if dlq != nil {
		p.dlqWriter = dlq
		p.dlqTopic = "meetingroom.bookings.dlq"
	}
	return p
}

func TestProducer_Publish(t *testing.T) {
	writer := &fakeWriter{}
	p := newTestProducer(writer, nil)

	var seen []string
	p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
		seen = append(seen, msg.Topic)
		return next(ctx, msg)
	})

	msg := NewMessage().WithKey("room-1").WithRawValue([]byte(`{}`)).WithEventID("evt-1").Build()
	require.NoError(t, p.Publish(context.Background(), msg))

	written := writer.written()
	require.Len(t, written, 1)
	assert.Equal(t, "room-1", string(written[0].Key))
	assert.Equal(t, "evt-1", headerMap(written[0])[HeaderEventID])
	assert.Equal(t, []string{"meetingroom.bookings"}, seen)
}

func TestProducer_RejectsInvalidMessages(t *testing.T) {
	p := newTestProducer(&fakeWriter{}, nil)

	assert.ErrorIs(t, p.Publish(context.Background(), Message{Value: []byte("x")}), ErrEmptyKey)
	assert.ErrorIs(t, p.Publish(context.Background(), Message{Key: "k"}), ErrEmptyValue)

	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Publish(context.Background(), Message{Key: "k", Value: []byte("x")}), ErrProducerClosed)
}

func TestProducer_FailedWriteGoesToDLQ(t *testing.T) {
	boom := errors.New("leader not available")
	dlq := &fakeWriter{}
	p := newTestProducer(&fakeWriter{err: boom}, dlq)

	msg := NewMessage().WithKey("room-1").WithRawValue([]byte(`{}`)).Build()
	err := p.Publish(context.Background(), msg)
	assert.ErrorIs(t, err, boom)

	parked := dlq.written()
	require.Len(t, parked, 1)
	headers := headerMap(parked[0])
	assert.Equal(t, "meetingroom.bookings", headers[HeaderOriginalTopic])
	assert.Equal(t, boom.Error(), headers[HeaderDLQError])
	assert.Empty(t, msg.Headers[HeaderDLQError], "caller headers must not be mutated")
}

func TestConsumer_RetriesTransientFailures(t *testing.T) {
	calls := 0
	handler := func(context.Context, Message) error {
		calls++
		if calls < 3 {
			return NewTransientError("busy", nil)
		}
		return nil
	}
	dlq := &fakeWriter{}
	c := newConsumer(&fakeReader{}, dlq, "topic", "group", 3, handler, logger.Discard())
	c.backoff = time.Millisecond

	err := c.processMessage(context.Background(), c.chain(), Message{Headers: map[string]string{}})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Empty(t, dlq.written())
}

func TestConsumer_PermanentFailureGoesToDLQ(t *testing.T) {
	boom := NewPermanentError("deserialization failed", nil)
	calls := 0
	handler := func(context.Context, Message) error {
		calls++
		return boom
	}
	dlq := &fakeWriter{}
	c := newConsumer(&fakeReader{}, dlq, "topic", "group", 3, handler, logger.Discard())

	err := c.processMessage(context.Background(), c.chain(), Message{Key: "room-1", Headers: map[string]string{}})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)

	parked := dlq.written()
	require.Len(t, parked, 1)
	assert.Equal(t, "group", headerMap(parked[0])[HeaderDLQGroup])
}

func TestConsumer_ExhaustedRetriesGoToDLQ(t *testing.T) {
	calls := 0
	handler := func(context.Context, Message) error {
		calls++
		return NewTransientError("busy", nil)
	}
	dlq := &fakeWriter{}
	c := newConsumer(&fakeReader{}, dlq, "topic", "group", 2, handler, logger.Discard())
	c.backoff = time.Millisecond

	err := c.processMessage(context.Background(), c.chain(), Message{Headers: map[string]string{}})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	require.Len(t, dlq.written(), 1)
	assert.Equal(t, "2", headerMap(dlq.written()[0])[HeaderRetryCount])
}

func TestConsumer_StartCommitsEveryMessage(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{
		{Offset: 1, Value: []byte("ok")},
		{Offset: 2, Value: []byte("bad")},
		{Offset: 3, Value: []byte("ok")},
	}}

	var mu sync.Mutex
	var handled []int64
	handler := func(_ context.Context, msg Message) error {
		mu.Lock()
		handled = append(handled, msg.Offset)
		mu.Unlock()
		if string(msg.Value) == "bad" {
			return NewPermanentError("invalid message", nil)
		}
		return nil
	}
	c := newConsumer(reader, nil, "topic", "group", 0, handler, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	require.Eventually(t, func() bool { return len(reader.commits()) == 3 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	require.NoError(t, c.Close())

	assert.Equal(t, []int64{1, 2, 3}, reader.commits())
	mu.Lock()
	assert.Equal(t, []int64{1, 2, 3}, handled)
	mu.Unlock()

	assert.ErrorIs(t, c.Start(context.Background()), ErrConsumerClosed)
}
