package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/Domenick1991/visitbooking/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockWriter) Close() error {
	return m.Called().Error(0)
}

type sliceReader struct {
	msgs []kafka.Message
}

func (r *sliceReader) ReadMessage(context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		return kafka.Message{}, io.EOF
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *sliceReader) Close() error { return nil }

func topicIs(topic string) interface{} {
	return mock.MatchedBy(func(msgs []kafka.Message) bool {
		return len(msgs) == 1 && msgs[0].Topic == topic && string(msgs[0].Key) == "booking-1"
	})
}

func TestEventPublisher_PublishesToBothTopics(t *testing.T) {
	writer := &MockWriter{}
	producer := &Producer{writer: writer, log: zap.NewNop()}
	publisher := NewEventPublisher(producer, "visit-events", "visit-notifications")
	ctx := context.Background()

	writer.On("WriteMessages", ctx, topicIs("visit-events")).Return(nil).Once()
	writer.On("WriteMessages", ctx, topicIs("visit-notifications")).Return(nil).Once()

	err := publisher.PublishEvent(ctx, domain.LifecycleEvent{BookingID: "booking-1", Type: domain.EventConfirmed})

	assert.NoError(t, err)
	writer.AssertExpectations(t)
}

func TestEventPublisher_RetriesThenFails(t *testing.T) {
	writer := &MockWriter{}
	producer := &Producer{writer: writer, log: zap.NewNop()}
	publisher := NewEventPublisher(producer, "visit-events", "")
	publisher.retries = 1
	ctx := context.Background()

	writer.On("WriteMessages", ctx, topicIs("visit-events")).Return(errors.New("leader not available")).Once()

	err := publisher.PublishEvent(ctx, domain.LifecycleEvent{BookingID: "booking-1"})

	assert.ErrorContains(t, err, "failed after 1 retries")
	writer.AssertExpectations(t)
}

func TestConsumer_ConsumeEvents_SkipsBadPayload(t *testing.T) {
	good, err := json.Marshal(domain.LifecycleEvent{BookingID: "booking-1", Type: domain.EventCompleted})
	require.NoError(t, err)
	consumer := &Consumer{
		reader: &sliceReader{msgs: []kafka.Message{{Value: []byte("{not json")}, {Value: good}}},
		log:    zap.NewNop(),
	}

	var got []domain.LifecycleEvent
	err = consumer.ConsumeEvents(context.Background(), func(_ context.Context, e domain.LifecycleEvent) error {
		got = append(got, e)
		return nil
	})

	assert.ErrorIs(t, err, io.EOF)
	require.Len(t, got, 1)
	assert.Equal(t, domain.EventCompleted, got[0].Type)
}

func TestProducer_CloseNilWriter(t *testing.T) {
	assert.NoError(t, (&Producer{}).Close())
	assert.NoError(t, (*Consumer)(nil).Close())
}
