package mq

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jjudge-oj/grader/config"
	"github.com/jjudge-oj/grader/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	channel string
	data    []byte
	attrs   map[string]string
}

// loopback delivers every published message to the handler registered for its channel.
type loopback struct {
	sent     []published
	handlers map[string]Handler
	acked    int
	nacked   int
}

func (l *loopback) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	l.sent = append(l.sent, published{channel: channel, data: data, attrs: attrs})
	if h, ok := l.handlers[channel]; ok {
		if err := h(ctx, Message{ID: "m", Data: data, Attributes: attrs}); err != nil {
			l.nacked++
		} else {
			l.acked++
		}
	}
	return "m", nil
}

func (l *loopback) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if l.handlers == nil {
		l.handlers = map[string]Handler{}
	}
	l.handlers[channel] = handler
	return nil
}

func (l *loopback) Close() error { return nil }

func TestEventsRoundTrip(t *testing.T) {
	backend := &loopback{}
	events := NewEvents(backend)

	var got []GradedEvent
	require.NoError(t, events.SubscribeGraded(context.Background(), func(ctx context.Context, e GradedEvent) error {
		got = append(got, e)
		return nil
	}))

	gradedAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	event := NewGradedEvent(types.Submission{
		ID: 11, ContestID: 2, QuestionID: 5, UserID: 8,
		Status: types.SubmissionCompleted, MarksAwarded: 10, TotalMarks: 100, ScorePercentage: 10,
		UpdatedAt: gradedAt,
	})
	id, err := events.PublishGraded(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, "m", id)

	require.Len(t, backend.sent, 1)
	assert.Equal(t, config.GradedChannel, backend.sent[0].channel)
	assert.Equal(t, "2", backend.sent[0].attrs["contest_id"])
	assert.Equal(t, "completed", backend.sent[0].attrs["status"])

	require.Len(t, got, 1)
	assert.Equal(t, int64(11), got[0].SubmissionID)
	assert.Equal(t, 10, got[0].ScorePercentage)
	assert.True(t, gradedAt.Equal(got[0].GradedAt))
}

func TestSubscribeGradedDropsUndecodable(t *testing.T) {
	backend := &loopback{}
	events := NewEvents(backend)
	called := false
	require.NoError(t, events.SubscribeGraded(context.Background(), func(ctx context.Context, e GradedEvent) error {
		called = true
		return errors.New("should not run")
	}))

	_, err := backend.Publish(context.Background(), config.GradedChannel, []byte("garbage"), nil)
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, 1, backend.acked)
}

func TestNewBackendDisabledAndUnknown(t *testing.T) {
	backend, err := NewBackend(context.Background(), config.Config{MQBackend: config.BackendNone})
	require.NoError(t, err)
	assert.Nil(t, backend)

	_, err = NewBackend(context.Background(), config.Config{MQBackend: "kafka"})
	assert.ErrorContains(t, err, "kafka")
}
