package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jjudge-oj/grader/config"
	"github.com/jjudge-oj/grader/types"
)

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// NewBackend builds the broker named by cfg.MQBackend. It returns nil, nil
// when messaging is disabled.
func NewBackend(ctx context.Context, cfg config.Config) (Backend, error) {
	switch cfg.MQBackend {
	case config.BackendNone, "":
		return nil, nil
	case config.BackendRabbitMQ:
		client, err := NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, fmt.Errorf("init rabbitmq: %w", err)
		}
		return client, nil
	case config.BackendPubSub:
		client, err := NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, fmt.Errorf("init pubsub: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.MQBackend)
	}
}

// GradedEvent announces that a submission reached a terminal state.
type GradedEvent struct {
	SubmissionID    int64                  `json:"submission_id"`
	ContestID       int64                  `json:"contest_id"`
	QuestionID      int64                  `json:"question_id"`
	UserID          int                    `json:"user_id"`
	Status          types.SubmissionStatus `json:"status"`
	MarksAwarded    int                    `json:"marks_awarded"`
	TotalMarks      int                    `json:"total_marks"`
	ScorePercentage int                    `json:"score_percentage"`
	GradedAt        time.Time              `json:"graded_at"`
}

// NewGradedEvent summarizes a graded submission.
func NewGradedEvent(sub types.Submission) GradedEvent {
	return GradedEvent{
		SubmissionID:    sub.ID,
		ContestID:       sub.ContestID,
		QuestionID:      sub.QuestionID,
		UserID:          sub.UserID,
		Status:          sub.Status,
		MarksAwarded:    sub.MarksAwarded,
		TotalMarks:      sub.TotalMarks,
		ScorePercentage: sub.ScorePercentage,
		GradedAt:        sub.UpdatedAt,
	}
}

// Events publishes and consumes grading events over a backend.
type Events struct {
	backend Backend
	channel string
}

// NewEvents constructs an Events wrapper for the provided backend.
func NewEvents(backend Backend) *Events {
	return &Events{backend: backend, channel: config.GradedChannel}
}

// PublishGraded sends a GradedEvent and returns the broker message id.
func (e *Events) PublishGraded(ctx context.Context, event GradedEvent) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	attrs := map[string]string{
		"contest_id": strconv.FormatInt(event.ContestID, 10),
		"status":     string(event.Status),
	}
	return e.backend.Publish(ctx, e.channel, data, attrs)
}

// SubscribeGraded blocks, delivering decoded events to fn until ctx ends.
// Undecodable messages are acknowledged and dropped.
func (e *Events) SubscribeGraded(ctx context.Context, fn func(ctx context.Context, event GradedEvent) error) error {
	return e.backend.Subscribe(ctx, e.channel, func(ctx context.Context, msg Message) error {
		var event GradedEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return nil
		}
		return fn(ctx, event)
	})
}

// Close closes the underlying backend.
func (e *Events) Close() error {
	return e.backend.Close()
}
