package services

import (
	"context"

	"github.com/jjudge-oj/grader/internal/mq"
	"github.com/jjudge-oj/grader/types"
	"go.uber.org/zap"
)

// GradedPublisher announces graded submissions to other services.
type GradedPublisher interface {
	PublishGraded(ctx context.Context, event mq.GradedEvent) (string, error)
}

// StandingsInvalidator drops cached standings of a contest.
type StandingsInvalidator interface {
	Invalidate(ctx context.Context, contestID int64) error
}

// GradeNotifier reacts to submissions reaching a terminal state. Failures
// are logged and never affect the graded result.
type GradeNotifier struct {
	standings StandingsInvalidator
	publisher GradedPublisher
	logger    *zap.Logger
}

// NewGradeNotifier constructs a notifier. publisher may be nil when no
// broker is configured.
func NewGradeNotifier(standings StandingsInvalidator, publisher GradedPublisher, logger *zap.Logger) *GradeNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeNotifier{standings: standings, publisher: publisher, logger: logger}
}

// SubmissionGraded implements judge.Listener.
func (n *GradeNotifier) SubmissionGraded(ctx context.Context, sub types.Submission) {
	log := n.logger.With(zap.Int64("submission_id", sub.ID), zap.Int64("contest_id", sub.ContestID))

	if n.standings != nil {
		if err := n.standings.Invalidate(ctx, sub.ContestID); err != nil {
			log.Warn("leaderboard invalidation failed", zap.Error(err))
		}
	}
	if n.publisher == nil {
		return
	}
	id, err := n.publisher.PublishGraded(ctx, mq.NewGradedEvent(sub))
	if err != nil {
		log.Warn("graded event publish failed", zap.Error(err))
		return
	}
	log.Debug("graded event published", zap.String("message_id", id), zap.String("status", string(sub.Status)))
}
