package judge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jjudge-oj/grader/types"
	"go.uber.org/zap"
)

// ErrInvalidTransition is returned when a submission is asked to move
// between lifecycle states the state machine does not allow.
var ErrInvalidTransition = errors.New("invalid submission status transition")

// SubmissionStore is the persistence the grader needs.
type SubmissionStore interface {
	Get(ctx context.Context, id int64) (types.Submission, error)
	Update(ctx context.Context, submission types.Submission) (types.Submission, error)
}

// Listener is notified once a submission reaches a terminal state.
type Listener interface {
	SubmissionGraded(ctx context.Context, submission types.Submission)
}

// Grader drives a submission through every test case of its question.
type Grader struct {
	store    SubmissionStore
	executor Executor
	listener Listener
	logger   *zap.Logger
}

// NewGrader constructs a Grader. listener and logger may be nil.
func NewGrader(store SubmissionStore, executor Executor, listener Listener, logger *zap.Logger) *Grader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Grader{
		store:    store,
		executor: executor,
		listener: listener,
		logger:   logger,
	}
}

// Grade runs the full test case suite of question, hidden cases included,
// and persists the final submission state. Grading is not cancellable once
// started: the caller's cancellation is detached from the run.
//
// A fault outside the per-case loop moves the submission to the error state;
// the returned error is non-nil only when even that state cannot be persisted.
func (g *Grader) Grade(ctx context.Context, submissionID int64, question types.Question, code string, language types.Language) (types.Submission, error) {
	ctx = context.WithoutCancel(ctx)
	log := g.logger.With(zap.Int64("submission_id", submissionID), zap.Int64("question_id", question.ID))
	started := time.Now()

	sub, err := g.store.Get(ctx, submissionID)
	if err != nil {
		return types.Submission{}, fmt.Errorf("load submission %d: %w", submissionID, err)
	}
	if err := transition(&sub, types.SubmissionRunning); err != nil {
		return sub, err
	}
	if sub.QuestionID != question.ID {
		return g.fail(ctx, log, sub, fmt.Errorf("question %d does not match submission question %d", question.ID, sub.QuestionID))
	}
	running, err := g.store.Update(ctx, sub)
	if err != nil {
		return g.fail(ctx, log, sub, fmt.Errorf("persist running state: %w", err))
	}
	sub = running

	question.RecomputeTotalMarks()
	summary := Fold(question.TestCases, func(tc types.TestCase) types.TestCaseResult {
		outcome, err := g.execute(ctx, ExecuteRequest{
			Code:      code,
			Language:  language,
			Input:     tc.Input,
			TimeLimit: question.TimeLimit,
		})
		if err != nil {
			log.Warn("test case execution fault", zap.Int("test_case_id", tc.ID), zap.Error(err))
			return faultResult(tc, err)
		}
		return resultFor(tc, outcome)
	})

	sub.TestCaseResults = summary.Results
	sub.TotalMarks = summary.TotalMarks
	sub.MarksAwarded = summary.ObtainedMarks
	sub.ScorePercentage = summary.ScorePercentage()
	sub.ExecutionTime = summary.ExecutionTime
	sub.MemoryUsed = summary.MaxMemory
	sub.Message = ""
	if err := transition(&sub, types.SubmissionCompleted); err != nil {
		return sub, err
	}

	completed, err := g.store.Update(ctx, sub)
	if err != nil {
		failed := sub
		failed.Status = types.SubmissionRunning
		failed.TestCaseResults = nil
		return g.fail(ctx, log, failed, fmt.Errorf("persist completed state: %w", err))
	}

	log.Info("submission graded",
		zap.Int("marks_awarded", completed.MarksAwarded),
		zap.Int("total_marks", completed.TotalMarks),
		zap.Int("test_cases", len(completed.TestCaseResults)),
		zap.Duration("elapsed", time.Since(started)),
	)
	g.notify(ctx, completed)
	return completed, nil
}

// execute isolates a single invocation so a panicking executor only
// affects the current test case.
func (g *Grader) execute(ctx context.Context, req ExecuteRequest) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("executor panic: %v", r)
		}
	}()
	return g.executor.Execute(ctx, req)
}

func (g *Grader) fail(ctx context.Context, log *zap.Logger, sub types.Submission, cause error) (types.Submission, error) {
	log.Error("grading aborted", zap.Error(cause))

	sub.TestCaseResults = nil
	sub.TotalMarks = 0
	sub.MarksAwarded = 0
	sub.ScorePercentage = 0
	sub.ExecutionTime = 0
	sub.MemoryUsed = 0
	sub.Message = cause.Error()
	if err := transition(&sub, types.SubmissionError); err != nil {
		return sub, err
	}

	failed, err := g.store.Update(ctx, sub)
	if err != nil {
		return sub, fmt.Errorf("persist error state: %w (cause: %v)", err, cause)
	}
	g.notify(ctx, failed)
	return failed, nil
}

func (g *Grader) notify(ctx context.Context, sub types.Submission) {
	if g.listener == nil {
		return
	}
	g.listener.SubmissionGraded(ctx, sub)
}

func transition(sub *types.Submission, next types.SubmissionStatus) error {
	if !sub.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sub.Status, next)
	}
	sub.Status = next
	return nil
}
