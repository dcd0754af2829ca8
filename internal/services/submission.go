package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jjudge-oj/grader/internal/judge"
	"github.com/jjudge-oj/grader/internal/store"
	"github.com/jjudge-oj/grader/types"
	"go.uber.org/zap"
)

// ContestReader loads a contest together with its questions.
type ContestReader interface {
	Get(ctx context.Context, id int64) (types.Contest, error)
}

// SubmissionRepository defines persistence operations for submissions.
type SubmissionRepository interface {
	Get(ctx context.Context, id int64) (types.Submission, error)
	CreateWithinAttemptLimit(ctx context.Context, submission types.Submission, maxAttempts int) (types.Submission, error)
	ListForUser(ctx context.Context, contestID int64, userID int) ([]types.Submission, error)
}

// Grader grades a created submission to a terminal state.
type Grader interface {
	Grade(ctx context.Context, submissionID int64, question types.Question, code string, language types.Language) (types.Submission, error)
}

// SourceArchiver keeps a copy of submitted source code.
type SourceArchiver interface {
	Archive(ctx context.Context, sub types.Submission) (string, error)
}

// Viewer identifies who is looking at a submission.
type Viewer struct {
	UserID     int
	Privileged bool
}

// ViewerOf derives the viewer for an authenticated user.
func ViewerOf(user types.User) Viewer {
	return Viewer{UserID: user.ID, Privileged: user.Privileged()}
}

// SubmitInput carries a submit request.
type SubmitInput struct {
	ContestID  int64
	QuestionID int64
	Code       string
	Language   string
	Viewer     Viewer
}

// RunInput carries an ad-hoc run. With a question, only its visible test
// cases are executed and Input is ignored.
type RunInput struct {
	Code       string
	Language   string
	Input      string
	ContestID  int64
	QuestionID int64
}

// RunCaseResult is the verdict of one visible test case in a run.
type RunCaseResult struct {
	TestCaseID     int           `json:"test_case_id"`
	Status         types.Verdict `json:"status"`
	Input          string        `json:"input"`
	ExpectedOutput string        `json:"expected_output"`
	Output         string        `json:"output"`
	Error          string        `json:"error,omitempty"`
	ExecutionTime  int64         `json:"execution_time"`
}

// RunResult is the outcome of an ad-hoc run. Nothing is persisted.
type RunResult struct {
	Status        judge.OutcomeStatus `json:"status"`
	Output        string              `json:"output"`
	Error         string              `json:"error,omitempty"`
	ExecutionTime int64               `json:"execution_time"`
	Cases         []RunCaseResult     `json:"test_cases,omitempty"`
}

// SubmissionService encapsulates the submission lifecycle.
type SubmissionService struct {
	contests    ContestReader
	submissions SubmissionRepository
	grader      Grader
	executor    judge.Executor
	archive     SourceArchiver
	logger      *zap.Logger
	now         func() time.Time
}

func NewSubmissionService(contests ContestReader, submissions SubmissionRepository, grader Grader, executor judge.Executor, logger *zap.Logger) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		contests:    contests,
		submissions: submissions,
		grader:      grader,
		executor:    executor,
		logger:      logger,
		now:         time.Now,
	}
}

// SetArchive enables source archival of new submissions.
func (s *SubmissionService) SetArchive(archive SourceArchiver) {
	s.archive = archive
}

// Submit validates, records and synchronously grades a submission. The
// returned submission is redacted for the submitter.
func (s *SubmissionService) Submit(ctx context.Context, in SubmitInput) (types.Submission, error) {
	if strings.TrimSpace(in.Code) == "" {
		return types.Submission{}, fmt.Errorf("%w: code is required", ErrInvalidSubmission)
	}
	if in.ContestID <= 0 || in.QuestionID <= 0 || in.Viewer.UserID <= 0 {
		return types.Submission{}, fmt.Errorf("%w: contest, question and user are required", ErrInvalidSubmission)
	}

	contest, question, err := s.admit(ctx, in.ContestID, in.QuestionID)
	if err != nil {
		return types.Submission{}, err
	}
	language := types.ParseLanguage(in.Language)
	if !contest.AllowsLanguage(language) {
		return types.Submission{}, fmt.Errorf("%w: %q", ErrLanguageNotAllowed, in.Language)
	}

	pending := types.Submission{
		ContestID:   contest.ID,
		QuestionID:  question.ID,
		UserID:      in.Viewer.UserID,
		Code:        in.Code,
		Language:    language,
		Status:      types.SubmissionPending,
		SubmittedAt: s.now(),
	}
	created, err := s.submissions.CreateWithinAttemptLimit(ctx, pending, contest.MaxAttempts)
	if err != nil {
		if errors.Is(err, store.ErrAttemptLimitExceeded) {
			return types.Submission{}, ErrAttemptLimitExceeded
		}
		return types.Submission{}, fmt.Errorf("create submission: %w", err)
	}

	log := s.logger.With(zap.Int64("submission_id", created.ID), zap.Int("user_id", created.UserID))
	log.Info("submission accepted", zap.Int64("contest_id", created.ContestID), zap.Stringer("language", language))

	if s.archive != nil {
		if key, err := s.archive.Archive(ctx, created); err != nil {
			log.Warn("source archival failed", zap.Error(err))
		} else {
			log.Debug("source archived", zap.String("key", key))
		}
	}

	graded, err := s.grader.Grade(ctx, created.ID, question, in.Code, language)
	if err != nil {
		return types.Submission{}, fmt.Errorf("grade submission %d: %w", created.ID, err)
	}
	return graded.Redacted(in.Viewer.UserID, in.Viewer.Privileged), nil
}

// admit runs the contest-level checks in order: existence, accessibility,
// question membership, start time.
func (s *SubmissionService) admit(ctx context.Context, contestID, questionID int64) (types.Contest, types.Question, error) {
	contest, err := s.contests.Get(ctx, contestID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Contest{}, types.Question{}, ErrContestNotFound
		}
		return types.Contest{}, types.Question{}, err
	}

	now := s.now()
	if !contest.IsActive || !now.Before(contest.EndTime) {
		return types.Contest{}, types.Question{}, ErrContestNotAccessible
	}
	question, ok := contest.Question(questionID)
	if !ok {
		return types.Contest{}, types.Question{}, ErrQuestionNotFound
	}
	if !contest.Started(now) {
		return types.Contest{}, types.Question{}, ErrContestNotStarted
	}
	return contest, question, nil
}

// Run executes code without recording anything. Against a question, each
// visible test case is reported; the aggregate status is the worst outcome
// and the output is that of the first non-passing case, or the last case.
func (s *SubmissionService) Run(ctx context.Context, in RunInput) (RunResult, error) {
	if strings.TrimSpace(in.Code) == "" {
		return RunResult{}, fmt.Errorf("%w: code is required", ErrInvalidSubmission)
	}
	language := types.ParseLanguage(in.Language)

	if in.QuestionID == 0 {
		outcome, err := s.executor.Execute(ctx, judge.ExecuteRequest{
			Code:     in.Code,
			Language: language,
			Input:    in.Input,
		})
		if err != nil {
			return RunResult{}, fmt.Errorf("execute: %w", err)
		}
		return RunResult{
			Status:        outcome.Status,
			Output:        outcome.Output,
			Error:         outcome.Error,
			ExecutionTime: outcome.ExecutionTimeMs,
		}, nil
	}

	contest, question, err := s.admit(ctx, in.ContestID, in.QuestionID)
	if err != nil {
		return RunResult{}, err
	}
	if !contest.AllowsLanguage(language) {
		return RunResult{}, fmt.Errorf("%w: %q", ErrLanguageNotAllowed, in.Language)
	}

	result := RunResult{Status: judge.OutcomeSuccess}
	reported := false
	for _, tc := range question.VisibleTestCases() {
		outcome, err := s.executor.Execute(ctx, judge.ExecuteRequest{
			Code:      in.Code,
			Language:  language,
			Input:     tc.Input,
			TimeLimit: question.TimeLimit,
		})
		if err != nil {
			return RunResult{}, fmt.Errorf("execute test case %d: %w", tc.ID, err)
		}
		verdict := judge.Classify(outcome, tc.ExpectedOutput)
		result.Cases = append(result.Cases, RunCaseResult{
			TestCaseID:     tc.ID,
			Status:         verdict,
			Input:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
			Output:         outcome.Output,
			Error:          outcome.Error,
			ExecutionTime:  outcome.ExecutionTimeMs,
		})
		result.ExecutionTime += outcome.ExecutionTimeMs
		result.Status = worse(result.Status, outcome.Status)
		if !reported {
			result.Output = outcome.Output
			result.Error = outcome.Error
			reported = verdict != types.VerdictPassed
		}
	}
	return result, nil
}

// Get returns a submission to its owner or a privileged viewer.
func (s *SubmissionService) Get(ctx context.Context, id int64, viewer Viewer) (types.Submission, error) {
	sub, err := s.submissions.Get(ctx, id)
	if err != nil {
		return types.Submission{}, err
	}
	if !viewer.Privileged && sub.UserID != viewer.UserID {
		return types.Submission{}, ErrForbidden
	}
	return sub.Redacted(viewer.UserID, viewer.Privileged), nil
}

// ListForUser returns the viewer's own submissions in a contest, newest first.
func (s *SubmissionService) ListForUser(ctx context.Context, contestID int64, viewer Viewer) ([]types.Submission, error) {
	subs, err := s.submissions.ListForUser(ctx, contestID, viewer.UserID)
	if err != nil {
		return nil, err
	}
	for i := range subs {
		subs[i] = subs[i].Redacted(viewer.UserID, viewer.Privileged)
	}
	return subs, nil
}

func worse(a, b judge.OutcomeStatus) judge.OutcomeStatus {
	severity := func(s judge.OutcomeStatus) int {
		switch s {
		case judge.OutcomeTimeout:
			return 2
		case judge.OutcomeError:
			return 1
		default:
			return 0
		}
	}
	if severity(b) > severity(a) {
		return b
	}
	return a
}
