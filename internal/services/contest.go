package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jjudge-oj/grader/internal/store"
	"github.com/jjudge-oj/grader/types"
)

// ContestRepository defines persistence operations for contests and questions.
type ContestRepository interface {
	Get(ctx context.Context, id int64) (types.Contest, error)
	Create(ctx context.Context, contest types.Contest) (types.Contest, error)
	GetQuestion(ctx context.Context, id int64) (types.Question, error)
	CreateQuestion(ctx context.Context, question types.Question) (types.Question, error)
	UpdateQuestion(ctx context.Context, question types.Question) (types.Question, error)
}

// ContestService encapsulates contest and question use-cases.
type ContestService struct {
	repo ContestRepository
}

func NewContestService(repo ContestRepository) *ContestService {
	return &ContestService{repo: repo}
}

// Create validates and stores a contest. An empty language set allows
// every supported language.
func (s *ContestService) Create(ctx context.Context, contest types.Contest) (types.Contest, error) {
	contest.Title = strings.TrimSpace(contest.Title)
	if contest.Title == "" {
		return types.Contest{}, fmt.Errorf("%w: title is required", ErrInvalidContest)
	}
	if !contest.EndTime.After(contest.StartTime) {
		return types.Contest{}, fmt.Errorf("%w: end time must be after start time", ErrInvalidContest)
	}
	if contest.MaxAttempts < 0 {
		return types.Contest{}, fmt.Errorf("%w: max attempts must not be negative", ErrInvalidContest)
	}
	for _, lang := range contest.AllowedLanguages {
		if !lang.Supported() {
			return types.Contest{}, fmt.Errorf("%w: unsupported language", ErrInvalidContest)
		}
	}
	if len(contest.AllowedLanguages) == 0 {
		contest.AllowedLanguages = append([]types.Language(nil), types.Languages...)
	}
	return s.repo.Create(ctx, contest)
}

// Get returns a contest. Non-privileged viewers do not see hidden test cases.
func (s *ContestService) Get(ctx context.Context, id int64, viewer Viewer) (types.Contest, error) {
	contest, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Contest{}, ErrContestNotFound
		}
		return types.Contest{}, err
	}
	if viewer.Privileged {
		return contest, nil
	}
	questions := make([]types.Question, len(contest.Questions))
	for i, q := range contest.Questions {
		questions[i] = q.WithoutHidden()
	}
	contest.Questions = questions
	return contest, nil
}

// AddQuestion creates a question in an existing contest.
func (s *ContestService) AddQuestion(ctx context.Context, contestID int64, question types.Question) (types.Question, error) {
	if _, err := s.repo.Get(ctx, contestID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Question{}, ErrContestNotFound
		}
		return types.Question{}, err
	}

	question.Title = strings.TrimSpace(question.Title)
	if question.Title == "" {
		return types.Question{}, fmt.Errorf("%w: title is required", ErrInvalidQuestion)
	}
	if question.TimeLimit < 0 || question.MemoryLimit < 0 {
		return types.Question{}, fmt.Errorf("%w: limits must not be negative", ErrInvalidQuestion)
	}
	if err := question.SetTestCases(question.TestCases); err != nil {
		return types.Question{}, fmt.Errorf("%w: %v", ErrInvalidQuestion, err)
	}
	question.ContestID = contestID
	return s.repo.CreateQuestion(ctx, question)
}

// SetTestCases replaces the test cases of a question and recomputes its
// total marks.
func (s *ContestService) SetTestCases(ctx context.Context, contestID, questionID int64, cases []types.TestCase) (types.Question, error) {
	question, err := s.repo.GetQuestion(ctx, questionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Question{}, ErrQuestionNotFound
		}
		return types.Question{}, err
	}
	if question.ContestID != contestID {
		return types.Question{}, ErrQuestionNotFound
	}
	if err := question.SetTestCases(cases); err != nil {
		return types.Question{}, fmt.Errorf("%w: %v", ErrInvalidQuestion, err)
	}
	return s.repo.UpdateQuestion(ctx, question)
}
