package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jjudge-oj/grader/types"
	"github.com/lib/pq"
)

// ContestRepository handles persistence for contests and their questions.
type ContestRepository struct {
	db *sql.DB
}

func NewContestRepository(db *sql.DB) *ContestRepository {
	return &ContestRepository{db: db}
}

// Get loads a contest together with its questions in creation order.
func (r *ContestRepository) Get(ctx context.Context, id int64) (types.Contest, error) {
	const query = `
		SELECT id, title, description, start_time, end_time, is_active,
		       allowed_languages, max_attempts, created_at, updated_at
		FROM contests
		WHERE id = $1`
	var contest types.Contest
	var languages pq.StringArray
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&contest.ID,
		&contest.Title,
		&contest.Description,
		&contest.StartTime,
		&contest.EndTime,
		&contest.IsActive,
		&languages,
		&contest.MaxAttempts,
		&contest.CreatedAt,
		&contest.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Contest{}, ErrNotFound
		}
		return types.Contest{}, err
	}
	contest.AllowedLanguages = parseLanguages(languages)

	questions, err := r.ListQuestions(ctx, id)
	if err != nil {
		return types.Contest{}, err
	}
	contest.Questions = questions
	return contest, nil
}

func (r *ContestRepository) Create(ctx context.Context, contest types.Contest) (types.Contest, error) {
	now := time.Now()
	contest.CreatedAt = now
	contest.UpdatedAt = now

	const query = `
		INSERT INTO contests (
			title, description, start_time, end_time, is_active,
			allowed_languages, max_attempts, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		contest.Title,
		contest.Description,
		contest.StartTime,
		contest.EndTime,
		contest.IsActive,
		pq.Array(languageTags(contest.AllowedLanguages)),
		contest.MaxAttempts,
		contest.CreatedAt,
		contest.UpdatedAt,
	).Scan(&contest.ID); err != nil {
		return types.Contest{}, err
	}
	contest.Questions = nil
	return contest, nil
}

func (r *ContestRepository) ListQuestions(ctx context.Context, contestID int64) ([]types.Question, error) {
	const query = `
		SELECT id, contest_id, title, description, time_limit, memory_limit,
		       test_cases, total_marks, created_at, updated_at
		FROM questions
		WHERE contest_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, contestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := make([]types.Question, 0)
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *ContestRepository) GetQuestion(ctx context.Context, id int64) (types.Question, error) {
	const query = `
		SELECT id, contest_id, title, description, time_limit, memory_limit,
		       test_cases, total_marks, created_at, updated_at
		FROM questions
		WHERE id = $1`
	question, err := scanQuestion(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Question{}, ErrNotFound
		}
		return types.Question{}, err
	}
	return question, nil
}

// CreateQuestion inserts a question. TotalMarks is recomputed from the test cases.
func (r *ContestRepository) CreateQuestion(ctx context.Context, question types.Question) (types.Question, error) {
	now := time.Now()
	question.CreatedAt = now
	question.UpdatedAt = now
	question.RecomputeTotalMarks()

	casesJSON, err := json.Marshal(nonNilCases(question.TestCases))
	if err != nil {
		return types.Question{}, err
	}

	const query = `
		INSERT INTO questions (
			contest_id, title, description, time_limit, memory_limit,
			test_cases, total_marks, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		question.ContestID,
		question.Title,
		question.Description,
		question.TimeLimit,
		question.MemoryLimit,
		casesJSON,
		question.TotalMarks,
		question.CreatedAt,
		question.UpdatedAt,
	).Scan(&question.ID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return types.Question{}, ErrNotFound
		}
		return types.Question{}, err
	}
	return question, nil
}

// UpdateQuestion persists a question, test cases included. TotalMarks is
// recomputed in the same statement that writes the cases.
func (r *ContestRepository) UpdateQuestion(ctx context.Context, question types.Question) (types.Question, error) {
	question.UpdatedAt = time.Now()
	question.RecomputeTotalMarks()

	casesJSON, err := json.Marshal(nonNilCases(question.TestCases))
	if err != nil {
		return types.Question{}, err
	}

	const query = `
		UPDATE questions
		SET title = $1,
			description = $2,
			time_limit = $3,
			memory_limit = $4,
			test_cases = $5,
			total_marks = $6,
			updated_at = $7
		WHERE id = $8`
	result, err := r.db.ExecContext(
		ctx,
		query,
		question.Title,
		question.Description,
		question.TimeLimit,
		question.MemoryLimit,
		casesJSON,
		question.TotalMarks,
		question.UpdatedAt,
		question.ID,
	)
	if err != nil {
		return types.Question{}, err
	}
	if err := expectAffected(result); err != nil {
		return types.Question{}, err
	}
	return question, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row rowScanner) (types.Question, error) {
	var question types.Question
	var casesJSON []byte
	if err := row.Scan(
		&question.ID,
		&question.ContestID,
		&question.Title,
		&question.Description,
		&question.TimeLimit,
		&question.MemoryLimit,
		&casesJSON,
		&question.TotalMarks,
		&question.CreatedAt,
		&question.UpdatedAt,
	); err != nil {
		return types.Question{}, err
	}
	if err := json.Unmarshal(casesJSON, &question.TestCases); err != nil {
		return types.Question{}, err
	}
	return question, nil
}

func expectAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func languageTags(languages []types.Language) []string {
	tags := make([]string, 0, len(languages))
	for _, lang := range languages {
		if lang.Supported() {
			tags = append(tags, lang.String())
		}
	}
	return tags
}

func parseLanguages(tags []string) []types.Language {
	languages := make([]types.Language, 0, len(tags))
	for _, tag := range tags {
		if lang := types.ParseLanguage(tag); lang.Supported() {
			languages = append(languages, lang)
		}
	}
	return languages
}

func nonNilCases(cases []types.TestCase) []types.TestCase {
	if cases == nil {
		return []types.TestCase{}
	}
	return cases
}
