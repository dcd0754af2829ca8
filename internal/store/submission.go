package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jjudge-oj/grader/types"
)

// SubmissionRepository handles persistence for submissions.
type SubmissionRepository struct {
	db *sql.DB
}

func NewSubmissionRepository(db *sql.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

const submissionColumns = `
	id, contest_id, question_id, user_id, code, language, status,
	test_case_results, total_marks, marks_awarded, score_percentage,
	execution_time, memory_used, message, submitted_at, updated_at`

func (r *SubmissionRepository) Get(ctx context.Context, id int64) (types.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	submission, err := scanSubmission(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Submission{}, ErrNotFound
		}
		return types.Submission{}, err
	}
	return submission, nil
}

func (r *SubmissionRepository) Create(ctx context.Context, submission types.Submission) (types.Submission, error) {
	return insertSubmission(ctx, r.db, submission)
}

// CreateWithinAttemptLimit inserts the submission unless the user already
// holds maxAttempts submissions for the question. The count and the insert
// run in one transaction under an advisory lock keyed on (user, question),
// so concurrent submits cannot overshoot the limit. maxAttempts <= 0 means
// unlimited.
func (r *SubmissionRepository) CreateWithinAttemptLimit(ctx context.Context, submission types.Submission, maxAttempts int) (types.Submission, error) {
	if maxAttempts <= 0 {
		return r.Create(ctx, submission)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Submission{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const lockQuery = `SELECT pg_advisory_xact_lock($1::int4, hashtext($2::text))`
	if _, err := tx.ExecContext(ctx, lockQuery, submission.UserID, fmt.Sprint(submission.QuestionID)); err != nil {
		return types.Submission{}, fmt.Errorf("acquire attempt lock: %w", err)
	}

	prior, err := countForUserQuestion(ctx, tx, submission.UserID, submission.QuestionID)
	if err != nil {
		return types.Submission{}, err
	}
	if prior >= maxAttempts {
		return types.Submission{}, ErrAttemptLimitExceeded
	}

	created, err := insertSubmission(ctx, tx, submission)
	if err != nil {
		return types.Submission{}, err
	}
	if err := tx.Commit(); err != nil {
		return types.Submission{}, err
	}
	return created, nil
}

// Update writes the grading state of a submission. Rows already in a terminal
// status are left untouched and ErrSubmissionFinalized is returned.
func (r *SubmissionRepository) Update(ctx context.Context, submission types.Submission) (types.Submission, error) {
	submission.UpdatedAt = time.Now()

	resultsJSON, err := json.Marshal(nonNilResults(submission.TestCaseResults))
	if err != nil {
		return types.Submission{}, err
	}

	const query = `
		UPDATE submissions
		SET status = $1,
			test_case_results = $2,
			total_marks = $3,
			marks_awarded = $4,
			score_percentage = $5,
			execution_time = $6,
			memory_used = $7,
			message = $8,
			updated_at = $9
		WHERE id = $10 AND status NOT IN ('completed', 'error')`
	result, err := r.db.ExecContext(
		ctx,
		query,
		submission.Status,
		resultsJSON,
		submission.TotalMarks,
		submission.MarksAwarded,
		submission.ScorePercentage,
		submission.ExecutionTime,
		submission.MemoryUsed,
		submission.Message,
		submission.UpdatedAt,
		submission.ID,
	)
	if err != nil {
		return types.Submission{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Submission{}, err
	}
	if affected == 0 {
		return types.Submission{}, r.missingOrFinalized(ctx, submission.ID)
	}
	return submission, nil
}

func (r *SubmissionRepository) missingOrFinalized(ctx context.Context, id int64) error {
	var status types.SubmissionStatus
	err := r.db.QueryRowContext(ctx, `SELECT status FROM submissions WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrSubmissionFinalized
}

// ListByContest returns every submission of the contest in submission order.
func (r *SubmissionRepository) ListByContest(ctx context.Context, contestID int64) ([]types.Submission, error) {
	query := `SELECT ` + submissionColumns + `
		FROM submissions
		WHERE contest_id = $1
		ORDER BY submitted_at, id`
	return r.list(ctx, query, contestID)
}

// ListForUser returns the user's submissions in a contest, newest first.
func (r *SubmissionRepository) ListForUser(ctx context.Context, contestID int64, userID int) ([]types.Submission, error) {
	query := `SELECT ` + submissionColumns + `
		FROM submissions
		WHERE contest_id = $1 AND user_id = $2
		ORDER BY submitted_at DESC, id DESC`
	return r.list(ctx, query, contestID, userID)
}

func (r *SubmissionRepository) list(ctx context.Context, query string, args ...any) ([]types.Submission, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	submissions := make([]types.Submission, 0)
	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, submission)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return submissions, nil
}

type execQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertSubmission(ctx context.Context, q execQuerier, submission types.Submission) (types.Submission, error) {
	now := time.Now()
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = now
	}
	submission.UpdatedAt = now

	resultsJSON, err := json.Marshal(nonNilResults(submission.TestCaseResults))
	if err != nil {
		return types.Submission{}, err
	}

	const query = `
		INSERT INTO submissions (
			contest_id, question_id, user_id, code, language, status,
			test_case_results, total_marks, marks_awarded, score_percentage,
			execution_time, memory_used, message, submitted_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`
	if err := q.QueryRowContext(
		ctx,
		query,
		submission.ContestID,
		submission.QuestionID,
		submission.UserID,
		submission.Code,
		submission.Language,
		submission.Status,
		resultsJSON,
		submission.TotalMarks,
		submission.MarksAwarded,
		submission.ScorePercentage,
		submission.ExecutionTime,
		submission.MemoryUsed,
		submission.Message,
		submission.SubmittedAt,
		submission.UpdatedAt,
	).Scan(&submission.ID); err != nil {
		return types.Submission{}, err
	}
	return submission, nil
}

func countForUserQuestion(ctx context.Context, q execQuerier, userID int, questionID int64) (int, error) {
	const query = `SELECT COUNT(1) FROM submissions WHERE user_id = $1 AND question_id = $2`
	var count int
	if err := q.QueryRowContext(ctx, query, userID, questionID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanSubmission(row rowScanner) (types.Submission, error) {
	var submission types.Submission
	var resultsJSON []byte
	if err := row.Scan(
		&submission.ID,
		&submission.ContestID,
		&submission.QuestionID,
		&submission.UserID,
		&submission.Code,
		&submission.Language,
		&submission.Status,
		&resultsJSON,
		&submission.TotalMarks,
		&submission.MarksAwarded,
		&submission.ScorePercentage,
		&submission.ExecutionTime,
		&submission.MemoryUsed,
		&submission.Message,
		&submission.SubmittedAt,
		&submission.UpdatedAt,
	); err != nil {
		return types.Submission{}, err
	}
	_ = json.Unmarshal(resultsJSON, &submission.TestCaseResults)
	return submission, nil
}

func nonNilResults(results []types.TestCaseResult) []types.TestCaseResult {
	if results == nil {
		return []types.TestCaseResult{}
	}
	return results
}
