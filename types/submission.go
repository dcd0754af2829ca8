package types

import (
	"math"
	"time"
)

// Submission represents one graded attempt at a question by a user.
// It contains the source code, aggregate scoring and per-test-case results.
type Submission struct {
	// ID is the unique identifier of the submission.
	ID int64 `json:"id" db:"id"`

	// ContestID identifies the contest the submission was made in.
	ContestID int64 `json:"contest_id" db:"contest_id"`

	// QuestionID identifies the question this submission answers.
	QuestionID int64 `json:"question_id" db:"question_id"`

	// UserID identifies the user who made the submission.
	UserID int `json:"user_id" db:"user_id"`

	// Code is the source code submitted by the user.
	// It is omitted from views of other users' submissions.
	Code string `json:"code,omitempty" db:"code"`

	// Language is the language the code is written in.
	Language Language `json:"language" db:"language"`

	// Status is the lifecycle state of the submission.
	Status SubmissionStatus `json:"status" db:"status"`

	// TestCaseResults holds one result per test case, in question order.
	TestCaseResults []TestCaseResult `json:"test_case_results" db:"test_case_results"`

	// TotalMarks is the sum of MaxMarks across all results.
	TotalMarks int `json:"total_marks" db:"total_marks"`

	// MarksAwarded is the sum of MarksAwarded across all results.
	MarksAwarded int `json:"marks_awarded" db:"marks_awarded"`

	// ScorePercentage is round(MarksAwarded/TotalMarks*100), or 0 without marks.
	ScorePercentage int `json:"score_percentage" db:"score_percentage"`

	// ExecutionTime is the summed wall-clock time across test cases,
	// expressed in milliseconds.
	ExecutionTime int64 `json:"execution_time" db:"execution_time"`

	// MemoryUsed is the peak memory reported across test cases,
	// expressed in kilobytes.
	MemoryUsed int64 `json:"memory_used" db:"memory_used"`

	// Message carries the fault text when Status is error.
	Message string `json:"message,omitempty" db:"message"`

	// SubmittedAt is the timestamp when the submission was created.
	SubmittedAt time.Time `json:"submitted_at" db:"submitted_at"`

	// UpdatedAt is the timestamp when the submission was last updated.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TestCaseResult is the graded outcome of running a submission against a
// single test case.
type TestCaseResult struct {
	// TestCaseID identifies the test case within its question.
	TestCaseID int `json:"test_case_id" db:"test_case_id"`

	// Status is the verdict for this test case.
	Status Verdict `json:"status" db:"status"`

	// ExecutionTime is the wall-clock time in milliseconds.
	ExecutionTime int64 `json:"execution_time" db:"execution_time"`

	// MemoryUsed is the memory reported by the runtime in kilobytes.
	MemoryUsed int64 `json:"memory_used" db:"memory_used"`

	// Output is what the program wrote to standard output.
	// Omitted from hidden results for non-privileged viewers.
	Output string `json:"output,omitempty" db:"output"`

	// Error carries runtime diagnostics or the fault message.
	// Omitted from hidden results for non-privileged viewers.
	Error string `json:"error,omitempty" db:"error"`

	// MarksAwarded equals MaxMarks when the test case passed, else 0.
	MarksAwarded int `json:"marks_awarded" db:"marks_awarded"`

	// MaxMarks is the marks value of the test case.
	MaxMarks int `json:"max_marks" db:"max_marks"`

	// IsHidden is copied from the test case.
	IsHidden bool `json:"is_hidden" db:"is_hidden"`
}

// SubmissionStatus is the lifecycle state of a submission.
type SubmissionStatus string

// Submission lifecycle states.
const (
	// SubmissionPending is the initial state at creation time.
	SubmissionPending SubmissionStatus = "pending"

	// SubmissionRunning marks that grading has started.
	SubmissionRunning SubmissionStatus = "running"

	// SubmissionCompleted is the terminal state of a normally graded submission.
	SubmissionCompleted SubmissionStatus = "completed"

	// SubmissionError is the terminal state after an infrastructure fault.
	SubmissionError SubmissionStatus = "error"
)

// Terminal reports whether no further transition is possible.
func (s SubmissionStatus) Terminal() bool {
	return s == SubmissionCompleted || s == SubmissionError
}

// CanTransition reports whether moving from s to next is allowed.
func (s SubmissionStatus) CanTransition(next SubmissionStatus) bool {
	switch s {
	case SubmissionPending:
		return next == SubmissionRunning
	case SubmissionRunning:
		return next == SubmissionCompleted || next == SubmissionError
	default:
		return false
	}
}

// Verdict is the per-test-case classification.
type Verdict string

// Supported verdict values.
const (
	VerdictPassed              Verdict = "passed"
	VerdictFailed              Verdict = "failed"
	VerdictRuntimeError        Verdict = "runtime_error"
	VerdictTimeLimitExceeded   Verdict = "time_limit_exceeded"
	VerdictMemoryLimitExceeded Verdict = "memory_limit_exceeded"
)

// ScorePercentage returns round(awarded/total*100) clamped to [0, 100],
// or 0 when total is not positive.
func ScorePercentage(awarded, total int) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Round(float64(awarded) / float64(total) * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// Redacted returns a copy of the submission suitable for a viewer.
// Non-privileged viewers lose output and error details of hidden results,
// and the code is kept only for the owner or a privileged viewer.
func (s Submission) Redacted(viewerID int, privileged bool) Submission {
	if !privileged && viewerID != s.UserID {
		s.Code = ""
	}
	if privileged {
		return s
	}
	results := make([]TestCaseResult, len(s.TestCaseResults))
	for i, r := range s.TestCaseResults {
		if r.IsHidden {
			r.Output = ""
			r.Error = ""
		}
		results[i] = r
	}
	s.TestCaseResults = results
	return s
}
