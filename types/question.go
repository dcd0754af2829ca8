package types

import (
	"errors"
	"time"
)

// Question represents a problem statement inside a contest together with
// the test cases used for grading submissions against it.
type Question struct {
	// ID is the unique identifier of the question.
	ID int64 `json:"id" db:"id"`

	// ContestID identifies the contest that owns this question.
	ContestID int64 `json:"contest_id" db:"contest_id"`

	// Title is the human-readable name of the question.
	Title string `json:"title" db:"title"`

	// Description contains the full problem statement.
	Description string `json:"description" db:"description"`

	// TimeLimit is the maximum wall-clock time per test case,
	// expressed in milliseconds.
	TimeLimit int64 `json:"time_limit" db:"time_limit"`

	// MemoryLimit is advisory only and expressed in megabytes.
	// The grader does not enforce it.
	MemoryLimit int64 `json:"memory_limit" db:"memory_limit"`

	// TestCases is the ordered collection of test cases owned by the question.
	// Use SetTestCases to replace it so TotalMarks stays consistent.
	TestCases []TestCase `json:"test_cases" db:"test_cases"`

	// TotalMarks is the sum of all test case marks.
	TotalMarks int `json:"total_marks" db:"total_marks"`

	// CreatedAt is the timestamp at which the question was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the question.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TestCase is one input/expected-output pair worth a number of marks.
type TestCase struct {
	// ID is a stable ordinal of the test case within its question.
	ID int `json:"id" db:"id"`

	// Input is fed to the program on standard input.
	Input string `json:"input" db:"input"`

	// ExpectedOutput is compared against the program output after trimming.
	ExpectedOutput string `json:"expected_output" db:"expected_output"`

	// Marks is awarded when the test case passes.
	Marks int `json:"marks" db:"marks"`

	// IsHidden hides the test case and its result details from participants.
	IsHidden bool `json:"is_hidden" db:"is_hidden"`
}

// ErrNegativeMarks is returned when a test case carries negative marks.
var ErrNegativeMarks = errors.New("test case marks must not be negative")

// SetTestCases replaces the test cases, assigns stable ids in order and
// recomputes TotalMarks.
func (q *Question) SetTestCases(cases []TestCase) error {
	for _, tc := range cases {
		if tc.Marks < 0 {
			return ErrNegativeMarks
		}
	}
	q.TestCases = make([]TestCase, len(cases))
	for i, tc := range cases {
		tc.ID = i + 1
		q.TestCases[i] = tc
	}
	q.RecomputeTotalMarks()
	return nil
}

// RecomputeTotalMarks sets TotalMarks to the sum of test case marks.
func (q *Question) RecomputeTotalMarks() {
	total := 0
	for _, tc := range q.TestCases {
		total += tc.Marks
	}
	q.TotalMarks = total
}

// VisibleTestCases returns the non-hidden test cases in order.
func (q Question) VisibleTestCases() []TestCase {
	visible := make([]TestCase, 0, len(q.TestCases))
	for _, tc := range q.TestCases {
		if !tc.IsHidden {
			visible = append(visible, tc)
		}
	}
	return visible
}

// WithoutHidden returns a copy of the question with hidden test cases removed.
// TotalMarks is left untouched so participants still see the full score.
func (q Question) WithoutHidden() Question {
	q.TestCases = q.VisibleTestCases()
	return q
}
