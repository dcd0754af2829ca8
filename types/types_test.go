package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetTestCasesRecomputesTotalMarks(t *testing.T) {
	var q Question
	require.NoError(t, q.SetTestCases([]TestCase{{Marks: 5}, {Marks: 7, IsHidden: true}}))
	assert.Equal(t, 12, q.TotalMarks)
	assert.Equal(t, 1, q.TestCases[0].ID)
	assert.Equal(t, 2, q.TestCases[1].ID)

	require.NoError(t, q.SetTestCases([]TestCase{{Marks: 3}}))
	assert.Equal(t, 3, q.TotalMarks)

	require.NoError(t, q.SetTestCases(nil))
	assert.Equal(t, 0, q.TotalMarks)
}

func TestSetTestCasesRejectsNegativeMarks(t *testing.T) {
	q := Question{TotalMarks: 4}
	err := q.SetTestCases([]TestCase{{Marks: 5}, {Marks: -1}})
	assert.ErrorIs(t, err, ErrNegativeMarks)
	assert.Equal(t, 4, q.TotalMarks)
}

func TestWithoutHiddenKeepsTotalMarks(t *testing.T) {
	var q Question
	require.NoError(t, q.SetTestCases([]TestCase{{Marks: 5}, {Marks: 5, IsHidden: true}}))
	visible := q.WithoutHidden()
	assert.Len(t, visible.TestCases, 1)
	assert.Equal(t, 10, visible.TotalMarks)
	assert.Len(t, q.TestCases, 2)
}

func TestScorePercentage(t *testing.T) {
	cases := []struct {
		awarded, total, want int
	}{
		{0, 0, 0},
		{5, 0, 0},
		{10, 10, 100},
		{1, 3, 33},
		{2, 3, 67},
		{0, 7, 0},
		{-3, 10, 0},
		{15, 10, 100},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ScorePercentage(tc.awarded, tc.total), "%d/%d", tc.awarded, tc.total)
	}
}

func TestSubmissionStatusTransitions(t *testing.T) {
	assert.True(t, SubmissionPending.CanTransition(SubmissionRunning))
	assert.False(t, SubmissionPending.CanTransition(SubmissionCompleted))
	assert.False(t, SubmissionPending.CanTransition(SubmissionError))
	assert.True(t, SubmissionRunning.CanTransition(SubmissionCompleted))
	assert.True(t, SubmissionRunning.CanTransition(SubmissionError))
	assert.False(t, SubmissionCompleted.CanTransition(SubmissionRunning))
	assert.False(t, SubmissionError.CanTransition(SubmissionCompleted))
	assert.True(t, SubmissionCompleted.Terminal())
	assert.False(t, SubmissionRunning.Terminal())
}

func TestContestAccessibility(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c := Contest{IsActive: true, StartTime: start, EndTime: start.Add(time.Hour)}

	assert.False(t, c.Accessible(start.Add(-time.Second)))
	assert.True(t, c.Accessible(start))
	assert.True(t, c.Accessible(start.Add(59*time.Minute)))
	assert.False(t, c.Accessible(start.Add(time.Hour)))

	c.IsActive = false
	assert.False(t, c.Accessible(start.Add(time.Minute)))
}

func TestContestAttemptsExhausted(t *testing.T) {
	c := Contest{MaxAttempts: 2}
	assert.False(t, c.AttemptsExhausted(1))
	assert.True(t, c.AttemptsExhausted(2))

	unlimited := Contest{}
	assert.False(t, unlimited.AttemptsExhausted(1000))
}

func TestLanguageParsing(t *testing.T) {
	for _, lang := range Languages {
		assert.Equal(t, lang, ParseLanguage(lang.String()))
	}
	assert.Equal(t, LanguagePython, ParseLanguage(" Python "))
	assert.Equal(t, LanguageUnsupported, ParseLanguage("ruby"))
	assert.False(t, Contest{AllowedLanguages: []Language{LanguageC}}.AllowsLanguage(LanguageUnsupported))
}

func TestRedactedHidesHiddenDetails(t *testing.T) {
	sub := Submission{
		UserID: 7,
		Code:   "print(1)",
		TestCaseResults: []TestCaseResult{
			{TestCaseID: 1, Output: "1", Status: VerdictPassed},
			{TestCaseID: 2, Output: "2", Error: "boom", IsHidden: true, Status: VerdictRuntimeError},
		},
	}

	owner := sub.Redacted(7, false)
	assert.Equal(t, "print(1)", owner.Code)
	assert.Equal(t, "1", owner.TestCaseResults[0].Output)
	assert.Empty(t, owner.TestCaseResults[1].Output)
	assert.Empty(t, owner.TestCaseResults[1].Error)
	assert.Equal(t, VerdictRuntimeError, owner.TestCaseResults[1].Status)
	assert.Equal(t, "2", sub.TestCaseResults[1].Output)

	stranger := sub.Redacted(8, false)
	assert.Empty(t, stranger.Code)

	admin := sub.Redacted(1, true)
	assert.Equal(t, "boom", admin.TestCaseResults[1].Error)
	assert.Equal(t, "print(1)", admin.Code)
}
