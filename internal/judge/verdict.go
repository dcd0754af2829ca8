package judge

import (
	"strings"

	"github.com/jjudge-oj/grader/types"
)

// OutputMatches compares outputs ignoring leading and trailing whitespace.
// Internal whitespace is significant.
func OutputMatches(actual, expected string) bool {
	return strings.TrimSpace(actual) == strings.TrimSpace(expected)
}

// Classify maps an execution outcome onto a test case verdict. A timeout is
// never a wrong answer, even when the late output matches.
func Classify(outcome Outcome, expected string) types.Verdict {
	switch outcome.Status {
	case OutcomeTimeout:
		return types.VerdictTimeLimitExceeded
	case OutcomeError:
		return types.VerdictRuntimeError
	case OutcomeSuccess:
		if OutputMatches(outcome.Output, expected) {
			return types.VerdictPassed
		}
		return types.VerdictFailed
	default:
		return types.VerdictRuntimeError
	}
}

// GradeSummary accumulates per-test-case results into submission totals.
type GradeSummary struct {
	Results       []types.TestCaseResult
	TotalMarks    int
	ObtainedMarks int
	ExecutionTime int64
	MaxMemory     int64
}

// Add returns the summary extended by one result.
func (s GradeSummary) Add(r types.TestCaseResult) GradeSummary {
	s.Results = append(s.Results, r)
	s.TotalMarks += r.MaxMarks
	s.ObtainedMarks += r.MarksAwarded
	s.ExecutionTime += r.ExecutionTime
	s.MaxMemory = max(s.MaxMemory, r.MemoryUsed)
	return s
}

// ScorePercentage returns the rounded percentage of obtained marks.
func (s GradeSummary) ScorePercentage() int {
	return types.ScorePercentage(s.ObtainedMarks, s.TotalMarks)
}

// Fold reduces the ordered test cases into a summary, running each case once.
func Fold(cases []types.TestCase, run func(types.TestCase) types.TestCaseResult) GradeSummary {
	summary := GradeSummary{Results: make([]types.TestCaseResult, 0, len(cases))}
	for _, tc := range cases {
		summary = summary.Add(run(tc))
	}
	return summary
}

// resultFor builds the graded result of one test case from its outcome.
func resultFor(tc types.TestCase, outcome Outcome) types.TestCaseResult {
	verdict := Classify(outcome, tc.ExpectedOutput)
	awarded := 0
	if verdict == types.VerdictPassed {
		awarded = tc.Marks
	}
	return types.TestCaseResult{
		TestCaseID:    tc.ID,
		Status:        verdict,
		ExecutionTime: outcome.ExecutionTimeMs,
		MemoryUsed:    outcome.MemoryUsedKB,
		Output:        outcome.Output,
		Error:         outcome.Error,
		MarksAwarded:  awarded,
		MaxMarks:      tc.Marks,
		IsHidden:      tc.IsHidden,
	}
}

// faultResult records an infrastructure fault on a single test case.
func faultResult(tc types.TestCase, err error) types.TestCaseResult {
	return types.TestCaseResult{
		TestCaseID: tc.ID,
		Status:     types.VerdictRuntimeError,
		Error:      "execution fault: " + err.Error(),
		MaxMarks:   tc.Marks,
		IsHidden:   tc.IsHidden,
	}
}
