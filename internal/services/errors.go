package services

import "errors"

// Submission validation failures, checked in this order. A failed check
// creates no submission record.
var (
	ErrInvalidSubmission    = errors.New("invalid submission")
	ErrContestNotFound      = errors.New("contest not found")
	ErrContestNotAccessible = errors.New("contest is not accessible")
	ErrQuestionNotFound     = errors.New("question not found")
	ErrContestNotStarted    = errors.New("contest has not started")
	ErrLanguageNotAllowed   = errors.New("language not allowed in this contest")
	ErrAttemptLimitExceeded = errors.New("maximum attempts reached for this question")
)

var (
	ErrInvalidContest  = errors.New("invalid contest")
	ErrInvalidQuestion = errors.New("invalid question")
	ErrForbidden       = errors.New("forbidden")
)
