package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrAttemptLimitExceeded is returned when a user already holds the maximum
// number of submissions for a question.
var ErrAttemptLimitExceeded = errors.New("attempt limit exceeded")

// ErrSubmissionFinalized is returned when writing to a submission that is
// already completed or errored.
var ErrSubmissionFinalized = errors.New("submission already finalized")
