package types

import "time"

// Contest groups questions behind an accessibility window and submission rules.
type Contest struct {
	// ID is the unique identifier of the contest.
	ID int64 `json:"id" db:"id"`

	// Title is the human-readable name of the contest.
	Title string `json:"title" db:"title"`

	// Description is free-form text shown to participants.
	Description string `json:"description" db:"description"`

	// StartTime is the inclusive start of the accessibility window.
	StartTime time.Time `json:"start_time" db:"start_time"`

	// EndTime is the exclusive end of the accessibility window.
	EndTime time.Time `json:"end_time" db:"end_time"`

	// IsActive disables the contest entirely when false.
	IsActive bool `json:"is_active" db:"is_active"`

	// AllowedLanguages is the set of languages accepted for submissions.
	AllowedLanguages []Language `json:"allowed_languages" db:"allowed_languages"`

	// MaxAttempts caps the submissions per (user, question) pair.
	// Zero means unlimited.
	MaxAttempts int `json:"max_attempts" db:"max_attempts"`

	// Questions is the ordered collection of questions owned by the contest.
	Questions []Question `json:"questions,omitempty" db:"-"`

	// CreatedAt is the timestamp at which the contest was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the contest.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Accessible reports whether the contest accepts activity at now.
func (c Contest) Accessible(now time.Time) bool {
	return c.IsActive && !now.Before(c.StartTime) && now.Before(c.EndTime)
}

// Started reports whether now is at or past the contest start.
func (c Contest) Started(now time.Time) bool {
	return !now.Before(c.StartTime)
}

// AllowsLanguage reports whether lang is in the contest's allowed set.
func (c Contest) AllowsLanguage(lang Language) bool {
	if !lang.Supported() {
		return false
	}
	for _, allowed := range c.AllowedLanguages {
		if allowed == lang {
			return true
		}
	}
	return false
}

// AttemptsExhausted reports whether prior submissions reach the attempt cap.
func (c Contest) AttemptsExhausted(prior int) bool {
	return c.MaxAttempts > 0 && prior >= c.MaxAttempts
}

// Question returns the question with the given id, if the contest owns it.
func (c Contest) Question(id int64) (Question, bool) {
	for _, q := range c.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}
