package types

import "time"

// LeaderboardEntry is a user's best-achieved standing within a contest.
// Entries are derived from submissions and never persisted.
type LeaderboardEntry struct {
	// Rank is the competition rank; entries tied on score, solved count
	// and total time share a rank.
	Rank int `json:"rank"`

	// UserID identifies the ranked user.
	UserID int `json:"user_id"`

	// Username is the display name of the ranked user.
	Username string `json:"username,omitempty"`

	// TotalScore is the sum of best-ever marks per question.
	TotalScore int `json:"total_score"`

	// ProblemsSolved counts questions whose best score is positive.
	ProblemsSolved int `json:"problems_solved"`

	// TotalTime sums execution time of every considered submission,
	// expressed in milliseconds.
	TotalTime int64 `json:"total_time"`

	// LastSubmission is the latest submission timestamp of the user.
	LastSubmission time.Time `json:"last_submission"`
}
