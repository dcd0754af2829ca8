// Package leaderboard computes contest standings from submission history.
package leaderboard

import (
	"sort"

	"github.com/jjudge-oj/grader/types"
)

type standing struct {
	entry types.LeaderboardEntry
	best  map[int64]int
}

// Aggregate folds submissions into ranked leaderboard entries.
//
// Submissions must be in submission order. Every submission counts towards
// TotalTime and LastSubmission regardless of status, but only an improvement
// of a user's best marks on a question raises TotalScore, so resubmitting a
// worse answer never lowers a score. usernames may be missing entries.
func Aggregate(submissions []types.Submission, usernames map[int]string) []types.LeaderboardEntry {
	byUser := make(map[int]*standing)
	order := make([]int, 0)

	for _, sub := range submissions {
		st, ok := byUser[sub.UserID]
		if !ok {
			st = &standing{
				entry: types.LeaderboardEntry{UserID: sub.UserID},
				best:  make(map[int64]int),
			}
			byUser[sub.UserID] = st
			order = append(order, sub.UserID)
		}

		prev := st.best[sub.QuestionID]
		if sub.MarksAwarded > prev {
			st.entry.TotalScore += sub.MarksAwarded - prev
			if prev == 0 {
				st.entry.ProblemsSolved++
			}
			st.best[sub.QuestionID] = sub.MarksAwarded
		}
		st.entry.TotalTime += sub.ExecutionTime
		if sub.SubmittedAt.After(st.entry.LastSubmission) {
			st.entry.LastSubmission = sub.SubmittedAt
		}
	}

	entries := make([]types.LeaderboardEntry, 0, len(order))
	for _, userID := range order {
		entry := byUser[userID].entry
		entry.Username = usernames[userID]
		entries = append(entries, entry)
	}

	Rank(entries)
	return entries
}

// Rank sorts entries and assigns competition ranks: entries tied on score,
// solved count and time share a rank and the next rank skips accordingly.
func Rank(entries []types.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		if a.ProblemsSolved != b.ProblemsSolved {
			return a.ProblemsSolved > b.ProblemsSolved
		}
		if a.TotalTime != b.TotalTime {
			return a.TotalTime < b.TotalTime
		}
		return a.UserID < b.UserID
	})

	for i := range entries {
		if i > 0 && tied(entries[i-1], entries[i]) {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}

func tied(a, b types.LeaderboardEntry) bool {
	return a.TotalScore == b.TotalScore &&
		a.ProblemsSolved == b.ProblemsSolved &&
		a.TotalTime == b.TotalTime
}
