package services

import (
	"context"
	"testing"

	"github.com/jjudge-oj/grader/internal/mq"
	"github.com/jjudge-oj/grader/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStandings(t *testing.T) (*memContests, *memSubmissions, *memUsers, types.Contest) {
	t.Helper()
	contests := newMemContests()
	contest, question := seedContest(contests, 0)
	subs := &memSubmissions{}
	add := func(userID, marks int, ms int64) {
		_, err := subs.CreateWithinAttemptLimit(context.Background(), types.Submission{
			ContestID:     contest.ID,
			QuestionID:    question.ID,
			UserID:        userID,
			Status:        types.SubmissionCompleted,
			MarksAwarded:  marks,
			ExecutionTime: ms,
		}, 0)
		require.NoError(t, err)
	}
	add(1, 40, 10)
	add(2, 100, 30)
	add(1, 100, 5)
	users := &memUsers{users: map[int]types.User{
		1: {ID: 1, Username: "ada"},
		2: {ID: 2, Username: "brian"},
	}}
	return contests, subs, users, contest
}

func TestLeaderboardBuildRanksAndCaches(t *testing.T) {
	contests, subs, users, contest := seedStandings(t)
	cache := newMemCache()
	svc := NewLeaderboardService(contests, subs, users, cache, nil)

	entries, err := svc.Build(context.Background(), contest.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ada", entries[0].Username)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "brian", entries[1].Username)
	assert.Contains(t, cache.entries, contest.ID)

	// Served from the cache until invalidated.
	cache.entries[contest.ID] = []types.LeaderboardEntry{{UserID: 9, Username: "cached", Rank: 1}}
	cached, err := svc.Build(context.Background(), contest.ID)
	require.NoError(t, err)
	assert.Equal(t, "cached", cached[0].Username)

	require.NoError(t, svc.HandleGraded(context.Background(), mq.GradedEvent{ContestID: contest.ID}))
	rebuilt, err := svc.Build(context.Background(), contest.ID)
	require.NoError(t, err)
	assert.Len(t, rebuilt, 2)
}

func TestLeaderboardBuildWithoutCache(t *testing.T) {
	contests, subs, users, contest := seedStandings(t)
	svc := NewLeaderboardService(contests, subs, users, nil, nil)

	entries, err := svc.Build(context.Background(), contest.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	require.NoError(t, svc.Invalidate(context.Background(), contest.ID))
}

func TestLeaderboardBuildUnknownContest(t *testing.T) {
	contests, subs, users, _ := seedStandings(t)
	svc := NewLeaderboardService(contests, subs, users, newMemCache(), nil)

	_, err := svc.Build(context.Background(), 999)
	require.ErrorIs(t, err, ErrContestNotFound)
}

type brokenCache struct{ *memCache }

func (brokenCache) Get(ctx context.Context, contestID int64) ([]types.LeaderboardEntry, bool, error) {
	return nil, false, assert.AnError
}

func (brokenCache) Set(ctx context.Context, contestID, generation int64, entries []types.LeaderboardEntry) (bool, error) {
	return false, assert.AnError
}

func TestLeaderboardCacheFailureFallsBackToRebuild(t *testing.T) {
	contests, subs, users, contest := seedStandings(t)
	svc := NewLeaderboardService(contests, subs, users, brokenCache{newMemCache()}, nil)

	entries, err := svc.Build(context.Background(), contest.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

// invalidatingSubmissions simulates a grade landing while standings are
// being listed.
type invalidatingSubmissions struct {
	*memSubmissions
	onList func()
}

func (s invalidatingSubmissions) ListByContest(ctx context.Context, contestID int64) ([]types.Submission, error) {
	subs, err := s.memSubmissions.ListByContest(ctx, contestID)
	s.onList()
	return subs, err
}

func TestLeaderboardRebuildRacingInvalidationIsNotCached(t *testing.T) {
	contests, subs, users, contest := seedStandings(t)
	cache := newMemCache()
	var svc *LeaderboardService
	racing := invalidatingSubmissions{memSubmissions: subs, onList: func() {
		require.NoError(t, svc.Invalidate(context.Background(), contest.ID))
	}}
	svc = NewLeaderboardService(contests, racing, users, cache, nil)

	entries, err := svc.Build(context.Background(), contest.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.NotContains(t, cache.entries, contest.ID)
	assert.Equal(t, []int64{contest.ID}, cache.invalidated)
}

func TestGradeNotifierInvalidatesAndPublishes(t *testing.T) {
	cache := newMemCache()
	publisher := &memPublisher{}
	svc := NewLeaderboardService(newMemContests(), &memSubmissions{}, &memUsers{}, cache, nil)
	notifier := NewGradeNotifier(svc, publisher, nil)

	notifier.SubmissionGraded(context.Background(), types.Submission{
		ID:              11,
		ContestID:       4,
		UserID:          2,
		Status:          types.SubmissionCompleted,
		ScorePercentage: 80,
	})

	assert.Equal(t, []int64{4}, cache.invalidated)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, int64(11), publisher.events[0].SubmissionID)
	assert.Equal(t, int64(4), publisher.events[0].ContestID)
}

func TestGradeNotifierWithoutPublisher(t *testing.T) {
	cache := newMemCache()
	notifier := NewGradeNotifier(NewLeaderboardService(nil, nil, nil, cache, nil), nil, nil)

	notifier.SubmissionGraded(context.Background(), types.Submission{ContestID: 3})
	assert.Equal(t, []int64{3}, cache.invalidated)
}
