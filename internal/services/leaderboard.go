package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jjudge-oj/grader/internal/leaderboard"
	"github.com/jjudge-oj/grader/internal/mq"
	"github.com/jjudge-oj/grader/internal/store"
	"github.com/jjudge-oj/grader/types"
	"go.uber.org/zap"
)

// ContestSubmissions lists a contest's submissions in submission order.
type ContestSubmissions interface {
	ListByContest(ctx context.Context, contestID int64) ([]types.Submission, error)
}

// UsernameResolver maps user ids to usernames in bulk.
type UsernameResolver interface {
	UsernamesByIDs(ctx context.Context, ids []int) (map[int]string, error)
}

// LeaderboardCache stores computed standings.
type LeaderboardCache interface {
	Get(ctx context.Context, contestID int64) ([]types.LeaderboardEntry, bool, error)
	Generation(ctx context.Context, contestID int64) (int64, error)
	Set(ctx context.Context, contestID, generation int64, entries []types.LeaderboardEntry) (bool, error)
	Invalidate(ctx context.Context, contestID int64) error
}

// LeaderboardService builds contest standings.
type LeaderboardService struct {
	contests    ContestReader
	submissions ContestSubmissions
	users       UsernameResolver
	cache       LeaderboardCache
	logger      *zap.Logger
}

// NewLeaderboardService constructs the service. cache may be nil.
func NewLeaderboardService(contests ContestReader, submissions ContestSubmissions, users UsernameResolver, cache LeaderboardCache, logger *zap.Logger) *LeaderboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaderboardService{
		contests:    contests,
		submissions: submissions,
		users:       users,
		cache:       cache,
		logger:      logger,
	}
}

// Build returns the ranked standings of a contest, served from the cache
// when available. Cache failures degrade to a full rebuild.
func (s *LeaderboardService) Build(ctx context.Context, contestID int64) ([]types.LeaderboardEntry, error) {
	if _, err := s.contests.Get(ctx, contestID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrContestNotFound
		}
		return nil, err
	}

	log := s.logger.With(zap.Int64("contest_id", contestID))
	cacheable := false
	var generation int64
	if s.cache != nil {
		entries, ok, err := s.cache.Get(ctx, contestID)
		if err != nil {
			log.Warn("leaderboard cache read failed", zap.Error(err))
		} else if ok {
			return entries, nil
		}
		// The generation is read before listing so a concurrent invalidation
		// makes the write below a no-op.
		if generation, err = s.cache.Generation(ctx, contestID); err != nil {
			log.Warn("leaderboard cache generation read failed", zap.Error(err))
		} else {
			cacheable = true
		}
	}

	subs, err := s.submissions.ListByContest(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}

	seen := make(map[int]bool)
	ids := make([]int, 0)
	for _, sub := range subs {
		if !seen[sub.UserID] {
			seen[sub.UserID] = true
			ids = append(ids, sub.UserID)
		}
	}
	usernames, err := s.users.UsernamesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve usernames: %w", err)
	}

	entries := leaderboard.Aggregate(subs, usernames)
	if cacheable {
		stored, err := s.cache.Set(ctx, contestID, generation, entries)
		if err != nil {
			log.Warn("leaderboard cache write failed", zap.Error(err))
		} else if !stored {
			log.Debug("leaderboard invalidated during rebuild, not cached")
		}
	}
	return entries, nil
}

// Invalidate drops cached standings of a contest.
func (s *LeaderboardService) Invalidate(ctx context.Context, contestID int64) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, contestID)
}

// HandleGraded invalidates standings for a graded event received from
// another instance.
func (s *LeaderboardService) HandleGraded(ctx context.Context, event mq.GradedEvent) error {
	return s.Invalidate(ctx, event.ContestID)
}
