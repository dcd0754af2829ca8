package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jjudge-oj/grader/internal/judge"
	"github.com/jjudge-oj/grader/internal/mq"
	"github.com/jjudge-oj/grader/internal/store"
	"github.com/jjudge-oj/grader/types"
)

type memContests struct {
	mu        sync.Mutex
	contests  map[int64]types.Contest
	questions map[int64]types.Question
	nextID    int64
}

func newMemContests() *memContests {
	return &memContests{contests: map[int64]types.Contest{}, questions: map[int64]types.Question{}}
}

func (m *memContests) Get(ctx context.Context, id int64) (types.Contest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contests[id]
	if !ok {
		return types.Contest{}, store.ErrNotFound
	}
	c.Questions = nil
	for _, q := range m.questions {
		if q.ContestID == id {
			c.Questions = append(c.Questions, q)
		}
	}
	sort.Slice(c.Questions, func(i, j int) bool { return c.Questions[i].ID < c.Questions[j].ID })
	return c, nil
}

func (m *memContests) Create(ctx context.Context, c types.Contest) (types.Contest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	m.contests[c.ID] = c
	return c, nil
}

func (m *memContests) GetQuestion(ctx context.Context, id int64) (types.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questions[id]
	if !ok {
		return types.Question{}, store.ErrNotFound
	}
	return q, nil
}

func (m *memContests) CreateQuestion(ctx context.Context, q types.Question) (types.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	q.ID = m.nextID
	q.RecomputeTotalMarks()
	m.questions[q.ID] = q
	return q, nil
}

func (m *memContests) UpdateQuestion(ctx context.Context, q types.Question) (types.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questions[q.ID]; !ok {
		return types.Question{}, store.ErrNotFound
	}
	q.RecomputeTotalMarks()
	m.questions[q.ID] = q
	return q, nil
}

type memSubmissions struct {
	mu     sync.Mutex
	items  []types.Submission
	nextID int64
}

func (m *memSubmissions) Get(ctx context.Context, id int64) (types.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.items {
		if s.ID == id {
			return s, nil
		}
	}
	return types.Submission{}, store.ErrNotFound
}

func (m *memSubmissions) CreateWithinAttemptLimit(ctx context.Context, sub types.Submission, maxAttempts int) (types.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if maxAttempts > 0 {
		prior := 0
		for _, s := range m.items {
			if s.UserID == sub.UserID && s.QuestionID == sub.QuestionID {
				prior++
			}
		}
		if prior >= maxAttempts {
			return types.Submission{}, store.ErrAttemptLimitExceeded
		}
	}
	m.nextID++
	sub.ID = m.nextID
	m.items = append(m.items, sub)
	return sub, nil
}

func (m *memSubmissions) Update(ctx context.Context, sub types.Submission) (types.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.items {
		if s.ID == sub.ID {
			m.items[i] = sub
			return sub, nil
		}
	}
	return types.Submission{}, store.ErrNotFound
}

func (m *memSubmissions) ListForUser(ctx context.Context, contestID int64, userID int) ([]types.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.Submission, 0)
	for i := len(m.items) - 1; i >= 0; i-- {
		s := m.items[i]
		if s.ContestID == contestID && s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSubmissions) ListByContest(ctx context.Context, contestID int64) ([]types.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.Submission, 0)
	for _, s := range m.items {
		if s.ContestID == contestID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSubmissions) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// echoExecutor answers each input from a table and otherwise echoes it.
type echoExecutor struct {
	mu      sync.Mutex
	answers map[string]judge.Outcome
	calls   []judge.ExecuteRequest
}

func (e *echoExecutor) Execute(ctx context.Context, req judge.ExecuteRequest) (judge.Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, req)
	if out, ok := e.answers[req.Input]; ok {
		return out, nil
	}
	return judge.Outcome{Status: judge.OutcomeSuccess, Output: req.Input, ExecutionTimeMs: 1}, nil
}

type memUsers struct {
	users map[int]types.User
}

func (m *memUsers) GetByID(ctx context.Context, id int) (types.User, error) {
	u, ok := m.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetByUsername(ctx context.Context, username string) (types.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUsers) Create(ctx context.Context, u types.User) (types.User, error) {
	u.ID = len(m.users) + 1
	m.users[u.ID] = u
	return u, nil
}

func (m *memUsers) UsernamesByIDs(ctx context.Context, ids []int) (map[int]string, error) {
	out := make(map[int]string, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = u.Username
		}
	}
	return out, nil
}

type memCache struct {
	entries     map[int64][]types.LeaderboardEntry
	generations map[int64]int64
	invalidated []int64
}

func newMemCache() *memCache {
	return &memCache{
		entries:     map[int64][]types.LeaderboardEntry{},
		generations: map[int64]int64{},
	}
}

func (c *memCache) Get(ctx context.Context, contestID int64) ([]types.LeaderboardEntry, bool, error) {
	e, ok := c.entries[contestID]
	return e, ok, nil
}

func (c *memCache) Generation(ctx context.Context, contestID int64) (int64, error) {
	return c.generations[contestID], nil
}

func (c *memCache) Set(ctx context.Context, contestID, generation int64, entries []types.LeaderboardEntry) (bool, error) {
	if c.generations[contestID] != generation {
		return false, nil
	}
	c.entries[contestID] = entries
	return true, nil
}

func (c *memCache) Invalidate(ctx context.Context, contestID int64) error {
	c.generations[contestID]++
	delete(c.entries, contestID)
	c.invalidated = append(c.invalidated, contestID)
	return nil
}

type memPublisher struct {
	events []mq.GradedEvent
}

func (p *memPublisher) PublishGraded(ctx context.Context, e mq.GradedEvent) (string, error) {
	p.events = append(p.events, e)
	return "msg-1", nil
}

type memArchive struct {
	keys []string
}

func (a *memArchive) Archive(ctx context.Context, sub types.Submission) (string, error) {
	key := "submissions/" + sub.Language.String()
	a.keys = append(a.keys, key)
	return key, nil
}

var contestStart = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

// seedContest stores an active contest with one question worth 100 marks:
// three cases "1", "2", "3" whose expected output echoes the input, the
// last two hidden.
func seedContest(contests *memContests, maxAttempts int) (types.Contest, types.Question) {
	contest, _ := contests.Create(context.Background(), types.Contest{
		Title:            "Spring Round",
		StartTime:        contestStart,
		EndTime:          contestStart.Add(3 * time.Hour),
		IsActive:         true,
		AllowedLanguages: []types.Language{types.LanguagePython, types.LanguageC},
		MaxAttempts:      maxAttempts,
	})
	q := types.Question{ContestID: contest.ID, Title: "Echo", TimeLimit: 1000}
	_ = q.SetTestCases([]types.TestCase{
		{Input: "1", ExpectedOutput: "1", Marks: 10},
		{Input: "2", ExpectedOutput: "2", Marks: 40, IsHidden: true},
		{Input: "3", ExpectedOutput: "3", Marks: 50, IsHidden: true},
	})
	question, _ := contests.CreateQuestion(context.Background(), q)
	return contest, question
}
