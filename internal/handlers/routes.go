package handlers

import (
	"github.com/go-chi/chi/v5"
	"github.com/jjudge-oj/grader/internal/services"
	"go.uber.org/zap"
)

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Users       *services.UserService
	Contests    *services.ContestService
	Submissions *services.SubmissionService
	Leaderboard *services.LeaderboardService
	JWTSecret   string
	Logger      *zap.Logger
}

// Routes registers every API route on r.
func Routes(r chi.Router, deps Deps) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	contests := NewContestHandler(deps.Contests, logger)
	submissions := NewSubmissionHandler(deps.Submissions, logger)
	standings := NewLeaderboardHandler(deps.Leaderboard, logger)

	r.Get("/healthz", Healthz)
	r.Route("/auth", func(r chi.Router) {
		AuthRouter(r, deps.Users, deps.JWTSecret, logger)
	})

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(deps.JWTSecret), LoadViewer(deps.Users))

		r.Post("/run", submissions.Run)
		r.Get("/submissions/{submissionID}", submissions.GetSubmission)

		r.Route("/contests", func(r chi.Router) {
			r.With(RequireAdmin).Post("/", contests.CreateContest)
			r.Route("/{contestID}", func(r chi.Router) {
				r.Get("/", contests.GetContest)
				r.Get("/leaderboard", standings.GetLeaderboard)
				r.Get("/submissions/me", submissions.ListMine)
				r.With(RequireAdmin).Post("/questions", contests.CreateQuestion)
				r.Route("/questions/{questionID}", func(r chi.Router) {
					r.With(RequireAdmin).Put("/testcases", contests.SetTestCases)
					r.Post("/submissions", submissions.Submit)
				})
			})
		})
	})
}
