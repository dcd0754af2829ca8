package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jjudge-oj/grader/config"
	"github.com/jjudge-oj/grader/internal/db"
	"github.com/jjudge-oj/grader/internal/handlers"
	"github.com/jjudge-oj/grader/internal/invoker"
	"github.com/jjudge-oj/grader/internal/judge"
	"github.com/jjudge-oj/grader/internal/leaderboard"
	"github.com/jjudge-oj/grader/internal/mq"
	"github.com/jjudge-oj/grader/internal/services"
	"github.com/jjudge-oj/grader/internal/storage"
	"github.com/jjudge-oj/grader/internal/store"
	"github.com/jjudge-oj/grader/types"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Grading runs inline with the submit request, so the write timeout has to
// cover a whole suite of runtime invocations.
const (
	requestTimeout = 5 * time.Minute
	writeTimeout   = requestTimeout + 15*time.Second
)

// Server wraps the HTTP server and the connections it owns.
type Server struct {
	httpServer  *http.Server
	router      *chi.Mux
	db          *sql.DB
	redis       *redis.Client
	events      *mq.Events
	archive     *storage.SourceArchive
	leaderboard *services.LeaderboardService
	logger      *zap.Logger
	cancel      context.CancelFunc
}

// New connects every configured backend and builds the router.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := &Server{db: dbConn, logger: logger}

	if err := s.wire(ctx, cfg); err != nil {
		_ = s.Shutdown()
		return nil, err
	}
	return s, nil
}

func (s *Server) wire(ctx context.Context, cfg config.Config) error {
	contestRepo := store.NewContestRepository(s.db)
	submissionRepo := store.NewSubmissionRepository(s.db)
	userRepo := store.NewUserRepository(s.db)

	var cache services.LeaderboardCache
	if cfg.Redis.Addr != "" {
		client, err := leaderboard.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		s.redis = client
		cache = leaderboard.NewCache(client, cfg.Leaderboard.CacheTTL)
	}
	s.leaderboard = services.NewLeaderboardService(contestRepo, submissionRepo, userRepo, cache, s.logger.Named("leaderboard"))

	var publisher services.GradedPublisher
	backend, err := mq.NewBackend(ctx, cfg)
	if err != nil {
		return err
	}
	if backend != nil {
		s.events = mq.NewEvents(backend)
		publisher = s.events
	}

	rt, err := invoker.NewHTTPInvoker(cfg.Runtime)
	if err != nil {
		return err
	}
	simulated := make([]types.Language, 0, len(cfg.Runtime.SimulateStdin))
	for _, tag := range cfg.Runtime.SimulateStdin {
		if lang := types.ParseLanguage(tag); lang.Supported() {
			simulated = append(simulated, lang)
		}
	}
	dispatcher := judge.NewDispatcher(rt, simulated)

	notifier := services.NewGradeNotifier(s.leaderboard, publisher, s.logger.Named("notifier"))
	grader := judge.NewGrader(submissionRepo, dispatcher, notifier, s.logger.Named("grader"))

	submissionService := services.NewSubmissionService(contestRepo, submissionRepo, grader, dispatcher, s.logger.Named("submissions"))
	objects, err := storage.NewBackend(ctx, cfg)
	if err != nil {
		return err
	}
	if objects != nil {
		archive, err := storage.NewSourceArchive(objects)
		if err != nil {
			return err
		}
		s.archive = archive
		submissionService.SetArchive(archive)
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(requestTimeout),
		cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)
	handlers.Routes(router, handlers.Deps{
		Users:       services.NewUserService(userRepo),
		Contests:    services.NewContestService(contestRepo),
		Submissions: submissionService,
		Leaderboard: s.leaderboard,
		JWTSecret:   cfg.JWTSecret,
		Logger:      s.logger.Named("http"),
	})
	s.router = router

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start consumes graded events, when a broker is configured, and runs the
// HTTP server until it is shut down.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	if s.events != nil {
		go func() {
			err := s.events.SubscribeGraded(ctx, s.leaderboard.HandleGraded)
			if err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("graded event subscription stopped", zap.Error(err))
			}
		}()
	}

	s.logger.Info("server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown attempts a graceful shutdown and releases every connection.
func (s *Server) Shutdown() error {
	if s.cancel != nil {
		s.cancel()
	}

	var err error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err = s.httpServer.Shutdown(ctx)
	}
	if s.events != nil {
		_ = s.events.Close()
	}
	if s.archive != nil {
		s.archive.Close()
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}
