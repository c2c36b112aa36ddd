package devserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/iago/briefcase/internal/config"
	httpserver "github.com/iago/briefcase/internal/http"
	"github.com/iago/briefcase/internal/http/handlers"
	"github.com/iago/briefcase/internal/http/middleware"
	"github.com/iago/briefcase/internal/queue"
	"github.com/iago/briefcase/internal/repository"
	"github.com/iago/briefcase/internal/service"
	"github.com/iago/briefcase/internal/worker"
)

const queueMaxAttempts = 3

// Server is the local stand-in for the dossier backend: job store, queue,
// worker and HTTP API wired together.
type Server struct {
	Handler   http.Handler
	processor *worker.Processor
	limiter   *middleware.RateLimiter
	closers   []func()
	logger    *log.Logger
}

// New wires the backend from cfg. Postgres and Redis are optional; without
// them jobs live in memory and flow through a local queue.
func New(ctx context.Context, cfg config.Config, logger *log.Logger) *Server {
	s := &Server{logger: logger}

	repo := s.setupRepository(ctx, cfg)
	producer, consumer := s.setupQueue(ctx, cfg)

	s.limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	s.closers = append(s.closers, s.limiter.Close)

	api := handlers.NewAPI(service.NewJobsService(repo, producer, cfg.ExportBaseURL), logger)
	s.Handler = httpserver.NewRouter(httpserver.RouterDependencies{
		API:         api,
		Logger:      logger,
		AuthToken:   cfg.AuthToken,
		CORSOrigins: cfg.CORSAllowedOrigins,
		RateLimiter: s.limiter,
	})

	if cfg.WorkerEnabled {
		s.processor = worker.NewProcessor(consumer, repo, cfg.StepDelay(), logger)
	} else {
		s.logf("worker disabled by configuration")
	}
	return s
}

// StartWorker runs the worker until ctx is done. It is a no-op when the
// worker is disabled.
func (s *Server) StartWorker(ctx context.Context) {
	if s.processor == nil {
		return
	}
	s.logf("worker enabled and started")
	go s.processor.Start(ctx)
}

// Close releases storage and queue connections in reverse order.
func (s *Server) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logf("devserver listening on %s", addr)
		errChan <- server.ListenAndServe()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		s.logf("shutdown signal received")
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logf("graceful shutdown failed: %v", err)
	}
	return serveErr
}

func (s *Server) setupRepository(ctx context.Context, cfg config.Config) repository.JobsRepository {
	if cfg.DatabaseURL == "" {
		s.logf("DATABASE_URL not configured, using in-memory repository")
		return repository.NewMemoryJobsRepository()
	}

	pgRepo, err := repository.NewPostgresJobsRepository(ctx, cfg.DatabaseURL)
	if err != nil {
		s.logf("failed to initialize postgres repository, fallback to memory: %v", err)
		return repository.NewMemoryJobsRepository()
	}
	if err := pgRepo.EnsureSchema(ctx); err != nil {
		pgRepo.Close()
		s.logf("failed to prepare postgres schema, fallback to memory: %v", err)
		return repository.NewMemoryJobsRepository()
	}
	s.logf("postgres repository initialized")
	s.closers = append(s.closers, pgRepo.Close)
	return pgRepo
}

func (s *Server) setupQueue(ctx context.Context, cfg config.Config) (queue.Producer, queue.Consumer) {
	if cfg.RedisAddr == "" {
		s.logf("REDIS_ADDR not configured, using local queue fallback")
		local := queue.NewLocalQueue(256, queueMaxAttempts, s.logger)
		return local, local
	}

	streams, err := queue.NewStreamsQueue(ctx, queue.StreamsConfig{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		Stream:      cfg.RedisStream,
		DLQStream:   cfg.RedisDLQ,
		Group:       cfg.RedisGroup,
		Consumer:    cfg.RedisConsumer,
		MaxAttempts: queueMaxAttempts,
	})
	if err != nil {
		s.logf("failed to initialize redis streams queue, fallback to local: %v", err)
		local := queue.NewLocalQueue(256, queueMaxAttempts, s.logger)
		return local, local
	}
	s.logf("redis streams queue initialized")
	s.closers = append(s.closers, func() { _ = streams.Close() })
	return streams, streams
}

func (s *Server) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
