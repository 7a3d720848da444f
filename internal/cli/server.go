package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-engine/internal/app"
	"quiz-engine/internal/config"
	"quiz-engine/internal/infra/memory"
	pgstore "quiz-engine/internal/infra/postgres"
	redisinfra "quiz-engine/internal/infra/redis"
	transport "quiz-engine/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	log, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var store app.Store
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = pgstore.NewStore(pool)
	} else {
		memStore := memory.NewStore()
		if err := SeedDemoQuiz(ctx, memStore); err != nil {
			return err
		}
		log.Info("using in-memory store with demo quiz")
		store = memStore
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var questions app.QuestionSource
	if redisClient != nil {
		questions = redisinfra.NewQuestionCache(redisClient, store, quizTTL)
	} else {
		questions = memory.NewQuestionCache(store, quizTTL)
	}

	window := config.TTLDuration(cfg.RateLimit.Window, time.Minute)
	var limiter transport.SessionRateLimiter
	if redisClient != nil {
		limiter = redisinfra.NewRateLimiter(redisClient, window, cfg.RateLimit.Max)
	} else {
		limiter = memory.NewRateLimiter(window, cfg.RateLimit.Max)
	}

	engine := app.NewEngine(store, questions, log,
		app.WithMaxConnections(cfg.Server.MaxConnections))
	handler := transport.NewRouter(engine, store, limiter, log, cfg.Server.CORSOrigins)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: websocket connections outlive any fixed bound.
	}

	go func() {
		log.Info("starting quiz engine", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
