package cli

import (
	"context"
	"fmt"

	"quiz-engine/internal/app"
	"quiz-engine/internal/config"
	"quiz-engine/internal/domain"
	pgstore "quiz-engine/internal/infra/postgres"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewSeedCmd inserts the demo quiz into Postgres. The in-memory store is
// seeded automatically on start.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the demo quiz",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer log.Sync()

			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}

			ctx := cmd.Context()
			pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := SeedDemoQuiz(ctx, pgstore.NewStore(pool)); err != nil {
				return err
			}
			log.Info("demo quiz seeded", zap.String("quiz_id", "demo-quiz"))
			return nil
		},
	}
}

// SeedDemoQuiz creates a small sample quiz so the server is usable out of
// the box. Idempotent: existing rows are left alone.
func SeedDemoQuiz(ctx context.Context, store app.Store) error {
	err := store.CreateQuiz(ctx, domain.Quiz{
		ID:               "demo-quiz",
		Title:            "Go Fundamentals Quiz",
		Description:      "Test your Go knowledge!",
		TimeLimitSeconds: 300,
	})
	if err != nil {
		return err
	}

	questions := []domain.Question{
		{
			ID:            "q1",
			Text:          "What is the zero value of an int in Go?",
			Options:       []string{"nil", "0", "-1", "undefined"},
			CorrectAnswer: "0",
		},
		{
			ID:            "q2",
			Text:          "Which keyword declares a function in Go?",
			Options:       []string{"function", "def", "func", "fn"},
			CorrectAnswer: "func",
		},
		{
			ID:            "q3",
			Text:          "What does the 'go' keyword do?",
			Options:       []string{"imports a package", "starts a goroutine", "compiles the file", "declares a variable"},
			CorrectAnswer: "starts a goroutine",
		},
		{
			ID:            "q4",
			Text:          "Which of these types is a reference type?",
			Options:       []string{"array", "struct", "map", "int"},
			CorrectAnswer: "map",
		},
		{
			ID:            "q5",
			Text:          "What does len(\"golang\") return?",
			Options:       []string{"5", "6", "7", "8"},
			CorrectAnswer: "6",
		},
	}
	for i, q := range questions {
		q.QuizID = "demo-quiz"
		q.Number = i + 1
		q.Points = 1
		if err := store.AddQuestion(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
