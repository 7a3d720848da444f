package http

import (
	"context"
	"net/http"

	"quiz-engine/internal/app"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// SessionRateLimiter admits or rejects session creation for a caller key
// (client IP).
type SessionRateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// NewRouter wires the REST and websocket surfaces.
func NewRouter(engine *app.Engine, store app.Store, limiter SessionRateLimiter, log *zap.Logger, corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})

	api := NewAPIHandler(engine, store, limiter, log)
	r.Get("/api/quizzes", api.ListQuizzes)
	r.Get("/api/quizzes/{quizID}", api.GetQuiz)
	r.Post("/api/sessions", api.CreateSession)
	r.Get("/api/sessions/{sessionID}", api.GetSession)

	ws := NewWSHandler(engine, log)
	r.Get("/ws/{sessionID}", ws.ServeWS)

	return r
}
