package app

import (
	"context"
	"time"

	"quiz-engine/internal/domain"
)

// Store abstracts the durable quiz/session/response records (in-memory,
// Postgres, etc). All session mutations the engine performs go through it;
// the engine never caches session state beyond the live registry entry.
type Store interface {
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	AddQuestion(ctx context.Context, question domain.Question) error
	GetQuestions(ctx context.Context, quizID string) ([]domain.Question, error)
	GetQuestion(ctx context.Context, questionID string) (domain.Question, error)

	CreateSession(ctx context.Context, session domain.Session) error
	GetSession(ctx context.Context, sessionID string) (domain.Session, error)
	// StartSession marks a not_started session in_progress; any other
	// status makes it a no-op.
	StartSession(ctx context.Context, sessionID string, startedAt time.Time) error
	UpdateSessionTime(ctx context.Context, sessionID string, remaining int) error
	UpdateCurrentQuestion(ctx context.Context, sessionID string, number int) error
	CompleteSession(ctx context.Context, sessionID string, completedAt time.Time, score float64) error

	// SaveResponse upserts the answer for (session, question), replacing
	// answer/correctness and accumulating time spent across attempts.
	SaveResponse(ctx context.Context, sessionID, questionID, answer string, timeSpentSeconds int) (domain.Response, error)
	GetResponses(ctx context.Context, sessionID string) ([]domain.Response, error)
	CalculateScore(ctx context.Context, sessionID string) (domain.Score, error)
}

// QuestionSource serves a quiz's questions in client-safe form, typically
// through a TTL cache in front of the Store.
type QuestionSource interface {
	Questions(ctx context.Context, quizID string) ([]domain.ClientQuestion, error)
}
