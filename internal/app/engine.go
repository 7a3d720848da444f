package app

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"time"

	"quiz-engine/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Engine is the real-time quiz session core: it owns the live registry,
// spawns one timer task per in_progress session, dispatches protocol
// messages, and finalizes sessions exactly once.
type Engine struct {
	store     Store
	questions QuestionSource
	registry  *Registry
	log       *zap.Logger

	// completions collapses a submit racing an expiring timer into a
	// single finalization per session id.
	completions singleflight.Group

	clock func() time.Time
	tick  time.Duration
}

// Option tweaks engine construction.
type Option func(*Engine)

// WithClock injects a deterministic clock (tests).
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
		e.registry.clock = clock
	}
}

// WithTickInterval shortens the countdown interval (tests). One wall
// second of quiz time elapses per tick regardless of the interval.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) { e.tick = d }
}

// WithMaxConnections sets the connection ceiling; <= 0 means unlimited.
func WithMaxConnections(n int) Option {
	return func(e *Engine) { e.registry.maxConns = n }
}

func NewEngine(store Store, questions QuestionSource, log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		questions: questions,
		registry:  NewRegistry(0),
		log:       log,
		clock:     time.Now,
		tick:      time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry exposes the live session registry, mainly for tests.
func (e *Engine) Registry() *Registry { return e.registry }

// Client is the per-connection handle. The question list and its lookup
// tables are computed once at attach time and reused by every handler.
type Client struct {
	engine    *Engine
	sessionID string
	questions []domain.ClientQuestion
	ids       map[string]struct{}
	options   map[string][]string
}

// SessionID returns the attached session's id.
func (c *Client) SessionID() string { return c.sessionID }

// Attach admits a connection for the session. Checks run in order:
// session exists, not completed, token matches (constant time), no live
// connection yet, capacity. Each failure maps to a distinct sentinel so
// the transport can close with a distinct reason. On success the
// connected event is pushed and, for a resumed in_progress session with
// no registered task, the timer is restarted.
func (e *Engine) Attach(ctx context.Context, sessionID, token string, conn Conn) (*Client, error) {
	sess, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == domain.StatusCompleted {
		return nil, domain.ErrSessionCompleted
	}
	if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(sess.Token)) != 1 {
		return nil, domain.ErrInvalidToken
	}
	if err := e.registry.Connect(sessionID, conn); err != nil {
		return nil, err
	}

	questions, err := e.questions.Questions(ctx, sess.QuizID)
	if err != nil {
		e.registry.Disconnect(sessionID)
		return nil, err
	}
	quiz, err := e.store.GetQuiz(ctx, sess.QuizID)
	if err != nil {
		e.registry.Disconnect(sessionID)
		return nil, err
	}

	client := &Client{
		engine:    e,
		sessionID: sessionID,
		questions: questions,
		ids:       make(map[string]struct{}, len(questions)),
		options:   make(map[string][]string, len(questions)),
	}
	for _, q := range questions {
		client.ids[q.ID] = struct{}{}
		client.options[q.ID] = q.Options
	}

	e.registry.Send(sessionID, ConnectedEvent{
		Type: "connected",
		Quiz: QuizSummary{
			ID:               quiz.ID,
			Title:            quiz.Title,
			Description:      quiz.Description,
			TimeLimitSeconds: quiz.TimeLimitSeconds,
			QuestionCount:    len(questions),
		},
		Session: SessionSummary{
			ID:              sessionID,
			Status:          sess.Status,
			TimeRemaining:   sess.TimeRemainingSeconds,
			CurrentQuestion: sess.CurrentQuestion,
		},
	})

	// A session resumed after a disconnect or restart has no live timer
	// until someone reconnects; restart it here.
	if sess.Status == domain.StatusInProgress && !e.registry.HasTimer(sessionID) {
		e.registry.StartQuestionTimer(sessionID)
		e.spawnTimer(sessionID)
	}

	e.log.Info("session attached",
		zap.String("session_id", sessionID),
		zap.String("quiz_id", sess.QuizID),
		zap.String("status", string(sess.Status)))
	return client, nil
}

// Detach tears down the session's live state: connection mapping, timer
// task, question stamp. Idempotent.
func (e *Engine) Detach(sessionID string) {
	e.registry.Disconnect(sessionID)
}

// CreateSession provisions a new attempt against a quiz with a fresh id
// and access token, inheriting the quiz's time limit.
func (e *Engine) CreateSession(ctx context.Context, quizID, studentName string) (domain.Session, error) {
	quiz, err := e.store.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Session{}, err
	}

	sess := domain.Session{
		ID:                   "session-" + uuid.NewString(),
		QuizID:               quizID,
		Token:                newToken(),
		StudentName:          studentName,
		Status:               domain.StatusNotStarted,
		TimeRemainingSeconds: quiz.TimeLimitSeconds,
		CurrentQuestion:      1,
	}
	if err := e.store.CreateSession(ctx, sess); err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}

// spawnTimer starts the countdown task unless one is already registered
// for the session. Registration is atomic in the registry, so concurrent
// callers spawn at most one task.
func (e *Engine) spawnTimer(sessionID string) {
	ctx, cancel := context.WithCancel(context.Background())
	if !e.registry.RegisterTimer(sessionID, cancel) {
		cancel()
		return
	}
	go e.runTimer(ctx, sessionID)
}

func newToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err) // crypto/rand failure is not recoverable
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
