package app

import (
	"context"
	"sync"
	"time"

	"quiz-engine/internal/domain"
)

// Conn is the transport handle the registry pushes events through.
// *websocket.Conn satisfies it.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// liveSession is the process-local state scoped to one connected session.
// None of it is persisted; it does not survive a restart.
type liveSession struct {
	conn          Conn
	writeMu       sync.Mutex
	cancelTimer   context.CancelFunc
	questionStart time.Time
}

// Registry tracks at most one live connection per session id together
// with its timer task and question-start timestamp. All access is
// serialized through the registry's lock; callers never touch the maps.
type Registry struct {
	maxConns int
	clock    func() time.Time

	mu       sync.Mutex
	sessions map[string]*liveSession
}

// NewRegistry builds a registry with a connection ceiling. maxConns <= 0
// means unlimited.
func NewRegistry(maxConns int) *Registry {
	return newRegistryWithClock(maxConns, time.Now)
}

func newRegistryWithClock(maxConns int, clock func() time.Time) *Registry {
	return &Registry{
		maxConns: maxConns,
		clock:    clock,
		sessions: make(map[string]*liveSession),
	}
}

// Connect registers a connection for the session. The existence check and
// the insert happen under one lock so simultaneous attempts for the same
// id admit exactly one connection.
func (r *Registry) Connect(sessionID string, conn Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[sessionID]; ok {
		return domain.ErrAlreadyConnected
	}
	if r.maxConns > 0 && len(r.sessions) >= r.maxConns {
		return domain.ErrServerFull
	}
	r.sessions[sessionID] = &liveSession{conn: conn}
	return nil
}

// Disconnect removes the session's entry and cancels its timer task.
// Safe to call when no entry exists, and safe to call twice.
func (r *Registry) Disconnect(sessionID string) {
	r.mu.Lock()
	ls, ok := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	r.mu.Unlock()

	if ok && ls.cancelTimer != nil {
		ls.cancelTimer()
	}
}

// Send pushes a message to the session's connection, best effort. A
// missing entry or a failed write is swallowed: the session may already
// be torn down. The per-entry write lock keeps the timer task and the
// reader's handlers from writing to the socket concurrently.
func (r *Registry) Send(sessionID string, v interface{}) {
	r.mu.Lock()
	ls, ok := r.sessions[sessionID]
	r.mu.Unlock()
	if !ok {
		return
	}

	ls.writeMu.Lock()
	defer ls.writeMu.Unlock()
	_ = ls.conn.WriteJSON(v)
}

// Connected reports whether the session has a live connection.
func (r *Registry) Connected(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[sessionID]
	return ok
}

// HasTimer reports whether a timer task is registered for the session.
func (r *Registry) HasTimer(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ls, ok := r.sessions[sessionID]
	return ok && ls.cancelTimer != nil
}

// RegisterTimer attaches a timer cancel handle to the session's entry.
// Returns false when the session has no entry or already has a timer, so
// a second start or a reconnect cannot spawn a duplicate task.
func (r *Registry) RegisterTimer(sessionID string, cancel context.CancelFunc) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ls, ok := r.sessions[sessionID]
	if !ok || ls.cancelTimer != nil {
		return false
	}
	ls.cancelTimer = cancel
	return true
}

// StartQuestionTimer stamps now as the start of the current question's
// attempt. Used for per-question elapsed accounting, not the countdown.
func (r *Registry) StartQuestionTimer(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ls, ok := r.sessions[sessionID]; ok {
		ls.questionStart = r.clock()
	}
}

// QuestionTimeSpent returns whole seconds since the last question stamp,
// or 0 if the session was never stamped.
func (r *Registry) QuestionTimeSpent(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	ls, ok := r.sessions[sessionID]
	if !ok || ls.questionStart.IsZero() {
		return 0
	}
	return int(r.clock().Sub(ls.questionStart).Seconds())
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
