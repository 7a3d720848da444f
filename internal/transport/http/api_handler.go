package http

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"quiz-engine/internal/app"
	"quiz-engine/internal/domain"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	maxQuizIDLength      = 100
	maxStudentNameLength = 200
)

// APIHandler serves the REST surface around the session engine: quiz
// discovery and session provisioning.
type APIHandler struct {
	engine  *app.Engine
	store   app.Store
	limiter SessionRateLimiter
	log     *zap.Logger
}

func NewAPIHandler(engine *app.Engine, store app.Store, limiter SessionRateLimiter, log *zap.Logger) *APIHandler {
	return &APIHandler{engine: engine, store: store, limiter: limiter, log: log}
}

func (h *APIHandler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.store.ListQuizzes(r.Context())
	if err != nil {
		h.serverError(w, "list quizzes", err)
		return
	}
	if quizzes == nil {
		quizzes = []domain.Quiz{}
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *APIHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizID")
	if len(quizID) > maxQuizIDLength {
		writeError(w, http.StatusBadRequest, "Invalid quiz ID")
		return
	}

	quiz, err := h.store.GetQuiz(r.Context(), quizID)
	if errors.Is(err, domain.ErrQuizNotFound) {
		writeError(w, http.StatusNotFound, "Quiz not found")
		return
	}
	if err != nil {
		h.serverError(w, "get quiz", err)
		return
	}

	questions, err := h.store.GetQuestions(r.Context(), quizID)
	if err != nil {
		h.serverError(w, "get questions", err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		domain.Quiz
		QuestionCount int `json:"question_count"`
	}{Quiz: quiz, QuestionCount: len(questions)})
}

type createSessionRequest struct {
	QuizID      string `json:"quiz_id"`
	StudentName string `json:"student_name"`
}

// CreateSession provisions a session for a quiz. Rate limited per client
// IP; the access token is returned here and never by any later read.
func (h *APIHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	allowed, err := h.limiter.Allow(r.Context(), clientIP(r))
	if err != nil {
		h.log.Warn("rate limiter check failed", zap.Error(err))
	}
	if !allowed {
		writeError(w, http.StatusTooManyRequests, "Too many sessions created, try again later")
		return
	}

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.QuizID == "" || len(req.QuizID) > maxQuizIDLength || len(req.StudentName) > maxStudentNameLength {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.engine.CreateSession(r.Context(), req.QuizID, req.StudentName)
	if errors.Is(err, domain.ErrQuizNotFound) {
		writeError(w, http.StatusNotFound, "Quiz not found")
		return
	}
	if err != nil {
		h.serverError(w, "create session", err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// GetSession returns the session's public state; the token and student
// name are not exposed to unauthenticated callers.
func (h *APIHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.store.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if errors.Is(err, domain.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		h.serverError(w, "get session", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":                     session.ID,
		"quiz_id":                session.QuizID,
		"status":                 session.Status,
		"time_remaining_seconds": session.TimeRemainingSeconds,
		"current_question":       session.CurrentQuestion,
		"score":                  session.Score,
	})
}

func (h *APIHandler) serverError(w http.ResponseWriter, op string, err error) {
	h.log.Error(op, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"detail": message})
}
