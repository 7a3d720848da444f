package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrSessionNotFound is returned when a session ID is unknown.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionCompleted rejects connections to an already finished session.
	ErrSessionCompleted = errors.New("session already completed")
	// ErrInvalidToken rejects connections with a missing or wrong access token.
	ErrInvalidToken = errors.New("invalid token")
	// ErrAlreadyConnected enforces at most one live connection per session.
	ErrAlreadyConnected = errors.New("session already connected")
	// ErrServerFull is returned when the connection ceiling is reached.
	ErrServerFull = errors.New("server at capacity")
)
