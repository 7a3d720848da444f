package app

import (
	"context"
	"errors"

	"quiz-engine/internal/domain"
	"go.uber.org/zap"
)

// CompleteReason says what ended the session.
type CompleteReason string

const (
	ReasonSubmitted   CompleteReason = "submitted"
	ReasonTimeExpired CompleteReason = "time_expired"
)

// Complete finalizes a session exactly once: score computed, status
// flipped to completed, results pushed, live state torn down. Concurrent
// callers for the same session (an explicit submit racing the expiring
// timer) collapse through singleflight; the status re-read inside covers
// callers that arrive after the fact.
func (e *Engine) Complete(ctx context.Context, sessionID string, reason CompleteReason) error {
	_, err, _ := e.completions.Do(sessionID, func() (interface{}, error) {
		return nil, e.completeOnce(ctx, sessionID, reason)
	})
	return err
}

func (e *Engine) completeOnce(ctx context.Context, sessionID string, reason CompleteReason) error {
	sess, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil
		}
		return err
	}
	if sess.Status == domain.StatusCompleted {
		return nil
	}

	score, err := e.store.CalculateScore(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := e.store.CompleteSession(ctx, sessionID, e.clock(), score.Percentage); err != nil {
		return err
	}

	results, err := e.buildResults(ctx, sessionID, sess.QuizID)
	if err != nil {
		return err
	}

	e.registry.Send(sessionID, QuizCompleteEvent{
		Type:    "quiz_complete",
		Reason:  string(reason),
		Score:   score,
		Results: results,
	})

	e.registry.Disconnect(sessionID)

	e.log.Info("session completed",
		zap.String("session_id", sessionID),
		zap.String("reason", string(reason)),
		zap.Float64("percentage", score.Percentage))
	return nil
}

// buildResults assembles the ordinal-ordered breakdown for every question
// in the quiz, answered or not. This is the only place the correct answer
// leaves the server.
func (e *Engine) buildResults(ctx context.Context, sessionID, quizID string) ([]domain.QuestionResult, error) {
	responses, err := e.store.GetResponses(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	questions, err := e.store.GetQuestions(ctx, quizID)
	if err != nil {
		return nil, err
	}

	byQuestion := make(map[string]domain.Response, len(responses))
	for _, r := range responses {
		byQuestion[r.QuestionID] = r
	}

	results := make([]domain.QuestionResult, 0, len(questions))
	for _, q := range questions {
		result := domain.QuestionResult{
			QuestionNumber: q.Number,
			QuestionText:   q.Text,
			CorrectAnswer:  q.CorrectAnswer,
		}
		if r, ok := byQuestion[q.ID]; ok {
			answer := r.Answer
			result.YourAnswer = &answer
			result.IsCorrect = r.IsCorrect
			result.TimeSpent = r.TimeSpentSeconds
		}
		results = append(results, result)
	}
	return results, nil
}
