package app

import (
	"context"

	"quiz-engine/internal/domain"
	"go.uber.org/zap"
)

// HandleMessage routes one inbound frame for the attached session.
// Malformed input never terminates the connection: validation failures
// become error events and any handler failure or panic is converted to a
// generic one.
func (c *Client) HandleMessage(ctx context.Context, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.engine.log.Error("message handler panic",
				zap.String("session_id", c.sessionID), zap.Any("panic", r))
			c.send(errorEvent("Failed to process message"))
		}
	}()

	msg, err := DecodeInbound(raw)
	if err != nil {
		c.send(errorEvent("Failed to process message"))
		return
	}

	switch m := msg.(type) {
	case StartQuiz:
		err = c.handleStart(ctx)
	case Answer:
		err = c.handleAnswer(ctx, m)
	case Navigate:
		err = c.handleNavigate(ctx, m)
	case GoTo:
		err = c.handleGoTo(ctx, m.Number)
	case SubmitQuiz:
		err = c.engine.Complete(ctx, c.sessionID, ReasonSubmitted)
	case Unknown:
		c.send(errorEvent("Unknown message type: " + m.Type))
	}

	if err != nil {
		c.engine.log.Warn("message handling failed",
			zap.String("session_id", c.sessionID), zap.Error(err))
		c.send(errorEvent("Failed to process message"))
	}
}

// handleStart transitions the session to in_progress, stamps the question
// timer, spawns the countdown, and pushes the first question. Any status
// other than not_started makes it a no-op, so a repeated start_quiz
// produces no second question event and no duplicate timer.
func (c *Client) handleStart(ctx context.Context) error {
	sess, err := c.engine.store.GetSession(ctx, c.sessionID)
	if err != nil {
		return err
	}
	if sess.Status != domain.StatusNotStarted {
		return nil
	}

	if err := c.engine.store.StartSession(ctx, c.sessionID, c.engine.clock()); err != nil {
		return err
	}
	c.engine.registry.StartQuestionTimer(c.sessionID)
	c.engine.spawnTimer(c.sessionID)

	return c.pushQuestion(ctx, 1)
}

// handleAnswer validates the question id and the chosen option against
// the per-connection tables, then upserts the response. Elapsed time is
// whatever accrued since the last question stamp.
func (c *Client) handleAnswer(ctx context.Context, m Answer) error {
	if m.QuestionID == nil {
		c.send(errorEvent("Invalid question ID"))
		return nil
	}
	if _, ok := c.ids[*m.QuestionID]; !ok {
		c.send(errorEvent("Invalid question ID"))
		return nil
	}
	if m.Answer == nil || !containsOption(c.options[*m.QuestionID], *m.Answer) {
		c.send(errorEvent("Invalid answer"))
		return nil
	}

	spent := c.engine.registry.QuestionTimeSpent(c.sessionID)
	if _, err := c.engine.store.SaveResponse(ctx, c.sessionID, *m.QuestionID, *m.Answer, spent); err != nil {
		return err
	}

	c.send(AnswerReceivedEvent{Type: "answer_received", QuestionID: *m.QuestionID, TimeSpent: spent})
	return nil
}

// handleNavigate moves one question in either direction. A missing or
// non-integer current, an out-of-range current, or a target past either
// boundary is a silent no-op: the client is already at the edge.
func (c *Client) handleNavigate(ctx context.Context, m Navigate) error {
	if m.Current == nil {
		return nil
	}
	current := *m.Current
	if current < 1 || current > len(c.questions) {
		return nil
	}
	target := current + m.Delta
	if target < 1 || target > len(c.questions) {
		return nil
	}
	return c.moveTo(ctx, target)
}

// handleGoTo jumps straight to an ordinal; out-of-range is a silent no-op.
func (c *Client) handleGoTo(ctx context.Context, number *int) error {
	if number == nil {
		return nil
	}
	target := *number
	if target < 1 || target > len(c.questions) {
		return nil
	}
	return c.moveTo(ctx, target)
}

func (c *Client) moveTo(ctx context.Context, target int) error {
	if err := c.engine.store.UpdateCurrentQuestion(ctx, c.sessionID, target); err != nil {
		return err
	}
	c.engine.registry.StartQuestionTimer(c.sessionID)
	return c.pushQuestion(ctx, target)
}

// pushQuestion sends the question event for an ordinal, including the
// previously saved answer for that question if any.
func (c *Client) pushQuestion(ctx context.Context, number int) error {
	question := c.questions[number-1]

	existing, err := c.existingAnswer(ctx, question.ID)
	if err != nil {
		return err
	}

	c.send(QuestionEvent{
		Type:           "question",
		QuestionNumber: number,
		TotalQuestions: len(c.questions),
		Question:       question,
		ExistingAnswer: existing,
	})
	return nil
}

func (c *Client) existingAnswer(ctx context.Context, questionID string) (*string, error) {
	responses, err := c.engine.store.GetResponses(ctx, c.sessionID)
	if err != nil {
		return nil, err
	}
	for _, r := range responses {
		if r.QuestionID == questionID {
			answer := r.Answer
			return &answer, nil
		}
	}
	return nil, nil
}

func (c *Client) send(v interface{}) {
	c.engine.registry.Send(c.sessionID, v)
}

func containsOption(options []string, answer string) bool {
	for _, opt := range options {
		if opt == answer {
			return true
		}
	}
	return false
}
