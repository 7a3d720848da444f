package app

import (
	"encoding/json"

	"quiz-engine/internal/domain"
)

// Inbound is the closed set of client protocol messages. Frames are
// decoded once at the boundary; field presence and type checks happen
// here, domain checks (valid question id, valid option) in the handlers.
type Inbound interface{ isInbound() }

// StartQuiz begins the attempt; a no-op unless the session is not_started.
type StartQuiz struct{}

// Answer records an option choice for a question. Nil fields mean the
// client sent the field missing or with the wrong JSON type.
type Answer struct {
	QuestionID *string
	Answer     *string
}

// Navigate moves one question forward (Delta 1) or back (Delta -1)
// relative to the client's reported current ordinal.
type Navigate struct {
	Current *int
	Delta   int
}

// GoTo jumps directly to a question ordinal.
type GoTo struct {
	Number *int
}

// SubmitQuiz finishes the attempt immediately.
type SubmitQuiz struct{}

// Unknown is the fallback for unrecognized type discriminators.
type Unknown struct {
	Type string
}

func (StartQuiz) isInbound()  {}
func (Answer) isInbound()     {}
func (Navigate) isInbound()   {}
func (GoTo) isInbound()       {}
func (SubmitQuiz) isInbound() {}
func (Unknown) isInbound()    {}

type envelope struct {
	Type           string          `json:"type"`
	QuestionID     json.RawMessage `json:"question_id"`
	Answer         json.RawMessage `json:"answer"`
	Current        json.RawMessage `json:"current"`
	QuestionNumber json.RawMessage `json:"question_number"`
}

// DecodeInbound parses one client frame into the tagged union. Only a
// frame that is not a JSON object at all is an error; unknown types and
// badly typed fields decode into their degraded variants so the
// dispatcher can answer (or ignore) them per message kind.
func DecodeInbound(raw []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}

	switch env.Type {
	case "start_quiz":
		return StartQuiz{}, nil
	case "answer":
		return Answer{QuestionID: asString(env.QuestionID), Answer: asString(env.Answer)}, nil
	case "next_question":
		return Navigate{Current: asInt(env.Current), Delta: 1}, nil
	case "prev_question":
		return Navigate{Current: asInt(env.Current), Delta: -1}, nil
	case "go_to_question":
		return GoTo{Number: asInt(env.QuestionNumber)}, nil
	case "submit_quiz":
		return SubmitQuiz{}, nil
	default:
		return Unknown{Type: env.Type}, nil
	}
}

func asString(raw json.RawMessage) *string {
	if raw == nil {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}

// asInt accepts only integral JSON numbers; 2.5 and "2" both yield nil.
func asInt(raw json.RawMessage) *int {
	if raw == nil {
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return nil
	}
	v, err := num.Int64()
	if err != nil {
		return nil
	}
	n := int(v)
	return &n
}

// Outbound protocol events.

type QuizSummary struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	TimeLimitSeconds int    `json:"time_limit_seconds"`
	QuestionCount    int    `json:"question_count"`
}

type SessionSummary struct {
	ID              string               `json:"id"`
	Status          domain.SessionStatus `json:"status"`
	TimeRemaining   int                  `json:"time_remaining"`
	CurrentQuestion int                  `json:"current_question"`
}

type ConnectedEvent struct {
	Type    string         `json:"type"`
	Quiz    QuizSummary    `json:"quiz"`
	Session SessionSummary `json:"session"`
}

type QuestionEvent struct {
	Type           string                `json:"type"`
	QuestionNumber int                   `json:"question_number"`
	TotalQuestions int                   `json:"total_questions"`
	Question       domain.ClientQuestion `json:"question"`
	ExistingAnswer *string               `json:"existing_answer"`
}

type AnswerReceivedEvent struct {
	Type       string `json:"type"`
	QuestionID string `json:"question_id"`
	TimeSpent  int    `json:"time_spent"`
}

type TimerTickEvent struct {
	Type          string `json:"type"`
	TimeRemaining int    `json:"time_remaining"`
}

type QuizCompleteEvent struct {
	Type    string                  `json:"type"`
	Reason  string                  `json:"reason"`
	Score   domain.Score            `json:"score"`
	Results []domain.QuestionResult `json:"results"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func errorEvent(message string) ErrorEvent {
	return ErrorEvent{Type: "error", Message: message}
}
