package domain

import "time"

// SessionStatus is the lifecycle state of a quiz session. Transitions are
// strictly not_started -> in_progress -> completed.
type SessionStatus string

const (
	StatusNotStarted SessionStatus = "not_started"
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
)

// Quiz is an immutable quiz definition.
type Quiz struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	TimeLimitSeconds int       `json:"time_limit_seconds"`
	CreatedAt        time.Time `json:"-"`
}

// Question models an MCQ question. Number is the 1-based ordinal within
// the quiz; ordinals are unique per quiz and dense starting at 1.
type Question struct {
	ID            string
	QuizID        string
	Number        int
	Text          string
	Options       []string
	CorrectAnswer string
	Points        int // defaults to 1 if zero
}

// PointValue returns the question's point value, defaulting to 1.
func (q Question) PointValue() int {
	if q.Points > 0 {
		return q.Points
	}
	return 1
}

// ClientView strips the question down to what clients may see.
// The correct answer is only revealed in the completion results.
func (q Question) ClientView() ClientQuestion {
	return ClientQuestion{ID: q.ID, Text: q.Text, Options: q.Options}
}

// ClientQuestion is the client-safe form of a question. Its position in
// the quiz's ordered list is its ordinal.
type ClientQuestion struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// Session is one student's attempt at one quiz.
type Session struct {
	ID                   string        `json:"id"`
	QuizID               string        `json:"quiz_id"`
	Token                string        `json:"token,omitempty"`
	StudentName          string        `json:"student_name,omitempty"`
	Status               SessionStatus `json:"status"`
	StartedAt            *time.Time    `json:"started_at,omitempty"`
	CompletedAt          *time.Time    `json:"completed_at,omitempty"`
	TimeRemainingSeconds int           `json:"time_remaining_seconds"`
	CurrentQuestion      int           `json:"current_question"`
	Score                *float64      `json:"score,omitempty"`
}

// Response is a student's answer to one question within a session.
// At most one response exists per (session, question) pair; re-answering
// replaces answer and correctness but accumulates time spent.
type Response struct {
	SessionID        string
	QuestionID       string
	Answer           string
	IsCorrect        bool
	TimeSpentSeconds int
	AnsweredAt       time.Time
}

// Score is the aggregate result of a session. Possible covers every
// question in the quiz, answered or not.
type Score struct {
	Earned     int     `json:"earned"`
	Possible   int     `json:"possible"`
	Answered   int     `json:"answered"`
	Correct    int     `json:"correct"`
	Percentage float64 `json:"percentage"`
}

// QuestionResult is one row of the per-question breakdown sent with
// quiz_complete. YourAnswer is nil for unanswered questions.
type QuestionResult struct {
	QuestionNumber int     `json:"question_number"`
	QuestionText   string  `json:"question_text"`
	CorrectAnswer  string  `json:"correct_answer"`
	YourAnswer     *string `json:"your_answer"`
	IsCorrect      bool    `json:"is_correct"`
	TimeSpent      int     `json:"time_spent"`
}
