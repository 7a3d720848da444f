package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quiz-engine/internal/domain"
)

// Store is an in-memory implementation of app.Store, used by tests and
// when no Postgres is configured.
type Store struct {
	clock func() time.Time

	mu        sync.RWMutex
	quizzes   map[string]domain.Quiz
	questions map[string]domain.Question
	sessions  map[string]domain.Session
	// responses[sessionID][questionID]
	responses map[string]map[string]domain.Response
}

func NewStore() *Store {
	return NewStoreWithClock(time.Now)
}

// NewStoreWithClock allows deterministic timestamps in tests.
func NewStoreWithClock(clock func() time.Time) *Store {
	return &Store{
		clock:     clock,
		quizzes:   make(map[string]domain.Quiz),
		questions: make(map[string]domain.Question),
		sessions:  make(map[string]domain.Session),
		responses: make(map[string]map[string]domain.Response),
	}
}

func (s *Store) ListQuizzes(_ context.Context) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quizzes := make([]domain.Quiz, 0, len(s.quizzes))
	for _, q := range s.quizzes {
		quizzes = append(quizzes, q)
	}
	sort.Slice(quizzes, func(i, j int) bool { return quizzes[i].ID < quizzes[j].ID })
	return quizzes, nil
}

func (s *Store) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *Store) CreateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = s.clock()
	}
	s.quizzes[quiz.ID] = quiz
	return nil
}

func (s *Store) AddQuestion(_ context.Context, question domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions[question.ID] = question
	return nil
}

func (s *Store) GetQuestions(_ context.Context, quizID string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	questions := make([]domain.Question, 0)
	for _, q := range s.questions {
		if q.QuizID == quizID {
			questions = append(questions, q)
		}
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].Number < questions[j].Number })
	return questions, nil
}

func (s *Store) GetQuestion(_ context.Context, questionID string) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	question, ok := s.questions[questionID]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return question, nil
}

func (s *Store) CreateSession(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *Store) GetSession(_ context.Context, sessionID string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *Store) StartSession(_ context.Context, sessionID string, startedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if session.Status != domain.StatusNotStarted {
		return nil
	}
	session.Status = domain.StatusInProgress
	session.StartedAt = &startedAt
	s.sessions[sessionID] = session
	return nil
}

func (s *Store) UpdateSessionTime(_ context.Context, sessionID string, remaining int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.TimeRemainingSeconds = remaining
	s.sessions[sessionID] = session
	return nil
}

func (s *Store) UpdateCurrentQuestion(_ context.Context, sessionID string, number int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.CurrentQuestion = number
	s.sessions[sessionID] = session
	return nil
}

func (s *Store) CompleteSession(_ context.Context, sessionID string, completedAt time.Time, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.Status = domain.StatusCompleted
	session.CompletedAt = &completedAt
	session.Score = &score
	s.sessions[sessionID] = session
	return nil
}

func (s *Store) SaveResponse(_ context.Context, sessionID, questionID, answer string, timeSpentSeconds int) (domain.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	question, ok := s.questions[questionID]
	if !ok {
		return domain.Response{}, domain.ErrQuestionNotFound
	}

	response := domain.Response{
		SessionID:        sessionID,
		QuestionID:       questionID,
		Answer:           answer,
		IsCorrect:        answer == question.CorrectAnswer,
		TimeSpentSeconds: timeSpentSeconds,
		AnsweredAt:       s.clock(),
	}
	if previous, ok := s.responses[sessionID][questionID]; ok {
		response.TimeSpentSeconds += previous.TimeSpentSeconds
	}
	if s.responses[sessionID] == nil {
		s.responses[sessionID] = make(map[string]domain.Response)
	}
	s.responses[sessionID][questionID] = response
	return response, nil
}

func (s *Store) GetResponses(_ context.Context, sessionID string) ([]domain.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	responses := make([]domain.Response, 0, len(s.responses[sessionID]))
	for _, r := range s.responses[sessionID] {
		responses = append(responses, r)
	}
	sort.Slice(responses, func(i, j int) bool {
		return s.questions[responses[i].QuestionID].Number < s.questions[responses[j].QuestionID].Number
	})
	return responses, nil
}

// CalculateScore aggregates the session's score. Possible sums point
// values over every question in the quiz, so unanswered questions count
// fully against the percentage.
func (s *Store) CalculateScore(_ context.Context, sessionID string) (domain.Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.Score{}, domain.ErrSessionNotFound
	}

	var score domain.Score
	for _, q := range s.questions {
		if q.QuizID != session.QuizID {
			continue
		}
		score.Possible += q.PointValue()
		if r, answered := s.responses[sessionID][q.ID]; answered {
			score.Answered++
			if r.IsCorrect {
				score.Correct++
				score.Earned += q.PointValue()
			}
		}
	}
	if score.Possible > 0 {
		score.Percentage = float64(score.Earned) / float64(score.Possible) * 100
	}
	return score, nil
}
