package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quiz-engine/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Store implements app.Store on Postgres via pgx.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, COALESCE(description, ''), time_limit_seconds, created_at
		FROM quizzes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var quizzes []domain.Quiz
	for rows.Next() {
		var q domain.Quiz
		if err := rows.Scan(&q.ID, &q.Title, &q.Description, &q.TimeLimitSeconds, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

func (s *Store) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var q domain.Quiz
	err := s.pool.QueryRow(ctx, `
		SELECT id, title, COALESCE(description, ''), time_limit_seconds, created_at
		FROM quizzes WHERE id = $1`, quizID).
		Scan(&q.ID, &q.Title, &q.Description, &q.TimeLimitSeconds, &q.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("get quiz: %w", err)
	}
	return q, nil
}

func (s *Store) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO quizzes (id, title, description, time_limit_seconds)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`,
		quiz.ID, quiz.Title, quiz.Description, quiz.TimeLimitSeconds)
	if err != nil {
		return fmt.Errorf("create quiz: %w", err)
	}
	return nil
}

func (s *Store) AddQuestion(ctx context.Context, question domain.Question) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO questions (id, quiz_id, question_number, question_text, options, correct_answer, points)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
		question.ID, question.QuizID, question.Number, question.Text,
		question.Options, question.CorrectAnswer, question.PointValue())
	if err != nil {
		return fmt.Errorf("add question: %w", err)
	}
	return nil
}

func (s *Store) GetQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, quiz_id, question_number, question_text, options, correct_answer, points
		FROM questions WHERE quiz_id = $1 ORDER BY question_number`, quizID)
	if err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Number, &q.Text, &q.Options, &q.CorrectAnswer, &q.Points); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (s *Store) GetQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	var q domain.Question
	err := s.pool.QueryRow(ctx, `
		SELECT id, quiz_id, question_number, question_text, options, correct_answer, points
		FROM questions WHERE id = $1`, questionID).
		Scan(&q.ID, &q.QuizID, &q.Number, &q.Text, &q.Options, &q.CorrectAnswer, &q.Points)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

func (s *Store) CreateSession(ctx context.Context, session domain.Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (id, quiz_id, token, student_name, status, time_remaining_seconds, current_question)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		session.ID, session.QuizID, session.Token, session.StudentName,
		session.Status, session.TimeRemainingSeconds, session.CurrentQuestion)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	var sess domain.Session
	err := s.pool.QueryRow(ctx, `
		SELECT id, quiz_id, token, COALESCE(student_name, ''), status, started_at,
		       completed_at, time_remaining_seconds, current_question, score
		FROM sessions WHERE id = $1`, sessionID).
		Scan(&sess.ID, &sess.QuizID, &sess.Token, &sess.StudentName, &sess.Status,
			&sess.StartedAt, &sess.CompletedAt, &sess.TimeRemainingSeconds,
			&sess.CurrentQuestion, &sess.Score)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// StartSession is conditional on not_started; any other status leaves the
// row untouched.
func (s *Store) StartSession(ctx context.Context, sessionID string, startedAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE sessions SET status = $1, started_at = $2
		WHERE id = $3 AND status = $4`,
		domain.StatusInProgress, startedAt, sessionID, domain.StatusNotStarted)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	return nil
}

func (s *Store) UpdateSessionTime(ctx context.Context, sessionID string, remaining int) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE sessions SET time_remaining_seconds = $1 WHERE id = $2`, remaining, sessionID)
	if err != nil {
		return fmt.Errorf("update session time: %w", err)
	}
	return nil
}

func (s *Store) UpdateCurrentQuestion(ctx context.Context, sessionID string, number int) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE sessions SET current_question = $1 WHERE id = $2`, number, sessionID)
	if err != nil {
		return fmt.Errorf("update current question: %w", err)
	}
	return nil
}

func (s *Store) CompleteSession(ctx context.Context, sessionID string, completedAt time.Time, score float64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE sessions SET status = $1, completed_at = $2, score = $3 WHERE id = $4`,
		domain.StatusCompleted, completedAt, score, sessionID)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	return nil
}

// SaveResponse upserts atomically: correctness is evaluated in SQL
// against the question row and time spent accumulates across attempts.
func (s *Store) SaveResponse(ctx context.Context, sessionID, questionID, answer string, timeSpentSeconds int) (domain.Response, error) {
	var r domain.Response
	r.SessionID = sessionID
	r.QuestionID = questionID
	err := s.pool.QueryRow(ctx, `
		INSERT INTO responses (session_id, question_id, answer, is_correct, time_spent_seconds, answered_at)
		SELECT $1, q.id, $3, ($3 = q.correct_answer), $4, now()
		FROM questions q WHERE q.id = $2
		ON CONFLICT (session_id, question_id) DO UPDATE SET
			answer = EXCLUDED.answer,
			is_correct = EXCLUDED.is_correct,
			time_spent_seconds = responses.time_spent_seconds + EXCLUDED.time_spent_seconds,
			answered_at = EXCLUDED.answered_at
		RETURNING answer, is_correct, time_spent_seconds, answered_at`,
		sessionID, questionID, answer, timeSpentSeconds).
		Scan(&r.Answer, &r.IsCorrect, &r.TimeSpentSeconds, &r.AnsweredAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Response{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Response{}, fmt.Errorf("save response: %w", err)
	}
	return r, nil
}

func (s *Store) GetResponses(ctx context.Context, sessionID string) ([]domain.Response, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.session_id, r.question_id, r.answer, r.is_correct, r.time_spent_seconds, r.answered_at
		FROM responses r
		JOIN questions q ON q.id = r.question_id
		WHERE r.session_id = $1
		ORDER BY q.question_number`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get responses: %w", err)
	}
	defer rows.Close()

	var responses []domain.Response
	for rows.Next() {
		var r domain.Response
		if err := rows.Scan(&r.SessionID, &r.QuestionID, &r.Answer, &r.IsCorrect, &r.TimeSpentSeconds, &r.AnsweredAt); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

// CalculateScore aggregates in one pass over the quiz's questions with a
// left join to the session's responses, so possible always covers the
// whole quiz.
func (s *Store) CalculateScore(ctx context.Context, sessionID string) (domain.Score, error) {
	var score domain.Score
	err := s.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(q.points) FILTER (WHERE r.is_correct), 0),
			COALESCE(SUM(q.points), 0),
			COUNT(r.id),
			COUNT(r.id) FILTER (WHERE r.is_correct)
		FROM questions q
		LEFT JOIN responses r ON r.question_id = q.id AND r.session_id = $1
		WHERE q.quiz_id = (SELECT quiz_id FROM sessions WHERE id = $1)`, sessionID).
		Scan(&score.Earned, &score.Possible, &score.Answered, &score.Correct)
	if err != nil {
		return domain.Score{}, fmt.Errorf("calculate score: %w", err)
	}
	if score.Possible > 0 {
		score.Percentage = float64(score.Earned) / float64(score.Possible) * 100
	}
	return score, nil
}
