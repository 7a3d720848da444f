package migrations

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

const createSchemaSQL = `
CREATE TABLE IF NOT EXISTS quizzes (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT,
	time_limit_seconds INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS questions (
	id TEXT PRIMARY KEY,
	quiz_id TEXT NOT NULL REFERENCES quizzes(id),
	question_number INTEGER NOT NULL,
	question_text TEXT NOT NULL,
	options TEXT[] NOT NULL DEFAULT '{}',
	correct_answer TEXT NOT NULL,
	points INTEGER NOT NULL DEFAULT 1,
	UNIQUE (quiz_id, question_number)
);

CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	quiz_id TEXT NOT NULL REFERENCES quizzes(id),
	token TEXT NOT NULL,
	student_name TEXT,
	status TEXT NOT NULL DEFAULT 'not_started',
	started_at TIMESTAMPTZ,
	completed_at TIMESTAMPTZ,
	time_remaining_seconds INTEGER NOT NULL,
	current_question INTEGER NOT NULL DEFAULT 1,
	score DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS responses (
	id BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	question_id TEXT NOT NULL REFERENCES questions(id),
	answer TEXT,
	is_correct BOOLEAN NOT NULL DEFAULT FALSE,
	time_spent_seconds INTEGER NOT NULL DEFAULT 0,
	answered_at TIMESTAMPTZ,
	UNIQUE (session_id, question_id)
);

CREATE INDEX IF NOT EXISTS idx_questions_quiz ON questions (quiz_id);
CREATE INDEX IF NOT EXISTS idx_sessions_quiz ON sessions (quiz_id);
CREATE INDEX IF NOT EXISTS idx_responses_session ON responses (session_id);
`

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, createSchemaSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS responses, sessions, questions, quizzes`)
			return err
		},
	)
}
