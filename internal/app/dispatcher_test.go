package app_test

import (
	"context"
	"testing"
	"time"

	"quiz-engine/internal/app"
	"quiz-engine/internal/domain"
	"github.com/stretchr/testify/require"
)

// quietTimer keeps countdown ticks out of dispatcher tests.
func quietTimer() app.Option { return app.WithTickInterval(time.Hour) }

func TestStartQuizIsIdempotent(t *testing.T) {
	f := newFixture(t, 300, quietTimer())
	client, conn, sess := f.attach(t)
	ctx := context.Background()

	client.HandleMessage(ctx, []byte(`{"type":"start_quiz"}`))
	client.HandleMessage(ctx, []byte(`{"type":"start_quiz"}`))

	require.Equal(t, 1, conn.count("question"))
	first := conn.ofType("question")[0]
	require.EqualValues(t, 1, first["question_number"])
	require.EqualValues(t, 3, first["total_questions"])
	require.Nil(t, first["existing_answer"])

	stored, err := f.store.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusInProgress, stored.Status)
	require.NotNil(t, stored.StartedAt)

	// navigation still works after the duplicate start
	client.HandleMessage(ctx, []byte(`{"type":"next_question","current":1}`))
	require.Equal(t, 2, conn.count("question"))
}

func TestQuestionEventOmitsCorrectAnswer(t *testing.T) {
	f := newFixture(t, 300, quietTimer())
	client, conn, _ := f.attach(t)

	client.HandleMessage(context.Background(), []byte(`{"type":"start_quiz"}`))

	question := conn.ofType("question")[0]["question"].(map[string]interface{})
	require.Equal(t, "q1", question["id"])
	require.Equal(t, "First?", question["text"])
	require.NotContains(t, question, "correct_answer")
	require.NotContains(t, question, "CorrectAnswer")
}

func TestAnswerValidation(t *testing.T) {
	f := newFixture(t, 300, quietTimer())
	client, conn, sess := f.attach(t)
	ctx := context.Background()
	client.HandleMessage(ctx, []byte(`{"type":"start_quiz"}`))

	client.HandleMessage(ctx, []byte(`{"type":"answer","question_id":"bogus","answer":"a"}`))
	client.HandleMessage(ctx, []byte(`{"type":"answer","question_id":42,"answer":"a"}`))
	client.HandleMessage(ctx, []byte(`{"type":"answer","question_id":"q1","answer":"nope"}`))
	client.HandleMessage(ctx, []byte(`{"type":"answer","question_id":"q1","answer":7}`))
	client.HandleMessage(ctx, []byte(`{"type":"answer","question_id":"q1"}`))

	errorEvents := conn.ofType("error")
	require.Len(t, errorEvents, 5)
	require.Equal(t, "Invalid question ID", errorEvents[0]["message"])
	require.Equal(t, "Invalid question ID", errorEvents[1]["message"])
	require.Equal(t, "Invalid answer", errorEvents[2]["message"])
	require.Equal(t, "Invalid answer", errorEvents[3]["message"])
	require.Equal(t, "Invalid answer", errorEvents[4]["message"])

	// no state was mutated
	responses, err := f.store.GetResponses(ctx, sess.ID)
	require.NoError(t, err)
	require.Empty(t, responses)
	require.Zero(t, conn.count("answer_received"))
}

func TestAnswerRecordsElapsedTime(t *testing.T) {
	f := newFixture(t, 300, quietTimer())
	client, conn, sess := f.attach(t)
	ctx := context.Background()

	client.HandleMessage(ctx, []byte(`{"type":"start_quiz"}`))
	f.clock.Advance(3 * time.Second)
	client.HandleMessage(ctx, []byte(`{"type":"answer","question_id":"q1","answer":"b"}`))

	received := conn.ofType("answer_received")
	require.Len(t, received, 1)
	require.Equal(t, "q1", received[0]["question_id"])
	require.EqualValues(t, 3, received[0]["time_spent"])

	responses, err := f.store.GetResponses(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	require.Equal(t, "b", responses[0].Answer)
	require.False(t, responses[0].IsCorrect)
	require.Equal(t, 3, responses[0].TimeSpentSeconds)
}

// Re-answering replaces the answer and correctness but accumulates time.
func TestReAnswerAccumulatesTime(t *testing.T) {
	f := newFixture(t, 300, quietTimer())
	client, _, sess := f.attach(t)
	ctx := context.Background()

	client.HandleMessage(ctx, []byte(`{"type":"start_quiz"}`))
	f.clock.Advance(3 * time.Second)
	client.HandleMessage(ctx, []byte(`{"type":"answer","question_id":"q1","answer":"b"}`))

	// revisiting the question re-stamps the attempt timer
	client.HandleMessage(ctx, []byte(`{"type":"go_to_question","question_number":1}`))
	f.clock.Advance(4 * time.Second)
	client.HandleMessage(ctx, []byte(`{"type":"answer","question_id":"q1","answer":"a"}`))

	responses, err := f.store.GetResponses(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	require.Equal(t, "a", responses[0].Answer)
	require.True(t, responses[0].IsCorrect)
	require.Equal(t, 7, responses[0].TimeSpentSeconds)
}

func TestNavigationBounds(t *testing.T) {
	f := newFixture(t, 300, quietTimer())
	client, conn, _ := f.attach(t)
	ctx := context.Background()
	client.HandleMessage(ctx, []byte(`{"type":"start_quiz"}`))
	baseline := conn.count("question")

	// silent no-ops: boundary, out-of-range current, wrong types
	client.HandleMessage(ctx, []byte(`{"type":"prev_question","current":1}`))
	client.HandleMessage(ctx, []byte(`{"type":"next_question","current":3}`))
	client.HandleMessage(ctx, []byte(`{"type":"next_question","current":0}`))
	client.HandleMessage(ctx, []byte(`{"type":"next_question","current":9}`))
	client.HandleMessage(ctx, []byte(`{"type":"next_question","current":1.5}`))
	client.HandleMessage(ctx, []byte(`{"type":"next_question","current":"2"}`))
	client.HandleMessage(ctx, []byte(`{"type":"next_question"}`))

	require.Equal(t, baseline, conn.count("question"))
	require.Zero(t, conn.count("error"))

	client.HandleMessage(ctx, []byte(`{"type":"next_question","current":1}`))
	events := conn.ofType("question")
	require.Len(t, events, baseline+1)
	require.EqualValues(t, 2, events[len(events)-1]["question_number"])
}

func TestNavigatePersistsCurrentQuestion(t *testing.T) {
	f := newFixture(t, 300, quietTimer())
	client, _, sess := f.attach(t)
	ctx := context.Background()
	client.HandleMessage(ctx, []byte(`{"type":"start_quiz"}`))

	client.HandleMessage(ctx, []byte(`{"type":"next_question","current":1}`))
	stored, err := f.store.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, 2, stored.CurrentQuestion)

	client.HandleMessage(ctx, []byte(`{"type":"prev_question","current":2}`))
	stored, err = f.store.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, 1, stored.CurrentQuestion)
}

func TestGoToQuestion(t *testing.T) {
	f := newFixture(t, 300, quietTimer())
	client, conn, _ := f.attach(t)
	ctx := context.Background()
	client.HandleMessage(ctx, []byte(`{"type":"start_quiz"}`))
	client.HandleMessage(ctx, []byte(`{"type":"answer","question_id":"q3","answer":"f"}`))
	baseline := conn.count("question")

	client.HandleMessage(ctx, []byte(`{"type":"go_to_question","question_number":0}`))
	client.HandleMessage(ctx, []byte(`{"type":"go_to_question","question_number":4}`))
	require.Equal(t, baseline, conn.count("question"))

	client.HandleMessage(ctx, []byte(`{"type":"go_to_question","question_number":3}`))
	events := conn.ofType("question")
	require.Len(t, events, baseline+1)
	last := events[len(events)-1]
	require.EqualValues(t, 3, last["question_number"])
	require.Equal(t, "f", last["existing_answer"])
}

func TestUnknownMessageType(t *testing.T) {
	f := newFixture(t, 300, quietTimer())
	client, conn, _ := f.attach(t)

	client.HandleMessage(context.Background(), []byte(`{"type":"reboot"}`))

	errorEvents := conn.ofType("error")
	require.Len(t, errorEvents, 1)
	require.Contains(t, errorEvents[0]["message"], "reboot")
}

func TestMalformedFrame(t *testing.T) {
	f := newFixture(t, 300, quietTimer())
	client, conn, _ := f.attach(t)

	client.HandleMessage(context.Background(), []byte(`{not json`))

	errorEvents := conn.ofType("error")
	require.Len(t, errorEvents, 1)
	require.Equal(t, "Failed to process message", errorEvents[0]["message"])
}
