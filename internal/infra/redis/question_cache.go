package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"quiz-engine/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches full questions from the backing store.
type QuestionLoader interface {
	GetQuestions(ctx context.Context, quizID string) ([]domain.Question, error)
}

// QuestionCache keeps the client-safe question list in Redis as a JSON
// string under quiz:{quizID}:questions and falls back to the loader on a
// miss. Only the client-safe form is cached; correct answers never reach
// Redis.
type QuestionCache struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionCache(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) Questions(ctx context.Context, quizID string) ([]domain.ClientQuestion, error) {
	key := c.key(quizID)

	if raw, err := c.client.Get(ctx, key).Result(); err == nil {
		if questions, err := decodeQuestions([]byte(raw)); err == nil {
			return questions, nil
		}
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		// Re-check in case another goroutine filled the key.
		if raw, err := c.client.Get(ctx, key).Result(); err == nil {
			if questions, err := decodeQuestions([]byte(raw)); err == nil {
				return questions, nil
			}
		}

		full, err := c.loader.GetQuestions(ctx, quizID)
		if err != nil {
			return nil, err
		}
		if len(full) == 0 {
			return nil, domain.ErrQuizNotFound
		}

		questions := make([]domain.ClientQuestion, 0, len(full))
		for _, q := range full {
			questions = append(questions, q.ClientView())
		}

		if raw, err := json.Marshal(questions); err == nil {
			// best-effort fill; a failed SET just means the next call misses
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.ClientQuestion), nil
}

func (c *QuestionCache) key(quizID string) string {
	return "quiz:" + quizID + ":questions"
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func decodeQuestions(raw []byte) ([]domain.ClientQuestion, error) {
	var questions []domain.ClientQuestion
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}
