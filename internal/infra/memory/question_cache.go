package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"quiz-engine/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches full questions from the backing store.
type QuestionLoader interface {
	GetQuestions(ctx context.Context, quizID string) ([]domain.Question, error)
}

// QuestionCache serves the client-safe question list with a TTL to avoid
// repeated store hits on every connection.
type QuestionCache struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedQuestions
}

type cachedQuestions struct {
	questions []domain.ClientQuestion
	expiresAt time.Time
}

func NewQuestionCache(loader QuestionLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuestions),
	}
}

func (c *QuestionCache) Questions(ctx context.Context, quizID string) ([]domain.ClientQuestion, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[quizID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.questions, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		now := c.clock()
		// Re-check in case another goroutine filled the entry.
		c.mu.RLock()
		if entry, ok := c.cache[quizID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.questions, nil
		}
		c.mu.RUnlock()

		questions, err := c.loader.GetQuestions(ctx, quizID)
		if err != nil {
			return nil, err
		}
		if len(questions) == 0 {
			return nil, domain.ErrQuizNotFound
		}

		views := clientViews(questions)
		c.mu.Lock()
		c.cache[quizID] = cachedQuestions{
			questions: views,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return views, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.ClientQuestion), nil
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func clientViews(questions []domain.Question) []domain.ClientQuestion {
	views := make([]domain.ClientQuestion, 0, len(questions))
	for _, q := range questions {
		views = append(views, q.ClientView())
	}
	return views
}
