package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"quiz-engine/internal/domain"
)

type countingLoader struct {
	calls     int64
	questions []domain.Question
	err       error
}

func (l *countingLoader) GetQuestions(context.Context, string) ([]domain.Question, error) {
	atomic.AddInt64(&l.calls, 1)
	return l.questions, l.err
}

func loaderQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q1", QuizID: "quiz-1", Number: 1, Text: "One?", Options: []string{"a", "b"}, CorrectAnswer: "a", Points: 1},
	}
}

func TestQuestionCacheHitsLoaderOnce(t *testing.T) {
	loader := &countingLoader{questions: loaderQuestions()}
	cache := NewQuestionCache(loader, time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		views, err := cache.Questions(ctx, "quiz-1")
		if err != nil {
			t.Fatalf("questions: %v", err)
		}
		if len(views) != 1 || views[0].ID != "q1" {
			t.Fatalf("unexpected views: %+v", views)
		}
	}
	if calls := atomic.LoadInt64(&loader.calls); calls != 1 {
		t.Fatalf("expected 1 loader call, got %d", calls)
	}
}

func TestQuestionCacheRefreshesAfterTTL(t *testing.T) {
	loader := &countingLoader{questions: loaderQuestions()}
	cache := NewQuestionCache(loader, 10*time.Millisecond)
	ctx := context.Background()

	if _, err := cache.Questions(ctx, "quiz-1"); err != nil {
		t.Fatalf("questions: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := cache.Questions(ctx, "quiz-1"); err != nil {
		t.Fatalf("questions after expiry: %v", err)
	}
	if calls := atomic.LoadInt64(&loader.calls); calls != 2 {
		t.Fatalf("expected refresh after ttl, got %d calls", calls)
	}
}

func TestQuestionCacheCollapsesConcurrentMisses(t *testing.T) {
	loader := &countingLoader{questions: loaderQuestions()}
	cache := NewQuestionCache(loader, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Questions(context.Background(), "quiz-1"); err != nil {
				t.Errorf("questions: %v", err)
			}
		}()
	}
	wg.Wait()

	if calls := atomic.LoadInt64(&loader.calls); calls != 1 {
		t.Fatalf("expected singleflight to collapse misses, got %d calls", calls)
	}
}

func TestQuestionCacheEmptyQuizIsNotFound(t *testing.T) {
	cache := NewQuestionCache(&countingLoader{}, time.Minute)
	if _, err := cache.Questions(context.Background(), "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestQuestionCacheViewHidesCorrectAnswer(t *testing.T) {
	loader := &countingLoader{questions: loaderQuestions()}
	cache := NewQuestionCache(loader, time.Minute)

	views, err := cache.Questions(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if views[0].Text != "One?" || len(views[0].Options) != 2 {
		t.Fatalf("unexpected view: %+v", views[0])
	}
}
