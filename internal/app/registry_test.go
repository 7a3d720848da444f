package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quiz-engine/internal/domain"
)

type nopConn struct{ writeErr error }

func (c *nopConn) WriteJSON(interface{}) error { return c.writeErr }
func (c *nopConn) Close() error                { return nil }

func TestConnectRejectsDuplicate(t *testing.T) {
	r := NewRegistry(0)
	if err := r.Connect("s1", &nopConn{}); err != nil {
		t.Fatalf("first connect: %v", err)
	}
	if err := r.Connect("s1", &nopConn{}); !errors.Is(err, domain.ErrAlreadyConnected) {
		t.Fatalf("expected ErrAlreadyConnected, got %v", err)
	}
}

// Simultaneous connection attempts for the same id admit exactly one.
func TestConnectIsAtomicUnderRace(t *testing.T) {
	r := NewRegistry(0)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = r.Connect("s1", &nopConn{})
		}(i)
	}
	wg.Wait()

	admitted := 0
	for _, err := range errs {
		if err == nil {
			admitted++
		} else if !errors.Is(err, domain.ErrAlreadyConnected) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if admitted != 1 {
		t.Fatalf("expected exactly 1 admitted connection, got %d", admitted)
	}
}

func TestConnectEnforcesCeiling(t *testing.T) {
	r := NewRegistry(2)
	if err := r.Connect("s1", &nopConn{}); err != nil {
		t.Fatalf("connect s1: %v", err)
	}
	if err := r.Connect("s2", &nopConn{}); err != nil {
		t.Fatalf("connect s2: %v", err)
	}
	if err := r.Connect("s3", &nopConn{}); !errors.Is(err, domain.ErrServerFull) {
		t.Fatalf("expected ErrServerFull, got %v", err)
	}
	r.Disconnect("s1")
	if err := r.Connect("s3", &nopConn{}); err != nil {
		t.Fatalf("connect after free slot: %v", err)
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	r := NewRegistry(0)
	r.Disconnect("ghost")

	if err := r.Connect("s1", &nopConn{}); err != nil {
		t.Fatalf("connect: %v", err)
	}
	cancelled := false
	if !r.RegisterTimer("s1", func() { cancelled = true }) {
		t.Fatal("expected timer registration to succeed")
	}
	r.Disconnect("s1")
	r.Disconnect("s1")
	if !cancelled {
		t.Fatal("expected timer cancellation on disconnect")
	}
	if r.Connected("s1") {
		t.Fatal("expected entry removed")
	}
}

func TestRegisterTimerOnce(t *testing.T) {
	r := NewRegistry(0)
	if r.RegisterTimer("absent", func() {}) {
		t.Fatal("expected registration to fail for absent session")
	}
	if err := r.Connect("s1", &nopConn{}); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if !r.RegisterTimer("s1", func() {}) {
		t.Fatal("expected first registration to succeed")
	}
	if r.RegisterTimer("s1", func() {}) {
		t.Fatal("expected duplicate registration to fail")
	}
}

// Sends to absent sessions and failing transports are swallowed.
func TestSendIsBestEffort(t *testing.T) {
	r := NewRegistry(0)
	r.Send("ghost", "hello")

	if err := r.Connect("s1", &nopConn{writeErr: context.DeadlineExceeded}); err != nil {
		t.Fatalf("connect: %v", err)
	}
	r.Send("s1", "hello")
}

func TestQuestionTimeSpent(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r := newRegistryWithClock(0, func() time.Time { return now })

	if err := r.Connect("s1", &nopConn{}); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if got := r.QuestionTimeSpent("s1"); got != 0 {
		t.Fatalf("expected 0 before stamping, got %d", got)
	}

	r.StartQuestionTimer("s1")
	now = now.Add(4500 * time.Millisecond)
	if got := r.QuestionTimeSpent("s1"); got != 4 {
		t.Fatalf("expected 4 whole seconds, got %d", got)
	}

	if got := r.QuestionTimeSpent("ghost"); got != 0 {
		t.Fatalf("expected 0 for unknown session, got %d", got)
	}
}
