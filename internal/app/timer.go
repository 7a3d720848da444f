package app

import (
	"context"
	"time"

	"quiz-engine/internal/domain"
	"go.uber.org/zap"
)

// runTimer drives the countdown for one in_progress session. Storage is
// the source of truth: remaining time is loaded at task start and
// persisted on every decrement. The loop re-reads session status each
// tick so a concurrent explicit submit stops it without a second
// completion. Cancellation (disconnect) is observed at the suspension
// point and never triggers completion.
func (e *Engine) runTimer(ctx context.Context, sessionID string) {
	sess, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return
	}
	remaining := sess.TimeRemainingSeconds

	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	for remaining > 0 {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		remaining--
		if err := e.store.UpdateSessionTime(ctx, sessionID, remaining); err != nil {
			e.log.Warn("persist remaining time",
				zap.String("session_id", sessionID), zap.Error(err))
		}

		e.registry.Send(sessionID, TimerTickEvent{Type: "timer_tick", TimeRemaining: remaining})

		sess, err := e.store.GetSession(ctx, sessionID)
		if err != nil || sess.Status == domain.StatusCompleted {
			return
		}
	}

	// The loop fell through because this task drove remaining to zero,
	// not because of cancellation or an external completion.
	select {
	case <-ctx.Done():
		return
	default:
	}
	if err := e.Complete(context.Background(), sessionID, ReasonTimeExpired); err != nil {
		e.log.Error("complete expired session",
			zap.String("session_id", sessionID), zap.Error(err))
	}
}
