package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/negotium-labs/negotium/internal/domain"
	"github.com/negotium-labs/negotium/internal/shared"
)

const sweepInterval = 5 * time.Minute

// StartIdleSweeper runs a background goroutine that periodically drops
// sessions with no activity for longer than ttl from the registry and marks
// them abandoned in the store. Abandoned sessions get no analysis.
func (o *Orchestrator) StartIdleSweeper(ctx context.Context, ttl time.Duration) {
	ticker := time.NewTicker(sweepInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("Idle sweeper started", "interval", sweepInterval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				o.sweepIdle(ctx, ttl)
			case <-ctx.Done():
				slog.Info("Idle sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func (o *Orchestrator) sweepIdle(ctx context.Context, ttl time.Duration) {
	cutoff := time.Now().Add(-ttl)
	idle := o.registry.Idle(cutoff)
	if len(idle) == 0 {
		return
	}

	slog.Info("Idle sweeper found stale sessions", "count", len(idle))

	for _, sess := range idle {
		o.abandonSession(ctx, sess.SessionID, cutoff)
	}
}

func (o *Orchestrator) abandonSession(ctx context.Context, sessionID string, cutoff time.Time) {
	mu := o.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	// Re-check under the lock: a message may have landed since the scan.
	sess, ok := o.registry.Get(sessionID)
	if !ok || !sess.LastActivity.Before(cutoff) {
		return
	}

	sess.Stage = domain.StageEnded
	o.registry.Remove(sessionID)
	o.locks.Delete(sessionID)
	if o.hub != nil {
		o.hub.CloseSession(sessionID)
	}

	if err := setStatusWithRetry(ctx, o, sessionID); err != nil {
		slog.Warn("Idle sweeper failed to mark session abandoned",
			"error", err,
			"session_id", sessionID)
		return
	}

	slog.Info("Session abandoned by idle sweeper",
		"session_id", sessionID,
		"turns", sess.TurnNumber)
}

// setStatusWithRetry retries on SQLite concurrency errors with exponential
// backoff, matching the store's own busy handling.
func setStatusWithRetry(ctx context.Context, o *Orchestrator, sessionID string) error {
	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		err = o.repo.SetSessionStatus(ctx, sessionID, domain.SessionAbandoned, time.Now())
		if err == nil {
			return nil
		}
		if !shared.IsSQLiteConflictError(err) || i == maxRetries-1 {
			return err
		}
		delay := baseDelay * time.Duration(1<<i)
		slog.Debug("Status update hit SQLITE_BUSY, retrying",
			"session_id", sessionID,
			"attempt", i+1,
			"delay", delay)
		time.Sleep(delay)
	}
	return err
}
