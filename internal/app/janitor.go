package app

import (
	"context"
	"time"

	"sessionauth/internal/logger"

	"go.uber.org/zap"
)

type sessionExpirer interface {
	ExpireSessions(ctx context.Context, now time.Time) (int64, error)
}

// StartSessionJanitor раз в interval снимает active с сессий, срок которых вышел.
// Останавливается отменой ctx.
func StartSessionJanitor(ctx context.Context, repo sessionExpirer, interval time.Duration) {
	t := time.NewTicker(interval)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if ctx.Err() != nil {
					return
				}
				expireSessions(ctx, repo, time.Now().UTC())
			}
		}
	}()
}

func expireSessions(ctx context.Context, repo sessionExpirer, now time.Time) {
	n, err := repo.ExpireSessions(ctx, now)
	if err != nil {
		logger.Log.Warn("Не удалось закрыть просроченные сессии", zap.Error(err))
		return
	}
	if n > 0 {
		logger.Log.Info("Просроченные сессии закрыты", zap.Int64("count", n))
	}
}
