package application

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type DefaultsRefresher interface {
	RefreshStoredDefaults(ctx context.Context) (int, error)
}

// DefaultsUpdater periodically refreshes the stored default prices so that
// valuations keep a recent fallback when the quote vendor is down.
type DefaultsUpdater struct {
	service  DefaultsRefresher
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewDefaultsUpdater(service DefaultsRefresher, interval time.Duration) *DefaultsUpdater {
	return &DefaultsUpdater{
		service:  service,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

func (u *DefaultsUpdater) Start(ctx context.Context) {
	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	slog.Info("Defaults updater started", "interval", u.interval)

	for {
		select {
		case <-ticker.C:
			count, err := u.service.RefreshStoredDefaults(ctx)
			if err != nil {
				slog.Error("Error refreshing default prices", "error", err)
			} else {
				slog.Info("Default prices refreshed successfully", "count", count)
			}
		case <-u.stopChan:
			slog.Info("Defaults updater stopped")
			return
		case <-ctx.Done():
			slog.Info("Defaults updater stopped due to context cancellation")
			return
		}
	}
}

func (u *DefaultsUpdater) Stop() {
	u.stopOnce.Do(func() {
		close(u.stopChan)
	})
}
