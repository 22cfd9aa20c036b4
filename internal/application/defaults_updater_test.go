package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type mockDefaultsRefresher struct {
	mu          sync.Mutex
	refreshFunc func(ctx context.Context) (int, error)
	callCount   int
}

func (m *mockDefaultsRefresher) RefreshStoredDefaults(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	if m.refreshFunc != nil {
		return m.refreshFunc(ctx)
	}
	return 0, nil
}

func (m *mockDefaultsRefresher) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

func TestDefaultsUpdater_Start(t *testing.T) {
	t.Run("Refreshes defaults on interval", func(t *testing.T) {
		mockRefresher := &mockDefaultsRefresher{}
		interval := 10 * time.Millisecond
		updater := NewDefaultsUpdater(mockRefresher, interval)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go updater.Start(ctx)

		assert.Eventually(t, func() bool {
			return mockRefresher.CallCount() >= 3
		}, time.Second, 5*time.Millisecond)

		updater.Stop()
	})

	t.Run("Keeps running after a refresh error", func(t *testing.T) {
		mockRefresher := &mockDefaultsRefresher{
			refreshFunc: func(ctx context.Context) (int, error) {
				return 0, errors.New("refresh failed")
			},
		}
		updater := NewDefaultsUpdater(mockRefresher, 10*time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go updater.Start(ctx)

		assert.Eventually(t, func() bool {
			return mockRefresher.CallCount() >= 2
		}, time.Second, 5*time.Millisecond)
		updater.Stop()
	})

	t.Run("Stops on Stop() call", func(t *testing.T) {
		updater := NewDefaultsUpdater(&mockDefaultsRefresher{}, 100*time.Millisecond)

		done := make(chan struct{})
		go func() {
			updater.Start(context.Background())
			close(done)
		}()

		updater.Stop()
		updater.Stop()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("updater did not stop")
		}
	})

	t.Run("Stops on context cancellation", func(t *testing.T) {
		updater := NewDefaultsUpdater(&mockDefaultsRefresher{}, 100*time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			updater.Start(ctx)
			close(done)
		}()

		cancel()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("updater did not stop")
		}
	})
}
