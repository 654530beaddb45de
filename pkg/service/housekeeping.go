package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/tokenkit/pkg/store"
)

// HousekeepingService removes expired token state records. RunOnce is meant
// for process start; Start adds a periodic loop when Interval is positive.
type HousekeepingService struct {
	States   store.TokenStates
	Logger   *slog.Logger
	Interval time.Duration
	Now      func() time.Time

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewHousekeepingService creates a new housekeeping service.
func NewHousekeepingService(states store.TokenStates, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HousekeepingService{
		States:   states,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// RunOnce deletes every record already past its expiry.
func (h *HousekeepingService) RunOnce(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now().UTC()
	}

	n, err := h.States.Cleanup(ctx, now)
	if err != nil {
		h.Logger.Error("failed to cleanup token states", slog.Any("error", err))
		return 0, err
	}
	if n > 0 {
		h.Logger.Info("cleaned up expired token states", slog.Int("count", n))
	}
	return n, nil
}

// Start begins the periodic cleanup. It is a no-op when Interval is zero.
func (h *HousekeepingService) Start() {
	if h.Interval <= 0 || !h.started.CompareAndSwap(false, true) {
		return
	}
	h.Logger.Info("starting housekeeping service", slog.Duration("interval", h.Interval))
	go h.run()
}

// Stop gracefully stops the housekeeping service.
func (h *HousekeepingService) Stop() {
	if !h.started.Load() {
		return
	}
	h.stopOnce.Do(func() {
		close(h.stopCh)
	})
	<-h.doneCh
}

func (h *HousekeepingService) run() {
	defer close(h.doneCh)

	ticker := time.NewTicker(h.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = h.RunOnce(context.Background())
		case <-h.stopCh:
			h.Logger.Info("stopping housekeeping service")
			return
		}
	}
}
