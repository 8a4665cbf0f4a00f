package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/authgate/internal/auth/store"
)

// HousekeepingService periodically removes expired revocations and login
// attempts from stores that do not expire records natively.
type HousekeepingService struct {
	Sweepers []store.Sweeper
	Logger   *slog.Logger
	Interval time.Duration
	Timeout  time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. A non-positive
// interval defaults to one minute.
func NewHousekeepingService(logger *slog.Logger, interval time.Duration, sweepers ...store.Sweeper) *HousekeepingService {
	if interval <= 0 {
		interval = time.Minute
	}

	return &HousekeepingService{
		Sweepers: sweepers,
		Logger:   logger,
		Interval: interval,
		Timeout:  30 * time.Second,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background worker. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval, "sweepers", len(s.Sweepers))
}

// Stop blocks until any in-progress sweep has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Sweep runs every sweeper once and returns the total removed. A failing
// sweeper is logged and does not stop the others.
func (s *HousekeepingService) Sweep(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, orDefault(s.Timeout, 30*time.Second))
	defer cancel()

	var total int64
	for _, sw := range s.Sweepers {
		n, err := sw.DeleteExpired(ctx)
		if err != nil {
			s.Logger.Error("failed to delete expired records", "err", err)
			continue
		}
		total += n
	}

	s.Logger.Debug("housekeeping sweep completed", "deleted", total)
	return total
}
