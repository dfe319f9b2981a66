package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/hms-dta/agencyauth/internal/auth/store"
)

// HousekeepingService periodically deletes expired device codes and token
// records so the tables don't grow without bound. Expiry is enforced in the
// services at read time; this removes the rows for good.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates the sweeper. A non-positive interval
// defaults to 10 minutes.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background worker. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping started", "interval", s.Interval)
}

// Stop blocks until any in-progress sweep finishes.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Sweep immediately on startup.
	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

// sweep deletes expired rows. Failures in one table don't stop the other.
func (s *HousekeepingService) sweep() {
	ctx := context.Background()

	if n, err := s.Store.DeviceCodes().DeleteExpiredDeviceCodes(ctx); err != nil {
		s.Logger.Error("failed to delete expired device codes", "error", err)
	} else if n > 0 {
		s.Logger.Info("deleted expired device codes", "count", n)
	}

	if n, err := s.Store.Tokens().DeleteExpiredTokens(ctx); err != nil {
		s.Logger.Error("failed to delete expired tokens", "error", err)
	} else if n > 0 {
		s.Logger.Info("deleted expired tokens", "count", n)
	}
}
