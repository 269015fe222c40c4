package scheduler

import (
	"context"
	"sync"
	"time"

	appinv "github.com/venueos/backend/internal/application/inventory"
	"go.uber.org/zap"
)

// SweepService is the part of the expiration service the scheduler drives
type SweepService interface {
	ExpireOverdueBatches(ctx context.Context) (*appinv.ExpirationSweepStats, error)
}

// ExpirationSweepScheduler periodically runs the batch expiration sweep so
// overdue batches leave the FIFO candidate set without manual intervention
type ExpirationSweepScheduler struct {
	service   SweepService
	logger    *zap.Logger
	config    ExpirationSweepConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// ExpirationSweepConfig holds configuration for the expiration sweep scheduler
type ExpirationSweepConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// CheckInterval is how often the sweep runs
	CheckInterval time.Duration

	// SweepTimeout is the maximum time for one sweep run
	SweepTimeout time.Duration
}

// DefaultExpirationSweepConfig returns default configuration
func DefaultExpirationSweepConfig() ExpirationSweepConfig {
	return ExpirationSweepConfig{
		Enabled:       true,
		CheckInterval: 5 * time.Minute,
		SweepTimeout:  2 * time.Minute,
	}
}

// NewExpirationSweepScheduler creates a new expiration sweep scheduler
func NewExpirationSweepScheduler(
	service SweepService,
	logger *zap.Logger,
	config ExpirationSweepConfig,
) *ExpirationSweepScheduler {
	return &ExpirationSweepScheduler{
		service: service,
		logger:  logger,
		config:  config,
	}
}

// Start starts the sweep loop
func (s *ExpirationSweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Batch expiration sweep scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("Batch expiration sweep scheduler started",
		zap.Duration("check_interval", s.config.CheckInterval),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *ExpirationSweepScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	// Wait for the loop to finish with timeout
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Batch expiration sweep scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Batch expiration sweep scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the scheduler loop is active
func (s *ExpirationSweepScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *ExpirationSweepScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	// Run once at startup so overdue batches are not stuck waiting a full
	// interval after a restart
	s.executeSweep(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Expiration sweep loop stopping")
			return
		case <-ticker.C:
			s.executeSweep(ctx)
		}
	}
}

func (s *ExpirationSweepScheduler) executeSweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	stats, err := s.service.ExpireOverdueBatches(sweepCtx)
	if err != nil {
		s.logger.Error("Batch expiration sweep failed", zap.Error(err))
		return
	}

	if stats.TotalCandidates > 0 {
		s.logger.Info("Batch expiration sweep completed",
			zap.Int("candidates", stats.TotalCandidates),
			zap.Int("expired", stats.Expired),
			zap.Int("failed", stats.Failed),
		)
	}
}
