package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/N4thh/homi-nah/internal/metrics"
	"github.com/N4thh/homi-nah/pkg/logger"
)

// Sweeper finalizes overdue pending payments. Implemented by the payment service.
type Sweeper interface {
	SweepExpiredPayments(ctx context.Context, limit int) (int, error)
}

// ExpiryWorkerConfig contains configuration for the expiry worker
type ExpiryWorkerConfig struct {
	// SweepInterval is the interval between sweeps for expired payments
	SweepInterval time.Duration
	// BatchSize is the number of payments to process in each sweep
	BatchSize int
}

// DefaultExpiryWorkerConfig returns default configuration
func DefaultExpiryWorkerConfig() *ExpiryWorkerConfig {
	return &ExpiryWorkerConfig{
		SweepInterval: 30 * time.Second,
		BatchSize:     100,
	}
}

// ExpiryWorker periodically finalizes payments whose checkout window lapsed
// without a gateway verdict. The per-payment logic lives in the payment
// service; the worker owns only the schedule.
type ExpiryWorker struct {
	sweeper Sweeper
	config  *ExpiryWorkerConfig
	log     *logger.Logger
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool

	// Stats
	totalExpired     int64
	totalSweeps      int64
	lastSweepTime    time.Time
	lastExpiredCount int
}

// NewExpiryWorker creates a new expiry worker
func NewExpiryWorker(sweeper Sweeper, config *ExpiryWorkerConfig) *ExpiryWorker {
	if config == nil {
		config = DefaultExpiryWorkerConfig()
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = 30 * time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}

	return &ExpiryWorker{
		sweeper: sweeper,
		config:  config,
		log:     logger.Get(),
		stopCh:  make(chan struct{}),
	}
}

// Start starts the expiry worker
func (w *ExpiryWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("expiry worker already running")
	}
	w.running = true
	w.mu.Unlock()

	w.log.Info(fmt.Sprintf("Starting payment expiry worker: interval=%s, batch_size=%d",
		w.config.SweepInterval, w.config.BatchSize))

	w.wg.Add(1)
	go w.run(ctx)

	return nil
}

// Stop stops the expiry worker and waits for an in-flight sweep to finish
func (w *ExpiryWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.log.Info("Stopping payment expiry worker")
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("Payment expiry worker stopped")
}

// run drives the sweep schedule
func (w *ExpiryWorker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.SweepInterval)
	defer ticker.Stop()

	// Run immediately on start
	w.SweepOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single sweep pass and records its outcome
func (w *ExpiryWorker) SweepOnce(ctx context.Context) {
	start := time.Now()

	expired, err := w.sweeper.SweepExpiredPayments(ctx, w.config.BatchSize)
	metrics.RecordSweepDuration(ctx, time.Since(start).Seconds(), expired)
	if err != nil {
		w.log.Error(fmt.Sprintf("Payment expiry sweep failed: %v", err))
		return
	}

	w.mu.Lock()
	w.totalExpired += int64(expired)
	w.totalSweeps++
	w.lastSweepTime = start
	w.lastExpiredCount = expired
	w.mu.Unlock()

	if expired > 0 {
		w.log.Info(fmt.Sprintf("Payment expiry sweep finalized %d payments", expired))
	}
}

// GetStats returns worker statistics
func (w *ExpiryWorker) GetStats() *ExpiryWorkerStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	return &ExpiryWorkerStats{
		IsRunning:        w.running,
		TotalExpired:     w.totalExpired,
		TotalSweeps:      w.totalSweeps,
		LastSweepTime:    w.lastSweepTime,
		LastExpiredCount: w.lastExpiredCount,
	}
}

// ExpiryWorkerStats contains worker statistics
type ExpiryWorkerStats struct {
	IsRunning        bool      `json:"is_running"`
	TotalExpired     int64     `json:"total_expired"`
	TotalSweeps      int64     `json:"total_sweeps"`
	LastSweepTime    time.Time `json:"last_sweep_time"`
	LastExpiredCount int       `json:"last_expired_count"`
}
