package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ayush-ak-725/ticket-booking-service/internal/service"
	"github.com/ayush-ak-725/ticket-booking-service/pkg/logger"
)

// ExpiryWorkerConfig contains configuration for the expiry worker
type ExpiryWorkerConfig struct {
	// ScanInterval is the interval between scans for expired holds
	ScanInterval time.Duration
	// ErrorBackoff is how long the loop waits after a failed scan
	// before trying again
	ErrorBackoff time.Duration
}

// DefaultExpiryWorkerConfig returns default configuration
func DefaultExpiryWorkerConfig() *ExpiryWorkerConfig {
	return &ExpiryWorkerConfig{
		ScanInterval: 30 * time.Second,
		ErrorBackoff: 60 * time.Second,
	}
}

// ExpiryWorker periodically expires holds whose deadline has passed,
// releasing their seats back to the pool. Per-hold failures are
// isolated inside the scan; a failed scan backs off and retries, never
// taking the process down.
type ExpiryWorker struct {
	holdService service.HoldService
	config      *ExpiryWorkerConfig
	log         *logger.Logger
	stopCh      chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	running     bool

	// Stats
	totalScans       int64
	totalExpired     int64
	lastScanTime     time.Time
	lastExpiredCount int
}

// NewExpiryWorker creates a new expiry worker
func NewExpiryWorker(holdService service.HoldService, config *ExpiryWorkerConfig) *ExpiryWorker {
	if config == nil {
		config = DefaultExpiryWorkerConfig()
	}
	if config.ScanInterval <= 0 {
		config.ScanInterval = 30 * time.Second
	}
	if config.ErrorBackoff <= 0 {
		config.ErrorBackoff = 60 * time.Second
	}

	return &ExpiryWorker{
		holdService: holdService,
		config:      config,
		log:         logger.Get(),
	}
}

// Start starts the expiry worker. Starting a running worker is a no-op.
func (w *ExpiryWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	w.log.Info("Starting expiry worker")

	w.wg.Add(1)
	go w.scanLoop(ctx, stopCh)

	return nil
}

// Stop stops the expiry worker and waits for the scan loop to exit.
// Stopping a stopped worker is a no-op.
func (w *ExpiryWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	w.log.Info("Stopping expiry worker")
	w.wg.Wait()
	w.log.Info("Expiry worker stopped")
}

// scanLoop runs scans until stopped or the context is cancelled
func (w *ExpiryWorker) scanLoop(ctx context.Context, stopCh chan struct{}) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.ScanInterval)
	defer ticker.Stop()

	// Run immediately on start
	if err := w.scan(ctx); err != nil {
		if !w.backoff(ctx, stopCh) {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			if err := w.scan(ctx); err != nil {
				if !w.backoff(ctx, stopCh) {
					return
				}
			}
		}
	}
}

// scan expires due holds once and records the outcome
func (w *ExpiryWorker) scan(ctx context.Context) error {
	count, err := w.holdService.ExpireDueHolds(ctx)
	if err != nil {
		w.log.Error(fmt.Sprintf("Expiry scan failed: %v", err))
		return err
	}

	w.mu.Lock()
	w.totalScans++
	w.totalExpired += int64(count)
	w.lastScanTime = time.Now()
	w.lastExpiredCount = count
	w.mu.Unlock()

	if count > 0 {
		w.log.Info(fmt.Sprintf("Expired %d holds", count))
	}

	return nil
}

// backoff waits out the error backoff window. It returns false when
// the worker was stopped or the context cancelled during the wait.
func (w *ExpiryWorker) backoff(ctx context.Context, stopCh chan struct{}) bool {
	timer := time.NewTimer(w.config.ErrorBackoff)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-stopCh:
		return false
	case <-timer.C:
		return true
	}
}

// GetStats returns worker statistics
func (w *ExpiryWorker) GetStats() *ExpiryWorkerStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	return &ExpiryWorkerStats{
		IsRunning:        w.running,
		TotalScans:       w.totalScans,
		TotalExpired:     w.totalExpired,
		LastScanTime:     w.lastScanTime,
		LastExpiredCount: w.lastExpiredCount,
	}
}

// ExpiryWorkerStats contains worker statistics
type ExpiryWorkerStats struct {
	IsRunning        bool      `json:"is_running"`
	TotalScans       int64     `json:"total_scans"`
	TotalExpired     int64     `json:"total_expired"`
	LastScanTime     time.Time `json:"last_scan_time"`
	LastExpiredCount int       `json:"last_expired_count"`
}
