// Package migration runs the HSM's background migration cycles: sleep
// until the next scheduled cycle or an explicit trigger, migrate every
// eligible instance (bounded by a worker pool), record the cycle's
// result, repeat.
package migration

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/caio-sobreiro/pacs/hsm"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Result records one migration cycle's outcome.
type Result struct {
	Started       time.Time
	Finished      time.Time
	MigratedCount int
	MigratedBytes int64
	FailedUIDs    []string
}

// Duration is the wall-clock time the cycle took.
func (r Result) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Service is the background migration scheduler.
type Service struct {
	store         *hsm.HSM
	interval      time.Duration
	maxConcurrent int64
	logger        *slog.Logger

	trigger chan struct{}
	stop    chan struct{}
	done    chan struct{}

	mu   sync.Mutex
	last Result
}

// New builds a migration service over store, running one cycle every
// interval (or sooner, on Trigger). maxConcurrent bounds per-cycle
// migration worker concurrency; a value <= 0 defaults to 4.
func New(store *hsm.HSM, interval time.Duration, maxConcurrent int, logger *slog.Logger) *Service {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:         store,
		interval:      interval,
		maxConcurrent: int64(maxConcurrent),
		logger:        logger,
		trigger:       make(chan struct{}, 1),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Trigger requests an out-of-schedule cycle; it's non-blocking and
// coalesces with any already-pending trigger.
func (s *Service) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Stop requests graceful shutdown: the current cycle (if any) is
// allowed to drain its in-flight migrations before Run returns.
func (s *Service) Stop() {
	close(s.stop)
	<-s.done
}

// LastResult returns the most recently completed cycle's result.
func (s *Service) LastResult() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Run blocks, executing cycles until Stop is called or ctx is canceled.
func (s *Service) Run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.runCycle(ctx)
		case <-s.trigger:
			s.runCycle(ctx)
			ticker.Reset(s.interval)
		}
	}
}

func (s *Service) runCycle(ctx context.Context) {
	result := Result{Started: time.Now()}
	candidates := s.store.EligibleForMigration(result.Started)

	group, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(s.maxConcurrent)
	var mu sync.Mutex

	for _, c := range candidates {
		c := c
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		group.Go(func() error {
			defer sem.Release(1)
			md, _ := s.store.Metadata(c.SOPInstanceUID)
			err := s.store.MigrateOne(gctx, c.SOPInstanceUID, c.Dest)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.FailedUIDs = append(result.FailedUIDs, c.SOPInstanceUID)
				s.logger.Warn("migration failed", "sop_instance_uid", c.SOPInstanceUID, "dest", c.Dest, "error", err)
				return nil // a single instance failure does not halt the cycle
			}
			result.MigratedCount++
			result.MigratedBytes += md.SizeBytes
			return nil
		})
	}
	// group.Wait's error is always nil here: per-instance failures are
	// recorded in FailedUIDs rather than returned, so only a backend
	// connectivity error surfacing through ctx cancellation would report
	// here, and that case is already reflected in the partial counts.
	_ = group.Wait()

	result.Finished = time.Now()
	s.mu.Lock()
	s.last = result
	s.mu.Unlock()
	s.logger.Info("migration cycle complete",
		"migrated", result.MigratedCount, "failed", len(result.FailedUIDs), "duration", result.Duration())
}
