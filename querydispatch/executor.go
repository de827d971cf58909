// Package querydispatch implements the parallel query executor: a
// bounded worker pool that runs a batch of C-FIND query_requests
// concurrently, preserving input order in the result slice, reporting
// each request's outcome (succeeded, failed, timed_out, cancelled) in
// its Result and counting executed, succeeded, failed, timed_out and
// in-progress requests through Prometheus metrics.
package querydispatch

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/caio-sobreiro/pacs/dicom"
	"github.com/caio-sobreiro/pacs/types"
)

// Request is one query_request: the level and keys to search, the
// calling AE and query ID it was submitted under, its dispatch
// priority, and an optional per-query timeout (zero means none).
type Request struct {
	Level     types.QueryLevel
	Keys      *types.QueryRequest
	CallingAE string
	QueryID   string
	Priority  types.QueryPriority
	Timeout   time.Duration
}

// Result carries one Request's outcome. Exactly one of Matches, Err
// being set, TimedOut or Cancelled being true describes the outcome;
// a request that neither timed out, was cancelled, nor errored
// succeeded with Matches (which may be empty).
type Result struct {
	QueryID   string
	Matches   []*dicom.DataSet
	TimedOut  bool
	Cancelled bool
	Err       error
}

// RunFunc executes a single query_request and returns its matches.
// Implementations must respect ctx cancellation so CancelAll and
// per-request timeouts can take effect between row batches.
type RunFunc func(ctx context.Context, req Request) ([]*dicom.DataSet, error)

// Executor runs query_requests with bounded concurrency, reporting
// executed/succeeded/failed/timed_out/in_progress through a
// prometheus.Collector.
type Executor struct {
	maxConcurrent int64
	run           RunFunc
	metrics       *metrics

	mu       sync.Mutex
	cancelFn context.CancelFunc
}

// New builds an executor bounded to maxConcurrent concurrent queries,
// dispatching each request to run. A maxConcurrent <= 0 defaults to 4.
func New(maxConcurrent int, run RunFunc) *Executor {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Executor{
		maxConcurrent: int64(maxConcurrent),
		run:           run,
		metrics:       newMetrics(),
	}
}

// Describe implements prometheus.Collector.
func (e *Executor) Describe(ch chan<- *prometheus.Desc) { e.metrics.Describe(ch) }

// Collect implements prometheus.Collector.
func (e *Executor) Collect(ch chan<- prometheus.Metric) { e.metrics.Collect(ch) }

// CancelAll atomically signals every in-flight Dispatch call on this
// executor to stop; queries check the derived context at each row
// batch boundary and report Cancelled=true.
func (e *Executor) CancelAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancelFn != nil {
		e.cancelFn()
	}
}

// Dispatch runs requests with bounded concurrency and returns one
// Result per request, in the same order requests were given
// (regardless of completion order or the priority-based run order).
// Ties in Priority keep submission order (stable sort). Dispatch
// blocks until every request has completed, been cancelled, or timed
// out — the destructor-joins-workers semantics of a scoped executor.
func (e *Executor) Dispatch(ctx context.Context, requests []Request) []Result {
	masterCtx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancelFn = cancel
	e.mu.Unlock()
	defer cancel()

	order := make([]int, len(requests))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return requests[order[i]].Priority > requests[order[j]].Priority
	})

	results := make([]Result, len(requests))
	group, gctx := errgroup.WithContext(masterCtx)
	sem := semaphore.NewWeighted(e.maxConcurrent)

	for _, idx := range order {
		idx := idx
		req := requests[idx]
		if err := sem.Acquire(gctx, 1); err != nil {
			// Only fails if gctx is already done (e.g. CancelAll before
			// dispatch); every unscheduled request reports Cancelled.
			results[idx] = Result{QueryID: req.QueryID, Cancelled: true}
			continue
		}
		group.Go(func() error {
			defer sem.Release(1)
			results[idx] = e.runOne(masterCtx, req)
			return nil // per-request failures never halt the batch
		})
	}
	_ = group.Wait()

	return results
}

func (e *Executor) runOne(masterCtx context.Context, req Request) Result {
	level := string(req.Level)
	e.metrics.executed.WithLabelValues(level).Inc()
	e.metrics.inProgress.WithLabelValues(level).Inc()
	defer e.metrics.inProgress.WithLabelValues(level).Dec()

	runCtx := masterCtx
	if req.Timeout > 0 {
		var queryCancel context.CancelFunc
		runCtx, queryCancel = context.WithTimeout(masterCtx, req.Timeout)
		defer queryCancel()
	}

	matches, err := e.run(runCtx, req)

	switch {
	case runCtx.Err() == context.DeadlineExceeded:
		e.metrics.timedOut.WithLabelValues(level).Inc()
		return Result{QueryID: req.QueryID, TimedOut: true}
	case masterCtx.Err() != nil:
		return Result{QueryID: req.QueryID, Cancelled: true}
	case err != nil:
		e.metrics.failed.WithLabelValues(level).Inc()
		return Result{QueryID: req.QueryID, Err: err}
	default:
		e.metrics.succeeded.WithLabelValues(level).Inc()
		return Result{QueryID: req.QueryID, Matches: matches}
	}
}
