// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package schedule runs case extractions with bounded concurrency. Cases
// start in submission order; a fixed number run at once and the rest wait
// in a FIFO queue. Request pacing against the external API is applied per
// start, not per queue admission.
package schedule

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/apeiro/ace/internal/cases"
	"github.com/apeiro/ace/pkg/types"
)

// Worker processes one case end to end and returns its extracted record.
type Worker interface {
	Process(ctx context.Context, c types.CaseRecord) (*types.ExtractedMetadata, error)
}

// WorkerFunc adapts a function to the Worker interface.
type WorkerFunc func(ctx context.Context, c types.CaseRecord) (*types.ExtractedMetadata, error)

func (f WorkerFunc) Process(ctx context.Context, c types.CaseRecord) (*types.ExtractedMetadata, error) {
	return f(ctx, c)
}

// Options configures a Scheduler.
type Options struct {
	// Concurrency is the number of cases processed at once. Defaults to 2.
	Concurrency int

	// RatePerSecond paces case starts against the external API's limit.
	// Zero means unpaced.
	RatePerSecond float64

	Logger zerolog.Logger
}

// Scheduler owns the processing queue for one session. The queue and the
// in-flight count only change together under one mutex; capacity checks
// happen at exactly two points, enqueue and worker completion, so no start
// can be lost and the limit can never be exceeded.
type Scheduler struct {
	mgr     *cases.Manager
	worker  Worker
	limiter *rate.Limiter
	limit   int
	logger  zerolog.Logger
	ctx     context.Context

	mu       sync.Mutex
	queue    []string
	inFlight int
	done     chan struct{}
	finished bool
}

// New returns a Scheduler bound to ctx for the lifetime of the session.
// Cancelling ctx fails queued work as it starts; in-flight extractions are
// not interrupted beyond what the API client honors.
func New(ctx context.Context, mgr *cases.Manager, worker Worker, opts Options) *Scheduler {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = 2
	}
	pace := rate.Inf
	if opts.RatePerSecond > 0 {
		pace = rate.Limit(opts.RatePerSecond)
	}
	return &Scheduler{
		mgr:     mgr,
		worker:  worker,
		limiter: rate.NewLimiter(pace, 1),
		limit:   limit,
		logger:  opts.Logger,
		ctx:     ctx,
		done:    make(chan struct{}),
	}
}

// Enqueue appends one case to the queue. Callers are responsible for not
// enqueueing a case twice while it is still queued or running.
func (s *Scheduler) Enqueue(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, id)
	s.startLocked()
}

// EnqueuePending enqueues every case currently idle or errored, in case
// order, and returns how many were added.
func (s *Scheduler) EnqueuePending() int {
	ids := s.mgr.Pending()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, ids...)
	s.startLocked()
	return len(ids)
}

// startLocked launches queued cases while capacity remains. Callers hold mu.
func (s *Scheduler) startLocked() {
	for s.inFlight < s.limit && len(s.queue) > 0 {
		id := s.queue[0]
		s.queue = s.queue[1:]
		s.inFlight++
		go s.run(id)
	}
}

func (s *Scheduler) run(id string) {
	defer s.finish()

	if err := s.mgr.Begin(id); err != nil {
		s.logger.Error().Str("case", id).Err(err).Msg("cannot start case")
		return
	}

	if err := s.limiter.Wait(s.ctx); err != nil {
		s.fail(id, err)
		return
	}

	c, err := s.mgr.Get(id)
	if err != nil {
		s.logger.Error().Str("case", id).Err(err).Msg("case vanished after start")
		return
	}

	s.logger.Info().Str("case", id).Msg("processing")
	meta, err := s.worker.Process(s.ctx, c)
	if err != nil {
		s.fail(id, err)
		return
	}

	if err := s.mgr.Complete(id, meta); err != nil {
		s.logger.Error().Str("case", id).Err(err).Msg("cannot record completion")
		return
	}
	s.logger.Info().Str("case", id).Str("paper", meta.PaperID).Msg("extracted")
}

// fail records an error outcome. A failed case never stalls the queue.
func (s *Scheduler) fail(id string, cause error) {
	s.logger.Warn().Str("case", id).Err(cause).Msg("case failed")
	if err := s.mgr.Fail(id, cause); err != nil {
		s.logger.Error().Str("case", id).Err(err).Msg("cannot record failure")
	}
}

// finish releases the worker slot, pulls the next queued case, and latches
// the done signal once the session has drained.
func (s *Scheduler) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--
	s.startLocked()
	if !s.finished && s.inFlight == 0 && len(s.queue) == 0 && s.mgr.AnyFinished() {
		s.finished = true
		close(s.done)
	}
}

// Done is closed once the queue is empty, nothing is in flight, and at
// least one case reached a terminal status. The signal latches; a drained
// scheduler stays done.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Finished reports whether the session has drained.
func (s *Scheduler) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// Wait blocks until the session drains or ctx expires.
func (s *Scheduler) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InFlight reports how many cases are currently processing.
func (s *Scheduler) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}
