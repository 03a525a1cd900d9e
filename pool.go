package quadbench

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultShutdownTimeout bounds how long Close waits for in-flight work
// before forcing cancellation.
const DefaultShutdownTimeout = 60 * time.Second

// PoolState represents pool lifecycle states.
type PoolState uint32

const (
	PoolStateRunning PoolState = iota
	PoolStateDraining
	PoolStateStopped
)

func (s PoolState) String() string {
	switch s {
	case PoolStateRunning:
		return "running"
	case PoolStateDraining:
		return "draining"
	case PoolStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Pool is a fixed-size fork/join worker pool.
//
// Work is handed to workers through a bounded queue. A forked job that no
// worker has picked up yet is reclaimed and run inline by the goroutine that
// joins it, so a worker blocked in join only ever waits on a job that is
// actually running somewhere. That keeps recursive fan-out deadlock-free with
// any number of workers, including one.
type Pool struct {
	workers         int
	queue           chan *future
	quit            chan struct{}
	state           atomic.Uint32
	cancelled       atomic.Bool
	wg              sync.WaitGroup
	shutdownOnce    sync.Once
	shutdownTimeout time.Duration
	logger          *slog.Logger
	metrics         *Metrics
}

// PoolOption configures a Pool.
type PoolOption func(*poolConfig)

type poolConfig struct {
	queueSize       int
	shutdownTimeout time.Duration
	logger          *slog.Logger
	metrics         *Metrics
}

// WithLogger sets the logger used for lifecycle events (default slog.Default()).
func WithLogger(l *slog.Logger) PoolOption {
	return func(c *poolConfig) { c.logger = l }
}

// WithMetrics records pool and integration activity into m.
func WithMetrics(m *Metrics) PoolOption {
	return func(c *poolConfig) { c.metrics = m }
}

// WithQueueSize sets the capacity of the shared job queue.
// Forks that do not fit are run by their joiner instead.
func WithQueueSize(n int) PoolOption {
	return func(c *poolConfig) { c.queueSize = n }
}

// WithShutdownTimeout sets the bounded wait used by Close.
func WithShutdownTimeout(d time.Duration) PoolOption {
	return func(c *poolConfig) { c.shutdownTimeout = d }
}

// NewPool starts a pool with exactly workers goroutines.
func NewPool(workers int, opts ...PoolOption) (*Pool, error) {
	if workers <= 0 {
		return nil, invalidArgument("parallelism must be positive, got %d", workers)
	}

	cfg := poolConfig{
		queueSize:       workers * 16,
		shutdownTimeout: DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.queueSize <= 0 {
		return nil, invalidArgument("queue size must be positive, got %d", cfg.queueSize)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	p := &Pool{
		workers:         workers,
		queue:           make(chan *future, cfg.queueSize),
		quit:            make(chan struct{}),
		shutdownTimeout: cfg.shutdownTimeout,
		logger:          cfg.logger,
		metrics:         cfg.metrics,
	}
	p.state.Store(uint32(PoolStateRunning))

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	p.logger.Debug("pool started", "workers", workers, "queue", cfg.queueSize)
	return p, nil
}

var ambient struct {
	once sync.Once
	pool *Pool
}

// AmbientPool returns the process-wide pool shared by Integrate.
// It is created on first use with runtime.GOMAXPROCS(0) workers and is never
// shut down.
func AmbientPool() *Pool {
	ambient.once.Do(func() {
		// GOMAXPROCS is always >= 1, so NewPool cannot fail here.
		ambient.pool, _ = NewPool(runtime.GOMAXPROCS(0))
	})
	return ambient.pool
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int { return p.workers }

// State returns the current lifecycle state.
func (p *Pool) State() PoolState { return PoolState(p.state.Load()) }

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case fut := <-p.queue:
			fut.tryRun()
		case <-p.quit:
			return
		}
	}
}

// Close shuts the pool down using its configured timeout.
func (p *Pool) Close() error {
	p.Shutdown(p.shutdownTimeout)
	return nil
}

// Shutdown stops accepting new work, waits up to timeout for the workers to
// finish their current jobs and then forces cancellation of anything still
// running. It reports whether the pool drained gracefully. Jobs still queued
// are left to their joiners, which run them inline.
//
// Shutdown is idempotent; only the first call waits.
func (p *Pool) Shutdown(timeout time.Duration) (graceful bool) {
	graceful = true
	p.shutdownOnce.Do(func() {
		p.state.Store(uint32(PoolStateDraining))
		close(p.quit)

		drained := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(drained)
		}()

		timer := time.NewTimer(timeout)
		defer timer.Stop()

		select {
		case <-drained:
			p.logger.Debug("pool stopped", "workers", p.workers)
		case <-timer.C:
			graceful = false
			p.cancelled.Store(true)
			p.logger.Warn("pool shutdown timed out, cancelling in-flight work",
				"workers", p.workers, "timeout", timeout)
		}
		p.state.Store(uint32(PoolStateStopped))
	})
	return graceful
}

// fork offers job to the workers. The returned future must be joined.
func (p *Pool) fork(job func() (float64, error)) *future {
	fut := newFuture(job)
	p.metrics.fork()
	if p.State() != PoolStateRunning {
		return fut
	}
	select {
	case p.queue <- fut:
	default:
		// Queue full: leave it pending, join runs it.
	}
	return fut
}

// join waits for fut, running it inline if no worker has claimed it yet.
func (p *Pool) join(fut *future) (float64, error) {
	if fut.tryRun() {
		p.metrics.reclaim()
	}
	<-fut.done
	return fut.value, fut.err
}

// submit runs a root job on the pool and blocks until it completes or ctx is
// cancelled. On cancellation the job's tree is aborted and submit still waits
// for the job to unwind, so no worker touches caller data after return.
func (p *Pool) submit(ctx context.Context, tr *tree, job func() (float64, error)) (float64, error) {
	if p.State() != PoolStateRunning {
		return 0, ErrPoolShutdown
	}

	fut := newFuture(job)
	select {
	case p.queue <- fut:
	default:
		fut.tryRun()
	}

	quit := p.quit
	for {
		select {
		case <-fut.done:
			return fut.value, fut.err
		case <-ctx.Done():
			tr.abort(interrupted(ctx.Err()))
			fut.cancel(tr.cause())
			<-fut.done
			return fut.value, fut.err
		case <-quit:
			// Workers are exiting; make sure the root is not stranded in the queue.
			fut.tryRun()
			quit = nil
		}
	}
}

const (
	futurePending int32 = iota
	futureRunning
	futureDone
)

type future struct {
	job   func() (float64, error)
	state atomic.Int32
	done  chan struct{}
	value float64
	err   error
}

func newFuture(job func() (float64, error)) *future {
	return &future{job: job, done: make(chan struct{})}
}

// tryRun claims and runs the job. It returns false if someone else already
// claimed it.
func (f *future) tryRun() (claimed bool) {
	if !f.state.CompareAndSwap(futurePending, futureRunning) {
		return false
	}
	claimed = true
	defer func() {
		if r := recover(); r != nil {
			f.value, f.err = 0, newPanicError(r)
		}
		f.state.Store(futureDone)
		close(f.done)
	}()
	f.value, f.err = f.job()
	return claimed
}

// cancel completes a still-pending future with err.
func (f *future) cancel(err error) bool {
	if !f.state.CompareAndSwap(futurePending, futureDone) {
		return false
	}
	f.err = err
	close(f.done)
	return true
}

// tree is the shared state of one integration: every task forked from the same
// root checks it so that a failure anywhere stops the remaining work.
type tree struct {
	ctx     context.Context
	pool    *Pool
	aborted atomic.Bool
	mu      sync.Mutex
	first   error
}

func newTree(ctx context.Context, p *Pool) *tree {
	return &tree{ctx: ctx, pool: p}
}

func (t *tree) abort(err error) {
	t.mu.Lock()
	if t.first == nil {
		t.first = err
	}
	t.mu.Unlock()
	t.aborted.Store(true)
}

func (t *tree) cause() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.first
}

// check returns the abort cause, if any. It is cheap enough to call at every
// split and periodically inside sequential passes.
func (t *tree) check() error {
	if t.aborted.Load() {
		return t.cause()
	}
	if t.pool.cancelled.Load() {
		t.abort(interrupted(ErrPoolShutdown))
		return t.cause()
	}
	if err := t.ctx.Err(); err != nil {
		t.abort(interrupted(err))
		return t.cause()
	}
	return nil
}
