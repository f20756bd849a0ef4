package concurrent

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

const (
	// handoffRetryCount is the number of immediate hand-off retries before
	// the executor starts sleeping between attempts.
	handoffRetryCount = 2

	// handoffRetrySleep is the delay between hand-off retries once the
	// immediate retries are exhausted.
	handoffRetrySleep = 100 * time.Millisecond
)

var (
	// ErrExecutorClosed indicates the executor no longer accepts tasks
	ErrExecutorClosed = errors.New("executor is closed")

	// ErrHandoffRejected indicates no worker could take the task right away.
	// It is transient and never escapes Execute.
	ErrHandoffRejected = errors.New("worker hand-off rejected")
)

// BoundedExecutorConfig defines configuration for BoundedExecutor
type BoundedExecutorConfig struct {
	// CorePoolSize is the number of workers kept alive while idle
	CorePoolSize int

	// MaxPoolSize is the worker cap; it is also the admission permit count
	MaxPoolSize int

	// KeepAlive is how long an idle worker above CorePoolSize lingers
	// before exiting
	KeepAlive time.Duration

	// Clock for time operations (optional, defaults to real clock)
	Clock Clock

	// PanicHandler observes recovered task panics (optional)
	PanicHandler func(recovered any)

	// Factory names worker goroutines (optional)
	Factory *GoroutineFactory
}

// DefaultBoundedExecutorConfig returns default configuration
func DefaultBoundedExecutorConfig() *BoundedExecutorConfig {
	return &BoundedExecutorConfig{
		CorePoolSize: 2,
		MaxPoolSize:  runtime.NumCPU() * 2,
		KeepAlive:    60 * time.Second,
		Clock:        NewRealClock(),
	}
}

// BoundedExecutor runs tasks on a bounded pool of workers and throttles
// admission with a counting permit pool sized to MaxPoolSize. Execute blocks
// when all permits are taken, so at most MaxPoolSize tasks are queued or
// running at any time. Hand-off to workers is direct: there is no internal
// task queue, the permit pool is the sole admission-control mechanism.
type BoundedExecutor struct {
	config  *BoundedExecutorConfig
	permits *semaphore.Weighted
	handoff chan func()
	quit    chan struct{}

	workers  atomic.Int32
	inFlight atomic.Int32
	wg       sync.WaitGroup

	closeOnce sync.Once
	closed    atomic.Bool
}

// NewBoundedExecutor creates a new bounded executor and starts its core
// workers.
func NewBoundedExecutor(config *BoundedExecutorConfig) (*BoundedExecutor, error) {
	if config == nil {
		config = DefaultBoundedExecutorConfig()
	}

	if config.CorePoolSize <= 0 {
		return nil, fmt.Errorf("core pool size must be positive, got %d", config.CorePoolSize)
	}
	if config.MaxPoolSize < config.CorePoolSize {
		return nil, fmt.Errorf("max pool size (%d) must be >= core pool size (%d)",
			config.MaxPoolSize, config.CorePoolSize)
	}
	if config.KeepAlive <= 0 {
		return nil, fmt.Errorf("keep-alive must be positive, got %v", config.KeepAlive)
	}

	if config.Clock == nil {
		config.Clock = NewRealClock()
	}
	if config.Factory == nil {
		config.Factory = NewGoroutineFactory("bounded-executor")
	}

	e := &BoundedExecutor{
		config:  config,
		permits: semaphore.NewWeighted(int64(config.MaxPoolSize)),
		handoff: make(chan func()),
		quit:    make(chan struct{}),
	}

	for i := 0; i < config.CorePoolSize; i++ {
		e.workers.Add(1)
		e.wg.Add(1)
		e.config.Factory.Go(func() { e.worker(true) })
	}

	return e, nil
}

// Execute blocks the caller until an admission permit is available, then
// hands task to a worker. It returns once the task has been accepted for
// execution, not once it completes.
//
// A hand-off can be transiently rejected when no worker is free at the exact
// moment of submission even though a permit was held (a benign race between
// permit release and worker availability). Rejections are retried until the
// hand-off succeeds: the first retries are immediate, later ones sleep
// between attempts. Any non-transient failure releases the held permit and
// is returned; the task is then considered never accepted.
func (e *BoundedExecutor) Execute(task func()) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}
	if e.closed.Load() {
		return ErrExecutorClosed
	}

	// Acquire cannot fail with a background context.
	_ = e.permits.Acquire(context.Background(), 1)
	e.inFlight.Add(1)

	wrapped := func() {
		defer e.releasePermit()
		defer func() {
			if r := recover(); r != nil {
				if h := e.config.PanicHandler; h != nil {
					h(r)
				}
			}
		}()
		task()
	}

	for attempt := 0; ; attempt++ {
		err := e.tryHandoff(wrapped)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrHandoffRejected) {
			// Task was never accepted; give the permit back.
			e.releasePermit()
			return err
		}
		if attempt >= handoffRetryCount {
			e.config.Clock.Sleep(handoffRetrySleep)
		}
	}
}

// tryHandoff makes a single non-blocking attempt to place task on a worker,
// growing the pool first when below the cap. A fresh worker may not have
// reached its receive yet, so the attempt can still miss; the caller's retry
// loop absorbs that race.
func (e *BoundedExecutor) tryHandoff(task func()) error {
	select {
	case <-e.quit:
		return ErrExecutorClosed
	default:
	}

	select {
	case e.handoff <- task:
		return nil
	default:
	}

	e.spawnWorker()

	select {
	case e.handoff <- task:
		return nil
	case <-e.quit:
		return ErrExecutorClosed
	default:
		return ErrHandoffRejected
	}
}

// spawnWorker starts one additional worker unless the pool is at MaxPoolSize.
func (e *BoundedExecutor) spawnWorker() bool {
	for {
		n := e.workers.Load()
		if n >= int32(e.config.MaxPoolSize) {
			return false
		}
		if e.workers.CompareAndSwap(n, n+1) {
			e.wg.Add(1)
			e.config.Factory.Go(func() { e.worker(false) })
			return true
		}
	}
}

// worker receives tasks from the hand-off channel. Non-core workers retire
// after KeepAlive without work, provided the pool stays above CorePoolSize.
func (e *BoundedExecutor) worker(core bool) {
	defer e.wg.Done()

	idle := e.config.Clock.NewTimer(e.config.KeepAlive)
	defer idle.Stop()

	for {
		select {
		case <-e.quit:
			e.workers.Add(-1)
			return
		case task := <-e.handoff:
			task()
			if !idle.Stop() {
				select {
				case <-idle.C():
				default:
				}
			}
			idle.Reset(e.config.KeepAlive)
		case <-idle.C():
			if !core && e.tryRetire() {
				return
			}
			idle.Reset(e.config.KeepAlive)
		}
	}
}

// tryRetire decrements the worker count unless that would drop the pool
// below CorePoolSize.
func (e *BoundedExecutor) tryRetire() bool {
	for {
		n := e.workers.Load()
		if n <= int32(e.config.CorePoolSize) {
			return false
		}
		if e.workers.CompareAndSwap(n, n-1) {
			return true
		}
	}
}

// releasePermit returns one admission permit. It is called exactly once per
// acquired permit: by the completion wrapper when the task was accepted, or
// by Execute when submission failed.
func (e *BoundedExecutor) releasePermit() {
	e.inFlight.Add(-1)
	e.permits.Release(1)
}

// Close stops intake and waits for accepted tasks and workers to finish.
// Subsequent Execute calls return ErrExecutorClosed.
func (e *BoundedExecutor) Close() error {
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		close(e.quit)
	})
	e.wg.Wait()
	return nil
}

// IsClosed reports whether Close has been called.
func (e *BoundedExecutor) IsClosed() bool {
	return e.closed.Load()
}

// MaxConcurrency returns the admission permit count.
func (e *BoundedExecutor) MaxConcurrency() int {
	return e.config.MaxPoolSize
}

// InFlight returns the number of tasks currently holding a permit, i.e.
// accepted-or-submitting but not yet finished.
func (e *BoundedExecutor) InFlight() int {
	return int(e.inFlight.Load())
}

// WorkerCount returns the current number of live workers.
func (e *BoundedExecutor) WorkerCount() int {
	return int(e.workers.Load())
}
