// Package polling provides a resilient status-polling engine for
// long-running server-side jobs.
//
// The poller is generic over the snapshot type: callers supply a fetch
// function and a classifier that maps a snapshot to continue/completed/
// failed. Exactly one fetch is in flight at any time: the next poll is
// scheduled only after the previous fetch resolves, never on a fixed
// wall-clock timer. Transient fetch failures back off exponentially and
// become fatal after a bounded number of consecutive misses.
package polling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nwestfall/bookforge/internal/log"
)

// Outcome classifies a fetched snapshot.
type Outcome int

const (
	// OutcomeContinue means the job is still pending or running.
	OutcomeContinue Outcome = iota
	// OutcomeCompleted means the job finished successfully.
	OutcomeCompleted
	// OutcomeFailed means the job failed server-side.
	OutcomeFailed
)

// Default tuning. BaseInterval may be overridden by server-provided config.
const (
	DefaultBaseInterval = 2 * time.Second
	DefaultMaxInterval  = 15 * time.Second
	DefaultMaxFailures  = 10
	// maxBackoffShift caps the exponent so a long outage does not push the
	// delay past MaxInterval anyway.
	maxBackoffShift = 3
)

// ErrAlreadyRunning is returned by Start when a poll loop is active.
var ErrAlreadyRunning = errors.New("poller already running")

// JobFailedError reports a terminal failed status from the job itself,
// as opposed to a transport failure reaching the backend.
type JobFailedError struct {
	JobID   string
	Message string
}

// Error implements the error interface.
func (e *JobFailedError) Error() string {
	return fmt.Sprintf("job %s failed: %s", e.JobID, e.Message)
}

// FetchFunc retrieves the current job snapshot.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Config configures a Poller.
type Config[T any] struct {
	// BaseInterval is the delay between successful polls.
	// Defaults to DefaultBaseInterval.
	BaseInterval time.Duration

	// MaxInterval caps the backoff delay after failures.
	// Defaults to DefaultMaxInterval.
	MaxInterval time.Duration

	// MaxFailures is the consecutive-failure count after which polling
	// aborts with OnError. Defaults to DefaultMaxFailures.
	MaxFailures int

	// Classify maps a snapshot to an outcome. For failed outcomes the
	// returned string is the server-supplied error message.
	Classify func(T) (Outcome, string)

	// OnUpdate is called for every non-terminal snapshot.
	OnUpdate func(T)

	// OnComplete is called exactly once when the job completes.
	OnComplete func(T)

	// OnError is called exactly once when polling ends abnormally:
	// either a *JobFailedError or a fatal consecutive-failure error.
	OnError func(error)

	// Timer schedules delays (for testing). Defaults to time.After.
	Timer func(time.Duration) <-chan time.Time
}

// Poller drives the polling loop for one job at a time. A poller may be
// restarted after it halts (terminal status, fatal failure, or Stop), but
// Start while a loop is active returns ErrAlreadyRunning.
type Poller[T any] struct {
	cfg Config[T]

	mu       sync.Mutex
	running  bool
	finished bool // terminal callback fired for the current run
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates a poller with defaults applied.
func New[T any](cfg Config[T]) *Poller[T] {
	if cfg.BaseInterval <= 0 {
		cfg.BaseInterval = DefaultBaseInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = DefaultMaxInterval
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = DefaultMaxFailures
	}
	if cfg.Timer == nil {
		cfg.Timer = time.After
	}
	return &Poller[T]{cfg: cfg}
}

// Start begins polling the given job. The first fetch happens immediately;
// subsequent fetches are scheduled only after the previous one resolves.
func (p *Poller[T]) Start(ctx context.Context, jobID string, fetch FetchFunc[T]) error {
	if p.cfg.Classify == nil {
		return errors.New("polling: Classify is required")
	}

	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return ErrAlreadyRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.running = true
	p.finished = false
	p.cancel = cancel
	p.done = make(chan struct{})
	done := p.done
	p.mu.Unlock()

	log.Debug(log.CatPoll, "Polling started", "job", jobID, "interval", p.baseInterval())

	log.SafeGo("polling.loop", func() {
		defer close(done)
		defer func() {
			p.mu.Lock()
			p.running = false
			p.mu.Unlock()
		}()
		p.loop(runCtx, jobID, fetch)
	})

	return nil
}

// Stop cancels outstanding and future polls. It is idempotent and safe to
// call after natural completion. Stop must not be called from within the
// poller's own callbacks.
func (p *Poller[T]) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()

	if cancel == nil {
		return // never started
	}
	cancel()
	<-done
}

// Running reports whether a poll loop is currently active.
func (p *Poller[T]) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// SetBaseInterval changes the delay between successful polls, taking
// effect from the next scheduled poll. Non-positive values are ignored.
func (p *Poller[T]) SetBaseInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	p.cfg.BaseInterval = d
	p.mu.Unlock()
}

func (p *Poller[T]) baseInterval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg.BaseInterval
}

// loop runs fetches sequentially until a terminal outcome, fatal failure
// streak, or cancellation.
func (p *Poller[T]) loop(ctx context.Context, jobID string, fetch FetchFunc[T]) {
	failures := 0

	for {
		if ctx.Err() != nil {
			return
		}

		snapshot, err := fetch(ctx)

		// A fetch that lost the race with Stop must not fire callbacks:
		// a late response after cancellation would resurrect a discarded
		// session's state.
		if ctx.Err() != nil {
			return
		}

		var delay time.Duration
		switch {
		case err != nil:
			failures++
			if failures >= p.cfg.MaxFailures {
				log.Warn(log.CatPoll, "Polling aborted after consecutive failures", "job", jobID, "failures", failures)
				p.finish(func() {
					if p.cfg.OnError != nil {
						p.cfg.OnError(fmt.Errorf("polling job %s: giving up after %d consecutive failures: %w", jobID, failures, err))
					}
				})
				return
			}
			delay = backoffDelay(p.baseInterval(), p.cfg.MaxInterval, failures)
			log.Debug(log.CatPoll, "Poll fetch failed, backing off", "job", jobID, "failures", failures, "delay", delay)

		default:
			failures = 0
			outcome, message := p.cfg.Classify(snapshot)
			switch outcome {
			case OutcomeCompleted:
				log.Info(log.CatPoll, "Job completed", "job", jobID)
				p.finish(func() {
					if p.cfg.OnComplete != nil {
						p.cfg.OnComplete(snapshot)
					}
				})
				return
			case OutcomeFailed:
				log.Warn(log.CatPoll, "Job failed", "job", jobID, "message", message)
				p.finish(func() {
					if p.cfg.OnError != nil {
						p.cfg.OnError(&JobFailedError{JobID: jobID, Message: message})
					}
				})
				return
			default:
				if p.cfg.OnUpdate != nil {
					p.cfg.OnUpdate(snapshot)
				}
				delay = p.baseInterval()
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-p.cfg.Timer(delay):
		}
	}
}

// finish runs a terminal callback at most once per run, even if a late
// duplicate terminal response arrives.
func (p *Poller[T]) finish(callback func()) {
	p.mu.Lock()
	if p.finished {
		p.mu.Unlock()
		return
	}
	p.finished = true
	p.mu.Unlock()

	callback()
}

// backoffDelay computes the delay after the given number of consecutive
// failures: min(maxInterval, base * 2^min(failures, maxBackoffShift)).
func backoffDelay(base, maxInterval time.Duration, failures int) time.Duration {
	shift := failures
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	delay := base << uint(shift)
	if delay > maxInterval {
		delay = maxInterval
	}
	return delay
}
