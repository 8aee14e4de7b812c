// Package scheduler runs one-shot deferred jobs identified by a unique key.
//
// At most one job exists per key. Submitting under a key that is already in
// use either replaces the existing job or keeps it, depending on the Policy.
// Stop tears the scheduler down and gives every outstanding job a chance to
// clean up through Worker.OnCancel.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/maximbilan/sensclip/internal/clock"
	"github.com/maximbilan/sensclip/internal/jobstore"
	"go.uber.org/zap"
)

// ErrStopped is returned when submitting to a scheduler that has been stopped.
var ErrStopped = errors.New("scheduler stopped")

// Status is the outcome reported by a Worker.
type Status int

const (
	Success Status = iota
	Failure
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is returned from Worker.Execute.
type Result struct {
	Status Status
	Err    error
}

// Succeeded reports a successful run.
func Succeeded() Result { return Result{Status: Success} }

// Failed reports a failed run caused by err.
func Failed(err error) Result { return Result{Status: Failure, Err: err} }

// Worker is a unit of deferred work.
type Worker interface {
	// Execute runs the job. ctx is cancelled if the job is replaced or the
	// scheduler stops while it runs.
	Execute(ctx context.Context) Result
	// OnCancel is called when the scheduler stops before the job completed,
	// and when a job is cancelled explicitly while it runs.
	OnCancel()
}

// Policy decides what happens when a key is already in use.
type Policy int

const (
	// Replace cancels the existing job and installs the new one. The delay
	// of the new job counts from the moment it is enqueued.
	Replace Policy = iota
	// Keep leaves the existing job in place and drops the new one.
	Keep
)

// Store persists pending jobs so a restarted process can re-arm them.
type Store interface {
	Save(rec jobstore.Record) error
	Load(key string) (jobstore.Record, error)
	Delete(key string) error
}

type jobState int

const (
	statePending jobState = iota
	stateRunning
)

type job struct {
	key    string
	id     string
	due    time.Time
	worker Worker
	timer  clock.Timer
	state  jobState
	cancel context.CancelFunc
	done   chan struct{}
}

// Scheduler runs keyed one-shot jobs after a delay.
type Scheduler struct {
	mu      sync.Mutex
	clock   clock.Clock
	store   Store
	logger  *zap.Logger
	jobs    map[string]*job
	stopped bool
	running sync.WaitGroup
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the time source. Defaults to clock.Real.
func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithStore enables persistence of pending jobs.
func WithStore(store Store) Option {
	return func(s *Scheduler) { s.store = store }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:  clock.Real{},
		logger: zap.NewNop(),
		jobs:   make(map[string]*job),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enqueue schedules w to run once after delay under key and returns the run
// ID of the job that ends up scheduled. A non-positive delay runs the job as
// soon as possible.
func (s *Scheduler) Enqueue(key string, delay time.Duration, policy Policy, w Worker) (string, error) {
	if key == "" {
		return "", fmt.Errorf("job key cannot be empty")
	}
	if w == nil {
		return "", fmt.Errorf("worker cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return "", ErrStopped
	}

	if existing, ok := s.jobs[key]; ok {
		if policy == Keep {
			s.logger.Debug("job kept", zap.String("key", key), zap.String("run_id", existing.id))
			return existing.id, nil
		}
		s.supersedeLocked(existing)
	}

	now := s.clock.Now()
	j := s.scheduleLocked(key, uuid.NewString(), now.Add(delay), w)
	s.saveLocked(j, now)

	s.logger.Debug("job scheduled",
		zap.String("key", key),
		zap.String("run_id", j.id),
		zap.Duration("delay", delay),
	)
	return j.id, nil
}

// Resume re-arms a job persisted by a previous process. It reports whether a
// job was re-armed. An overdue job runs as soon as possible.
func (s *Scheduler) Resume(key string, w Worker) (bool, error) {
	if w == nil {
		return false, fmt.Errorf("worker cannot be nil")
	}
	if s.store == nil {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false, ErrStopped
	}
	if _, ok := s.jobs[key]; ok {
		return false, nil
	}

	rec, err := s.store.Load(key)
	if err != nil {
		if errors.Is(err, jobstore.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load persisted job: %w", err)
	}

	id := rec.RunID
	if id == "" {
		id = uuid.NewString()
	}
	j := s.scheduleLocked(key, id, rec.DueTime(), w)

	s.logger.Info("job resumed",
		zap.String("key", key),
		zap.String("run_id", j.id),
		zap.Time("due", j.due),
	)
	return true, nil
}

// Cancel drops the job under key. A pending job is discarded without running;
// a running job has its context cancelled and its OnCancel hook called.
// It reports whether a job existed.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	j, ok := s.jobs[key]
	if !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.jobs, key)
	s.deleteLocked(key)
	j.timer.Stop()
	running := j.state == stateRunning
	if running {
		j.cancel()
	} else {
		close(j.done)
	}
	s.mu.Unlock()

	if running {
		j.worker.OnCancel()
	}
	s.logger.Debug("job cancelled", zap.String("key", key), zap.String("run_id", j.id))
	return true
}

// Pending reports whether a job under key is waiting for its delay to elapse.
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[key]
	return ok && j.state == statePending
}

// Due returns when the pending job under key is scheduled to run.
func (s *Scheduler) Due(key string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[key]
	if !ok || j.state != statePending {
		return time.Time{}, false
	}
	return j.due, true
}

// Done returns a channel closed once the current job under key has finished,
// been replaced or been cancelled. It returns nil when no job exists.
func (s *Scheduler) Done(key string) <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[key]
	if !ok {
		return nil
	}
	return j.done
}

// Stop tears the scheduler down. Every outstanding job is cancelled and its
// OnCancel hook is called; Stop then waits for running jobs to return or for
// ctx to expire. Further submissions fail with ErrStopped.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true

	jobs := make([]*job, 0, len(s.jobs))
	for key, j := range s.jobs {
		j.timer.Stop()
		if j.state == stateRunning {
			j.cancel()
		}
		s.deleteLocked(key)
		jobs = append(jobs, j)
	}
	s.jobs = make(map[string]*job)
	s.mu.Unlock()

	for _, j := range jobs {
		s.logger.Debug("job stopped", zap.String("key", j.key), zap.String("run_id", j.id))
		j.worker.OnCancel()
		if j.state == statePending {
			close(j.done)
		}
	}

	waited := make(chan struct{})
	go func() {
		s.running.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop interrupted: %w", ctx.Err())
	}
}

func (s *Scheduler) scheduleLocked(key, id string, due time.Time, w Worker) *job {
	j := &job{
		key:    key,
		id:     id,
		due:    due,
		worker: w,
		done:   make(chan struct{}),
	}
	s.jobs[key] = j
	j.timer = s.clock.AfterFunc(due.Sub(s.clock.Now()), func() { s.fire(j) })
	return j
}

// supersedeLocked removes j to make room for a replacement. OnCancel is not
// called: the replacement owns the key's side effects from now on.
func (s *Scheduler) supersedeLocked(j *job) {
	j.timer.Stop()
	delete(s.jobs, j.key)
	if j.state == stateRunning {
		j.cancel()
	} else {
		close(j.done)
	}
	s.logger.Debug("job replaced", zap.String("key", j.key), zap.String("run_id", j.id))
}

func (s *Scheduler) fire(j *job) {
	s.mu.Lock()
	if s.jobs[j.key] != j || j.state != statePending {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	j.state = stateRunning
	j.cancel = cancel
	s.running.Add(1)
	s.mu.Unlock()

	defer s.running.Done()
	defer close(j.done)
	defer cancel()

	res := j.worker.Execute(ctx)

	s.mu.Lock()
	if s.jobs[j.key] == j {
		delete(s.jobs, j.key)
		s.deleteLocked(j.key)
	}
	s.mu.Unlock()

	if res.Status == Failure {
		s.logger.Error("job failed",
			zap.String("key", j.key),
			zap.String("run_id", j.id),
			zap.Error(res.Err),
		)
		return
	}
	s.logger.Debug("job finished", zap.String("key", j.key), zap.String("run_id", j.id))
}

func (s *Scheduler) saveLocked(j *job, now time.Time) {
	if s.store == nil {
		return
	}
	rec := jobstore.Record{
		Key:     j.key,
		RunID:   j.id,
		Due:     j.due.Unix(),
		Created: now.Unix(),
	}
	if err := s.store.Save(rec); err != nil {
		// The job is armed in memory; only restart survival is lost.
		s.logger.Warn("failed to persist job", zap.String("key", j.key), zap.Error(err))
	}
}

func (s *Scheduler) deleteLocked(key string) {
	if s.store == nil {
		return
	}
	if err := s.store.Delete(key); err != nil {
		s.logger.Warn("failed to delete persisted job", zap.String("key", key), zap.Error(err))
	}
}
