// Package scheduler runs named daily, weekly and one-time tasks. Every task
// is polled by its own gocron job; the poll decides whether the task is due
// and remembers which (task, date) pairs already ran.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/commitly/commitlybot/internal/logger"
)

var (
	// ErrDuplicateTask is returned when a task name is registered twice.
	ErrDuplicateTask = errors.New("task already registered")
	// ErrInvalidTask is returned for an empty name, nil action or bad time.
	ErrInvalidTask = errors.New("invalid task")
	// ErrAlreadyRunning is returned by Start on a running scheduler.
	ErrAlreadyRunning = errors.New("scheduler is already running")
	// ErrTaskPanicked wraps a recovered panic from an action.
	ErrTaskPanicked = errors.New("task panicked")
)

// CompletionStore durably records finished one-shot tasks.
type CompletionStore interface {
	Completed(ctx context.Context, key string) (bool, error)
	MarkCompleted(ctx context.Context, key string, at time.Time) error
}

// Options configure a Scheduler.
type Options struct {
	Clock        clockwork.Clock
	Location     *time.Location
	PollInterval time.Duration
	// Completions persists one-shot runs. Nil keeps them in memory only.
	Completions CompletionStore
	Logger      *slog.Logger
}

type runMarker struct {
	name string
	date string
}

// Scheduler owns the task table and the run markers.
type Scheduler struct {
	clock       clockwork.Clock
	loc         *time.Location
	interval    time.Duration
	completions CompletionStore
	log         *slog.Logger
	cron        gocron.Scheduler

	mu      sync.Mutex
	tasks   []*Task
	markers map[runMarker]struct{}
	jobs    map[string]uuid.UUID
	ctx     context.Context

	running atomic.Bool
}

// New creates a stopped Scheduler.
func New(opts Options) (*Scheduler, error) {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}

	cron, err := gocron.NewScheduler(
		gocron.WithClock(opts.Clock),
		gocron.WithLocation(opts.Location),
		gocron.WithLogger(logger.NewGocronLogger(opts.Logger)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		clock:       opts.Clock,
		loc:         opts.Location,
		interval:    opts.PollInterval,
		completions: opts.Completions,
		log:         opts.Logger.With("component", "scheduler"),
		cron:        cron,
		markers:     make(map[runMarker]struct{}),
		jobs:        make(map[string]uuid.UUID),
	}, nil
}

// AddDailyTask registers a Recurring task firing once per day at or after
// at, on the given weekdays only when any are given.
func (s *Scheduler) AddDailyTask(name string, action Action, at TimeOfDay, weekdays ...time.Weekday) error {
	if !at.valid() {
		return fmt.Errorf("%w: %s: time %s out of range", ErrInvalidTask, name, at)
	}
	days := slices.Clone(weekdays)
	slices.Sort(days)
	return s.add(&Task{
		Name:     name,
		Kind:     Recurring,
		Action:   action,
		At:       at,
		Weekdays: slices.Compact(days),
	})
}

// AddOneTimeTask registers a OneShot task firing once at or after when.
func (s *Scheduler) AddOneTimeTask(name string, action Action, when time.Time) error {
	if when.IsZero() {
		return fmt.Errorf("%w: %s: zero time", ErrInvalidTask, name)
	}
	return s.add(&Task{Name: name, Kind: OneShot, Action: action, When: when})
}

func (s *Scheduler) add(t *Task) error {
	if t.Name == "" || t.Action == nil {
		return fmt.Errorf("%w: name and action are required", ErrInvalidTask)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.tasks {
		if existing.Name == t.Name {
			return fmt.Errorf("%w: %s", ErrDuplicateTask, t.Name)
		}
	}
	s.tasks = append(s.tasks, t)

	if s.running.Load() {
		if err := s.scheduleLocked(s.ctx, t); err != nil {
			return err
		}
	}
	s.log.Info("Registered task", "task_name", t.Name, "kind", t.Kind, "trigger", t.Describe())
	return nil
}

// Start creates one polling job per task and starts gocron. ctx is passed
// to every action; cancel it or call Stop to end the loops.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return ErrAlreadyRunning
	}
	s.ctx = ctx
	s.running.Store(true)

	if len(s.tasks) == 0 {
		s.log.Warn("No scheduler tasks registered")
	}
	for _, t := range s.tasks {
		if err := s.scheduleLocked(ctx, t); err != nil {
			s.running.Store(false)
			return err
		}
	}

	s.cron.Start()
	s.log.Info("Scheduler started",
		"tasks", len(s.tasks),
		"poll_interval", s.interval,
		"timezone", s.loc.String())
	return nil
}

func (s *Scheduler) scheduleLocked(ctx context.Context, t *Task) error {
	job, err := s.cron.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.poll, ctx, t),
		gocron.WithName(t.Name),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule task %s: %w", t.Name, err)
	}
	s.jobs[t.Name] = job.ID()
	return nil
}

// Stop clears the running flag and shuts gocron down, waiting for actions
// in flight.
func (s *Scheduler) Stop() error {
	if !s.running.Swap(false) {
		s.log.Debug("Scheduler is not running, nothing to stop")
		return nil
	}

	s.log.Debug("Stopping scheduler gracefully (waiting for jobs)...")
	if err := s.cron.Shutdown(); err != nil {
		s.log.Error("Error during scheduler shutdown", "error", err)
		return fmt.Errorf("failed to shut down scheduler: %w", err)
	}
	s.log.Info("Scheduler stopped")
	return nil
}

// poll is one tick of a task's loop.
func (s *Scheduler) poll(ctx context.Context, t *Task) {
	if !s.running.Load() || ctx.Err() != nil {
		return
	}

	now := s.clock.Now().In(s.loc)
	switch t.Kind {
	case Recurring:
		s.pollRecurring(ctx, t, now)
	case OneShot:
		s.pollOneShot(ctx, t, now)
	}
}

func (s *Scheduler) pollRecurring(ctx context.Context, t *Task, now time.Time) {
	if !t.runsOn(now.Weekday()) || !t.At.reachedBy(now) {
		return
	}
	marker := runMarker{name: t.Name, date: now.Format(time.DateOnly)}
	if s.hasMarker(marker) {
		return
	}
	if err := s.run(ctx, t); err != nil {
		return
	}
	s.setMarker(marker)
}

func (s *Scheduler) pollOneShot(ctx context.Context, t *Task, now time.Time) {
	if now.Before(t.When) {
		return
	}
	marker := runMarker{name: t.Name, date: t.When.Format(time.RFC3339)}
	log := s.log.With("task_name", t.Name)
	key := t.CompletionKey()

	// The job outlives the run only while its completion is unrecorded.
	if s.hasMarker(marker) {
		s.recordCompletion(ctx, log, t, key)
		return
	}

	if s.completions != nil {
		done, err := s.completions.Completed(ctx, key)
		if err != nil {
			log.ErrorContext(ctx, "Failed to read one-shot completion, will retry", "error", err)
			return
		}
		if done {
			log.InfoContext(ctx, "One-shot task already completed", "key", key)
			s.setMarker(marker)
			s.retire(t.Name)
			return
		}
	}

	if err := s.run(ctx, t); err != nil {
		return
	}
	s.setMarker(marker)
	s.recordCompletion(ctx, log, t, key)
}

// recordCompletion stores the completion of a one-shot and retires its job.
// On failure the job is kept so the next poll records it without running
// the action again.
func (s *Scheduler) recordCompletion(ctx context.Context, log *slog.Logger, t *Task, key string) {
	if s.completions != nil {
		if err := s.completions.MarkCompleted(ctx, key, s.clock.Now()); err != nil {
			log.ErrorContext(ctx, "Failed to record one-shot completion, will retry on next poll", "key", key, "error", err)
			return
		}
	}
	s.retire(t.Name)
}

// retire removes the gocron job of a finished one-shot task. The removal
// runs on its own goroutine because it is requested from inside the job.
func (s *Scheduler) retire(name string) {
	s.mu.Lock()
	id, ok := s.jobs[name]
	delete(s.jobs, name)
	s.mu.Unlock()
	if !ok {
		return
	}

	go func() {
		if err := s.cron.RemoveJob(id); err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
			s.log.Warn("Failed to remove finished job", "task_name", name, "error", err)
		}
	}()
}

func (s *Scheduler) run(ctx context.Context, t *Task) (err error) {
	log := s.log.With("task_name", t.Name)
	log.InfoContext(ctx, "Running scheduled task")
	start := s.clock.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
		}
		if err != nil {
			log.ErrorContext(ctx, "Scheduled task failed, will retry on next poll", "error", err)
			return
		}
		log.InfoContext(ctx, "Finished scheduled task", "duration", s.clock.Since(start))
	}()

	return t.Action(ctx)
}

func (s *Scheduler) hasMarker(m runMarker) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.markers[m]
	return ok
}

func (s *Scheduler) setMarker(m runMarker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[m] = struct{}{}
}
