package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/commitly/commitlybot/internal/config"
	"github.com/commitly/commitlybot/internal/scheduler"
)

// ScheduledTaskFunc defines the standard signature for all scheduled tasks.
// A returned error makes the scheduler retry on its next poll.
type ScheduledTaskFunc func(ctx context.Context) error

// Task names, also used as keys of scheduler.tasks in the config.
const (
	DailyMotivation      = "daily_motivation"
	MeetingPrepReminder  = "meeting_prep_reminder"
	MeetingStartReminder = "meeting_start_reminder"
	SchedulerCheck       = "test_scheduled"
)

// Definition is one row of the task table.
type Definition struct {
	Name     string
	Func     ScheduledTaskFunc
	At       scheduler.TimeOfDay
	Weekdays []time.Weekday
	// When is set for one-shot tasks only.
	When time.Time
}

// OneShot reports whether the definition is a one-time task.
func (d Definition) OneShot() bool {
	return !d.When.IsZero()
}

// TaskScheduler is the part of the scheduler the task table needs.
type TaskScheduler interface {
	AddDailyTask(name string, action scheduler.Action, at scheduler.TimeOfDay, weekdays ...time.Weekday) error
	AddOneTimeTask(name string, action scheduler.Action, when time.Time) error
}

// RegisterAllTasks returns the task table after applying the overrides in
// scheduler.tasks. Disabled tasks are left out.
func RegisterAllTasks(deps TaskDeps) ([]Definition, error) {
	log := deps.Logger.With("component", "tasks")

	defaults := []Definition{
		{
			Name: DailyMotivation,
			Func: newDailyMotivationTask(deps),
			At:   scheduler.TimeOfDay{Hour: 19, Minute: 30},
		},
		{
			Name:     MeetingPrepReminder,
			Func:     newMeetingPrepTask(deps),
			At:       scheduler.TimeOfDay{Hour: 19, Minute: 32},
			Weekdays: []time.Weekday{time.Tuesday},
		},
		{
			Name:     MeetingStartReminder,
			Func:     newMeetingStartTask(deps),
			At:       scheduler.TimeOfDay{Hour: 18, Minute: 50},
			Weekdays: []time.Weekday{time.Thursday},
		},
	}
	if delay := deps.Config.Scheduler.TestTaskDelay; delay > 0 {
		defaults = append(defaults, Definition{
			Name: SchedulerCheck,
			Func: newSchedulerCheckTask(deps),
			When: deps.Clock.Now().Add(delay).Truncate(time.Second),
		})
	}

	defs := make([]Definition, 0, len(defaults))
	for _, def := range defaults {
		override, ok := deps.Config.Scheduler.Tasks[def.Name]
		if !ok {
			defs = append(defs, def)
			continue
		}
		if override.Enabled != nil && !*override.Enabled {
			log.Info("Skipping disabled task", "task_name", def.Name)
			continue
		}
		applied, err := applyOverride(def, override)
		if err != nil {
			return nil, err
		}
		defs = append(defs, applied)
	}

	for name := range deps.Config.Scheduler.Tasks {
		if !known(defaults, name) {
			log.Warn("Scheduled task configured but not found in registry, skipping", "task_name", name)
		}
	}

	log.Info("Initialized scheduled tasks", "count", len(defs))
	return defs, nil
}

func applyOverride(def Definition, o config.TaskConfig) (Definition, error) {
	if def.OneShot() {
		return def, nil
	}
	if o.Time != "" {
		at, err := scheduler.ParseTimeOfDay(o.Time)
		if err != nil {
			return def, fmt.Errorf("task %s: %w", def.Name, err)
		}
		def.At = at
	}
	if o.Weekdays != nil {
		days, err := o.ParsedWeekdays()
		if err != nil {
			return def, fmt.Errorf("task %s: %w", def.Name, err)
		}
		def.Weekdays = days
	}
	return def, nil
}

func known(defs []Definition, name string) bool {
	for _, d := range defs {
		if d.Name == name {
			return true
		}
	}
	return false
}

// ScheduleAll adds every definition to s.
func ScheduleAll(s TaskScheduler, defs []Definition) error {
	for _, def := range defs {
		var err error
		if def.OneShot() {
			err = s.AddOneTimeTask(def.Name, scheduler.Action(def.Func), def.When)
		} else {
			err = s.AddDailyTask(def.Name, scheduler.Action(def.Func), def.At, def.Weekdays...)
		}
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", def.Name, err)
		}
	}
	return nil
}
