package scheduler

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Action is the work a task performs. A returned error leaves the task
// due, so it runs again on the next poll.
type Action func(ctx context.Context) error

// Kind tags the two task variants.
type Kind int

const (
	// Recurring tasks run once per matching day after their time of day.
	Recurring Kind = iota
	// OneShot tasks run once at or after an absolute time.
	OneShot
)

func (k Kind) String() string {
	switch k {
	case Recurring:
		return "recurring"
	case OneShot:
		return "one_shot"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// TimeOfDay is a wall-clock time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) valid() bool {
	return t.Hour >= 0 && t.Hour < 24 && t.Minute >= 0 && t.Minute < 60
}

// reachedBy reports whether now's wall clock is at or past t.
func (t TimeOfDay) reachedBy(now time.Time) bool {
	return now.Hour()*60+now.Minute() >= t.Hour*60+t.Minute
}

// Task is one registered job. Exactly one of the Recurring fields (At,
// Weekdays) or the OneShot field (When) is meaningful, selected by Kind.
type Task struct {
	Name   string
	Kind   Kind
	Action Action

	At TimeOfDay
	// Weekdays restricts a Recurring task. Empty means every day.
	Weekdays []time.Weekday

	When time.Time
}

// CompletionKey identifies a OneShot run in the completion store.
func (t *Task) CompletionKey() string {
	return t.Name + "@" + t.When.UTC().Format(time.RFC3339)
}

func (t *Task) runsOn(day time.Weekday) bool {
	return len(t.Weekdays) == 0 || slices.Contains(t.Weekdays, day)
}

// Describe renders the trigger for logs.
func (t *Task) Describe() string {
	if t.Kind == OneShot {
		return "once at " + t.When.Format(time.RFC3339)
	}
	if len(t.Weekdays) == 0 {
		return "daily at " + t.At.String()
	}
	days := make([]string, len(t.Weekdays))
	for i, d := range t.Weekdays {
		days[i] = d.String()[:3]
	}
	return strings.Join(days, ",") + " at " + t.At.String()
}
