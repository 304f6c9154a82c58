package tasks

import (
	"context"

	"github.com/commitly/commitlybot/internal/messenger"
	"github.com/commitly/commitlybot/internal/templates"
)

// newBroadcastTask sends compose to everyone and fails when nobody got it.
func newBroadcastTask(deps TaskDeps, name string, compose func() messenger.Message) ScheduledTaskFunc {
	log := deps.Logger.With("task", name)

	return func(ctx context.Context) error {
		msg := compose()
		report := deps.Broadcaster.Broadcast(ctx, name, func(int64) messenger.Message { return msg })
		if err := report.Err(); err != nil {
			return err
		}
		log.DebugContext(ctx, "Broadcast task done", "delivered", report.Delivered, "total", report.Total)
		return nil
	}
}

func newDailyMotivationTask(deps TaskDeps) ScheduledTaskFunc {
	return newBroadcastTask(deps, DailyMotivation, func() messenger.Message {
		return templates.Motivation(deps.Quotes.Pick())
	})
}

func newMeetingPrepTask(deps TaskDeps) ScheduledTaskFunc {
	return newBroadcastTask(deps, MeetingPrepReminder, templates.MeetingPreparation)
}

func newMeetingStartTask(deps TaskDeps) ScheduledTaskFunc {
	return newBroadcastTask(deps, MeetingStartReminder, templates.MeetingStart)
}

func newSchedulerCheckTask(deps TaskDeps) ScheduledTaskFunc {
	return newBroadcastTask(deps, SchedulerCheck, templates.SchedulerCheck)
}

// RunReminders sends all reminder broadcasts immediately, in table order.
// It returns the number of delivered and attempted messages.
func RunReminders(ctx context.Context, deps TaskDeps) (delivered, total int) {
	for _, send := range []struct {
		name    string
		compose func() messenger.Message
	}{
		{MeetingPrepReminder, templates.MeetingPreparation},
		{MeetingStartReminder, templates.MeetingStart},
		{DailyMotivation, func() messenger.Message { return templates.Motivation(deps.Quotes.Pick()) }},
	} {
		msg := send.compose()
		report := deps.Broadcaster.Broadcast(ctx, send.name, func(int64) messenger.Message { return msg })
		delivered += report.Delivered
		total += report.Total
	}
	return delivered, total
}
