package broadcast_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/commitly/commitlybot/internal/broadcast"
	"github.com/commitly/commitlybot/internal/messenger"
	"github.com/commitly/commitlybot/internal/messenger/messengertest"
)

type staticRecipients []int64

func (s staticRecipients) Recipients(context.Context) []int64 { return s }

func motivation(int64) messenger.Message {
	return messenger.Message{Text: "💫 Мотивация дня:\n\nСтабильно лучше, чем идеально."}
}

func newDispatcher(ids []int64, sender *messengertest.Sender) *broadcast.Dispatcher {
	return broadcast.NewDispatcher(
		staticRecipients(ids),
		messenger.New(sender, nil),
		broadcast.Options{Concurrency: 4, RatePerSecond: 1000, Burst: 10},
		nil,
	)
}

func TestBroadcastDegradedDelivery(t *testing.T) {
	t.Parallel()

	sender := &messengertest.Sender{Fail: messengertest.FailFirstAttempt(errors.New("boom"), 111)}
	report := newDispatcher([]int64{111, 222}, sender).Broadcast(context.Background(), "daily_motivation", motivation)

	want := broadcast.Report{Name: "daily_motivation", Total: 2, Delivered: 2, Degraded: 1}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}

	calls := sender.CallsTo(111)
	if len(calls) != 2 {
		t.Fatalf("calls to 111 = %d, want 2", len(calls))
	}
	if calls[1].Text != "Мотивация дня:\n\nСтабильно лучше, чем идеально." {
		t.Errorf("fallback text = %q, want decorations stripped", calls[1].Text)
	}
	if n := len(sender.CallsTo(222)); n != 1 {
		t.Errorf("calls to 222 = %d, want 1", n)
	}
	if err := report.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
}

func TestBroadcastIsolatesFailingRecipient(t *testing.T) {
	t.Parallel()

	ids := []int64{1, 2, 3, 4, 5, 6, 7, 8}
	sender := &messengertest.Sender{Fail: messengertest.FailAlways(errors.New("network down"), 5)}
	report := newDispatcher(ids, sender).Broadcast(context.Background(), "meeting_start_reminder", motivation)

	if report.Delivered != len(ids)-1 {
		t.Errorf("delivered = %d, want %d", report.Delivered, len(ids)-1)
	}
	if diff := cmp.Diff([]int64{5}, report.Failed); diff != "" {
		t.Errorf("failed mismatch (-want +got):\n%s", diff)
	}
	// One original attempt plus exactly one fallback.
	if n := len(sender.CallsTo(5)); n != 2 {
		t.Errorf("attempts for failing recipient = %d, want 2", n)
	}
}

func TestBroadcastBlockedRecipientIsNotRetried(t *testing.T) {
	t.Parallel()

	sender := &messengertest.Sender{Fail: messengertest.FailAlways(errors.New("Forbidden: bot was blocked by the user"), 9)}
	report := newDispatcher([]int64{9}, sender).Broadcast(context.Background(), "x", motivation)

	if n := len(sender.CallsTo(9)); n != 1 {
		t.Errorf("attempts = %d, want 1", n)
	}
	if !errors.Is(report.Err(), broadcast.ErrNothingDelivered) {
		t.Errorf("Err() = %v, want ErrNothingDelivered", report.Err())
	}
}

func TestBroadcastWithoutRecipients(t *testing.T) {
	t.Parallel()

	sender := &messengertest.Sender{}
	report := newDispatcher(nil, sender).Broadcast(context.Background(), "x", motivation)
	if report.Total != 0 || report.Err() != nil || len(sender.Calls()) != 0 {
		t.Errorf("report = %+v, calls = %d", report, len(sender.Calls()))
	}
}

func TestReportErrOnlyWhenNothingDelivered(t *testing.T) {
	t.Parallel()

	var down atomic.Bool
	down.Store(true)
	sender := &messengertest.Sender{Fail: func(messengertest.Call) error {
		if down.Load() {
			return errors.New("network down")
		}
		return nil
	}}
	d := newDispatcher([]int64{1, 2}, sender)

	if err := d.Broadcast(context.Background(), "daily_motivation", motivation).Err(); !errors.Is(err, broadcast.ErrNothingDelivered) {
		t.Fatalf("Err() = %v, want ErrNothingDelivered", err)
	}
	down.Store(false)
	if err := d.Broadcast(context.Background(), "daily_motivation", motivation).Err(); err != nil {
		t.Fatalf("Err() after recovery = %v", err)
	}
}
