package bot

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/commitly/commitlybot/internal/logger"
)

type blockingListener struct{ started atomic.Bool }

func (l *blockingListener) Start(ctx context.Context) {
	l.started.Store(true)
	<-ctx.Done()
}

type returningListener struct{}

func (returningListener) Start(context.Context) {}

type fakeScheduler struct {
	startErr error
	stopped  atomic.Bool
}

func (s *fakeScheduler) Start(context.Context) error { return s.startErr }
func (s *fakeScheduler) Stop() error                 { s.stopped.Store(true); return nil }

func TestRunStopsGracefullyOnCancel(t *testing.T) {
	t.Parallel()

	l := &blockingListener{}
	s := &fakeScheduler{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- NewBot(logger.Discard(), l, s).Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
	if !l.started.Load() || !s.stopped.Load() {
		t.Errorf("listener started = %v, scheduler stopped = %v", l.started.Load(), s.stopped.Load())
	}
}

func TestRunFailsWhenSchedulerCannotStart(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	err := NewBot(logger.Discard(), &blockingListener{}, &fakeScheduler{startErr: boom}).Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want %v", err, boom)
	}
}

func TestRunFailsWhenListenerStopsOnItsOwn(t *testing.T) {
	t.Parallel()

	s := &fakeScheduler{}
	err := NewBot(logger.Discard(), returningListener{}, s).Run(context.Background())
	if err == nil {
		t.Fatal("Run() error = nil, want unexpected stop")
	}
	if !s.stopped.Load() {
		t.Error("scheduler was not stopped")
	}
}
