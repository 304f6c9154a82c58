// Package broadcast sends one message to every known recipient.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/commitly/commitlybot/internal/logger"
	"github.com/commitly/commitlybot/internal/messenger"
)

// ErrNothingDelivered is returned by Report.Err when recipients exist but
// none of them received the message.
var ErrNothingDelivered = errors.New("broadcast delivered to no recipients")

// Recipients lists broadcast targets.
type Recipients interface {
	Recipients(ctx context.Context) []int64
}

// Deliverer sends one message to one chat.
type Deliverer interface {
	Deliver(ctx context.Context, chatID int64, msg messenger.Message, chain ...messenger.Transform) (messenger.Result, error)
}

// Compose builds the message for one recipient.
type Compose func(recipient int64) messenger.Message

// Report summarizes one broadcast.
type Report struct {
	Name      string
	Total     int
	Delivered int
	Degraded  int
	// Failed lists recipients that received nothing, in ascending order.
	Failed []int64
}

// Err returns ErrNothingDelivered when every recipient failed.
func (r Report) Err() error {
	if r.Total > 0 && r.Delivered == 0 {
		return fmt.Errorf("%s: %w (%d recipients)", r.Name, ErrNothingDelivered, r.Total)
	}
	return nil
}

// Options tune the fan-out. Zero values fall back to sequential, unlimited sends.
type Options struct {
	Concurrency   int
	RatePerSecond float64
	Burst         int
}

// Dispatcher fans a message out to all recipients.
type Dispatcher struct {
	recipients  Recipients
	deliverer   Deliverer
	limiter     *rate.Limiter
	concurrency int
	log         *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(recipients Recipients, deliverer Deliverer, opts Options, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = logger.Discard()
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RatePerSecond > 0 {
		burst := max(opts.Burst, 1)
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}
	return &Dispatcher{
		recipients:  recipients,
		deliverer:   deliverer,
		limiter:     limiter,
		concurrency: max(opts.Concurrency, 1),
		log:         log.With("component", "dispatcher"),
	}
}

// Broadcast sends compose(recipient) to every recipient. A failure for one
// recipient never affects the others.
func (d *Dispatcher) Broadcast(ctx context.Context, name string, compose Compose) Report {
	log := d.log.With("broadcast", name)
	targets := d.recipients.Recipients(ctx)
	report := Report{Name: name, Total: len(targets)}

	if len(targets) == 0 {
		log.InfoContext(ctx, "No recipients for broadcast")
		return report
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(d.concurrency)

	for _, id := range targets {
		g.Go(func() error {
			res, err := d.send(ctx, id, compose(id))

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed = append(report.Failed, id)
				log.WarnContext(ctx, "Recipient did not receive broadcast", "chat_id", id, "error", err)
				return nil
			}
			report.Delivered++
			if res.Degraded {
				report.Degraded++
			}
			return nil
		})
	}
	_ = g.Wait()

	slices.Sort(report.Failed)
	log.InfoContext(ctx, "Broadcast finished",
		"delivered", report.Delivered,
		"total", report.Total,
		"degraded", report.Degraded,
		"failed", len(report.Failed))
	return report
}

func (d *Dispatcher) send(ctx context.Context, id int64, msg messenger.Message) (messenger.Result, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return messenger.Result{}, fmt.Errorf("rate limiter: %w", err)
	}
	return d.deliverer.Deliver(ctx, id, msg, messenger.BroadcastChain...)
}
