package news

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/commitly/commitlybot/internal/logger"
)

// ErrCircuitOpen is returned while the breaker refuses calls to NewsAPI.
var ErrCircuitOpen = gobreaker.ErrOpenState

// BreakerConfig configures a Breaker.
type BreakerConfig struct {
	// MaxFailures consecutive upstream failures open the circuit.
	MaxFailures int
	// Cooldown is how long the circuit stays open before a probe is let through.
	Cooldown time.Duration
}

// Breaker wraps a Searcher with a circuit breaker so an unreachable NewsAPI
// is not hammered by every /news request.
type Breaker struct {
	next Searcher
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker wraps next.
func NewBreaker(next Searcher, cfg BreakerConfig, log *slog.Logger) *Breaker {
	if log == nil {
		log = logger.Discard()
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = time.Minute
	}
	log = log.With("component", "news_breaker")

	settings := gobreaker.Settings{
		Name:        "newsapi",
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.MaxFailures)
		},
		IsSuccessful: upstreamHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}

	return &Breaker{
		next: next,
		cb:   gobreaker.NewCircuitBreaker(settings),
	}
}

// Search runs q through the breaker.
func (b *Breaker) Search(ctx context.Context, q Query) ([]Article, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Search(ctx, q)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("newsapi unavailable: %w", err)
	}
	if err != nil {
		return nil, err
	}

	articles, _ := res.([]Article)
	return articles, nil
}

// State reports the breaker state, for logs and tests.
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// upstreamHealthy reports whether err says nothing about NewsAPI being down.
// A missing key, a rejected request or a canceled caller do not count.
func upstreamHealthy(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, ErrNoAPIKey) || errors.Is(err, context.Canceled) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= http.StatusBadRequest &&
			apiErr.StatusCode < http.StatusInternalServerError &&
			apiErr.StatusCode != http.StatusTooManyRequests
	}
	return false
}
