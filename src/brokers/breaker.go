package brokers

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"github.com/username/tradefolio/backend/src/logger"
	"github.com/username/tradefolio/backend/src/models"
)

// CircuitBreakerProvider wraps a FillProvider with a circuit breaker so a
// flapping broker API fails fast instead of hanging every sync request.
type CircuitBreakerProvider struct {
	inner   FillProvider
	breaker *gobreaker.CircuitBreaker
}

func NewCircuitBreakerProvider(inner FillProvider) *CircuitBreakerProvider {
	settings := gobreaker.Settings{
		Name:        inner.Name() + "-fills",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.L.Warn("Broker circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &CircuitBreakerProvider{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (p *CircuitBreakerProvider) Name() string { return p.inner.Name() }

func (p *CircuitBreakerProvider) FetchFills(ctx context.Context, since time.Time) ([]models.RawFill, error) {
	res, err := p.breaker.Execute(func() (interface{}, error) {
		return p.inner.FetchFills(ctx, since)
	})
	if err != nil {
		return nil, err
	}
	fills, ok := res.([]models.RawFill)
	if !ok {
		return nil, errors.New("circuit breaker: type assertion failed")
	}
	return fills, nil
}
