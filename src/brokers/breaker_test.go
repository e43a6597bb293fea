package brokers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradefolio/backend/src/models"
)

type flakyProvider struct {
	fills []models.RawFill
	err   error
	calls int
}

func (p *flakyProvider) Name() string { return "flaky" }

func (p *flakyProvider) FetchFills(ctx context.Context, since time.Time) ([]models.RawFill, error) {
	p.calls++
	return p.fills, p.err
}

func TestCircuitBreakerPassesThrough(t *testing.T) {
	inner := &flakyProvider{fills: []models.RawFill{{FillID: "f1", Symbol: "AAPL"}}}
	provider := NewCircuitBreakerProvider(inner)

	assert.Equal(t, "flaky", provider.Name())

	fills, err := provider.FetchFills(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Equal(t, "f1", fills[0].FillID)
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &flakyProvider{err: errors.New("upstream down")}
	provider := NewCircuitBreakerProvider(inner)

	for i := 0; i < 5; i++ {
		_, err := provider.FetchFills(context.Background(), time.Time{})
		require.Error(t, err)
	}

	// The breaker is open now: the inner provider is no longer called.
	callsBefore := inner.calls
	_, err := provider.FetchFills(context.Background(), time.Time{})
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, callsBefore, inner.calls)
}
