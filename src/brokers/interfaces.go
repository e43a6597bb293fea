// Package brokers contains API clients that fetch executed fills directly
// from a brokerage, as an alternative to CSV upload. Clients return plain
// RawFill slices; round-trip reconstruction happens downstream.
package brokers

import (
	"context"
	"time"

	"github.com/username/tradefolio/backend/src/models"
)

// FillProvider fetches executed fills for the authenticated account.
type FillProvider interface {
	// Name identifies the provider in logs and trade provenance.
	Name() string
	// FetchFills returns all fills executed at or after the given time.
	FetchFills(ctx context.Context, since time.Time) ([]models.RawFill, error)
}
