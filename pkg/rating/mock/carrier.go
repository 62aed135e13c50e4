// Package mock provides a configurable mock carrier for testing.
package mock

import (
	"context"
	"time"

	"github.com/catielanier/smrt-stores/pkg/rating"
)

// Carrier is a mock rating carrier for testing.
type Carrier struct {
	CarrierName string
	Countries   []string // empty = available everywhere
	Quotes      []rating.Quote
	Err         error
	Latency     time.Duration

	// OnQuote, when set, replaces the canned Quotes/Err behavior.
	OnQuote func(ctx context.Context, req *rating.QuoteRequest) ([]rating.Quote, error)
}

// New creates a mock carrier returning two canned quotes.
func New(name string) *Carrier {
	return &Carrier{
		CarrierName: name,
		Quotes: []rating.Quote{
			{
				Carrier:        rating.CarrierID(name),
				Bucket:         rating.BucketStandard,
				CostCents:      1582,
				Currency:       "CAD",
				TransitDaysMin: 5,
				TransitDaysMax: 5,
			},
			{
				Carrier:        rating.CarrierID(name),
				Bucket:         rating.BucketExpress,
				CostCents:      2995,
				Currency:       "CAD",
				TransitDaysMin: 2,
				TransitDaysMax: 2,
			},
		},
	}
}

// Name returns the carrier name.
func (c *Carrier) Name() string {
	return c.CarrierName
}

// Available reports whether the mock serves the destination country.
func (c *Carrier) Available(countryCode string) bool {
	if len(c.Countries) == 0 {
		return true
	}
	for _, cc := range c.Countries {
		if cc == countryCode {
			return true
		}
	}
	return false
}

// Quote returns the configured quotes or error, after any configured latency.
func (c *Carrier) Quote(ctx context.Context, req *rating.QuoteRequest) ([]rating.Quote, error) {
	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if c.OnQuote != nil {
		return c.OnQuote(ctx, req)
	}
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Quotes, nil
}

var _ rating.Carrier = (*Carrier)(nil)
