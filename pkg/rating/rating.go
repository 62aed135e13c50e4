// Package rating provides multi-carrier shipping rate aggregation.
package rating

import (
	"context"
)

// Carrier defines the interface that all carrier rating adapters must implement.
type Carrier interface {
	// Name returns the carrier identifier (e.g., "canadapost", "ups", "fedex", "purolator").
	Name() string

	// Available reports whether the carrier can serve shipments to the
	// given destination country. Inapplicable carriers are skipped without
	// a network call.
	Available(countryCode string) bool

	// Quote returns zero or more canonical quotes for the request, or an
	// error. An adapter never returns both quotes and an error.
	Quote(ctx context.Context, req *QuoteRequest) ([]Quote, error)
}
