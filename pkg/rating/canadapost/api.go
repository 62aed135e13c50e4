package canadapost

import (
	"context"
)

// APIClient defines the interface for Canada Post rating operations.
// This abstraction allows for mock implementations during testing
// and real implementations in production.
type APIClient interface {
	// GetRates fetches shipping rates from the Canada Post API
	GetRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error)
}

// ============================================================================
// API Request/Response Types (match Canada Post rating API structure)
// ============================================================================

// RatesRequest represents a Canada Post rate quote request.
type RatesRequest struct {
	CustomerNumber string
	WeightKG       float64
	OriginPostal   string
	Destination    Destination
}

// Destination represents the shipping destination.
type Destination struct {
	Domestic      *DomesticDestination
	UnitedStates  *USDestination
	International *InternationalDestination
}

// DomesticDestination for Canadian addresses.
type DomesticDestination struct {
	PostalCode string
}

// USDestination for United States addresses.
type USDestination struct {
	ZipCode string
}

// InternationalDestination for all other addresses.
type InternationalDestination struct {
	CountryCode string
}

// RatesResponse represents the Canada Post rate quote response.
type RatesResponse struct {
	Rates []Rate
}

// Rate represents a single shipping rate option.
type Rate struct {
	ServiceCode     string
	ServiceName     string
	TotalPrice      float64
	ExpectedTransit int
}

// APIError represents an error from the Canada Post API.
type APIError struct {
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Description
}
