package ups

import (
	"context"
)

// APIClient defines the interface for UPS rating operations.
// This abstraction allows for mock implementations during testing
// and real implementations in production.
type APIClient interface {
	// GetRates rate-shops a shipment against the UPS Rating API
	GetRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error)
}

// ============================================================================
// API Request/Response Types
// ============================================================================

// RatesRequest represents a UPS rate-shop request.
type RatesRequest struct {
	ShipperPostal  string
	ShipperCountry string
	DestPostal     string
	DestCountry    string
	WeightKG       float64
}

// RatesResponse represents the UPS rate-shop response.
type RatesResponse struct {
	RatedShipments []RatedShipment
}

// RatedShipment is a single rated service line. TotalCharge carries the
// negotiated (account) rate when UPS returned one, the list rate otherwise.
type RatedShipment struct {
	ServiceCode           string
	ServiceDescription    string
	TotalCharge           float64
	Currency              string
	Negotiated            bool
	BusinessDaysInTransit int
}

// APIError represents an error from the UPS API.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}
