package fedex

import (
	"context"
)

// APIClient defines the interface for FedEx rating operations.
// This abstraction allows for mock implementations during testing
// and real implementations in production.
type APIClient interface {
	// GetRates fetches rate quotes from the FedEx Rates API
	GetRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error)
}

// ============================================================================
// API Request/Response Types
// ============================================================================

// RatesRequest represents a FedEx rate quote request.
type RatesRequest struct {
	AccountNumber  string
	ShipperPostal  string
	ShipperCountry string
	DestPostal     string
	DestCountry    string
	WeightKG       float64
	Currency       string // preferred currency, optional
}

// RatesResponse represents the FedEx rate quote response.
type RatesResponse struct {
	RateReplies []RateReply
}

// RateReply is a single service's rate reply. NetCharge is the lowest
// total net charge across the reply's rated-shipment-detail blocks.
type RateReply struct {
	ServiceType    string
	ServiceName    string
	CarrierCode    string
	NetCharge      float64
	Currency       string
	TransitMinDays int
	TransitMaxDays int
}

// APIError represents an error from the FedEx API.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}
