package purolator

import (
	"context"
)

// APIClient defines the interface for Purolator estimating operations.
// This abstraction allows for mock implementations during testing
// and real implementations in production.
type APIClient interface {
	// GetQuickEstimate fetches shipping estimates from the Purolator
	// EstimatingService
	GetQuickEstimate(ctx context.Context, req *EstimateRequest) (*EstimateResponse, error)
}

// ============================================================================
// API Request/Response Types
// ============================================================================

// EstimateRequest represents a Purolator quick-estimate request.
type EstimateRequest struct {
	BillingAccountNumber string
	SenderPostalCode     string
	ReceiverPostalCode   string
	PackageType          string
	TotalWeightKG        float64
}

// EstimateResponse represents the Purolator quick-estimate response.
type EstimateResponse struct {
	Estimates []Estimate
}

// Estimate represents a single service estimate.
type Estimate struct {
	ServiceID            string
	ServiceName          string
	TotalPrice           float64
	EstimatedTransitDays int
}

// APIError represents an error from the Purolator API.
type APIError struct {
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Description
}
