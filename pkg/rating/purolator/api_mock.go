package purolator

import (
	"context"
	"time"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnGetQuickEstimate func(ctx context.Context, req *EstimateRequest) (*EstimateResponse, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// GetQuickEstimate returns mock shipping estimates.
func (m *MockAPIClient) GetQuickEstimate(ctx context.Context, req *EstimateRequest) (*EstimateResponse, error) {
	if m.SimulateLatency > 0 {
		select {
		case <-time.After(m.SimulateLatency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.SimulateErrors {
		return nil, &APIError{Code: "MOCK_ERROR", Description: "Simulated API error"}
	}

	if m.OnGetQuickEstimate != nil {
		return m.OnGetQuickEstimate(ctx, req)
	}

	return &EstimateResponse{
		Estimates: []Estimate{
			{
				ServiceID:            "PurolatorGround",
				ServiceName:          "Purolator Ground",
				TotalPrice:           10.50,
				EstimatedTransitDays: 3,
			},
			{
				ServiceID:            "PurolatorExpress",
				ServiceName:          "Purolator Express",
				TotalPrice:           21.75,
				EstimatedTransitDays: 1,
			},
		},
	}, nil
}

var _ APIClient = (*MockAPIClient)(nil)
