package ups

import (
	"context"
	"time"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnGetRates func(ctx context.Context, req *RatesRequest) (*RatesResponse, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// GetRates returns mock rated shipments.
func (m *MockAPIClient) GetRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error) {
	if m.SimulateLatency > 0 {
		select {
		case <-time.After(m.SimulateLatency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.SimulateErrors {
		return nil, &APIError{Code: "MOCK_ERROR", Message: "Simulated API error"}
	}

	if m.OnGetRates != nil {
		return m.OnGetRates(ctx, req)
	}

	return &RatesResponse{
		RatedShipments: []RatedShipment{
			{
				ServiceCode:           "03",
				ServiceDescription:    "UPS Ground",
				TotalCharge:           14.20,
				Currency:              "CAD",
				Negotiated:            true,
				BusinessDaysInTransit: 4,
			},
			{
				ServiceCode:           "02",
				ServiceDescription:    "UPS 2nd Day Air",
				TotalCharge:           28.75,
				Currency:              "CAD",
				BusinessDaysInTransit: 2,
			},
			{
				ServiceCode:        "11",
				ServiceDescription: "UPS Standard",
				TotalCharge:        16.40,
				Currency:           "CAD",
			},
		},
	}, nil
}

var _ APIClient = (*MockAPIClient)(nil)
