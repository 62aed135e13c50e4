package canadapost

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

// GetRates returns mock shipping rates.
func (m *MockAPIClient) GetRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error) {
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

	if m.OnGetRates != nil {
		return m.OnGetRates(ctx, req)
	}

	switch {
	case req.Destination.UnitedStates != nil:
		return &RatesResponse{
			Rates: []Rate{
				{ServiceCode: "USA.EP", ServiceName: "Expedited Parcel USA", TotalPrice: 24.99, ExpectedTransit: 7},
				{ServiceCode: "USA.TP", ServiceName: "Tracked Packet - USA", TotalPrice: 18.50, ExpectedTransit: 6},
				{ServiceCode: "USA.XP", ServiceName: "Xpresspost USA", TotalPrice: 39.99, ExpectedTransit: 3},
			},
		}, nil
	case req.Destination.International != nil:
		return &RatesResponse{
			Rates: []Rate{
				{ServiceCode: "INT.XP", ServiceName: "Xpresspost International", TotalPrice: 59.99, ExpectedTransit: 6},
				{ServiceCode: "INT.IP.AIR", ServiceName: "International Parcel Air", TotalPrice: 44.99, ExpectedTransit: 10},
				{ServiceCode: "INT.TP", ServiceName: "Tracked Packet - International", TotalPrice: 32.50, ExpectedTransit: 8},
			},
		}, nil
	default:
		return &RatesResponse{
			Rates: []Rate{
				{ServiceCode: "DOM.RP", ServiceName: "Regular Parcel", TotalPrice: 12.65, ExpectedTransit: 5},
				{ServiceCode: "DOM.EP", ServiceName: "Expedited Parcel", TotalPrice: 14.10, ExpectedTransit: 4},
				{ServiceCode: "DOM.XP", ServiceName: "Xpresspost", TotalPrice: 25.30, ExpectedTransit: 2},
			},
		}, nil
	}
}

var _ APIClient = (*MockAPIClient)(nil)
