package fedex

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

// GetRates returns mock rate replies.
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

	currency := req.Currency
	if currency == "" {
		currency = "CAD"
	}

	return &RatesResponse{
		RateReplies: []RateReply{
			{
				ServiceType:    "FEDEX_GROUND",
				ServiceName:    "FedEx Ground",
				CarrierCode:    "FDXG",
				NetCharge:      13.85,
				Currency:       currency,
				TransitMinDays: 3,
				TransitMaxDays: 5,
			},
			{
				ServiceType:    "FEDEX_2_DAY",
				ServiceName:    "FedEx 2Day",
				CarrierCode:    "FDXE",
				NetCharge:      27.10,
				Currency:       currency,
				TransitMinDays: 2,
				TransitMaxDays: 2,
			},
			{
				ServiceType:    "PRIORITY_OVERNIGHT",
				ServiceName:    "FedEx Priority Overnight",
				CarrierCode:    "FDXE",
				NetCharge:      44.60,
				Currency:       currency,
				TransitMinDays: 1,
				TransitMaxDays: 1,
			},
		},
	}, nil
}

var _ APIClient = (*MockAPIClient)(nil)
