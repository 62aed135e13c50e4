package ups_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/catielanier/smrt-stores/pkg/rating"
	"github.com/catielanier/smrt-stores/pkg/rating/ups"
)

func newTestClient(mockClient *ups.MockAPIClient) *ups.Client {
	logger := otelzap.New(zap.NewNop())
	return ups.NewWithAPIClient(
		ups.Config{OriginPostal: "M5V 1A1", OriginCountry: "CA"},
		mockClient,
		logger,
	)
}

func testRequest() *rating.QuoteRequest {
	return &rating.QuoteRequest{
		Weight:      2,
		WeightUnit:  rating.WeightKG,
		PostalCode:  "K1A0B1",
		CountryCode: "CA",
	}
}

func TestClient_Quote_Success(t *testing.T) {
	mockAPI := ups.NewMockAPIClient()
	client := newTestClient(mockAPI)

	quotes, err := client.Quote(context.Background(), testRequest())

	require.NoError(t, err)
	require.Len(t, quotes, 3)
	for _, q := range quotes {
		assert.Equal(t, rating.CarrierUPS, q.Carrier)
	}

	// Mock's ground line: negotiated 14.20, 4 business days.
	assert.Equal(t, rating.BucketGround, quotes[0].Bucket)
	assert.Equal(t, int64(1420), quotes[0].CostCents)
	assert.Equal(t, 4, quotes[0].TransitDaysMin)
	assert.Equal(t, 4, quotes[0].TransitDaysMax)
}

func TestClient_Quote_APIError(t *testing.T) {
	mockAPI := ups.NewMockAPIClient()
	mockAPI.SimulateErrors = true
	client := newTestClient(mockAPI)

	_, err := client.Quote(context.Background(), testRequest())

	require.Error(t, err)
	var carrierErr *rating.CarrierError
	require.ErrorAs(t, err, &carrierErr)
	assert.Equal(t, rating.CarrierUPS, carrierErr.Carrier)
}

func TestClient_Quote_UnknownServiceCode(t *testing.T) {
	mockAPI := ups.NewMockAPIClient()
	mockAPI.OnGetRates = func(ctx context.Context, req *ups.RatesRequest) (*ups.RatesResponse, error) {
		return &ups.RatesResponse{
			RatedShipments: []ups.RatedShipment{
				{ServiceCode: "99", ServiceDescription: "Imaginary Freight", TotalCharge: 99.99, Currency: "CAD"},
			},
		}, nil
	}
	client := newTestClient(mockAPI)

	quotes, err := client.Quote(context.Background(), testRequest())

	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, rating.BucketUnknown, quotes[0].Bucket)
}

func TestClient_Available(t *testing.T) {
	client := newTestClient(ups.NewMockAPIClient())

	assert.True(t, client.Available("CA"))
	assert.True(t, client.Available("US"))
	assert.False(t, client.Available(""))
}

// rateFixture builds a UPS rate-shop response body.
func rateFixture() map[string]any {
	return map[string]any{
		"RateResponse": map[string]any{
			"RatedShipment": []map[string]any{
				{
					"Service": map[string]any{"Code": "03", "Description": "UPS Ground"},
					"TotalCharges": map[string]any{
						"CurrencyCode": "CAD", "MonetaryValue": "18.00",
					},
					"NegotiatedRateCharges": map[string]any{
						"TotalCharge": map[string]any{
							"CurrencyCode": "CAD", "MonetaryValue": "14.20",
						},
					},
					"GuaranteedDelivery": map[string]any{"BusinessDaysInTransit": "4"},
				},
				{
					"Service": map[string]any{"Code": "02", "Description": "UPS 2nd Day Air"},
					"TotalCharges": map[string]any{
						"CurrencyCode": "CAD", "MonetaryValue": "28.75",
					},
				},
				{
					// No charge blocks at all; line is skipped.
					"Service": map[string]any{"Code": "14", "Description": "UPS Next Day Air Early"},
				},
			},
		},
	}
}

func TestHTTPAPIClient_GetRates_NegotiatedPreferred(t *testing.T) {
	var tokenCalls int32

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/security/v1/oauth/token":
			atomic.AddInt32(&tokenCalls, 1)
			assert.Contains(t, r.Header.Get("Authorization"), "Basic ")
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "test-token",
				"token_type":   "Bearer",
				"expires_in":   "3600",
			})
		case "/api/rating/v2409/Shop":
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(rateFixture())
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	api := ups.NewHTTPAPIClient(ups.HTTPAPIClientConfig{
		BaseURL:      ts.URL,
		ClientID:     "id",
		ClientSecret: "secret",
	})

	req := &ups.RatesRequest{
		ShipperPostal: "M5V1A1", ShipperCountry: "CA",
		DestPostal: "K1A0B1", DestCountry: "CA",
		WeightKG: 2,
	}

	resp, err := api.GetRates(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.RatedShipments, 2)

	ground := resp.RatedShipments[0]
	assert.Equal(t, "03", ground.ServiceCode)
	assert.Equal(t, 14.20, ground.TotalCharge)
	assert.True(t, ground.Negotiated)
	assert.Equal(t, 4, ground.BusinessDaysInTransit)

	air := resp.RatedShipments[1]
	assert.Equal(t, 28.75, air.TotalCharge)
	assert.False(t, air.Negotiated)
	assert.Equal(t, 0, air.BusinessDaysInTransit)

	// Second call reuses the cached token.
	_, err = api.GetRates(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls))
}

func TestHTTPAPIClient_GetRates_MalformedChargeSkipped(t *testing.T) {
	fixture := map[string]any{
		"RateResponse": map[string]any{
			"RatedShipment": []map[string]any{
				{
					"Service": map[string]any{"Code": "03", "Description": "UPS Ground"},
					"TotalCharges": map[string]any{
						"CurrencyCode": "CAD", "MonetaryValue": "not-a-number",
					},
				},
				{
					"Service": map[string]any{"Code": "02", "Description": "UPS 2nd Day Air"},
					"NegotiatedRateCharges": map[string]any{
						"TotalCharge": map[string]any{
							"CurrencyCode": "CAD", "MonetaryValue": "",
						},
					},
				},
				{
					"Service": map[string]any{"Code": "01", "Description": "UPS Next Day Air"},
					"TotalCharges": map[string]any{
						"CurrencyCode": "CAD", "MonetaryValue": "52.40",
					},
				},
			},
		},
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/security/v1/oauth/token":
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "test-token",
				"token_type":   "Bearer",
				"expires_in":   "3600",
			})
		case "/api/rating/v2409/Shop":
			json.NewEncoder(w).Encode(fixture)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	api := ups.NewHTTPAPIClient(ups.HTTPAPIClientConfig{
		BaseURL:      ts.URL,
		ClientID:     "id",
		ClientSecret: "secret",
	})

	resp, err := api.GetRates(context.Background(), &ups.RatesRequest{
		ShipperPostal: "M5V1A1", ShipperCountry: "CA",
		DestPostal: "K1A0B1", DestCountry: "CA",
		WeightKG: 2,
	})
	require.NoError(t, err)

	// Lines whose charge does not parse are dropped rather than
	// surfacing as free shipping.
	require.Len(t, resp.RatedShipments, 1)
	assert.Equal(t, "01", resp.RatedShipments[0].ServiceCode)
	assert.Equal(t, 52.40, resp.RatedShipments[0].TotalCharge)
}

func TestHTTPAPIClient_GetRates_TokenFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"response":{"errors":[{"code":"10401","message":"Invalid credentials"}]}}`))
	}))
	defer ts.Close()

	api := ups.NewHTTPAPIClient(ups.HTTPAPIClientConfig{
		BaseURL:      ts.URL,
		ClientID:     "bad",
		ClientSecret: "creds",
	})

	_, err := api.GetRates(context.Background(), &ups.RatesRequest{})

	require.Error(t, err)
	var apiErr *ups.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "AUTH", apiErr.Code)
}
