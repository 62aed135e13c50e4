package purolator_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/catielanier/smrt-stores/pkg/rating"
	"github.com/catielanier/smrt-stores/pkg/rating/purolator"
)

func newTestClient(mockClient *purolator.MockAPIClient) *purolator.Client {
	logger := otelzap.New(zap.NewNop())
	return purolator.NewWithAPIClient(
		purolator.Config{AccountNumber: "9999999999", OriginPostal: "M5V 1A1"},
		mockClient,
		logger,
	)
}

func domesticRequest() *rating.QuoteRequest {
	return &rating.QuoteRequest{
		Weight:      2,
		WeightUnit:  rating.WeightKG,
		PostalCode:  "K1A0B1",
		CountryCode: "CA",
	}
}

func TestClient_Quote_Domestic(t *testing.T) {
	mockAPI := purolator.NewMockAPIClient()
	client := newTestClient(mockAPI)

	quotes, err := client.Quote(context.Background(), domesticRequest())

	require.NoError(t, err)
	require.Len(t, quotes, 2)

	assert.Equal(t, rating.CarrierPurolator, quotes[0].Carrier)
	assert.Equal(t, rating.BucketGround, quotes[0].Bucket)
	assert.Equal(t, int64(1050), quotes[0].CostCents)
	assert.Equal(t, "CAD", quotes[0].Currency)
	assert.Equal(t, 3, quotes[0].TransitDaysMin)

	assert.Equal(t, rating.BucketExpress, quotes[1].Bucket)
	assert.Equal(t, int64(2175), quotes[1].CostCents)
}

func TestClient_Quote_NonDomesticSkipsNetwork(t *testing.T) {
	mockAPI := purolator.NewMockAPIClient()
	var called bool
	mockAPI.OnGetQuickEstimate = func(ctx context.Context, req *purolator.EstimateRequest) (*purolator.EstimateResponse, error) {
		called = true
		return &purolator.EstimateResponse{}, nil
	}
	client := newTestClient(mockAPI)

	req := &rating.QuoteRequest{Weight: 2, WeightUnit: rating.WeightKG, PostalCode: "90210", CountryCode: "US"}
	quotes, err := client.Quote(context.Background(), req)

	require.NoError(t, err)
	assert.Empty(t, quotes)
	assert.False(t, called, "non-domestic request must not reach the API")
}

func TestClient_Available(t *testing.T) {
	client := newTestClient(purolator.NewMockAPIClient())

	assert.True(t, client.Available("CA"))
	assert.False(t, client.Available("US"))
	assert.False(t, client.Available(""))
}

func TestClient_Quote_APIError(t *testing.T) {
	mockAPI := purolator.NewMockAPIClient()
	mockAPI.SimulateErrors = true
	client := newTestClient(mockAPI)

	_, err := client.Quote(context.Background(), domesticRequest())

	require.Error(t, err)
	var carrierErr *rating.CarrierError
	require.ErrorAs(t, err, &carrierErr)
	assert.Equal(t, rating.CarrierPurolator, carrierErr.Carrier)
}

const estimateFixture = `<?xml version="1.0" encoding="utf-8"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">
  <s:Body>
    <GetQuickEstimateResponse xmlns="http://purolator.com/pws/datatypes/v2">
      <ResponseInformation>
        <Errors />
      </ResponseInformation>
      <ShipmentEstimates>
        <ShipmentEstimate>
          <ServiceID>PurolatorGround</ServiceID>
          <EstimatedTransitDays>3</EstimatedTransitDays>
          <TotalPrice>10.50</TotalPrice>
        </ShipmentEstimate>
        <ShipmentEstimate>
          <ServiceID>PurolatorExpress</ServiceID>
          <EstimatedTransitDays>1</EstimatedTransitDays>
          <TotalPrice>21.75</TotalPrice>
        </ShipmentEstimate>
      </ShipmentEstimates>
    </GetQuickEstimateResponse>
  </s:Body>
</s:Envelope>`

func TestSOAPAPIClient_GetQuickEstimate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/connect/token":
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "puro-token",
				"token_type":   "Bearer",
				"expires_in":   3600,
			})
		case "/EWS/V2/Estimating/EstimatingService.asmx":
			assert.Equal(t, "Bearer puro-token", r.Header.Get("Authorization"))
			assert.Equal(t, "http://purolator.com/pws/service/v2/GetQuickEstimate", r.Header.Get("SOAPAction"))
			w.Write([]byte(estimateFixture))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	api := purolator.NewSOAPAPIClient(purolator.SOAPAPIClientConfig{
		BaseURL:      ts.URL,
		ClientID:     "id",
		ClientSecret: "secret",
	})

	resp, err := api.GetQuickEstimate(context.Background(), &purolator.EstimateRequest{
		BillingAccountNumber: "9999999999",
		SenderPostalCode:     "M5V1A1",
		ReceiverPostalCode:   "K1A0B1",
		PackageType:          "CustomerPackaging",
		TotalWeightKG:        2,
	})

	require.NoError(t, err)
	require.Len(t, resp.Estimates, 2)
	assert.Equal(t, "PurolatorGround", resp.Estimates[0].ServiceID)
	assert.Equal(t, 10.50, resp.Estimates[0].TotalPrice)
	assert.Equal(t, 3, resp.Estimates[0].EstimatedTransitDays)
}

func TestSOAPAPIClient_GetQuickEstimate_MalformedPriceSkipped(t *testing.T) {
	const fixture = `<?xml version="1.0" encoding="utf-8"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">
  <s:Body>
    <GetQuickEstimateResponse xmlns="http://purolator.com/pws/datatypes/v2">
      <ResponseInformation>
        <Errors />
      </ResponseInformation>
      <ShipmentEstimates>
        <ShipmentEstimate>
          <ServiceID>PurolatorGround</ServiceID>
          <EstimatedTransitDays>3</EstimatedTransitDays>
          <TotalPrice>N/A</TotalPrice>
        </ShipmentEstimate>
        <ShipmentEstimate>
          <ServiceID>PurolatorExpress</ServiceID>
          <EstimatedTransitDays>1</EstimatedTransitDays>
          <TotalPrice>21.75</TotalPrice>
        </ShipmentEstimate>
      </ShipmentEstimates>
    </GetQuickEstimateResponse>
  </s:Body>
</s:Envelope>`

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/connect/token":
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "puro-token",
				"expires_in":   3600,
			})
		default:
			w.Write([]byte(fixture))
		}
	}))
	defer ts.Close()

	api := purolator.NewSOAPAPIClient(purolator.SOAPAPIClientConfig{BaseURL: ts.URL})

	resp, err := api.GetQuickEstimate(context.Background(), &purolator.EstimateRequest{})

	require.NoError(t, err)

	// An estimate whose price does not parse is dropped rather than
	// surfacing as free shipping.
	require.Len(t, resp.Estimates, 1)
	assert.Equal(t, "PurolatorExpress", resp.Estimates[0].ServiceID)
	assert.Equal(t, 21.75, resp.Estimates[0].TotalPrice)
}

func TestSOAPAPIClient_GetQuickEstimate_ServiceError(t *testing.T) {
	const errorFixture = `<?xml version="1.0" encoding="utf-8"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">
  <s:Body>
    <GetQuickEstimateResponse xmlns="http://purolator.com/pws/datatypes/v2">
      <ResponseInformation>
        <Errors>
          <Error>
            <Code>1100335</Code>
            <Description>The  ReceiverAddress PostalCode is invalid</Description>
          </Error>
        </Errors>
      </ResponseInformation>
    </GetQuickEstimateResponse>
  </s:Body>
</s:Envelope>`

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/connect/token":
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "puro-token",
				"expires_in":   3600,
			})
		default:
			w.Write([]byte(errorFixture))
		}
	}))
	defer ts.Close()

	api := purolator.NewSOAPAPIClient(purolator.SOAPAPIClientConfig{BaseURL: ts.URL})

	_, err := api.GetQuickEstimate(context.Background(), &purolator.EstimateRequest{})

	require.Error(t, err)
	var apiErr *purolator.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "1100335", apiErr.Code)
}
