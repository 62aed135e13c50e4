package ups

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/catielanier/smrt-stores/pkg/rating/token"
)

// HTTPAPIClient is the production implementation of APIClient using HTTP/JSON.
type HTTPAPIClient struct {
	baseURL      string
	clientID     string
	clientSecret string
	tokens       *token.Cache
	httpClient   *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Tokens       *token.Cache
	Timeout      time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	tokens := cfg.Tokens
	if tokens == nil {
		tokens = token.NewCache()
	}

	return &HTTPAPIClient{
		baseURL:      cfg.BaseURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		tokens:       tokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ============================================================================
// JSON Request/Response structures for the UPS Rating API
// ============================================================================

type rateRequest struct {
	RateRequest rateRequestBody `json:"RateRequest"`
}

type rateRequestBody struct {
	Request  requestOption `json:"Request"`
	Shipment shipment      `json:"Shipment"`
}

type requestOption struct {
	RequestOption string `json:"RequestOption"`
}

type shipment struct {
	Shipper  party         `json:"Shipper"`
	ShipTo   party         `json:"ShipTo"`
	ShipFrom party         `json:"ShipFrom"`
	Package  []packageInfo `json:"Package"`
}

type party struct {
	Address address `json:"Address"`
}

type address struct {
	PostalCode  string `json:"PostalCode"`
	CountryCode string `json:"CountryCode"`
}

type packageInfo struct {
	PackagingType codeDescription `json:"PackagingType"`
	PackageWeight packageWeight   `json:"PackageWeight"`
}

type codeDescription struct {
	Code        string `json:"Code"`
	Description string `json:"Description,omitempty"`
}

type packageWeight struct {
	UnitOfMeasurement codeDescription `json:"UnitOfMeasurement"`
	Weight            string          `json:"Weight"`
}

type rateResponse struct {
	RateResponse rateResponseBody `json:"RateResponse"`
}

type rateResponseBody struct {
	RatedShipment []ratedShipment `json:"RatedShipment"`
}

type ratedShipment struct {
	Service               codeDescription        `json:"Service"`
	TotalCharges          *charge                `json:"TotalCharges,omitempty"`
	NegotiatedRateCharges *negotiatedRateCharges `json:"NegotiatedRateCharges,omitempty"`
	GuaranteedDelivery    *guaranteedDelivery    `json:"GuaranteedDelivery,omitempty"`
}

type negotiatedRateCharges struct {
	TotalCharge charge `json:"TotalCharge"`
}

type charge struct {
	CurrencyCode  string `json:"CurrencyCode"`
	MonetaryValue string `json:"MonetaryValue"`
}

type guaranteedDelivery struct {
	BusinessDaysInTransit string `json:"BusinessDaysInTransit"`
	DeliveryByTime        string `json:"DeliveryByTime,omitempty"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   string `json:"expires_in"`
}

type errorResponse struct {
	Response struct {
		Errors []struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"response"`
}

// ============================================================================
// API Implementation
// ============================================================================

// GetRates rate-shops a shipment against the UPS Rating API.
func (c *HTTPAPIClient) GetRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error) {
	bearer, err := c.tokens.Bearer(ctx, "ups", c.fetchToken)
	if err != nil {
		return nil, &APIError{Code: "AUTH", Message: err.Error()}
	}

	origin := party{Address: address{PostalCode: req.ShipperPostal, CountryCode: req.ShipperCountry}}
	payload := rateRequest{
		RateRequest: rateRequestBody{
			Request: requestOption{RequestOption: "Shop"},
			Shipment: shipment{
				Shipper:  origin,
				ShipFrom: origin,
				ShipTo:   party{Address: address{PostalCode: req.DestPostal, CountryCode: req.DestCountry}},
				Package: []packageInfo{
					{
						PackagingType: codeDescription{Code: "02", Description: "Package"},
						PackageWeight: packageWeight{
							UnitOfMeasurement: codeDescription{Code: "KGS"},
							Weight:            strconv.FormatFloat(req.WeightKG, 'f', 2, 64),
						},
					},
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/rating/v2409/Shop", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+bearer)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var rated rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&rated); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return convertRateResponse(&rated), nil
}

func convertRateResponse(resp *rateResponse) *RatesResponse {
	shipments := make([]RatedShipment, 0, len(resp.RateResponse.RatedShipment))
	for _, rs := range resp.RateResponse.RatedShipment {
		line := RatedShipment{
			ServiceCode:        rs.Service.Code,
			ServiceDescription: rs.Service.Description,
		}

		// Prefer the negotiated account rate over the published list rate.
		switch {
		case rs.NegotiatedRateCharges != nil:
			v, err := strconv.ParseFloat(rs.NegotiatedRateCharges.TotalCharge.MonetaryValue, 64)
			if err != nil {
				continue // malformed charge
			}
			line.TotalCharge = v
			line.Currency = rs.NegotiatedRateCharges.TotalCharge.CurrencyCode
			line.Negotiated = true
		case rs.TotalCharges != nil:
			v, err := strconv.ParseFloat(rs.TotalCharges.MonetaryValue, 64)
			if err != nil {
				continue // malformed charge
			}
			line.TotalCharge = v
			line.Currency = rs.TotalCharges.CurrencyCode
		default:
			continue // unpriced line
		}

		if rs.GuaranteedDelivery != nil {
			if days, err := strconv.Atoi(rs.GuaranteedDelivery.BusinessDaysInTransit); err == nil {
				line.BusinessDaysInTransit = days
			}
		}

		shipments = append(shipments, line)
	}
	return &RatesResponse{RatedShipments: shipments}
}

// fetchToken performs the OAuth2 client-credentials exchange. UPS takes the
// client id and secret Basic-encoded on the token request.
func (c *HTTPAPIClient) fetchToken(ctx context.Context) (token.Token, error) {
	form := url.Values{"grant_type": {"client_credentials"}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/security/v1/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return token.Token{}, fmt.Errorf("failed to create token request: %w", err)
	}

	auth := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return token.Token{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return token.Token{}, &APIError{
			Code:    fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message: "token exchange failed: " + string(body),
		}
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return token.Token{}, fmt.Errorf("failed to decode token response: %w", err)
	}

	ttl, err := strconv.ParseInt(tr.ExpiresIn, 10, 64)
	if err != nil || ttl <= 0 {
		ttl = 3600
	}

	return token.Token{
		AccessToken: tr.AccessToken,
		ExpiresAt:   time.Now().Add(time.Duration(ttl) * time.Second),
	}, nil
}

func (c *HTTPAPIClient) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && len(errResp.Response.Errors) > 0 {
		return &APIError{
			Code:    errResp.Response.Errors[0].Code,
			Message: errResp.Response.Errors[0].Message,
		}
	}

	return &APIError{
		Code:    fmt.Sprintf("HTTP_%d", resp.StatusCode),
		Message: string(body),
	}
}

var _ APIClient = (*HTTPAPIClient)(nil)
