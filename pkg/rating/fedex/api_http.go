package fedex

import (
	"bytes"
	"context"
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
	baseURL       string
	clientID      string
	clientSecret  string
	accountNumber string
	tokens        *token.Cache
	httpClient    *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL       string
	ClientID      string
	ClientSecret  string
	AccountNumber string
	Tokens        *token.Cache
	Timeout       time.Duration
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
		baseURL:       cfg.BaseURL,
		clientID:      cfg.ClientID,
		clientSecret:  cfg.ClientSecret,
		accountNumber: cfg.AccountNumber,
		tokens:        tokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ============================================================================
// JSON Request/Response structures for the FedEx Rates API
// ============================================================================

type rateQuoteRequest struct {
	AccountNumber                accountNumber         `json:"accountNumber"`
	RateRequestControlParameters rateControlParameters `json:"rateRequestControlParameters"`
	RequestedShipment            requestedShipment     `json:"requestedShipment"`
}

type accountNumber struct {
	Value string `json:"value"`
}

type rateControlParameters struct {
	ReturnTransitTimes bool `json:"returnTransitTimes"`
}

type requestedShipment struct {
	Shipper                   party             `json:"shipper"`
	Recipient                 party             `json:"recipient"`
	PreferredCurrency         string            `json:"preferredCurrency,omitempty"`
	RateRequestType           []string          `json:"rateRequestType"`
	PickupType                string            `json:"pickupType"`
	RequestedPackageLineItems []packageLineItem `json:"requestedPackageLineItems"`
}

type party struct {
	Address address `json:"address"`
}

type address struct {
	PostalCode  string `json:"postalCode"`
	CountryCode string `json:"countryCode"`
}

type packageLineItem struct {
	Weight weight `json:"weight"`
}

type weight struct {
	Units string  `json:"units"`
	Value float64 `json:"value"`
}

type rateQuoteResponse struct {
	Output rateOutput `json:"output"`
}

type rateOutput struct {
	RateReplyDetails []rateReplyDetail `json:"rateReplyDetails"`
}

type rateReplyDetail struct {
	ServiceType          string                `json:"serviceType"`
	ServiceName          string                `json:"serviceName"`
	CarrierCode          string                `json:"carrierCode"`
	RatedShipmentDetails []ratedShipmentDetail `json:"ratedShipmentDetails"`
	Commit               *commitDetail         `json:"commit,omitempty"`
}

type ratedShipmentDetail struct {
	RateType       string  `json:"rateType"`
	TotalNetCharge float64 `json:"totalNetCharge"`
	Currency       string  `json:"currency"`
}

type commitDetail struct {
	TransitDays *transitDays `json:"transitDays,omitempty"`
}

type transitDays struct {
	MinimumTransitTime string `json:"minimumTransitTime,omitempty"`
	MaximumTransitTime string `json:"maximumTransitTime,omitempty"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type errorResponse struct {
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// ============================================================================
// API Implementation
// ============================================================================

// GetRates fetches rate quotes from the FedEx Rates API.
func (c *HTTPAPIClient) GetRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error) {
	bearer, err := c.tokens.Bearer(ctx, "fedex", c.fetchToken)
	if err != nil {
		return nil, &APIError{Code: "AUTH", Message: err.Error()}
	}

	payload := rateQuoteRequest{
		AccountNumber:                accountNumber{Value: c.accountNumber},
		RateRequestControlParameters: rateControlParameters{ReturnTransitTimes: true},
		RequestedShipment: requestedShipment{
			Shipper:           party{Address: address{PostalCode: req.ShipperPostal, CountryCode: req.ShipperCountry}},
			Recipient:         party{Address: address{PostalCode: req.DestPostal, CountryCode: req.DestCountry}},
			PreferredCurrency: req.Currency,
			RateRequestType:   []string{"ACCOUNT", "LIST"},
			PickupType:        "DROPOFF_AT_FEDEX_LOCATION",
			RequestedPackageLineItems: []packageLineItem{
				{Weight: weight{Units: "KG", Value: req.WeightKG}},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/rate/v1/rates/quotes", bytes.NewReader(body))
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

	var quote rateQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return convertRateResponse(&quote), nil
}

func convertRateResponse(resp *rateQuoteResponse) *RatesResponse {
	replies := make([]RateReply, 0, len(resp.Output.RateReplyDetails))
	for _, rd := range resp.Output.RateReplyDetails {
		if len(rd.RatedShipmentDetails) == 0 {
			continue // unpriced line
		}

		// A reply can carry several rated-shipment-detail blocks (account
		// vs list rates); keep the lowest net charge.
		best := rd.RatedShipmentDetails[0]
		for _, d := range rd.RatedShipmentDetails[1:] {
			if d.TotalNetCharge < best.TotalNetCharge {
				best = d
			}
		}

		reply := RateReply{
			ServiceType: rd.ServiceType,
			ServiceName: rd.ServiceName,
			CarrierCode: rd.CarrierCode,
			NetCharge:   best.TotalNetCharge,
			Currency:    best.Currency,
		}

		if rd.Commit != nil && rd.Commit.TransitDays != nil {
			minLo, minHi := parseTransitToken(rd.Commit.TransitDays.MinimumTransitTime)
			maxLo, maxHi := parseTransitToken(rd.Commit.TransitDays.MaximumTransitTime)
			reply.TransitMinDays = minLo
			reply.TransitMaxDays = maxHi
			if reply.TransitMinDays == 0 {
				reply.TransitMinDays = maxLo
			}
			if reply.TransitMaxDays == 0 {
				reply.TransitMaxDays = minHi
			}
		}

		replies = append(replies, reply)
	}
	return &RatesResponse{RateReplies: replies}
}

// ============================================================================
// Transit token vocabulary
// ============================================================================

var dayWords = map[string]int{
	"ONE": 1, "TWO": 2, "THREE": 3, "FOUR": 4, "FIVE": 5,
	"SIX": 6, "SEVEN": 7, "EIGHT": 8, "NINE": 9, "TEN": 10,
	"ELEVEN": 11, "TWELVE": 12, "THIRTEEN": 13, "FOURTEEN": 14,
	"FIFTEEN": 15, "SIXTEEN": 16, "SEVENTEEN": 17, "EIGHTEEN": 18,
	"NINETEEN": 19, "TWENTY": 20,
}

// parseTransitToken converts a FedEx transit-time token into a day range.
// Tokens are point estimates ("TWO_DAYS", both bounds equal) or ranges
// ("EIGHT_TO_TEN_DAYS"); unknown tokens yield (0, 0).
func parseTransitToken(tok string) (lo, hi int) {
	tok = strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(tok)), "_DAYS")
	tok = strings.TrimSuffix(tok, "_DAY")
	if tok == "" || tok == "UNKNOWN" {
		return 0, 0
	}

	if days, ok := dayWords[tok]; ok {
		return days, days
	}

	if head, tail, found := strings.Cut(tok, "_TO_"); found {
		return dayWords[head], dayWords[tail]
	}

	if days, err := strconv.Atoi(tok); err == nil {
		return days, days
	}
	return 0, 0
}

// fetchToken performs the OAuth2 client-credentials exchange. FedEx takes
// the client id and secret as form fields on the token request.
func (c *HTTPAPIClient) fetchToken(ctx context.Context) (token.Token, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return token.Token{}, fmt.Errorf("failed to create token request: %w", err)
	}
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

	ttl := tr.ExpiresIn
	if ttl <= 0 {
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
	if err := json.Unmarshal(body, &errResp); err == nil && len(errResp.Errors) > 0 {
		return &APIError{
			Code:    errResp.Errors[0].Code,
			Message: errResp.Errors[0].Message,
		}
	}

	return &APIError{
		Code:    fmt.Sprintf("HTTP_%d", resp.StatusCode),
		Message: string(body),
	}
}

var _ APIClient = (*HTTPAPIClient)(nil)
