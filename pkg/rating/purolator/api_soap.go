package purolator

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/catielanier/smrt-stores/pkg/rating/token"
	"github.com/google/uuid"
)

// SOAPAPIClient is the production implementation of APIClient using a
// SOAP-style XML envelope over HTTP.
type SOAPAPIClient struct {
	baseURL      string
	clientID     string
	clientSecret string
	tokens       *token.Cache
	httpClient   *http.Client
}

// SOAPAPIClientConfig holds configuration for the SOAP client.
type SOAPAPIClientConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Tokens       *token.Cache
	Timeout      time.Duration
}

// NewSOAPAPIClient creates a new SOAP-based API client for production use.
func NewSOAPAPIClient(cfg SOAPAPIClientConfig) *SOAPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	tokens := cfg.Tokens
	if tokens == nil {
		tokens = token.NewCache()
	}

	return &SOAPAPIClient{
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
// SOAP Request Builders
// ============================================================================

const soapEnvelopeTemplate = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/" xmlns:v2="http://purolator.com/pws/datatypes/v2">
  <soap:Header>
    <v2:RequestContext>
      <v2:Version>2.2</v2:Version>
      <v2:Language>en</v2:Language>
      <v2:GroupID>xxx</v2:GroupID>
      <v2:RequestReference>{{.RequestRef}}</v2:RequestReference>
    </v2:RequestContext>
  </soap:Header>
  <soap:Body>
    {{.Body}}
  </soap:Body>
</soap:Envelope>`

const quickEstimateTemplate = `<v2:GetQuickEstimateRequest>
      <v2:BillingAccountNumber>{{.BillingAccountNumber}}</v2:BillingAccountNumber>
      <v2:SenderPostalCode>{{.SenderPostalCode}}</v2:SenderPostalCode>
      <v2:ReceiverAddress>
        <v2:PostalCode>{{.ReceiverPostalCode}}</v2:PostalCode>
      </v2:ReceiverAddress>
      <v2:PackageType>{{.PackageType}}</v2:PackageType>
      <v2:TotalWeight>
        <v2:Value>{{.TotalWeightKG}}</v2:Value>
        <v2:WeightUnit>kg</v2:WeightUnit>
      </v2:TotalWeight>
    </v2:GetQuickEstimateRequest>`

func buildQuickEstimateRequest(req *EstimateRequest) ([]byte, error) {
	bodyTmpl, err := template.New("body").Parse(quickEstimateTemplate)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	if err := bodyTmpl.Execute(&body, req); err != nil {
		return nil, err
	}

	envTmpl, err := template.New("envelope").Parse(soapEnvelopeTemplate)
	if err != nil {
		return nil, err
	}

	var envelope bytes.Buffer
	err = envTmpl.Execute(&envelope, struct {
		RequestRef string
		Body       string
	}{
		RequestRef: "smrt-" + uuid.New().String()[:8],
		Body:       body.String(),
	})
	if err != nil {
		return nil, err
	}

	return envelope.Bytes(), nil
}

// ============================================================================
// SOAP Response structures
// ============================================================================

type soapEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    soapBody `xml:"Body"`
}

type soapBody struct {
	Fault                    *soapFault                `xml:"Fault"`
	GetQuickEstimateResponse *getQuickEstimateResponse `xml:"GetQuickEstimateResponse"`
}

type soapFault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
}

type getQuickEstimateResponse struct {
	ResponseInformation responseInformation `xml:"ResponseInformation"`
	ShipmentEstimates   shipmentEstimates   `xml:"ShipmentEstimates"`
}

type responseInformation struct {
	Errors []responseError `xml:"Errors>Error"`
}

type responseError struct {
	Code        string `xml:"Code"`
	Description string `xml:"Description"`
}

type shipmentEstimates struct {
	ShipmentEstimate []shipmentEstimate `xml:"ShipmentEstimate"`
}

type shipmentEstimate struct {
	ServiceID            string `xml:"ServiceID"`
	EstimatedTransitDays string `xml:"EstimatedTransitDays"`
	TotalPrice           string `xml:"TotalPrice"`
}

// ============================================================================
// API Implementation
// ============================================================================

// GetQuickEstimate fetches shipping estimates from the Purolator
// EstimatingService.
func (c *SOAPAPIClient) GetQuickEstimate(ctx context.Context, req *EstimateRequest) (*EstimateResponse, error) {
	bearer, err := c.tokens.Bearer(ctx, "purolator", c.fetchToken)
	if err != nil {
		return nil, &APIError{Code: "AUTH", Description: err.Error()}
	}

	soapBody, err := buildQuickEstimateRequest(req)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	endpoint := c.baseURL + "/EWS/V2/Estimating/EstimatingService.asmx"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(soapBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+bearer)
	httpReq.Header.Set("Content-Type", "text/xml; charset=utf-8")
	httpReq.Header.Set("SOAPAction", "http://purolator.com/pws/service/v2/GetQuickEstimate")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseSOAPError(resp)
	}

	return parseEstimateResponse(resp.Body)
}

func parseEstimateResponse(body io.Reader) (*EstimateResponse, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}

	var env soapEnvelope
	if err := xml.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if env.Body.Fault != nil {
		return nil, &APIError{
			Code:        env.Body.Fault.Code,
			Description: env.Body.Fault.String,
		}
	}

	if env.Body.GetQuickEstimateResponse == nil {
		return nil, &APIError{
			Code:        "PARSE_ERROR",
			Description: "No estimates in response",
		}
	}

	resp := env.Body.GetQuickEstimateResponse

	if len(resp.ResponseInformation.Errors) > 0 {
		e := resp.ResponseInformation.Errors[0]
		return nil, &APIError{
			Code:        e.Code,
			Description: e.Description,
		}
	}

	estimates := make([]Estimate, 0, len(resp.ShipmentEstimates.ShipmentEstimate))
	for _, est := range resp.ShipmentEstimates.ShipmentEstimate {
		price, err := strconv.ParseFloat(strings.TrimSpace(est.TotalPrice), 64)
		if err != nil {
			continue // malformed price
		}
		estimates = append(estimates, Estimate{
			ServiceID:            est.ServiceID,
			ServiceName:          mapServiceName(est.ServiceID),
			TotalPrice:           price,
			EstimatedTransitDays: parseInt(est.EstimatedTransitDays),
		})
	}

	return &EstimateResponse{Estimates: estimates}, nil
}

func (c *SOAPAPIClient) parseSOAPError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var env soapEnvelope
	if err := xml.Unmarshal(body, &env); err == nil && env.Body.Fault != nil {
		return &APIError{
			Code:        env.Body.Fault.Code,
			Description: env.Body.Fault.String,
		}
	}

	return &APIError{
		Code:        fmt.Sprintf("HTTP_%d", resp.StatusCode),
		Description: string(body),
	}
}

// fetchToken performs the OAuth2 client-credentials exchange against the
// Purolator connect token endpoint.
func (c *SOAPAPIClient) fetchToken(ctx context.Context) (token.Token, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/connect/token", strings.NewReader(form.Encode()))
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
			Code:        fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Description: "token exchange failed: " + string(body),
		}
	}

	var tr struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
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

func mapServiceName(serviceID string) string {
	switch serviceID {
	case "PurolatorExpress":
		return "Purolator Express"
	case "PurolatorExpress9AM":
		return "Purolator Express 9AM"
	case "PurolatorExpress10:30AM":
		return "Purolator Express 10:30AM"
	case "PurolatorGround":
		return "Purolator Ground"
	default:
		return serviceID
	}
}

func parseInt(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

var _ APIClient = (*SOAPAPIClient)(nil)
