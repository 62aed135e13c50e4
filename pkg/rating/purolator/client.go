// Package purolator provides rating integration with the Purolator
// EstimatingService. Purolator only rates domestic Canadian shipments.
package purolator

import (
	"context"
	"errors"
	"time"

	"github.com/catielanier/smrt-stores/pkg/rating"
	"github.com/catielanier/smrt-stores/pkg/rating/token"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const carrierName = string(rating.CarrierPurolator)

// homeCountry is the only destination country Purolator estimates.
const homeCountry = "CA"

// Config holds Purolator configuration.
type Config struct {
	ClientID      string
	ClientSecret  string
	AccountNumber string
	BaseURL       string
	OriginPostal  string
	UseMock       bool
}

// Client is the Purolator rating client.
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
}

// New creates a new Purolator client. The token cache is shared with the
// other OAuth2 carriers and keyed by carrier name.
func New(cfg Config, tokens *token.Cache, logger *otelzap.Logger) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewSOAPAPIClient(SOAPAPIClientConfig{
			BaseURL:      cfg.BaseURL,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Tokens:       tokens,
			Timeout:      30 * time.Second,
		})
	}

	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
	}
}

// NewWithAPIClient creates a new Purolator client with a custom API client.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger) *Client {
	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
	}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return carrierName
}

// Available reports carrier applicability: domestic shipments only.
func (c *Client) Available(countryCode string) bool {
	return countryCode == homeCountry
}

// Quote returns canonical shipping quotes from Purolator. Non-domestic
// requests yield no quotes and no network call.
func (c *Client) Quote(ctx context.Context, req *rating.QuoteRequest) ([]rating.Quote, error) {
	if req.CountryCode != homeCountry {
		return nil, nil
	}

	c.logger.Info("Getting Purolator estimates",
		zap.String("destination_postal", req.PostalCode),
		zap.Float64("weight_kg", req.Weight),
	)

	apiResp, err := c.apiClient.GetQuickEstimate(ctx, &EstimateRequest{
		BillingAccountNumber: c.config.AccountNumber,
		SenderPostalCode:     rating.NormalizePostalCode(c.config.OriginPostal),
		ReceiverPostalCode:   req.PostalCode,
		PackageType:          "CustomerPackaging",
		TotalWeightKG:        req.Weight,
	})
	if err != nil {
		c.logger.Error("Purolator API error", zap.Error(err))
		return nil, wrapAPIError(err)
	}

	return toCanonical(apiResp), nil
}

func wrapAPIError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return rating.NewCarrierError(rating.CarrierPurolator, apiErr.Code, apiErr.Description).WithCause(err)
	}
	return rating.NewCarrierError(rating.CarrierPurolator, "TRANSPORT", "estimate call failed").WithCause(err)
}

// ============================================================================
// Canonical mapping
// ============================================================================

var serviceBuckets = map[string]rating.ServiceBucket{
	"PurolatorGround":         rating.BucketGround,
	"PurolatorGround9AM":      rating.BucketGround,
	"PurolatorGround10:30AM":  rating.BucketGround,
	"PurolatorExpress":        rating.BucketExpress,
	"PurolatorExpress9AM":     rating.BucketExpress,
	"PurolatorExpress10:30AM": rating.BucketExpress,
}

func toCanonical(resp *EstimateResponse) []rating.Quote {
	quotes := make([]rating.Quote, 0, len(resp.Estimates))
	for _, est := range resp.Estimates {
		quotes = append(quotes, rating.Quote{
			Carrier:        rating.CarrierPurolator,
			Bucket:         classifyService(est.ServiceID, est.ServiceName),
			CostCents:      rating.ToCents(est.TotalPrice),
			Currency:       "CAD",
			TransitDaysMin: est.EstimatedTransitDays,
			TransitDaysMax: est.EstimatedTransitDays,
		})
	}
	return quotes
}

func classifyService(serviceID, name string) rating.ServiceBucket {
	if b, ok := serviceBuckets[serviceID]; ok {
		return b
	}
	return rating.ClassifyServiceName(name)
}

var _ rating.Carrier = (*Client)(nil)
