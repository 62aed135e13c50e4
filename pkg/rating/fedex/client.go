// Package fedex provides rating integration with the FedEx Rates API.
package fedex

import (
	"context"
	"errors"
	"time"

	"github.com/catielanier/smrt-stores/pkg/rating"
	"github.com/catielanier/smrt-stores/pkg/rating/token"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const carrierName = string(rating.CarrierFedEx)

// Config holds FedEx configuration.
type Config struct {
	ClientID      string
	ClientSecret  string
	AccountNumber string
	BaseURL       string
	OriginPostal  string
	OriginCountry string
	UseMock       bool
}

// Client is the FedEx rating client.
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
}

// New creates a new FedEx client. The token cache is shared with the other
// OAuth2 carriers and keyed by carrier name.
func New(cfg Config, tokens *token.Cache, logger *otelzap.Logger) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:       cfg.BaseURL,
			ClientID:      cfg.ClientID,
			ClientSecret:  cfg.ClientSecret,
			AccountNumber: cfg.AccountNumber,
			Tokens:        tokens,
			Timeout:       30 * time.Second,
		})
	}

	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
	}
}

// NewWithAPIClient creates a new FedEx client with a custom API client.
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

// Available reports carrier applicability. FedEx serves both domestic and
// international destinations.
func (c *Client) Available(countryCode string) bool {
	return countryCode != ""
}

// Quote returns canonical shipping quotes from FedEx.
func (c *Client) Quote(ctx context.Context, req *rating.QuoteRequest) ([]rating.Quote, error) {
	c.logger.Info("Getting FedEx rates",
		zap.String("destination_postal", req.PostalCode),
		zap.String("destination_country", req.CountryCode),
		zap.Float64("weight_kg", req.Weight),
	)

	originCountry := c.config.OriginCountry
	if originCountry == "" {
		originCountry = "CA"
	}

	apiResp, err := c.apiClient.GetRates(ctx, &RatesRequest{
		AccountNumber:  c.config.AccountNumber,
		ShipperPostal:  rating.NormalizePostalCode(c.config.OriginPostal),
		ShipperCountry: originCountry,
		DestPostal:     req.PostalCode,
		DestCountry:    req.CountryCode,
		WeightKG:       req.Weight,
		Currency:       req.Currency,
	})
	if err != nil {
		c.logger.Error("FedEx API error", zap.Error(err))
		return nil, wrapAPIError(err)
	}

	return toCanonical(apiResp), nil
}

func wrapAPIError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return rating.NewCarrierError(rating.CarrierFedEx, apiErr.Code, apiErr.Message).WithCause(err)
	}
	return rating.NewCarrierError(rating.CarrierFedEx, "TRANSPORT", "rate call failed").WithCause(err)
}

// ============================================================================
// Canonical mapping
// ============================================================================

var serviceBuckets = map[string]rating.ServiceBucket{
	"FEDEX_GROUND":           rating.BucketGround,
	"GROUND_HOME_DELIVERY":   rating.BucketGround,
	"FIRST_OVERNIGHT":        rating.BucketExpress,
	"PRIORITY_OVERNIGHT":     rating.BucketExpress,
	"STANDARD_OVERNIGHT":     rating.BucketExpress,
	"FEDEX_2_DAY":            rating.BucketAir,
	"FEDEX_2_DAY_AM":         rating.BucketAir,
	"FEDEX_EXPRESS_SAVER":    rating.BucketAir,
	"INTERNATIONAL_ECONOMY":  rating.BucketStandard,
	"INTERNATIONAL_PRIORITY": rating.BucketExpress,
	"INTERNATIONAL_FIRST":    rating.BucketExpress,
}

func toCanonical(resp *RatesResponse) []rating.Quote {
	quotes := make([]rating.Quote, 0, len(resp.RateReplies))
	for _, rr := range resp.RateReplies {
		quotes = append(quotes, rating.Quote{
			Carrier:        rating.CarrierFedEx,
			Bucket:         classifyService(rr.ServiceType, rr.ServiceName),
			CostCents:      rating.ToCents(rr.NetCharge),
			Currency:       rr.Currency,
			TransitDaysMin: rr.TransitMinDays,
			TransitDaysMax: rr.TransitMaxDays,
		})
	}
	return quotes
}

func classifyService(serviceType, name string) rating.ServiceBucket {
	if b, ok := serviceBuckets[serviceType]; ok {
		return b
	}
	return rating.ClassifyServiceName(name)
}

var _ rating.Carrier = (*Client)(nil)
