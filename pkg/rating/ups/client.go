// Package ups provides rating integration with the UPS Rating API.
package ups

import (
	"context"
	"errors"
	"time"

	"github.com/catielanier/smrt-stores/pkg/rating"
	"github.com/catielanier/smrt-stores/pkg/rating/token"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const carrierName = string(rating.CarrierUPS)

// Config holds UPS configuration.
type Config struct {
	ClientID      string
	ClientSecret  string
	BaseURL       string
	OriginPostal  string
	OriginCountry string
	UseMock       bool
}

// Client is the UPS rating client.
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
}

// New creates a new UPS client. The token cache is shared with the other
// OAuth2 carriers and keyed by carrier name.
func New(cfg Config, tokens *token.Cache, logger *otelzap.Logger) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
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

// NewWithAPIClient creates a new UPS client with a custom API client.
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

// Available reports carrier applicability. UPS serves both domestic and
// international destinations.
func (c *Client) Available(countryCode string) bool {
	return countryCode != ""
}

// Quote returns canonical shipping quotes from UPS.
func (c *Client) Quote(ctx context.Context, req *rating.QuoteRequest) ([]rating.Quote, error) {
	c.logger.Info("Getting UPS rates",
		zap.String("destination_postal", req.PostalCode),
		zap.String("destination_country", req.CountryCode),
		zap.Float64("weight_kg", req.Weight),
	)

	originCountry := c.config.OriginCountry
	if originCountry == "" {
		originCountry = "CA"
	}

	apiResp, err := c.apiClient.GetRates(ctx, &RatesRequest{
		ShipperPostal:  rating.NormalizePostalCode(c.config.OriginPostal),
		ShipperCountry: originCountry,
		DestPostal:     req.PostalCode,
		DestCountry:    req.CountryCode,
		WeightKG:       req.Weight,
	})
	if err != nil {
		c.logger.Error("UPS API error", zap.Error(err))
		return nil, wrapAPIError(err)
	}

	return toCanonical(apiResp), nil
}

func wrapAPIError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return rating.NewCarrierError(rating.CarrierUPS, apiErr.Code, apiErr.Message).WithCause(err)
	}
	return rating.NewCarrierError(rating.CarrierUPS, "TRANSPORT", "rate call failed").WithCause(err)
}

// ============================================================================
// Canonical mapping
// ============================================================================

var serviceBuckets = map[string]rating.ServiceBucket{
	"01": rating.BucketAir,      // Next Day Air
	"02": rating.BucketAir,      // 2nd Day Air
	"03": rating.BucketGround,   // Ground
	"07": rating.BucketExpress,  // Worldwide Express
	"08": rating.BucketStandard, // Worldwide Expedited
	"11": rating.BucketStandard, // Standard
	"12": rating.BucketStandard, // 3 Day Select
	"13": rating.BucketAir,      // Next Day Air Saver
	"14": rating.BucketAir,      // Next Day Air Early
	"54": rating.BucketExpress,  // Worldwide Express Plus
	"65": rating.BucketExpress,  // Worldwide Saver
}

func toCanonical(resp *RatesResponse) []rating.Quote {
	quotes := make([]rating.Quote, 0, len(resp.RatedShipments))
	for _, rs := range resp.RatedShipments {
		quotes = append(quotes, rating.Quote{
			Carrier:        rating.CarrierUPS,
			Bucket:         classifyService(rs.ServiceCode, rs.ServiceDescription),
			CostCents:      rating.ToCents(rs.TotalCharge),
			Currency:       rs.Currency,
			TransitDaysMin: rs.BusinessDaysInTransit,
			TransitDaysMax: rs.BusinessDaysInTransit,
		})
	}
	return quotes
}

func classifyService(code, name string) rating.ServiceBucket {
	if b, ok := serviceBuckets[code]; ok {
		return b
	}
	return rating.ClassifyServiceName(name)
}

var _ rating.Carrier = (*Client)(nil)
