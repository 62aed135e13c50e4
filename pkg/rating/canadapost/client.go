// Package canadapost provides rating integration with the Canada Post API.
package canadapost

import (
	"context"
	"errors"
	"time"

	"github.com/catielanier/smrt-stores/pkg/rating"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const carrierName = string(rating.CarrierCanadaPost)

// Config holds Canada Post configuration.
type Config struct {
	Username       string
	Password       string
	CustomerNumber string
	BaseURL        string
	OriginPostal   string
	UseMock        bool
}

// Client is the Canada Post rating client.
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
}

// New creates a new Canada Post client.
func New(cfg Config, logger *otelzap.Logger) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:  cfg.BaseURL,
			Username: cfg.Username,
			Password: cfg.Password,
			Timeout:  30 * time.Second,
		})
	}

	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
	}
}

// NewWithAPIClient creates a new Canada Post client with a custom API client.
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

// Available reports carrier applicability. Canada Post rates domestic,
// US, and international destinations.
func (c *Client) Available(countryCode string) bool {
	return countryCode != ""
}

// Quote returns canonical shipping quotes from Canada Post.
func (c *Client) Quote(ctx context.Context, req *rating.QuoteRequest) ([]rating.Quote, error) {
	c.logger.Info("Getting Canada Post rates",
		zap.String("destination_postal", req.PostalCode),
		zap.String("destination_country", req.CountryCode),
		zap.Float64("weight_kg", req.Weight),
	)

	apiReq := &RatesRequest{
		CustomerNumber: c.config.CustomerNumber,
		WeightKG:       req.Weight,
		OriginPostal:   rating.NormalizePostalCode(c.config.OriginPostal),
	}

	switch req.CountryCode {
	case "CA":
		apiReq.Destination.Domestic = &DomesticDestination{PostalCode: req.PostalCode}
	case "US":
		apiReq.Destination.UnitedStates = &USDestination{ZipCode: req.PostalCode}
	default:
		apiReq.Destination.International = &InternationalDestination{CountryCode: req.CountryCode}
	}

	apiResp, err := c.apiClient.GetRates(ctx, apiReq)
	if err != nil {
		c.logger.Error("Canada Post API error", zap.Error(err))
		return nil, wrapAPIError(err)
	}

	return toCanonical(apiResp, req.CountryCode), nil
}

func wrapAPIError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return rating.NewCarrierError(rating.CarrierCanadaPost, apiErr.Code, apiErr.Description).WithCause(err)
	}
	return rating.NewCarrierError(rating.CarrierCanadaPost, "TRANSPORT", "rate call failed").WithCause(err)
}

// ============================================================================
// Canonical mapping
// ============================================================================

// Service codes offered per destination region. Rate lines outside the
// region's whitelist are dropped rather than quoted.
var regionServiceCodes = map[string][]string{
	"CA":  {"DOM.RP", "DOM.EP", "DOM.XP"},
	"US":  {"USA.EP", "USA.TP", "USA.XP"},
	"INT": {"INT.XP", "INT.IP.AIR", "INT.TP"},
}

var serviceBuckets = map[string]rating.ServiceBucket{
	"DOM.RP":     rating.BucketGround,
	"DOM.EP":     rating.BucketStandard,
	"DOM.XP":     rating.BucketExpress,
	"USA.EP":     rating.BucketStandard,
	"USA.TP":     rating.BucketAir,
	"USA.XP":     rating.BucketExpress,
	"INT.XP":     rating.BucketExpress,
	"INT.IP.AIR": rating.BucketAir,
	"INT.TP":     rating.BucketAir,
}

func toCanonical(resp *RatesResponse, countryCode string) []rating.Quote {
	region := "INT"
	switch countryCode {
	case "CA":
		region = "CA"
	case "US":
		region = "US"
	}
	offered := regionServiceCodes[region]

	quotes := make([]rating.Quote, 0, len(resp.Rates))
	for _, r := range resp.Rates {
		// Drop lines for services not offered in this region. Codes we have
		// never seen pass through and classify by name, degrading to Unknown.
		if _, known := serviceBuckets[r.ServiceCode]; known && !serviceOffered(offered, r.ServiceCode) {
			continue
		}
		quotes = append(quotes, rating.Quote{
			Carrier:        rating.CarrierCanadaPost,
			Bucket:         classifyService(r.ServiceCode, r.ServiceName),
			CostCents:      rating.ToCents(r.TotalPrice),
			Currency:       "CAD",
			TransitDaysMin: r.ExpectedTransit,
			TransitDaysMax: r.ExpectedTransit,
		})
	}
	return quotes
}

func serviceOffered(offered []string, code string) bool {
	for _, c := range offered {
		if c == code {
			return true
		}
	}
	return false
}

func classifyService(code, name string) rating.ServiceBucket {
	if b, ok := serviceBuckets[code]; ok {
		return b
	}
	return rating.ClassifyServiceName(name)
}

var _ rating.Carrier = (*Client)(nil)
