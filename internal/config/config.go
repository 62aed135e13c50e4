package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Rating
	OriginPostalCode string        `envconfig:"ORIGIN_POSTAL_CODE"`
	OriginCountry    string        `envconfig:"ORIGIN_COUNTRY" default:"CA"`
	CarrierTimeout   time.Duration `envconfig:"CARRIER_TIMEOUT" default:"5s"`

	// Canada Post
	CanadaPostUsername string `envconfig:"CANADA_POST_API_USERNAME"`
	CanadaPostPassword string `envconfig:"CANADA_POST_API_PASSWORD"`
	CanadaPostCustomer string `envconfig:"CANADA_POST_CUSTOMER_NUMBER"`
	CanadaPostBaseURL  string `envconfig:"CANADA_POST_BASE_URL" default:"https://soa-gw.canadapost.ca"`
	CanadaPostEnabled  bool   `envconfig:"CANADA_POST_ENABLED" default:"true"`
	CanadaPostUseMock  bool   `envconfig:"CANADA_POST_USE_MOCK" default:"false"`

	// UPS
	UPSClientID     string `envconfig:"UPS_CLIENT_ID"`
	UPSClientSecret string `envconfig:"UPS_CLIENT_SECRET"`
	UPSBaseURL      string `envconfig:"UPS_BASE_URL" default:"https://onlinetools.ups.com"`
	UPSEnabled      bool   `envconfig:"UPS_ENABLED" default:"true"`
	UPSUseMock      bool   `envconfig:"UPS_USE_MOCK" default:"false"`

	// FedEx
	FedExClientID     string `envconfig:"FEDEX_CLIENT_ID"`
	FedExClientSecret string `envconfig:"FEDEX_CLIENT_SECRET"`
	FedExAccount      string `envconfig:"FEDEX_ACCOUNT_NUMBER"`
	FedExBaseURL      string `envconfig:"FEDEX_BASE_URL" default:"https://apis.fedex.com"`
	FedExEnabled      bool   `envconfig:"FEDEX_ENABLED" default:"true"`
	FedExUseMock      bool   `envconfig:"FEDEX_USE_MOCK" default:"false"`

	// Purolator
	PurolatorClientID     string `envconfig:"PUROLATOR_CLIENT_ID"`
	PurolatorClientSecret string `envconfig:"PUROLATOR_CLIENT_SECRET"`
	PurolatorAccount      string `envconfig:"PUROLATOR_ACCOUNT_NUMBER"`
	PurolatorBaseURL      string `envconfig:"PUROLATOR_BASE_URL" default:"https://webservices.purolator.com"`
	PurolatorEnabled      bool   `envconfig:"PUROLATOR_ENABLED" default:"true"`
	PurolatorUseMock      bool   `envconfig:"PUROLATOR_USE_MOCK" default:"false"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"true"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"smrt-shipping"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.Bool("canadapost.enabled", c.CanadaPostEnabled),
		attribute.Bool("ups.enabled", c.UPSEnabled),
		attribute.Bool("fedex.enabled", c.FedExEnabled),
		attribute.Bool("purolator.enabled", c.PurolatorEnabled),
	}
}
