package main

import (
	"context"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"

	"github.com/catielanier/smrt-stores/internal/config"
	"github.com/catielanier/smrt-stores/internal/telemetry"
	"github.com/catielanier/smrt-stores/pkg/rating"
	"github.com/catielanier/smrt-stores/pkg/rating/canadapost"
	"github.com/catielanier/smrt-stores/pkg/rating/fedex"
	"github.com/catielanier/smrt-stores/pkg/rating/purolator"
	"github.com/catielanier/smrt-stores/pkg/rating/token"
	"github.com/catielanier/smrt-stores/pkg/rating/ups"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return func(context.Context) error { return nil }, nil
	}

	_, shutdown, err := telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
	return shutdown, err
}

func initAggregator(cfg *config.Config, logger *otelzap.Logger) *rating.Aggregator {
	aggregator := rating.NewAggregator(logger)
	aggregator.SetTimeout(cfg.CarrierTimeout)

	// One bearer-token cache shared by all OAuth2 carriers.
	tokens := token.NewCache()

	if cfg.CanadaPostEnabled {
		aggregator.Register(canadapost.New(canadapost.Config{
			Username:       cfg.CanadaPostUsername,
			Password:       cfg.CanadaPostPassword,
			CustomerNumber: cfg.CanadaPostCustomer,
			BaseURL:        cfg.CanadaPostBaseURL,
			OriginPostal:   cfg.OriginPostalCode,
			UseMock:        cfg.CanadaPostUseMock,
		}, logger))
	}

	if cfg.UPSEnabled {
		aggregator.Register(ups.New(ups.Config{
			ClientID:      cfg.UPSClientID,
			ClientSecret:  cfg.UPSClientSecret,
			BaseURL:       cfg.UPSBaseURL,
			OriginPostal:  cfg.OriginPostalCode,
			OriginCountry: cfg.OriginCountry,
			UseMock:       cfg.UPSUseMock,
		}, tokens, logger))
	}

	if cfg.FedExEnabled {
		aggregator.Register(fedex.New(fedex.Config{
			ClientID:      cfg.FedExClientID,
			ClientSecret:  cfg.FedExClientSecret,
			AccountNumber: cfg.FedExAccount,
			BaseURL:       cfg.FedExBaseURL,
			OriginPostal:  cfg.OriginPostalCode,
			OriginCountry: cfg.OriginCountry,
			UseMock:       cfg.FedExUseMock,
		}, tokens, logger))
	}

	if cfg.PurolatorEnabled {
		aggregator.Register(purolator.New(purolator.Config{
			ClientID:      cfg.PurolatorClientID,
			ClientSecret:  cfg.PurolatorClientSecret,
			AccountNumber: cfg.PurolatorAccount,
			BaseURL:       cfg.PurolatorBaseURL,
			OriginPostal:  cfg.OriginPostalCode,
			UseMock:       cfg.PurolatorUseMock,
		}, tokens, logger))
	}

	return aggregator
}
