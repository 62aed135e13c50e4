// Package server exposes the shipping-rate engine over HTTP JSON.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/catielanier/smrt-stores/internal/telemetry"
	"github.com/catielanier/smrt-stores/pkg/rating"
)

// Server is the HTTP server for the shipping service.
type Server struct {
	port       int
	aggregator *rating.Aggregator
	logger     *otelzap.Logger
	registry   *prometheus.Registry
	metrics    *telemetry.Metrics
	validate   *validator.Validate
}

// Config holds server configuration.
type Config struct {
	Port int
}

// New creates a new server instance.
func New(cfg Config, aggregator *rating.Aggregator, logger *otelzap.Logger) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Server{
		port:       cfg.Port,
		aggregator: aggregator,
		logger:     logger,
		registry:   registry,
		metrics:    telemetry.NewMetrics(registry),
		validate:   validator.New(),
	}
}

// Routes builds the chi router with base middleware and all endpoints.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	r.Post("/api/shipping/quote", s.handleQuote)

	return r
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// quoteRequest is the inbound JSON body for a rate lookup.
type quoteRequest struct {
	Weight      float64 `json:"weight" validate:"required,gt=0"`
	WeightUnit  string  `json:"weightUnit" validate:"omitempty,oneof=kg lb"`
	PostalCode  string  `json:"postalCode" validate:"required"`
	CountryCode string  `json:"countryCode" validate:"required,len=2"`
	Currency    string  `json:"currency"`
}

// quoteResponse is one canonical quote on the wire. Cost is in minor
// currency units.
type quoteResponse struct {
	Carrier        string `json:"carrier"`
	Service        string `json:"service"`
	Cost           int64  `json:"cost"`
	Currency       string `json:"currency"`
	TransitDaysMin int    `json:"transitDaysMin"`
	TransitDaysMax int    `json:"transitDaysMax"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	w.Header().Set("Content-Type", "application/json")

	var body quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		s.metrics.RecordRequest("quote", "all", "invalid", time.Since(start).Seconds())
		return
	}

	if err := s.validate.Struct(body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		s.metrics.RecordRequest("quote", "all", "invalid", time.Since(start).Seconds())
		return
	}

	unit := rating.WeightKG
	if body.WeightUnit == string(rating.WeightLB) {
		unit = rating.WeightLB
	}

	result := s.aggregator.Aggregate(r.Context(), &rating.QuoteRequest{
		Weight:      body.Weight,
		WeightUnit:  unit,
		PostalCode:  body.PostalCode,
		CountryCode: body.CountryCode,
		Currency:    body.Currency,
	})

	for _, f := range result.Failures {
		s.metrics.RecordError(string(f.Carrier), "quote_failed")
	}
	if result.AllFailed() {
		// Legacy contract: the caller still gets a 200 with an empty
		// list when every carrier errored out.
		s.logger.Ctx(r.Context()).Warn("All carriers failed",
			zap.Int("failures", len(result.Failures)))
	}

	out := make([]quoteResponse, 0, len(result.Quotes))
	for _, q := range result.Quotes {
		out = append(out, quoteResponse{
			Carrier:        string(q.Carrier),
			Service:        string(q.Bucket),
			Cost:           q.CostCents,
			Currency:       q.Currency,
			TransitDaysMin: q.TransitDaysMin,
			TransitDaysMax: q.TransitDaysMax,
		})
	}

	s.metrics.RecordRequest("quote", "all", "success", time.Since(start).Seconds())
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(out)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: msg})
}
