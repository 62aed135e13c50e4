package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/catielanier/smrt-stores/internal/server"
	"github.com/catielanier/smrt-stores/pkg/rating"
	"github.com/catielanier/smrt-stores/pkg/rating/mock"
)

type wireQuote struct {
	Carrier        string `json:"carrier"`
	Service        string `json:"service"`
	Cost           int64  `json:"cost"`
	Currency       string `json:"currency"`
	TransitDaysMin int    `json:"transitDaysMin"`
	TransitDaysMax int    `json:"transitDaysMax"`
}

func newTestServer(carriers ...rating.Carrier) http.Handler {
	logger := otelzap.New(zap.NewNop())
	agg := rating.NewAggregator(logger, carriers...)
	return server.New(server.Config{Port: 8080}, agg, logger).Routes()
}

func postQuote(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/shipping/quote", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleQuote_Success(t *testing.T) {
	cheap := mock.New("purolator")
	cheap.Quotes = []rating.Quote{
		{Carrier: rating.CarrierPurolator, Bucket: rating.BucketGround, CostCents: 1050, Currency: "CAD", TransitDaysMin: 3, TransitDaysMax: 3},
	}
	pricier := mock.New("canadapost")
	pricier.Quotes = []rating.Quote{
		{Carrier: rating.CarrierCanadaPost, Bucket: rating.BucketGround, CostCents: 1200, Currency: "CAD", TransitDaysMin: 5, TransitDaysMax: 5},
	}

	handler := newTestServer(pricier, cheap)
	rec := postQuote(t, handler, `{"weight":2,"weightUnit":"kg","postalCode":"K1A 0B1","countryCode":"CA"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var quotes []wireQuote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quotes))
	require.Len(t, quotes, 2)

	assert.Equal(t, "purolator", quotes[0].Carrier)
	assert.Equal(t, "ground", quotes[0].Service)
	assert.Equal(t, int64(1050), quotes[0].Cost)
	assert.Equal(t, 3, quotes[0].TransitDaysMin)
	assert.Equal(t, "canadapost", quotes[1].Carrier)
	assert.Equal(t, int64(1200), quotes[1].Cost)
}

func TestHandleQuote_MissingPostalCode(t *testing.T) {
	handler := newTestServer(mock.New("canadapost"))
	rec := postQuote(t, handler, `{"weight":2,"countryCode":"CA"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleQuote_MissingCountryCode(t *testing.T) {
	handler := newTestServer(mock.New("canadapost"))
	rec := postQuote(t, handler, `{"weight":2,"postalCode":"K1A0B1"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleQuote_InvalidWeight(t *testing.T) {
	handler := newTestServer(mock.New("canadapost"))
	rec := postQuote(t, handler, `{"weight":0,"postalCode":"K1A0B1","countryCode":"CA"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleQuote_InvalidJSON(t *testing.T) {
	handler := newTestServer(mock.New("canadapost"))
	rec := postQuote(t, handler, `{"weight":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleQuote_AllCarriersFailed(t *testing.T) {
	broken := mock.New("ups")
	broken.Err = errors.New("down")
	alsoBroken := mock.New("fedex")
	alsoBroken.Err = errors.New("also down")

	handler := newTestServer(broken, alsoBroken)
	rec := postQuote(t, handler, `{"weight":2,"postalCode":"K1A0B1","countryCode":"CA"}`)

	// Legacy behavior: an empty list, not an error status.
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	// Each failed carrier increments the error counter under its own name.
	metricsReq := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	metricsRec := httptest.NewRecorder()
	handler.ServeHTTP(metricsRec, metricsReq)

	require.Equal(t, http.StatusOK, metricsRec.Code)
	body := metricsRec.Body.String()
	assert.Contains(t, body, `smrt_shipping_carrier_errors_total{carrier="ups",error_type="quote_failed"} 1`)
	assert.Contains(t, body, `smrt_shipping_carrier_errors_total{carrier="fedex",error_type="quote_failed"} 1`)
}

func TestHandleQuote_PoundsConverted(t *testing.T) {
	c := mock.New("canadapost")
	var gotWeight float64
	c.OnQuote = func(ctx context.Context, req *rating.QuoteRequest) ([]rating.Quote, error) {
		gotWeight = req.Weight
		return nil, nil
	}

	handler := newTestServer(c)
	rec := postQuote(t, handler, `{"weight":10,"weightUnit":"lb","postalCode":"K1A0B1","countryCode":"CA"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 4.5359237, gotWeight, 1e-9)
}

func TestHandleHealth(t *testing.T) {
	handler := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	handler := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
