package rating

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultCarrierTimeout bounds each carrier call so one unresponsive
// provider cannot stall the whole request.
const DefaultCarrierTimeout = 5 * time.Second

// Failure records a single carrier's failed contribution to a result.
type Failure struct {
	Carrier CarrierID
	Err     error
}

// Result is the merged outcome of a rate-shopping round. Quotes is always
// sorted ascending by cost and deduplicated; Failures lists the carriers
// whose calls errored, so callers can distinguish "no service available"
// from "every provider failed" if they choose to.
type Result struct {
	Quotes   []Quote
	Failures []Failure
}

// AllFailed reports whether every applicable carrier errored.
func (r Result) AllFailed() bool {
	return len(r.Quotes) == 0 && len(r.Failures) > 0
}

// Aggregator fans a quote request out to every applicable carrier in
// parallel and merges the results. Individual carrier failures degrade
// the result set instead of failing it.
type Aggregator struct {
	carriers []Carrier
	timeout  time.Duration
	logger   *otelzap.Logger
	mu       sync.RWMutex
}

// NewAggregator creates an aggregator over the given carriers.
func NewAggregator(logger *otelzap.Logger, carriers ...Carrier) *Aggregator {
	return &Aggregator{
		carriers: carriers,
		timeout:  DefaultCarrierTimeout,
		logger:   logger,
	}
}

// SetTimeout overrides the per-carrier call timeout.
func (a *Aggregator) SetTimeout(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.timeout = d
}

// Register adds a carrier to the aggregator.
func (a *Aggregator) Register(c Carrier) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.carriers = append(a.carriers, c)
}

// Carriers returns the registered carriers.
func (a *Aggregator) Carriers() []Carrier {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Carrier, len(a.carriers))
	copy(out, a.carriers)
	return out
}

// Names returns the names of all registered carriers.
func (a *Aggregator) Names() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, 0, len(a.carriers))
	for _, c := range a.carriers {
		names = append(names, c.Name())
	}
	return names
}

// Aggregate rate-shops the request across all applicable carriers.
// The wall-clock cost is bounded by the slowest single carrier, not the
// sum: every applicable carrier is queried concurrently and the merge
// waits on all of them.
func (a *Aggregator) Aggregate(ctx context.Context, req *QuoteRequest) Result {
	norm := req.Normalized()

	a.mu.RLock()
	timeout := a.timeout
	applicable := make([]Carrier, 0, len(a.carriers))
	for _, c := range a.carriers {
		if c.Available(norm.CountryCode) {
			applicable = append(applicable, c)
		}
	}
	a.mu.RUnlock()

	var (
		merged   []Quote
		failures []Failure
		mu       sync.Mutex
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range applicable {
		c := c
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, timeout)
			defer cancel()

			quotes, err := c.Quote(callCtx, &norm)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				a.logger.Warn("Carrier quote failed",
					zap.String("carrier", c.Name()),
					zap.Error(err),
				)
				failures = append(failures, Failure{
					Carrier: CarrierID(c.Name()),
					Err:     fmt.Errorf("%s: %w", c.Name(), err),
				})
				return nil // isolate: other carriers keep going
			}
			merged = append(merged, quotes...)
			return nil
		})
	}
	g.Wait()

	return Result{
		Quotes:   sortQuotes(dedupeQuotes(merged)),
		Failures: failures,
	}
}

// dedupeQuotes keeps one representative per identity tuple.
func dedupeQuotes(quotes []Quote) []Quote {
	seen := make(map[QuoteKey]struct{}, len(quotes))
	out := quotes[:0]
	for _, q := range quotes {
		if _, ok := seen[q.Key()]; ok {
			continue
		}
		seen[q.Key()] = struct{}{}
		out = append(out, q)
	}
	return out
}

// sortQuotes orders quotes ascending by cost. Ties keep their merge order.
func sortQuotes(quotes []Quote) []Quote {
	sort.SliceStable(quotes, func(i, j int) bool {
		return quotes[i].CostCents < quotes[j].CostCents
	})
	return quotes
}
