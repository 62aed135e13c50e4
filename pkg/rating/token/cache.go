// Package token caches OAuth2 client-credentials bearer tokens per carrier.
package token

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultExpiryMargin is subtracted from a token's lifetime so a token is
// refreshed shortly before the carrier would reject it.
const DefaultExpiryMargin = 60 * time.Second

// Token is a cached bearer token and its expiry instant.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// FetchFunc performs the OAuth2 client-credentials exchange for a carrier.
type FetchFunc func(ctx context.Context) (Token, error)

// Cache holds one bearer token per carrier. Reads of a still-valid token
// are lock-cheap and fully concurrent; refreshes for the same carrier are
// collapsed so at most one exchange is in flight at a time.
type Cache struct {
	mu     sync.RWMutex
	tokens map[string]Token
	group  singleflight.Group
	margin time.Duration
	now    func() time.Time
}

// NewCache creates an empty token cache with the default expiry margin.
func NewCache() *Cache {
	return &Cache{
		tokens: make(map[string]Token),
		margin: DefaultExpiryMargin,
		now:    time.Now,
	}
}

// SetMargin overrides the refresh safety margin.
func (c *Cache) SetMargin(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.margin = d
}

// Bearer returns a valid access token for the carrier, fetching a fresh
// one through fetch when the cached token is missing or within the expiry
// margin. Concurrent callers needing the same refresh share a single
// exchange.
func (c *Cache) Bearer(ctx context.Context, carrier string, fetch FetchFunc) (string, error) {
	if tok, ok := c.valid(carrier); ok {
		return tok.AccessToken, nil
	}

	v, err, _ := c.group.Do(carrier, func() (interface{}, error) {
		// Another caller may have refreshed while we waited on the flight.
		if tok, ok := c.valid(carrier); ok {
			return tok.AccessToken, nil
		}

		tok, err := fetch(ctx)
		if err != nil {
			return "", err
		}

		c.mu.Lock()
		c.tokens[carrier] = tok
		c.mu.Unlock()
		return tok.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate discards the cached token for a carrier, forcing the next
// Bearer call to fetch.
func (c *Cache) Invalidate(carrier string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tokens, carrier)
}

func (c *Cache) valid(carrier string) (Token, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tok, ok := c.tokens[carrier]
	if !ok || !c.now().Before(tok.ExpiresAt.Add(-c.margin)) {
		return Token{}, false
	}
	return tok, true
}
