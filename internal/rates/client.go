package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/openpos/totals-api/internal/tax"
)

// ErrUpstream indicates the rate backend responded but could not serve the
// rate list.
var ErrUpstream = errors.New("rate source upstream error")

// Client fetches the jurisdiction-resolved tax rate table for a store.
// The backend resolves country/state/city/postcode matching; the engine
// only ever sees rates that already apply to the active jurisdiction.
type Client interface {
	FetchRates(ctx context.Context, storeID string) ([]tax.Rate, error)
}

// HTTPClient talks to the store backend's tax rate endpoint.
type HTTPClient struct {
	BaseURL     string
	APIKey      string
	HTTP        *http.Client
	MaxAttempts int
	BaseBackoff time.Duration
}

// FetchRates retrieves the rate list, retrying transient failures with a
// simple linear backoff. A non-2xx terminal response maps to ErrUpstream.
func (c HTTPClient) FetchRates(ctx context.Context, storeID string) ([]tax.Rate, error) {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		return nil, errors.New("rates: base url not configured")
	}
	endpoint := fmt.Sprintf("%s/stores/%s/tax-rates", base, url.PathEscape(storeID))

	client := c.HTTP
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := c.BaseBackoff
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		list, retryable, err := c.fetchOnce(ctx, client, endpoint)
		if err == nil {
			return list, nil
		}
		lastErr = err
		if !retryable || attempt == attempts {
			break
		}
		timer := time.NewTimer(time.Duration(attempt) * backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

func (c HTTPClient) fetchOnce(ctx context.Context, client *http.Client, endpoint string) ([]tax.Rate, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json")
	if key := strings.TrimSpace(c.APIKey); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, true, fmt.Errorf("%w: %s", ErrUpstream, resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("%w: %s", ErrUpstream, resp.Status)
	}

	var payload struct {
		Rates []tax.Rate `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, false, fmt.Errorf("decode rate list: %w", err)
	}
	return payload.Rates, false, nil
}

// StaticClient serves a fixed rate table and is useful for tests and
// development stores without a backend.
type StaticClient struct {
	Rates []tax.Rate
}

// FetchRates returns the configured rates regardless of store.
func (s StaticClient) FetchRates(ctx context.Context, storeID string) ([]tax.Rate, error) {
	_ = ctx
	_ = storeID
	return s.Rates, nil
}
