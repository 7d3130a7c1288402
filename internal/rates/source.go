package rates

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/openpos/totals-api/internal/obs"
	"github.com/openpos/totals-api/internal/resilience"
	"github.com/openpos/totals-api/internal/tax"
)

// Source resolves the active rate table for a store, consulting the Redis
// cache before the upstream client and caching successful fetches. Upstream
// failures degrade to an empty table so order calculation stays available;
// the engine then yields zero tax rather than failing the checkout.
type Source struct {
	Client  Client
	Cache   *Cache
	Breaker *resilience.Breaker
	Logger  zerolog.Logger
}

// Rates returns the rate table for the store. The returned error is
// informational; callers that prefer availability can ignore it and use the
// (possibly empty) slice.
func (s *Source) Rates(ctx context.Context, storeID string) ([]tax.Rate, error) {
	if s == nil || s.Client == nil {
		return nil, errors.New("rate source not configured")
	}

	if cached, ok, err := s.Cache.Get(ctx, storeID); err == nil && ok {
		countCache("hit")
		return cached, nil
	} else if err != nil {
		countCache("error")
		s.Logger.Warn().Err(err).Str("store_id", storeID).Msg("rate cache read failed")
	} else {
		countCache("miss")
	}

	if s.Breaker != nil && !s.Breaker.Allow(ctx) {
		countFetch("short_circuit")
		return nil, resilience.ErrOpenCircuit
	}

	list, err := s.Client.FetchRates(ctx, storeID)
	if s.Breaker != nil {
		s.Breaker.Report(ctx, err == nil)
	}
	if err != nil {
		countFetch("error")
		s.Logger.Error().Err(err).Str("store_id", storeID).Msg("rate fetch failed")
		return nil, err
	}
	countFetch("ok")

	if err := s.Cache.Set(ctx, storeID, list); err != nil {
		s.Logger.Warn().Err(err).Str("store_id", storeID).Msg("rate cache write failed")
	}
	return list, nil
}

// Refresh drops the cached table and fetches a fresh copy.
func (s *Source) Refresh(ctx context.Context, storeID string) ([]tax.Rate, error) {
	if s == nil || s.Client == nil {
		return nil, errors.New("rate source not configured")
	}
	if err := s.Cache.Invalidate(ctx, storeID); err != nil {
		s.Logger.Warn().Err(err).Str("store_id", storeID).Msg("rate cache invalidate failed")
	}
	return s.Rates(ctx, storeID)
}

func countCache(result string) {
	if obs.RateCacheTotal != nil {
		obs.RateCacheTotal.WithLabelValues(result).Inc()
	}
}

func countFetch(result string) {
	if obs.RateFetchTotal != nil {
		obs.RateFetchTotal.WithLabelValues(result).Inc()
	}
}
