package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrdersCalculatedTotal counts order total calculations by outcome.
	OrdersCalculatedTotal *prometheus.CounterVec
	// DisplayValueTotal counts display value resolutions by outcome.
	DisplayValueTotal *prometheus.CounterVec
	// RateFetchTotal counts upstream rate catalog fetch outcomes.
	RateFetchTotal *prometheus.CounterVec
	// RateCacheTotal counts rate cache lookups by result.
	RateCacheTotal *prometheus.CounterVec
	// CalcDuration records order calculation latency in milliseconds.
	CalcDuration *prometheus.HistogramVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrdersCalculatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_calculated_total",
			Help:      "Count of order total calculations by outcome.",
		}, []string{"result"})
		DisplayValueTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "display_value_total",
			Help:      "Count of display value resolutions by outcome.",
		}, []string{"result"})
		RateFetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_fetch_total",
			Help:      "Count of upstream tax rate fetch outcomes.",
		}, []string{"result"})
		RateCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_cache_total",
			Help:      "Count of tax rate cache lookups by result.",
		}, []string{"result"})
		CalcDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "calc_duration_ms",
			Help:      "Latency for order total calculations in milliseconds.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		}, []string{"result"})

		mustRegisterCollector(reg, OrdersCalculatedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrdersCalculatedTotal = v
			}
		})
		mustRegisterCollector(reg, DisplayValueTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				DisplayValueTotal = v
			}
		})
		mustRegisterCollector(reg, RateFetchTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				RateFetchTotal = v
			}
		})
		mustRegisterCollector(reg, RateCacheTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				RateCacheTotal = v
			}
		})
		mustRegisterCollector(reg, CalcDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				CalcDuration = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
