package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PaymentIntentTotal counts payment intent operations by outcome.
	PaymentIntentTotal *prometheus.CounterVec
	// ProviderLatency records Stripe call latency in milliseconds.
	ProviderLatency *prometheus.HistogramVec
	// ShippingQuoteTotal counts shipping quotes by destination scope.
	ShippingQuoteTotal *prometheus.CounterVec
	// CouponApplyTotal counts coupon applications by outcome.
	CouponApplyTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PaymentIntentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_intent_total",
			Help:      "Count of payment intent operations by outcome.",
		}, []string{"operation", "result"})
		ProviderLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "payment_provider_duration_ms",
			Help:      "Latency of payment provider calls in milliseconds.",
			Buckets:   []float64{25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, []string{"operation"})
		ShippingQuoteTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shipping_quote_total",
			Help:      "Count of shipping quotes by destination scope.",
		}, []string{"scope"})
		CouponApplyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_apply_total",
			Help:      "Count of coupon applications by outcome.",
		}, []string{"result"})

		mustRegisterCollector(reg, PaymentIntentTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PaymentIntentTotal = v
			}
		})
		mustRegisterCollector(reg, ProviderLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				ProviderLatency = v
			}
		})
		mustRegisterCollector(reg, ShippingQuoteTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ShippingQuoteTotal = v
			}
		})
		mustRegisterCollector(reg, CouponApplyTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CouponApplyTotal = v
			}
		})
	})
}

// CountPaymentIntent increments the payment intent counter when registered.
func CountPaymentIntent(operation, result string) {
	if PaymentIntentTotal != nil {
		PaymentIntentTotal.WithLabelValues(operation, result).Inc()
	}
}

// ObserveProvider records provider call latency when registered.
func ObserveProvider(operation string, millis float64) {
	if ProviderLatency != nil {
		ProviderLatency.WithLabelValues(operation).Observe(millis)
	}
}

// CountShippingQuote increments the shipping quote counter when registered.
func CountShippingQuote(scope string) {
	if ShippingQuoteTotal != nil {
		ShippingQuoteTotal.WithLabelValues(scope).Inc()
	}
}

// CountCoupon increments the coupon counter when registered.
func CountCoupon(result string) {
	if CouponApplyTotal != nil {
		CouponApplyTotal.WithLabelValues(result).Inc()
	}
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
