package poller

import (
	"sync"
	"time"

	"lendrisk/core"

	"github.com/prometheus/client_golang/prometheus"
)

type pollMetrics struct {
	ticks       *prometheus.CounterVec
	duration    prometheus.Histogram
	unhealthy   prometheus.Gauge
	looping     prometheus.Gauge
	failed      prometheus.Gauge
	remaining   prometheus.Gauge
	utilization *prometheus.GaugeVec
}

var (
	metricsOnce sync.Once
	metrics     *pollMetrics
)

func defaultMetrics() *pollMetrics {
	metricsOnce.Do(func() {
		metrics = &pollMetrics{
			ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "lendrisk",
				Subsystem: "poller",
				Name:      "ticks_total",
				Help:      "Poll ticks by result.",
			}, []string{"result"}),
			duration: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: "lendrisk",
				Subsystem: "poller",
				Name:      "tick_duration_seconds",
				Help:      "Time to fetch inputs and build one read model.",
				Buckets:   prometheus.DefBuckets,
			}),
			unhealthy: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "lendrisk",
				Subsystem: "read_model",
				Name:      "unhealthy_obligations",
				Help:      "Obligations whose liquidation utilization is above 100%.",
			}),
			looping: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "lendrisk",
				Subsystem: "read_model",
				Name:      "looping_obligations",
				Help:      "Obligations that deposit and borrow within one correlated group.",
			}),
			failed: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "lendrisk",
				Subsystem: "read_model",
				Name:      "failed_obligations",
				Help:      "Obligations that could not be valuated in the last tick.",
			}),
			remaining: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "lendrisk",
				Subsystem: "rate_limiter",
				Name:      "remaining_outflow",
				Help:      "Outflow still allowed in the current window.",
			}),
			utilization: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "lendrisk",
				Subsystem: "reserve",
				Name:      "utilization_ratio",
				Help:      "Borrowed over borrowed plus available, per reserve.",
			}, []string{"asset"}),
		}

		prometheus.MustRegister(
			metrics.ticks,
			metrics.duration,
			metrics.unhealthy,
			metrics.looping,
			metrics.failed,
			metrics.remaining,
			metrics.utilization,
		)
	})

	return metrics
}

func observeTick(start time.Time, err error) {
	m := defaultMetrics()
	m.duration.Observe(time.Since(start).Seconds())

	result := "ok"
	if err != nil {
		result = "skipped"
	}
	m.ticks.WithLabelValues(result).Inc()
}

func observeModel(model *core.ReadModel) {
	m := defaultMetrics()

	var unhealthy, looping, failed int
	for _, ob := range model.Obligations {
		if ob.Error != "" {
			failed++
		}
		if ob.Looping {
			looping++
		}
		if ob.Summary != nil && ob.Summary.Unhealthy {
			unhealthy++
		}
	}

	m.unhealthy.Set(float64(unhealthy))
	m.looping.Set(float64(looping))
	m.failed.Set(float64(failed))
	m.remaining.Set(float64(model.RateLimiter.Remaining))

	for id, r := range model.Reserves {
		if r.Rates == nil {
			continue
		}

		util, _ := r.Rates.Utilization.Decimal().Float64()
		m.utilization.WithLabelValues(id.String()).Set(util)
	}
}
