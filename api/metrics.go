package api

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mInFlightGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "denguesense_http_requests_in_flight",
		Help: "Number of HTTP requests currently being served.",
	})

	mCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "denguesense_http_requests_total",
			Help: "Total number of HTTP requests served.",
		},
		[]string{"code", "method", "route"},
	)

	mDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "denguesense_http_request_duration_seconds",
			Help:    "HTTP request latencies.",
			Buckets: []float64{.01, .05, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"route", "method"},
	)

	mAssistantStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "denguesense_assistant_streams_in_flight",
		Help: "Number of assistant replies currently being relayed.",
	})

	mAssistantEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "denguesense_assistant_stream_events_total",
		Help: "Total number of SSE events relayed from the assistant backend.",
	})

	mReportsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "denguesense_reports_submitted_total",
		Help: "Total number of community reports accepted.",
	}, []string{"type"})

	mAnalyses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "denguesense_risk_analyses_total",
		Help: "Total number of breeding-site image analyses.",
	}, []string{"risk_level"})
)

// instrument records request count, latency and in-flight requests.
func instrument(c *fiber.Ctx) error {
	start := time.Now()
	mInFlightGauge.Inc()
	defer mInFlightGauge.Dec()

	err := c.Next()

	code := c.Response().StatusCode()
	if err != nil {
		code = fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
	}

	route := c.Route().Path
	mCounter.WithLabelValues(strconv.Itoa(code), c.Method(), route).Inc()
	mDuration.WithLabelValues(route, c.Method()).Observe(time.Since(start).Seconds())

	return err
}
