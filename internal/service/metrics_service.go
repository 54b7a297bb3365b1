package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface and the admission engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	admissionTotal  *prometheus.CounterVec
	promotionTotal  prometheus.Counter
	demotionTotal   prometheus.Counter
	notifyFailures  prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	admissionTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "enrollment_admissions_total",
		Help: "Admission attempts by outcome",
	}, []string{"outcome"})

	promotionTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "enrollment_promotions_total",
		Help: "Waitlist promotions applied",
	})

	demotionTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "enrollment_demotions_total",
		Help: "Enrollments demoted by reconciliation",
	})

	notifyFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notification_publish_failures_total",
		Help: "Notification events that could not be published",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, admissionTotal, promotionTotal, demotionTotal, notifyFailures, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		admissionTotal:  admissionTotal,
		promotionTotal:  promotionTotal,
		demotionTotal:   demotionTotal,
		notifyFailures:  notifyFailures,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveAdmission counts one admission attempt by outcome.
func (m *MetricsService) ObserveAdmission(outcome string) {
	if m == nil {
		return
	}
	m.admissionTotal.WithLabelValues(outcome).Inc()
}

// ObservePromotion counts one waitlist promotion.
func (m *MetricsService) ObservePromotion() {
	if m == nil {
		return
	}
	m.promotionTotal.Inc()
}

// ObserveDemotions counts reconciliation demotions.
func (m *MetricsService) ObserveDemotions(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.demotionTotal.Add(float64(count))
}

// ObserveNotificationFailure counts a dropped notification event.
func (m *MetricsService) ObserveNotificationFailure() {
	if m == nil {
		return
	}
	m.notifyFailures.Inc()
}
