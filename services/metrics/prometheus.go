// Package metricsvc exposes the list and mutation metrics to prometheus.
package metricsvc

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/masomo-admin/core/resource"
)

type Collector struct {
	registry *prometheus.Registry

	listDuration *prometheus.HistogramVec
	mutations    *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

var _ resource.Metrics = (*Collector)(nil)

// NewCollector registers the metrics on a dedicated registry, along with the go and process collectors.
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		listDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "list_duration_seconds",
			Help:      "Duration of resource list queries in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"resource", "cached"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Total number of resource mutations",
		}, []string{"resource", "op", "status"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
	reg.MustRegister(
		c.listDuration, c.mutations, c.httpRequests, c.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) ObserveList(resource string, cached bool, d time.Duration) {
	c.listDuration.WithLabelValues(resource, strconv.FormatBool(cached)).Observe(d.Seconds())
}

func (c *Collector) CountMutation(resource, op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.mutations.WithLabelValues(resource, op, status).Inc()
}

// RecordHTTPRequest records a request, path is the route pattern rather than the raw URL path.
func (c *Collector) RecordHTTPRequest(method, path string, statusCode int, d time.Duration) {
	c.httpRequests.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// Handler serves the metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
