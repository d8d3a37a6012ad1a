// Package metrics holds the Prometheus collectors shared by the provisioning
// CLI and the demo servers, the metrics HTTP server and the push helper used
// by one-shot runs.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/ruteri/kongcloak/common"
)

var (
	// AdminRequests counts admin API calls by target, method and status code ("error" on transport failure).
	AdminRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: common.PackageName,
		Name:      "admin_requests_total",
		Help:      "Admin API requests by target, method and response code.",
	}, []string{"target", "method", "code"})

	// AdminRequestDuration observes admin API call latency by target.
	AdminRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: common.PackageName,
		Name:      "admin_request_duration_seconds",
		Help:      "Admin API request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"target"})

	// ProvisionSteps counts finished provisioning steps by name and status.
	ProvisionSteps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: common.PackageName,
		Name:      "provision_steps_total",
		Help:      "Provisioning steps by step name and final status.",
	}, []string{"step", "status"})

	// LastRunSuccess is 1 when the last provisioning run completed, 0 otherwise.
	LastRunSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: common.PackageName,
		Name:      "last_run_success",
		Help:      "Whether the last provisioning run succeeded.",
	})

	// LastRunTimestamp is the unix time the last provisioning run finished.
	LastRunTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: common.PackageName,
		Name:      "last_run_timestamp_seconds",
		Help:      "Completion time of the last provisioning run.",
	})

	// DataRequests counts demo data requests by outcome.
	DataRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: common.PackageName,
		Name:      "data_requests_total",
		Help:      "Demo data requests by outcome.",
	}, []string{"outcome"})

	// Registry holds every collector of this package.
	Registry = prometheus.NewRegistry()
)

func init() {
	Registry.MustRegister(
		AdminRequests,
		AdminRequestDuration,
		ProvisionSteps,
		LastRunSuccess,
		LastRunTimestamp,
		DataRequests,
	)
}

// ObserveAdminRequest records one admin API call. code is 0 on transport failure.
func ObserveAdminRequest(target, method string, code int, duration time.Duration) {
	codeLabel := "error"
	if code != 0 {
		codeLabel = strconv.Itoa(code)
	}
	AdminRequests.WithLabelValues(target, method, codeLabel).Inc()
	AdminRequestDuration.WithLabelValues(target).Observe(duration.Seconds())
}

// ObserveRun records the outcome of a provisioning run.
func ObserveRun(success bool, finishedAt time.Time) {
	if success {
		LastRunSuccess.Set(1)
	} else {
		LastRunSuccess.Set(0)
	}
	LastRunTimestamp.Set(float64(finishedAt.Unix()))
}

// MetricsServer serves the registry over HTTP.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server listening on addr. The served registry also
// carries runtime collectors and a build info gauge labelled with namespace.
func New(namespace, addr string) (*MetricsServer, error) {
	reg := prometheus.NewRegistry()
	buildInfo := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Build information.",
	}, []string{"version"})
	buildInfo.WithLabelValues(common.Version).Set(1)

	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("failed to register go collector: %w", err)
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("failed to register process collector: %w", err)
	}
	if err := reg.Register(buildInfo); err != nil {
		return nil, fmt.Errorf("failed to register build info: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(prometheus.Gatherers{reg, Registry}, promhttp.HandlerOpts{}))

	return &MetricsServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Handler returns the HTTP handler serving /metrics.
func (m *MetricsServer) Handler() http.Handler {
	return m.srv.Handler
}

func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}

// Push sends the registry to a Prometheus Pushgateway under job, grouped by instance.
// One-shot runs use it since they exit before any scrape.
func Push(ctx context.Context, gatewayURL, job, instance string) error {
	pusher := push.New(gatewayURL, job).Gatherer(Registry)
	if instance != "" {
		pusher = pusher.Grouping("instance", instance)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
