package services

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"nudeploy/internal/logger"
)

var (
	operationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nudeploy_operation_total",
			Help: "Total pipeline runs by operation and outcome",
		},
		[]string{"operation", "status"},
	)

	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nudeploy_operation_duration_seconds",
			Help:    "Duration of pipeline runs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	installedPackages = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "nudeploy_installed_packages",
			Help: "Number of packages in the registry",
		},
	)
)

func init() {
	prometheus.MustRegister(operationTotal)
	prometheus.MustRegister(operationDuration)
	prometheus.MustRegister(installedPackages)
}

// ObserveOperation records one finished pipeline run
func ObserveOperation(operation, status string, elapsed time.Duration) {
	operationTotal.WithLabelValues(operation, status).Inc()
	operationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// SetInstalledPackages updates the installed packages gauge
func SetInstalledPackages(n int) {
	installedPackages.Set(float64(n))
}

/**
 * Push pipeline metrics to a Prometheus Pushgateway
 * @param {string} gateway - Pushgateway address, empty disables pushing
 * @param {string} job - Job label
 * @description
 * - Used by the CLI, whose process ends before any scrape could happen
 */
func PushMetrics(ctx context.Context, gateway, job string) error {
	if gateway == "" {
		return nil
	}
	pusher := push.New(gateway, job).
		Collector(operationTotal).
		Collector(operationDuration).
		Collector(installedPackages)
	if err := pusher.AddContext(ctx); err != nil {
		logger.Warnf("Metrics: push to '%s' failed: %v", gateway, err)
		return fmt.Errorf("push metrics: %w", err)
	}
	logger.Debugf("Metrics: pushed to '%s'", gateway)
	return nil
}
