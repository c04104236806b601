// Package metrics provides Prometheus metrics for the APK portal.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StorageOperations tracks storage operations.
	StorageOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apk_portal_storage_operations_total",
		Help: "Total number of storage operations",
	}, []string{"operation", "provider", "status"})

	// StorageDuration tracks the duration of storage operations.
	StorageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "apk_portal_storage_duration_seconds",
		Help:    "Duration of storage operations in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
	}, []string{"operation", "provider"})

	// UploadedBytes tracks the total size of package bodies sent to storage.
	UploadedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "apk_portal_uploaded_bytes_total",
		Help: "Total number of package bytes uploaded",
	})

	// Requests tracks portal requests by route and response status.
	Requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apk_portal_requests_total",
		Help: "Total number of portal requests",
	}, []string{"route", "status"})

	// ListedPackages tracks how many packages the last listing returned.
	ListedPackages = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "apk_portal_listed_packages",
		Help: "Number of packages returned by the most recent listing",
	})

	// Info provides static information about the service.
	Info = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "apk_portal_info",
		Help: "Information about the APK portal",
	}, []string{"version", "storage_provider"})
)

// RecordStorageOperation records a storage operation and how long it took.
func RecordStorageOperation(operation, provider string, success bool, elapsed time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	StorageOperations.WithLabelValues(operation, provider, status).Inc()
	StorageDuration.WithLabelValues(operation, provider).Observe(elapsed.Seconds())
}

// RecordRequest records a handled portal request.
func RecordRequest(route string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	Requests.WithLabelValues(route, status).Inc()
}
