package health

import (
	"context"
	"time"

	"github.com/imedwei/apk-portal/internal/storage"
)

// StorageCheck probes the backend by listing the package prefix.
func StorageCheck(store storage.Storage, provider, prefix string, timeout time.Duration) CheckFunc {
	return func(ctx context.Context) Check {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		start := time.Now()
		objects, err := store.List(ctx, prefix)
		details := map[string]any{
			"provider":   provider,
			"latency_ms": time.Since(start).Milliseconds(),
		}

		if err != nil {
			details["error"] = err.Error()
			return Check{Status: StatusUnhealthy, Timestamp: time.Now(), Details: details}
		}

		details["packages"] = len(objects)
		return Check{Status: StatusHealthy, Timestamp: time.Now(), Details: details}
	}
}
