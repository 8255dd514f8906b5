package storage

import (
	"context"
	"fmt"

	"github.com/kbukum/flowforge/observability"
)

// healthProbeKey is looked up, never written, by CheckHealth.
const healthProbeKey = ".flowforge-health"

// CheckHealth probes s with a metadata lookup. A backend that cannot answer
// is reported down.
func CheckHealth(ctx context.Context, name string, s Storage) observability.Health {
	if s == nil {
		return observability.Health{
			Name:    name,
			Status:  observability.HealthStatusDown,
			Message: "storage not initialized",
		}
	}

	if _, err := s.Exists(ctx, healthProbeKey); err != nil {
		return observability.Health{
			Name:    name,
			Status:  observability.HealthStatusDown,
			Message: fmt.Sprintf("health probe failed: %v", err),
		}
	}

	url, _ := s.URL(ctx, "")
	return observability.Health{
		Name:    name,
		Status:  observability.HealthStatusUp,
		Details: map[string]string{"url": url},
	}
}
