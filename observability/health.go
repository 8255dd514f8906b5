package observability

import "context"

// HealthStatus represents the readiness of a pipeline dependency.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDown     HealthStatus = "down"
	HealthStatusDegraded HealthStatus = "degraded"
)

// Health describes the readiness of one node's external dependency, such as
// a source directory or a storage bucket.
type Health struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// PipelineHealth aggregates the checks of every node of a pipeline.
type PipelineHealth struct {
	Pipeline   string       `json:"pipeline"`
	Status     HealthStatus `json:"status"`
	Components []Health     `json:"components,omitempty"`
}

// HealthChecker is implemented by nodes that can check their dependencies
// before a run.
type HealthChecker interface {
	CheckHealth(ctx context.Context) Health
}

// NewPipelineHealth creates a PipelineHealth with status up.
func NewPipelineHealth(pipeline string) *PipelineHealth {
	return &PipelineHealth{
		Pipeline: pipeline,
		Status:   HealthStatusUp,
	}
}

// AddComponent adds a check result and degrades the overall status if needed.
func (ph *PipelineHealth) AddComponent(h Health) {
	ph.Components = append(ph.Components, h)

	switch h.Status {
	case HealthStatusDown:
		ph.Status = HealthStatusDown
	case HealthStatusDegraded:
		if ph.Status != HealthStatusDown {
			ph.Status = HealthStatusDegraded
		}
	}
}

// Healthy reports whether no check is down.
func (ph *PipelineHealth) Healthy() bool {
	return ph.Status != HealthStatusDown
}
