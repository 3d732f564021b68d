package health

import (
	"time"
)

type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// Report is the outcome of a single health evaluation. It is built fresh on
// every call and never mutated afterwards.
type Report struct {
	Status    HealthStatus `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	Uptime    float64      `json:"uptime"`
	Service   string       `json:"service"`
}

func (r Report) Healthy() bool {
	return r.Status == HealthStatusHealthy
}

type LivenessResponse struct {
	Alive     bool      `json:"alive"`
	Timestamp time.Time `json:"timestamp"`
}

type ReadinessResponse struct {
	Ready     bool              `json:"ready"`
	Timestamp time.Time         `json:"timestamp"`
	Uptime    float64           `json:"uptime"`
	Checks    map[string]string `json:"checks"`
}

type StatusResponse struct {
	ServiceName   string     `json:"service_name"`
	Version       string     `json:"version"`
	GitCommit     string     `json:"git_commit,omitempty"`
	BuildTime     *time.Time `json:"build_time,omitempty"`
	StartTime     time.Time  `json:"start_time"`
	UptimeSeconds float64    `json:"uptime_seconds"`
	Environment   string     `json:"environment"`
	Hostname      string     `json:"hostname,omitempty"`
	InstanceID    string     `json:"instance_id,omitempty"`
}
