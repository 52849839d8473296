package types

import "time"

// HealthState is the outcome of probing a backend such as a model
// provider or the session archive.
type HealthState string

const (
	HealthStateHealthy   HealthState = "healthy"
	HealthStateDegraded  HealthState = "degraded"
	HealthStateUnhealthy HealthState = "unhealthy"
)

// HealthStatus is one probe result.
type HealthStatus struct {
	State     HealthState `json:"state"`
	Message   string      `json:"message,omitempty"`
	CheckedAt time.Time   `json:"checkedAt"`
}

func probed(state HealthState, message string) HealthStatus {
	return HealthStatus{State: state, Message: message, CheckedAt: time.Now()}
}

func Healthy(message string) HealthStatus   { return probed(HealthStateHealthy, message) }
func Degraded(message string) HealthStatus  { return probed(HealthStateDegraded, message) }
func Unhealthy(message string) HealthStatus { return probed(HealthStateUnhealthy, message) }

// HealthFromError is Unhealthy with err's text when err is non-nil and
// Healthy with okMessage otherwise.
func HealthFromError(err error, okMessage string) HealthStatus {
	if err != nil {
		return Unhealthy(err.Error())
	}
	return Healthy(okMessage)
}

// IsHealthy reports whether the probe succeeded.
func (h HealthStatus) IsHealthy() bool {
	return h.State == HealthStateHealthy
}
