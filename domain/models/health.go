package models

// HealthStatus is the explicit per-component health value returned by each
// health check. Components report themselves; nobody inspects anonymous shapes.
type HealthStatus struct {
	Component string `json:"component"`
	Healthy   bool   `json:"healthy"`
	Detail    string `json:"detail,omitempty"`
}

func Healthy(component string) HealthStatus {
	return HealthStatus{Component: component, Healthy: true}
}

func Unhealthy(component, detail string) HealthStatus {
	return HealthStatus{Component: component, Healthy: false, Detail: detail}
}
