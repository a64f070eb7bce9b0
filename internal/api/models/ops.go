package models

// Health is returned by the liveness and readiness probes.
type Health struct {
	Status    HealthStatus `json:"status"`
	Time      Timestamp    `json:"time"`
	Version   string       `json:"version,omitempty"`
	BuildTime string       `json:"buildTime,omitempty"`
	// Failing names the subsystems that failed a readiness probe.
	Failing []string `json:"failing,omitempty"`
}

// SystemStatus is the body of GET /v1/ops/status.
type SystemStatus struct {
	Status     HealthStatus     `json:"status"`
	Time       Timestamp        `json:"time"`
	Subsystems []CheckResult    `json:"subsystems"`
	Providers  []ProviderStatus `json:"providers"`
	// Degradations lists features running in a reduced mode, such as
	// estimated travel times while the routing provider is down.
	Degradations []string `json:"degradations,omitempty"`
}

type CheckResult struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Latency string       `json:"latency"`
	Detail  string       `json:"detail,omitempty"`
}

type ProviderStatus struct {
	Provider      string       `json:"provider"`
	Status        HealthStatus `json:"status"`
	Circuit       string       `json:"circuit"`
	LastSuccessAt *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt *Timestamp   `json:"lastFailureAt,omitempty"`
	LastError     string       `json:"lastError,omitempty"`
}
