package models

// Health represents the liveness of the service.
type Health struct {
	Status  HealthStatus           `json:"status"`
	Time    Timestamp              `json:"time"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Readiness reports dependency status. Storage failures make the service not
// ready; provider failures only degrade it since the resolver falls back.
type Readiness struct {
	Status     HealthStatus      `json:"status"`
	Time       Timestamp         `json:"time"`
	Subsystems []SubsystemStatus `json:"subsystems"`
	Providers  []ProviderStatus  `json:"providers"`
	LiveCache  *CacheStatus      `json:"liveCache,omitempty"`
}

// SubsystemStatus represents the status of an internal dependency.
type SubsystemStatus struct {
	Name   string       `json:"name"`
	Status HealthStatus `json:"status"`
	Detail *string      `json:"detail,omitempty"`
}

// ProviderStatus represents the status of an external provider.
type ProviderStatus struct {
	Provider      string       `json:"provider"`
	Status        HealthStatus `json:"status"`
	CircuitState  string       `json:"circuitState"`
	LastSuccessAt *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt *Timestamp   `json:"lastFailureAt,omitempty"`
	Message       *string      `json:"message,omitempty"`
}

// CacheStatus reports usage of the in-memory live reading cache.
type CacheStatus struct {
	Entries int   `json:"entries"`
	Fresh   int   `json:"fresh"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}
