package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual service.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// InvoiceMetrics is returned by GET /v1/metrics/invoices.
type InvoiceMetrics struct {
	TotalRenders    int64            `json:"totalRenders"`
	FailedRenders   int64            `json:"failedRenders"`
	RendersByFormat map[string]int64 `json:"rendersByFormat"`
	ErrorRate       float64          `json:"errorRate"`
	CacheHitRate    float64          `json:"cacheHitRate"`
	ExternalErrors  int64            `json:"externalErrors"`
	Period          string           `json:"period"`
}
