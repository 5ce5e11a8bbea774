package viewmodel

type Resources struct {
	CPU    string `json:"cpu"`
	Memory string `json:"memory"`
	GPU    int    `json:"gpu"`
}

type HealthCheck struct {
	Enabled         bool   `json:"enabled"`
	Path            string `json:"path"`
	IntervalSeconds int    `json:"intervalSeconds"`
	TimeoutSeconds  int    `json:"timeoutSeconds"`
}

type Scaling struct {
	Enabled              bool `json:"enabled"`
	MinReplicas          int  `json:"minReplicas"`
	MaxReplicas          int  `json:"maxReplicas"`
	TargetCPUUtilization int  `json:"targetCpuUtilization"`
}

type DeploymentConfig struct {
	Replicas    int         `json:"replicas"`
	Resources   Resources   `json:"resources"`
	HealthCheck HealthCheck `json:"healthCheck"`
	Scaling     Scaling     `json:"scaling"`
}

type ServiceMetrics struct {
	TotalRequests     int64   `json:"totalRequests"`
	RequestsPerMinute float64 `json:"requestsPerMinute"`
	AverageLatencyMs  float64 `json:"avgLatencyMs"`
	ErrorRate         float64 `json:"errorRate"`
	CPUUsage          float64 `json:"cpuUsage"`
	MemoryUsage       float64 `json:"memoryUsage"`
}

type EntrypointMetrics struct {
	TotalRequests      int64   `json:"totalRequests"`
	SuccessfulRequests int64   `json:"successfulRequests"`
	FailedRequests     int64   `json:"failedRequests"`
	AverageLatencyMs   float64 `json:"avgLatencyMs"`
	ErrorRate          float64 `json:"errorRate"`
}

// DefaultDeploymentConfig is the template partial deployment configs are merged on.
func DefaultDeploymentConfig() DeploymentConfig {
	return DeploymentConfig{
		Replicas: 1,
		Resources: Resources{
			CPU:    "500m",
			Memory: "1Gi",
			GPU:    0,
		},
		HealthCheck: HealthCheck{
			Enabled:         true,
			Path:            "/health",
			IntervalSeconds: 30,
			TimeoutSeconds:  5,
		},
		Scaling: Scaling{
			Enabled:              false,
			MinReplicas:          1,
			MaxReplicas:          3,
			TargetCPUUtilization: 80,
		},
	}
}

func DefaultServiceMetrics() ServiceMetrics {
	return ServiceMetrics{}
}

func DefaultEntrypointMetrics() EntrypointMetrics {
	return EntrypointMetrics{}
}
