package viewmodel

import (
	"encoding/json"
	"strings"
	"time"
)

type InferenceService struct {
	Id               string           `json:"id"`
	Name             string           `json:"name"`
	Description      string           `json:"description"`
	ModelName        string           `json:"modelName"`
	ModelVersion     string           `json:"modelVersion"`
	Status           string           `json:"status"`
	Endpoint         string           `json:"endpoint,omitempty"`
	Tags             []string         `json:"tags"`
	DeploymentConfig DeploymentConfig `json:"deploymentConfig"`
	Metrics          ServiceMetrics   `json:"metrics"`
	CreatedAt        string           `json:"createdAt"`
	UpdatedAt        string           `json:"updatedAt"`
}

// ConvertInferenceService decodes a service record whose tags, deployment_config and metrics_data fields may
// be JSON-encoded strings or already structured values.
func ConvertInferenceService(raw json.RawMessage, now time.Time) (Result[InferenceService], error) {
	o, err := decodeObject(raw)
	if err != nil {
		return Result[InferenceService]{}, err
	}

	var w warnings
	created, _ := w.timestamp("created_at", o.value("created_at"), now)
	updated, _ := w.timestamp("updated_at", o.value("updated_at"), now)

	return newResult(InferenceService{
		Id:               o.str("id"),
		Name:             o.str("name"),
		Description:      o.str("description"),
		ModelName:        o.str("model_name", "model_id"),
		ModelVersion:     o.str("model_version"),
		Status:           strings.ToLower(o.str("status")),
		Endpoint:         o.str("endpoint_url", "endpoint"),
		Tags:             w.stringList("tags", o.value("tags")),
		DeploymentConfig: structured(&w, "deployment_config", o.value("deployment_config", "deploymentConfig"), DefaultDeploymentConfig()),
		Metrics:          w.serviceMetrics("metrics_data.", w.metricsObject("metrics_data", o.value("metrics_data", "metricsData", "metrics"))),
		CreatedAt:        formatTimestamp(created),
		UpdatedAt:        formatTimestamp(updated),
	}, &w), nil
}

type Entrypoint struct {
	Id                 string            `json:"id"`
	Name               string            `json:"name"`
	Description        string            `json:"description"`
	Path               string            `json:"path"`
	Method             string            `json:"method"`
	InferenceServiceId string            `json:"inferenceServiceId"`
	Status             string            `json:"status"`
	Tags               []string          `json:"tags"`
	Metrics            EntrypointMetrics `json:"metrics"`
	CreatedAt          string            `json:"createdAt"`
	UpdatedAt          string            `json:"updatedAt"`
}

func ConvertEntrypoint(raw json.RawMessage, now time.Time) (Result[Entrypoint], error) {
	o, err := decodeObject(raw)
	if err != nil {
		return Result[Entrypoint]{}, err
	}

	var w warnings
	created, _ := w.timestamp("created_at", o.value("created_at"), now)
	updated, _ := w.timestamp("updated_at", o.value("updated_at"), now)

	method := strings.ToUpper(o.str("method"))
	if method == "" {
		method = "POST"
	}

	return newResult(Entrypoint{
		Id:                 o.str("id"),
		Name:               o.str("name"),
		Description:        o.str("description"),
		Path:               o.str("path"),
		Method:             method,
		InferenceServiceId: o.str("inference_service_id", "service_id"),
		Status:             strings.ToLower(o.str("status")),
		Tags:               w.stringList("tags", o.value("tags")),
		Metrics:            w.entrypointMetrics("metrics_data.", w.metricsObject("metrics_data", o.value("metrics_data", "metricsData", "metrics"))),
		CreatedAt:          formatTimestamp(created),
		UpdatedAt:          formatTimestamp(updated),
	}, &w), nil
}

type Invocation struct {
	Id           string          `json:"id"`
	EntrypointId string          `json:"entrypointId"`
	Status       string          `json:"status"`
	StatusCode   int             `json:"statusCode"`
	LatencyMs    float64         `json:"latencyMs"`
	Request      json.RawMessage `json:"request,omitempty"`
	Response     json.RawMessage `json:"response,omitempty"`
	Error        string          `json:"error,omitempty"`
	Timestamp    string          `json:"timestamp"`
}

func ConvertInvocation(raw json.RawMessage, now time.Time) (Result[Invocation], error) {
	o, err := decodeObject(raw)
	if err != nil {
		return Result[Invocation]{}, err
	}

	var w warnings
	timestamp, _ := w.timestamp("timestamp", o.value("timestamp", "created_at"), now)

	return newResult(Invocation{
		Id:           o.str("id"),
		EntrypointId: o.str("entrypoint_id"),
		Status:       strings.ToLower(o.str("status")),
		StatusCode:   int(w.number("status_code", o.value("status_code"))),
		LatencyMs:    w.number("latency_ms", o.value("latency_ms", "response_time_ms")),
		Request:      w.document("request_data", o.value("request_data", "request", "input")),
		Response:     w.document("response_data", o.value("response_data", "response", "output")),
		Error:        o.str("error_message", "error"),
		Timestamp:    formatTimestamp(timestamp),
	}, &w), nil
}

type DailyMetric struct {
	Date             string  `json:"date"`
	TotalRequests    int64   `json:"totalRequests"`
	FailedRequests   int64   `json:"failedRequests"`
	AverageLatencyMs float64 `json:"avgLatencyMs"`
}

func ConvertDailyMetric(raw json.RawMessage, now time.Time) (Result[DailyMetric], error) {
	o, err := decodeObject(raw)
	if err != nil {
		return Result[DailyMetric]{}, err
	}

	var w warnings
	day, _ := w.timestamp("date", o.value("date"), now)

	return newResult(DailyMetric{
		Date:             day.UTC().Format("2006-01-02"),
		TotalRequests:    int64(w.number("total_requests", o.value("total_requests", "requests"))),
		FailedRequests:   int64(w.number("failed_requests", o.value("failed_requests", "errors"))),
		AverageLatencyMs: w.number("avg_latency_ms", o.value("avg_latency_ms", "average_latency_ms")),
	}, &w), nil
}

// number reads a numeric field; absent values are zero, garbage is zero with a warning.
func (w *warnings) number(field string, v interface{}) float64 {
	if v == nil {
		return 0
	}
	f, ok := toFloat(v)
	if !ok {
		w.addf(field, WarningNumber, v)
		return 0
	}
	return f
}

// document keeps structured payloads as JSON and decodes payloads stored as JSON strings.
func (w *warnings) document(field string, v interface{}) json.RawMessage {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		trimmed := strings.TrimSpace(t)
		if trimmed == "" {
			return nil
		}
		if json.Valid([]byte(trimmed)) {
			return json.RawMessage(trimmed)
		}
		content, _ := json.Marshal(t)
		return content
	default:
		content, err := json.Marshal(t)
		if err != nil {
			w.addf(field, WarningJSON, v)
			return nil
		}
		return content
	}
}

// ConvertEntrypointMetrics reads the aggregate counters of an entrypoint. Missing counters are zero.
func ConvertEntrypointMetrics(raw json.RawMessage) (Result[EntrypointMetrics], error) {
	o, err := decodeObject(raw)
	if err != nil {
		return Result[EntrypointMetrics]{}, err
	}
	if inner := o.obj("metrics"); inner != nil {
		o = inner
	}

	var w warnings
	return newResult(w.entrypointMetrics("", o), &w), nil
}

// metricsObject accepts metrics either as a JSON-encoded object string or already decoded.
func (w *warnings) metricsObject(field string, v interface{}) object {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		trimmed := strings.TrimSpace(t)
		if trimmed == "" || trimmed == "null" {
			return nil
		}
		o, err := decodeObject(json.RawMessage(trimmed))
		if err != nil {
			w.addf(field, WarningJSON, v)
			return nil
		}
		return o
	case map[string]interface{}:
		return t
	default:
		w.addf(field, WarningJSON, v)
		return nil
	}
}

// Counters arrive snake_case from the backend and camelCase from older records; both are read.
func (w *warnings) entrypointMetrics(prefix string, o object) EntrypointMetrics {
	metrics := DefaultEntrypointMetrics()
	metrics.TotalRequests = int64(w.number(prefix+"total_requests", o.value("total_requests", "totalRequests")))
	metrics.SuccessfulRequests = int64(w.number(prefix+"successful_requests", o.value("successful_requests", "successfulRequests")))
	metrics.FailedRequests = int64(w.number(prefix+"failed_requests", o.value("failed_requests", "failedRequests")))
	metrics.AverageLatencyMs = w.number(prefix+"avg_latency_ms", o.value("avg_latency_ms", "avgLatencyMs", "average_latency_ms"))
	metrics.ErrorRate = w.number(prefix+"error_rate", o.value("error_rate", "errorRate"))
	return metrics
}

func (w *warnings) serviceMetrics(prefix string, o object) ServiceMetrics {
	metrics := DefaultServiceMetrics()
	metrics.TotalRequests = int64(w.number(prefix+"total_requests", o.value("total_requests", "totalRequests")))
	metrics.RequestsPerMinute = w.number(prefix+"requests_per_minute", o.value("requests_per_minute", "requestsPerMinute"))
	metrics.AverageLatencyMs = w.number(prefix+"avg_latency_ms", o.value("avg_latency_ms", "avgLatencyMs", "average_latency_ms"))
	metrics.ErrorRate = w.number(prefix+"error_rate", o.value("error_rate", "errorRate"))
	metrics.CPUUsage = w.number(prefix+"cpu_usage", o.value("cpu_usage", "cpuUsage"))
	metrics.MemoryUsage = w.number(prefix+"memory_usage", o.value("memory_usage", "memoryUsage"))
	return metrics
}
