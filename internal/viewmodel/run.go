package viewmodel

import (
	"encoding/json"
	"strings"
	"time"
)

type DatasetDescriptor struct {
	Name       string `json:"name"`
	Digest     string `json:"digest,omitempty"`
	SourceType string `json:"sourceType,omitempty"`
	Source     string `json:"source,omitempty"`
}

type TrackedRun struct {
	Id           string             `json:"id"`
	Name         string             `json:"name"`
	Status       string             `json:"status"`
	ExperimentId string             `json:"experimentId"`
	UserId       string             `json:"userId,omitempty"`
	StartedAt    string             `json:"startedAt"`
	EndedAt      string             `json:"endedAt,omitempty"`
	Duration     int64              `json:"duration"`
	Parameters   map[string]string  `json:"parameters"`
	Metrics      map[string]float64 `json:"metrics"`
	Tags         []string           `json:"tags"`
	Dataset      DatasetDescriptor  `json:"dataset"`
	ArtifactUri  string             `json:"artifactUri,omitempty"`
}

const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFinished  = "finished"
	RunStatusFailed    = "failed"
	RunStatusCancelled = "cancelled"
)

type runEnvelope int

const (
	// {run_id, status, ..., params, metrics, tags}
	runEnvelopeBare runEnvelope = iota
	// {info: {...}, data: {...}}
	runEnvelopeInfoData
	// {run: {info: {...}, data: {...}}}
	runEnvelopeWrapped
)

// canonicalRun is the single shape downstream code sees, whatever envelope the payload came in.
type canonicalRun struct {
	envelope runEnvelope
	info     object
	data     object
	inputs   object
}

func detectRunEnvelope(o object) canonicalRun {
	if run := o.obj("run"); run != nil && (run.obj("info") != nil || run.obj("data") != nil) {
		return canonicalRun{
			envelope: runEnvelopeWrapped,
			info:     orEmpty(run.obj("info")),
			data:     orEmpty(run.obj("data")),
			inputs:   orEmpty(run.obj("inputs")),
		}
	}
	if info := o.obj("info"); info != nil {
		return canonicalRun{
			envelope: runEnvelopeInfoData,
			info:     info,
			data:     orEmpty(o.obj("data")),
			inputs:   orEmpty(o.obj("inputs")),
		}
	}
	return canonicalRun{
		envelope: runEnvelopeBare,
		info:     o,
		data:     o,
		inputs:   orEmpty(o.obj("inputs")),
	}
}

func orEmpty(o object) object {
	if o == nil {
		return object{}
	}
	return o
}

// NormalizeRunStatus lowercases an upstream status and maps the tracking server's KILLED to cancelled.
func NormalizeRunStatus(status string) string {
	s := strings.ToLower(strings.TrimSpace(status))
	switch s {
	case "killed", "canceled":
		return RunStatusCancelled
	}
	return s
}

// ConvertRun normalizes a tracking-server run in any of its envelope shapes. Only a payload that is not a
// JSON object is an error; malformed fields are defaulted and reported as warnings.
func ConvertRun(raw json.RawMessage, now time.Time) (Result[TrackedRun], error) {
	o, err := decodeObject(raw)
	if err != nil {
		return Result[TrackedRun]{}, err
	}
	return convertRun(detectRunEnvelope(o), now), nil
}

func convertRun(run canonicalRun, now time.Time) Result[TrackedRun] {
	var w warnings
	info, data := run.info, run.data

	tags := data.value("tags")
	id := info.str("run_id", "run_uuid", "id")

	name := info.str("run_name")
	if name == "" {
		name = tagValue(tags, "mlflow.runName")
	}
	if name == "" {
		name = id
	}

	started, _ := w.timestamp("start_time", info.value("start_time"), now)
	ended, hasEnded := w.timestamp("end_time", info.value("end_time"), now)

	reference := now
	endedAt := ""
	if hasEnded {
		reference = ended
		endedAt = formatTimestamp(ended)
	}
	duration := int64(reference.Sub(started) / time.Second)
	if duration < 0 {
		duration = 0
	}

	parameters := make(map[string]string)
	for _, kv := range pairs(data.value("params", "parameters")) {
		parameters[kv.key] = scalarString(kv.value)
	}

	metrics := make(map[string]float64)
	for _, kv := range pairs(data.value("metrics")) {
		value, ok := toFloat(kv.value)
		if !ok {
			w.addf("metrics."+kv.key, WarningNumber, kv.value)
			continue
		}
		metrics[kv.key] = value
	}

	return newResult(TrackedRun{
		Id:           id,
		Name:         name,
		Status:       NormalizeRunStatus(info.str("status")),
		ExperimentId: info.str("experiment_id"),
		UserId:       info.str("user_id"),
		StartedAt:    formatTimestamp(started),
		EndedAt:      endedAt,
		Duration:     duration,
		Parameters:   parameters,
		Metrics:      metrics,
		Tags:         flattenTags(tags),
		Dataset:      datasetDescriptor(run.inputs, tags),
		ArtifactUri:  info.str("artifact_uri"),
	}, &w)
}

func datasetDescriptor(inputs object, tags interface{}) DatasetDescriptor {
	if datasetInputs := inputs.list("dataset_inputs"); len(datasetInputs) > 0 {
		if first := asObject(datasetInputs[0]); first != nil {
			if dataset := first.obj("dataset"); dataset != nil {
				return DatasetDescriptor{
					Name:       dataset.str("name"),
					Digest:     dataset.str("digest"),
					SourceType: dataset.str("source_type"),
					Source:     dataset.str("source"),
				}
			}
		}
	}

	name := tagValue(tags, "dataset")
	if name == "" {
		name = tagValue(tags, "dataset_name")
	}
	return DatasetDescriptor{Name: name}
}
