package viewmodel

import (
	"encoding/json"
	"strings"
	"time"
)

type RegisteredModel struct {
	Id          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Version     string   `json:"version"`
	Framework   string   `json:"framework"`
	Tags        []string `json:"tags"`
	Stage       string   `json:"stage"`
	RunId       string   `json:"runId"`
	Status      string   `json:"status"`
	Source      string   `json:"source,omitempty"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

type ModelVersion struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Framework   string   `json:"framework"`
	Stage       string   `json:"stage"`
	Status      string   `json:"status"`
	RunId       string   `json:"runId"`
	Source      string   `json:"source,omitempty"`
	Tags        []string `json:"tags"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

const ModelStageNone = "None"

// ConvertModel normalizes an MLflow registered model. The reported version is the highest of latest_versions.
func ConvertModel(raw json.RawMessage, now time.Time) (Result[RegisteredModel], error) {
	o, err := decodeObject(raw)
	if err != nil {
		return Result[RegisteredModel]{}, err
	}
	if inner := o.obj("registered_model"); inner != nil {
		o = inner
	}

	var w warnings
	latest := latestVersion(o.list("latest_versions"))

	stage := latest.str("current_stage", "stage")
	if stage == "" {
		stage = ModelStageNone
	}
	source := latest.str("source")

	created, _ := w.timestamp("creation_timestamp", o.value("creation_timestamp"), now)
	updated, _ := w.timestamp("last_updated_timestamp", o.value("last_updated_timestamp"), now)

	name := o.str("name")
	return newResult(RegisteredModel{
		Id:          name,
		Name:        name,
		Description: o.str("description"),
		Version:     latest.str("version"),
		Framework:   DetectFramework(source),
		Tags:        flattenTags(o.value("tags")),
		Stage:       stage,
		RunId:       latest.str("run_id"),
		Status:      strings.ToLower(latest.str("status")),
		Source:      source,
		CreatedAt:   formatTimestamp(created),
		UpdatedAt:   formatTimestamp(updated),
	}, &w), nil
}

func latestVersion(versions []interface{}) object {
	var best object
	bestNumber := -1.0
	for _, v := range versions {
		candidate := asObject(v)
		if candidate == nil {
			continue
		}
		number, ok := toFloat(candidate.value("version"))
		if !ok {
			number = 0
		}
		if best == nil || number > bestNumber {
			best = candidate
			bestNumber = number
		}
	}
	return orEmpty(best)
}

func ConvertModelVersion(raw json.RawMessage, now time.Time) (Result[ModelVersion], error) {
	o, err := decodeObject(raw)
	if err != nil {
		return Result[ModelVersion]{}, err
	}
	if inner := o.obj("model_version"); inner != nil {
		o = inner
	}

	var w warnings
	stage := o.str("current_stage", "stage")
	if stage == "" {
		stage = ModelStageNone
	}
	source := o.str("source")

	created, _ := w.timestamp("creation_timestamp", o.value("creation_timestamp"), now)
	updated, _ := w.timestamp("last_updated_timestamp", o.value("last_updated_timestamp"), now)

	return newResult(ModelVersion{
		Name:        o.str("name"),
		Version:     o.str("version"),
		Description: o.str("description"),
		Framework:   DetectFramework(source),
		Stage:       stage,
		Status:      strings.ToLower(o.str("status")),
		RunId:       o.str("run_id"),
		Source:      source,
		Tags:        flattenTags(o.value("tags")),
		CreatedAt:   formatTimestamp(created),
		UpdatedAt:   formatTimestamp(updated),
	}, &w), nil
}
