package viewmodel

import (
	"encoding/json"
	"time"
)

type TrackedExperiment struct {
	Id               string   `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Status           string   `json:"status"`
	Tags             []string `json:"tags"`
	ArtifactLocation string   `json:"artifactLocation,omitempty"`
	CreatedAt        string   `json:"createdAt"`
	UpdatedAt        string   `json:"updatedAt"`
}

const (
	ExperimentStatusActive    = "active"
	ExperimentStatusCompleted = "completed"
)

func ConvertExperiment(raw json.RawMessage, now time.Time) (Result[TrackedExperiment], error) {
	o, err := decodeObject(raw)
	if err != nil {
		return Result[TrackedExperiment]{}, err
	}
	if inner := o.obj("experiment"); inner != nil {
		o = inner
	}

	var w warnings
	tags := o.value("tags")

	description := tagValue(tags, "mlflow.note.content")
	if description == "" {
		description = o.str("description")
	}

	status := ExperimentStatusActive
	if stage := o.str("lifecycle_stage"); stage != "" && stage != "active" {
		status = ExperimentStatusCompleted
	}

	created, _ := w.timestamp("creation_time", o.value("creation_time", "created_at"), now)
	updated, _ := w.timestamp("last_update_time", o.value("last_update_time", "updated_at"), now)

	return newResult(TrackedExperiment{
		Id:               o.str("experiment_id", "id"),
		Name:             o.str("name"),
		Description:      description,
		Status:           status,
		Tags:             flattenTags(tags),
		ArtifactLocation: o.str("artifact_location"),
		CreatedAt:        formatTimestamp(created),
		UpdatedAt:        formatTimestamp(updated),
	}, &w), nil
}
