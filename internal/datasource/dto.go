package datasource

import (
	"encoding/json"

	"github.com/hashicorp/go-multierror"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/viewmodel"
)

var (
	datasetSchema = mustCompile(`{
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string", "minLength": 1, "maxLength": 255},
			"description": {"type": "string", "maxLength": 4096},
			"type": {"type": "string", "enum": ["", "tabular", "image", "text", "audio", "other"]},
			"tags": {"type": ["array", "null"], "maxItems": 50, "items": {"type": "string", "minLength": 1}}
		}
	}`)
	datasetVersionSchema = mustCompile(`{
		"type": "object",
		"required": ["version"],
		"properties": {
			"version": {"type": "string", "minLength": 1, "maxLength": 64},
			"tags": {"type": ["array", "null"], "maxItems": 50, "items": {"type": "string", "minLength": 1}}
		}
	}`)
	experimentSchema = mustCompile(`{
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string", "minLength": 1, "maxLength": 500}
		}
	}`)
	stageSchema = mustCompile(`{
		"type": "object",
		"required": ["stage"],
		"properties": {
			"stage": {"type": "string", "enum": ["None", "Staging", "Production", "Archived"]}
		}
	}`)
	serviceSchema = mustCompile(`{
		"type": "object",
		"required": ["name", "modelName"],
		"properties": {
			"name": {"type": "string", "pattern": "^[a-z0-9]([-a-z0-9]*[a-z0-9])?$", "maxLength": 63},
			"modelName": {"type": "string", "minLength": 1},
			"tags": {"type": ["array", "null"], "maxItems": 50, "items": {"type": "string", "minLength": 1}},
			"deploymentConfig": {
				"type": "object",
				"properties": {
					"replicas": {"type": "integer", "minimum": 0, "maximum": 100},
					"resources": {
						"type": "object",
						"properties": {"gpu": {"type": "integer", "minimum": 0, "maximum": 16}}
					},
					"healthCheck": {
						"type": "object",
						"properties": {
							"intervalSeconds": {"type": "integer", "minimum": 1},
							"timeoutSeconds": {"type": "integer", "minimum": 1}
						}
					},
					"scaling": {
						"type": "object",
						"properties": {
							"minReplicas": {"type": "integer", "minimum": 0},
							"maxReplicas": {"type": "integer", "minimum": 1},
							"targetCpuUtilization": {"type": "integer", "minimum": 1, "maximum": 100}
						}
					}
				}
			}
		}
	}`)
	entrypointSchema = mustCompile(`{
		"type": "object",
		"required": ["name", "path", "inferenceServiceId"],
		"properties": {
			"name": {"type": "string", "minLength": 1, "maxLength": 255},
			"path": {"type": "string", "pattern": "^[A-Za-z0-9][A-Za-z0-9/_.-]*$"},
			"method": {"type": "string", "enum": ["", "GET", "POST", "PUT"]},
			"inferenceServiceId": {"type": "string", "minLength": 1},
			"tags": {"type": ["array", "null"], "maxItems": 50, "items": {"type": "string", "minLength": 1}}
		}
	}`)
)

// encodeTags renders tags the way the backend stores them, as a JSON-encoded array string.
func encodeTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	content, _ := json.Marshal(tags)
	return string(content)
}

type CreateDatasetRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type,omitempty"`
	Source      string   `json:"source,omitempty"`
	Tags        []string `json:"tags"`
}

func (r CreateDatasetRequest) Validate() error {
	return validationError("dataset", checkSchema(datasetSchema, r))
}

func (r CreateDatasetRequest) wire() interface{} {
	return map[string]interface{}{
		"name":        r.Name,
		"description": r.Description,
		"type":        r.Type,
		"source":      r.Source,
		"tags":        encodeTags(r.Tags),
	}
}

// UpdateDatasetRequest changes only the fields that are set.
type UpdateDatasetRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

func (r UpdateDatasetRequest) Validate() error {
	var merr *multierror.Error
	if r.Name != nil && *r.Name == "" {
		merr = multierror.Append(merr, FieldError{Field: "name", Message: "must not be empty"})
	}
	for _, tag := range r.Tags {
		if tag == "" {
			merr = multierror.Append(merr, FieldError{Field: "tags", Message: "must not contain empty tags"})
			break
		}
	}
	return validationError("dataset update", merr)
}

func (r UpdateDatasetRequest) wire() interface{} {
	ret := map[string]interface{}{}
	if r.Name != nil {
		ret["name"] = *r.Name
	}
	if r.Description != nil {
		ret["description"] = *r.Description
	}
	if r.Tags != nil {
		ret["tags"] = encodeTags(r.Tags)
	}
	return ret
}

type CreateDatasetVersionRequest struct {
	Version     string   `json:"version"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags"`
}

func (r CreateDatasetVersionRequest) Validate() error {
	return validationError("dataset version", checkSchema(datasetVersionSchema, r))
}

func (r CreateDatasetVersionRequest) wire() interface{} {
	return map[string]interface{}{
		"version":     r.Version,
		"description": r.Description,
		"tags":        encodeTags(r.Tags),
	}
}

type CreateExperimentRequest struct {
	Name             string            `json:"name"`
	ArtifactLocation string            `json:"artifact_location,omitempty"`
	Tags             map[string]string `json:"tags,omitempty"`
}

func (r CreateExperimentRequest) Validate() error {
	return validationError("experiment", checkSchema(experimentSchema, r))
}

func (r CreateExperimentRequest) wire() interface{} {
	tags := make([]map[string]string, 0, len(r.Tags))
	for _, key := range sortedKeys(r.Tags) {
		tags = append(tags, map[string]string{"key": key, "value": r.Tags[key]})
	}
	return map[string]interface{}{
		"name":              r.Name,
		"artifact_location": r.ArtifactLocation,
		"tags":              tags,
	}
}

type TransitionStageRequest struct {
	Stage           string `json:"stage"`
	ArchiveExisting bool   `json:"archiveExisting"`
}

func (r TransitionStageRequest) Validate() error {
	return validationError("stage transition", checkSchema(stageSchema, r))
}

func (r TransitionStageRequest) wire() interface{} {
	return map[string]interface{}{
		"stage":                     r.Stage,
		"archive_existing_versions": r.ArchiveExisting,
	}
}

type InferenceServiceRequest struct {
	Name             string                     `json:"name"`
	Description      string                     `json:"description,omitempty"`
	ModelName        string                     `json:"modelName"`
	ModelVersion     string                     `json:"modelVersion,omitempty"`
	Tags             []string                   `json:"tags"`
	DeploymentConfig viewmodel.DeploymentConfig `json:"deploymentConfig"`
}

func (r InferenceServiceRequest) Validate() error {
	merr := checkSchema(serviceSchema, r)
	merr = checkQuantity(merr, "deploymentConfig.resources.cpu", r.DeploymentConfig.Resources.CPU)
	merr = checkQuantity(merr, "deploymentConfig.resources.memory", r.DeploymentConfig.Resources.Memory)
	if s := r.DeploymentConfig.Scaling; s.Enabled && s.MinReplicas > s.MaxReplicas {
		merr = multierror.Append(merr, FieldError{Field: "deploymentConfig.scaling", Message: "minReplicas exceeds maxReplicas"})
	}
	return validationError("inference service", merr)
}

func (r InferenceServiceRequest) wire() interface{} {
	config, _ := json.Marshal(r.DeploymentConfig)
	return map[string]interface{}{
		"name":              r.Name,
		"description":       r.Description,
		"model_name":        r.ModelName,
		"model_version":     r.ModelVersion,
		"tags":              encodeTags(r.Tags),
		"deployment_config": string(config),
	}
}

type EntrypointRequest struct {
	Name               string   `json:"name"`
	Description        string   `json:"description,omitempty"`
	Path               string   `json:"path"`
	Method             string   `json:"method,omitempty"`
	InferenceServiceId string   `json:"inferenceServiceId"`
	Tags               []string `json:"tags"`
}

func (r EntrypointRequest) Validate() error {
	return validationError("entrypoint", checkSchema(entrypointSchema, r))
}

func (r EntrypointRequest) wire() interface{} {
	method := r.Method
	if method == "" {
		method = "POST"
	}
	return map[string]interface{}{
		"name":                 r.Name,
		"description":          r.Description,
		"path":                 r.Path,
		"method":               method,
		"inference_service_id": r.InferenceServiceId,
		"tags":                 encodeTags(r.Tags),
	}
}
