package datasource

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeList(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		items int
		token string
	}{
		{"bare array", `[{"a":1},{"a":2}]`, 2, ""},
		{"named key", `{"models":[{"a":1}],"next_page_token":"n"}`, 1, "n"},
		{"items key", `{"items":[{"a":1},{"a":2},{"a":3}]}`, 3, ""},
		{"data key", `{"data":[{"a":1}]}`, 1, ""},
		{"no list", `{"total":0}`, 0, ""},
		{"null", `null`, 0, ""},
		{"empty", ``, 0, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			list, err := decodeList(json.RawMessage(tc.raw), "models")
			require.NoError(t, err)
			assert.Len(t, list.items, tc.items)
			assert.Equal(t, tc.token, list.nextPageToken)
		})
	}

	_, err := decodeList(json.RawMessage(`{"models": 3}`), "models")
	assert.Error(t, err)
}

func TestUpdateDatasetValidation(t *testing.T) {
	empty := ""
	err := UpdateDatasetRequest{Name: &empty}.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "dataset update", verr.Kind)

	name := "iris-v2"
	assert.NoError(t, UpdateDatasetRequest{Name: &name}.Validate())
	assert.NoError(t, UpdateDatasetRequest{}.Validate())
}

func TestEntrypointRequestWire(t *testing.T) {
	req := EntrypointRequest{Name: "predict", Path: "iris/predict", InferenceServiceId: "svc-1"}
	require.NoError(t, req.Validate())

	wire := req.wire().(map[string]interface{})
	assert.Equal(t, "POST", wire["method"])
	assert.Equal(t, "[]", wire["tags"])
	assert.Equal(t, "svc-1", wire["inference_service_id"])

	req.Method = "DELETE"
	req.Path = "/leading-slash"
	err := req.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "entrypoint", verr.Kind)
	assert.NotEmpty(t, verr.Fields)
}

func TestInferenceServiceScalingBounds(t *testing.T) {
	req := InferenceServiceRequest{Name: "iris-svc", ModelName: "iris"}
	req.DeploymentConfig.Scaling.Enabled = true
	req.DeploymentConfig.Scaling.MinReplicas = 3
	req.DeploymentConfig.Scaling.MaxReplicas = 2

	err := req.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, FieldError{Field: "deploymentConfig.scaling", Message: "minReplicas exceeds maxReplicas"})
}
