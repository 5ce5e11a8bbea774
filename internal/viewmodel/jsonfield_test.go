package viewmodel

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParseStringList(t *testing.T) {
	list, warning := ParseStringList("tags", `["a","b"]`)
	assert.Equal(t, []string{"a", "b"}, list)
	assert.Nil(t, warning)

	list, warning = ParseStringList("tags", `{not json`)
	assert.Equal(t, []string{}, list)
	assert.Equal(t, &ParseWarning{Field: "tags", Kind: WarningJSON, Raw: `{not json`}, warning)

	list, warning = ParseStringList("tags", ``)
	assert.Equal(t, []string{}, list)
	assert.Nil(t, warning)

	list, warning = ParseStringList("tags", `["x", 3, true, null]`)
	assert.Equal(t, []string{"x", "3", "true"}, list)
	assert.Nil(t, warning)
}

func TestParseStringListRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tags := rapid.SliceOf(rapid.String()).Draw(t, "tags")
		encoded, err := json.Marshal(tags)
		if err != nil {
			t.Fatalf("failed to encode: %v", err)
		}

		list, warning := ParseStringList("tags", string(encoded))

		// Property: a valid encoded list comes back unchanged
		assert.Nil(t, warning)
		assert.Equal(t, len(tags), len(list))
		for i := range tags {
			assert.Equal(t, tags[i], list[i])
		}
	})
}

func TestDeploymentConfigMerge(t *testing.T) {
	merged, warning := ParseObject("deployment_config", `{"replicas": 5}`, DefaultDeploymentConfig())
	require.Nil(t, warning)

	expected := DefaultDeploymentConfig()
	expected.Replicas = 5
	assert.Equal(t, expected, merged)
	assert.Equal(t, Resources{CPU: "500m", Memory: "1Gi", GPU: 0}, merged.Resources)
	assert.Equal(t, HealthCheck{Enabled: true, Path: "/health", IntervalSeconds: 30, TimeoutSeconds: 5}, merged.HealthCheck)
	assert.Equal(t, Scaling{Enabled: false, MinReplicas: 1, MaxReplicas: 3, TargetCPUUtilization: 80}, merged.Scaling)
}

func TestDeploymentConfigLeafOverride(t *testing.T) {
	merged, warning := ParseObject("deployment_config",
		`{"resources": {"memory": "4Gi"}, "scaling": {"enabled": true, "maxReplicas": 8}}`, DefaultDeploymentConfig())
	require.Nil(t, warning)

	assert.Equal(t, 1, merged.Replicas)
	assert.Equal(t, Resources{CPU: "500m", Memory: "4Gi", GPU: 0}, merged.Resources)
	assert.Equal(t, Scaling{Enabled: true, MinReplicas: 1, MaxReplicas: 8, TargetCPUUtilization: 80}, merged.Scaling)
}

func TestParseObjectFallsBackToDefaults(t *testing.T) {
	for _, raw := range []string{`{broken`, `[1,2]`, `{"replicas": "five"}`} {
		merged, warning := ParseObject("deployment_config", raw, DefaultDeploymentConfig())
		assert.Equal(t, DefaultDeploymentConfig(), merged, raw)
		if assert.NotNil(t, warning, raw) {
			assert.Equal(t, WarningJSON, warning.Kind)
		}
	}

	merged, warning := ParseObject("metrics_data", "", DefaultServiceMetrics())
	assert.Equal(t, ServiceMetrics{}, merged)
	assert.Nil(t, warning)
}
