package lconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/api/resource"
)

type testStruct struct {
	BaseUrl      string            `env:"TEST_HUB_API_BASE_URL"`
	DefaultValue string            `env:"TEST_NON_EXISTANT" envDefault:"http://localhost:8000"`
	EnvVal       string            `env:"TEST_ENV_VAL"`
	Workers      int               `env:"TEST_WORKERS"`
	Enabled      bool              `env:"TEST_ENABLED"`
	Timeout      time.Duration     `env:"TEST_TIMEOUT" envDefault:"10s"`
	MaxBody      resource.Quantity `env:"TEST_MAX_BODY" envDefault:"1Mi"`
	Labels       map[string]string `env:"TEST_LABELS"`
}

func TestConfigDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TEST_ENV_VAL", "env value here")
	t.Setenv("CONFIG_DIR", dir)

	files := map[string]string{
		"TEST_HUB_API_BASE_URL": "http://hub:8000\n",
		"TEST_WORKERS":          "3",
		"TEST_ENABLED":          "true",
		"TEST_LABELS":           `{"team":"ml"}`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
	}

	var test testStruct
	require.NoError(t, Parse(&test))

	assert.Equal(t, "http://hub:8000", test.BaseUrl)
	assert.Equal(t, "http://localhost:8000", test.DefaultValue)
	assert.Equal(t, "env value here", test.EnvVal)
	assert.Equal(t, 3, test.Workers)
	assert.True(t, test.Enabled)
	assert.Equal(t, 10*time.Second, test.Timeout)
	assert.Equal(t, int64(1024*1024), test.MaxBody.Value())
	assert.Equal(t, map[string]string{"team": "ml"}, test.Labels)
}

func TestEnvironmentWinsOverConfigDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_DIR", dir)
	t.Setenv("TEST_WORKERS", "7")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "TEST_WORKERS"), []byte("3"), 0600))

	var test testStruct
	require.NoError(t, Parse(&test))
	assert.Equal(t, 7, test.Workers)
}

type profile struct {
	ApiBaseUrl string `json:"apiBaseUrl"`
	Realm      string `json:"realm"`
}

func TestStaticYamlRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()

	err := LoadStaticYamlConfig("/home/user/.mlopshub/config.yaml", fs, &profile{})
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, SaveStaticYamlConfig("/home/user/.mlopshub/config.yaml", fs, profile{ApiBaseUrl: "http://hub", Realm: "mlops"}))

	var loaded profile
	require.NoError(t, LoadStaticYamlConfig("/home/user/.mlopshub/config.yaml", fs, &loaded))
	assert.Equal(t, profile{ApiBaseUrl: "http://hub", Realm: "mlops"}, loaded)
}
