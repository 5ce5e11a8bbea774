package restapi

import (
	lconfig "github.infra.cloudera.com/CAI/MLOpsHub/pkg/config"
	"k8s.io/apimachinery/pkg/api/resource"
)

type Config struct {
	// PlaygroundMaxBody caps the payload forwarded to an entrypoint. Zero disables the limit.
	PlaygroundMaxBody resource.Quantity `env:"HUB_PLAYGROUND_MAX_BODY" envDefault:"1Mi"`
	HistoryLimit      int               `env:"HUB_INVOCATION_HISTORY_LIMIT" envDefault:"50"`
	DailyMetricsDays  int               `env:"HUB_DAILY_METRICS_DAYS" envDefault:"7"`
}

func NewConfigFromEnv() (*Config, error) {
	var cfg Config
	err := lconfig.Parse(&cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
