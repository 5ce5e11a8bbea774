package datasource

import lconfig "github.infra.cloudera.com/CAI/MLOpsHub/pkg/config"

type Config struct {
	BaseUrl string `env:"HUB_API_BASE_URL" envDefault:"http://localhost:8000"`
}

func NewConfigFromEnv() (*Config, error) {
	var cfg Config
	err := lconfig.Parse(&cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
