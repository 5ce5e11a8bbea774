package clientbase

import (
	lconfig "github.infra.cloudera.com/CAI/MLOpsHub/pkg/config"
)

type Config struct {
	UserAgent string `env:"CLIENT_USER_AGENT" envDefault:"mlopshub"`
}

func NewConfigFromEnv() (*Config, error) {
	var cfg Config
	err := lconfig.Parse(&cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
