package config

import (
	lconfig "github.infra.cloudera.com/CAI/MLOpsHub/pkg/config"
)

type Config struct {
	lconfig.LogConfig
	// The gateway logs in with client credentials so background work has a token when no caller is around
	ServiceLogin bool `env:"HUB_SERVICE_LOGIN" envDefault:"false"`
}

func NewConfigFromEnv() (*Config, error) {
	var cfg Config
	err := lconfig.Parse(&cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
