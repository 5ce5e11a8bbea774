package loader

import (
	"time"

	lconfig "github.infra.cloudera.com/CAI/MLOpsHub/pkg/config"
)

type Config struct {
	// Zero disables caching; concurrent loads are still deduplicated.
	CacheTTL time.Duration `env:"LOADER_CACHE_TTL" envDefault:"5s"`
}

func NewConfigFromEnv() (*Config, error) {
	var cfg Config
	err := lconfig.Parse(&cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
