package monitoring

import (
	"time"

	lconfig "github.infra.cloudera.com/CAI/MLOpsHub/pkg/config"
	"github.infra.cloudera.com/CAI/MLOpsHub/pkg/reconciler"
)

type Config struct {
	Enabled         bool          `env:"MONITORING_ENABLED" envDefault:"true"`
	ResyncFrequency time.Duration `env:"MONITORING_RESYNC_FREQUENCY" envDefault:"30s"`
	MaxWorkers      int           `env:"MONITORING_MAX_WORKERS" envDefault:"1"`
	RunMaxItems     int           `env:"MONITORING_RUN_MAX_ITEMS" envDefault:"10"`
}

func NewConfigFromEnv() (*Config, error) {
	var cfg Config
	err := lconfig.Parse(&cfg)
	if err != nil {
		return nil, err
	}
	err = validateConfig(&cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateConfig(config *Config) error {
	if config.ResyncFrequency < 1*time.Second {
		return reconciler.ErrInvalidResyncFrequency
	}
	if config.MaxWorkers < 1 {
		return reconciler.ErrInvalidMaxWorkers
	}
	if config.RunMaxItems < 1 {
		return reconciler.ErrInvalidRunMaxItems
	}
	return nil
}
