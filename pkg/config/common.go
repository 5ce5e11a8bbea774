package lconfig

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// SetupLogging configures the process-wide logrus logger.
func (cfg LogConfig) SetupLogging() error {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	log.SetReportCaller(true)

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", cfg.Level)
	}
	log.SetLevel(level)
	return nil
}
