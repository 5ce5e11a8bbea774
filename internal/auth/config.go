package auth

import (
	"strings"
	"time"

	lconfig "github.infra.cloudera.com/CAI/MLOpsHub/pkg/config"
)

type Config struct {
	IdentityUrl      string        `env:"IDENTITY_URL" envDefault:"http://localhost:8080"`
	Realm            string        `env:"IDENTITY_REALM" envDefault:"mlopshub"`
	ClientId         string        `env:"IDENTITY_CLIENT_ID" envDefault:"mlopshub"`
	ClientSecret     string        `env:"IDENTITY_CLIENT_SECRET"`
	RefreshLookahead time.Duration `env:"IDENTITY_REFRESH_LOOKAHEAD" envDefault:"30s"`
	RetryAttempts    uint          `env:"IDENTITY_RETRY_ATTEMPTS" envDefault:"3"`
	RetryDelay       time.Duration `env:"IDENTITY_RETRY_DELAY" envDefault:"500ms"`
}

func NewConfigFromEnv() (*Config, error) {
	var cfg Config
	err := lconfig.Parse(&cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) realmUrl() string {
	return strings.TrimSuffix(c.IdentityUrl, "/") + "/realms/" + c.Realm + "/protocol/openid-connect"
}

func (c *Config) TokenUrl() string {
	return c.realmUrl() + "/token"
}

func (c *Config) LogoutUrl() string {
	return c.realmUrl() + "/logout"
}
