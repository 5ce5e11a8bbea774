package cli

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/auth"
	lconfig "github.infra.cloudera.com/CAI/MLOpsHub/pkg/config"
)

// Profile is what hubctl remembers between invocations.
type Profile struct {
	ApiBaseUrl  string       `json:"apiBaseUrl,omitempty"`
	IdentityUrl string       `json:"identityUrl,omitempty"`
	Realm       string       `json:"realm,omitempty"`
	ClientId    string       `json:"clientId,omitempty"`
	Tokens      *auth.Tokens `json:"tokens,omitempty"`
}

func DefaultProfilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".mlopshub", "config.yaml")
}

// LoadProfile reads the profile at path. A missing file is an empty profile.
func LoadProfile(fs afero.Fs, path string) (Profile, error) {
	var profile Profile
	err := lconfig.LoadStaticYamlConfig(path, fs, &profile)
	if errors.Is(err, os.ErrNotExist) {
		return Profile{}, nil
	}
	return profile, err
}

func SaveProfile(fs afero.Fs, path string, profile Profile) error {
	return lconfig.SaveStaticYamlConfig(path, fs, profile)
}

// overlay returns the profile with every non-empty field of other taking precedence.
func (p Profile) overlay(other Profile) Profile {
	if other.ApiBaseUrl != "" {
		p.ApiBaseUrl = other.ApiBaseUrl
	}
	if other.IdentityUrl != "" {
		p.IdentityUrl = other.IdentityUrl
	}
	if other.Realm != "" {
		p.Realm = other.Realm
	}
	if other.ClientId != "" {
		p.ClientId = other.ClientId
	}
	return p
}
