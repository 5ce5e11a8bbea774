package lconfig

import (
	"io"
	"os"
	"path/filepath"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// LoadStaticYamlConfig reads a yaml file into target. A missing file is reported with os.ErrNotExist so that
// callers can fall back to defaults.
func LoadStaticYamlConfig(filename string, filesystem afero.Fs, target interface{}) error {
	file, err := filesystem.OpenFile(filename, os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.Wrapf(yaml.Unmarshal(content, target), "parsing %s", filename)
}

func SaveStaticYamlConfig(filename string, filesystem afero.Fs, source interface{}) error {
	content, err := yaml.Marshal(source)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := filesystem.MkdirAll(filepath.Dir(filename), 0700); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(afero.WriteFile(filesystem, filename, content, 0600))
}
