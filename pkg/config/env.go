package lconfig

import (
	"encoding/json"
	"os"
	"reflect"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/api/resource"
)

var parseFuncs = map[reflect.Type]env.ParserFunc{
	reflect.TypeOf(*resource.NewQuantity(0, resource.DecimalSI)): env.ParserFunc(func(v string) (interface{}, error) {
		return resource.ParseQuantity(v)
	}),
	reflect.TypeOf(map[string]string{}): env.ParserFunc(func(v string) (interface{}, error) {
		ret := make(map[string]string)
		err := json.Unmarshal([]byte(v), &ret)
		return ret, err
	}),
}

// environmentOptions overlays the process environment on top of the files found in CONFIG_DIR, if set.
func environmentOptions() (env.Options, error) {
	opts := env.Options{}
	configDirPath := os.Getenv("CONFIG_DIR")
	if configDirPath == "" {
		return opts, nil
	}

	configDir, err := NewConfigDir(configDirPath)
	if err != nil {
		return opts, err
	}
	opts.Environment, err = configDir.EnvironmentMap()
	if err != nil {
		return opts, err
	}

	for _, existingEnv := range os.Environ() {
		name, value, _ := strings.Cut(existingEnv, "=")
		opts.Environment[name] = value
	}
	return opts, nil
}

func Parse(v interface{}) error {
	return ParseWithFuncs(v, nil)
}

func MustParse(v interface{}) {
	if err := Parse(v); err != nil {
		panic(err)
	}
}

type ParseFuncs map[reflect.Type]env.ParserFunc

func (f ParseFuncs) With(t reflect.Type, fn env.ParserFunc) ParseFuncs {
	if f == nil {
		f = make(map[reflect.Type]env.ParserFunc)
	}
	f[t] = fn
	return f
}

func ParseWithFuncs(v interface{}, funcs ParseFuncs) error {
	newFuncs := make(map[reflect.Type]env.ParserFunc)
	for k, v := range parseFuncs {
		newFuncs[k] = v
	}
	for k, v := range funcs {
		newFuncs[k] = v
	}

	opts, err := environmentOptions()
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(env.ParseWithFuncs(v, newFuncs, opts))
}
