// Package config loads the CLI configuration from a YAML file, the
// environment and the command line.
package config

import (
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/go-kivik/nano/cmd/nano/errors"
	"github.com/go-kivik/nano/log"
)

// EnvPrefix is the prefix of environment variables read, such as NANO_DSN.
const EnvPrefix = "NANO"

// DefaultFile is the config file read when --config is not given.
const DefaultFile = "~/.nano/config.yaml"

// Config is the merged CLI configuration. Flags take precedence over
// environment variables, which take precedence over the config file.
type Config struct {
	DSN            string `mapstructure:"dsn"`
	Debug          bool   `mapstructure:"debug"`
	Verbose        bool   `mapstructure:"verbose"`
	Output         string `mapstructure:"output"`
	Retry          int    `mapstructure:"retry"`
	RequestTimeout string `mapstructure:"request-timeout"`
	// PurgeConcurrency is only settable from the file or environment.
	PurgeConcurrency int `mapstructure:"purge-concurrency"`
	// NATSURL is the default server for changes --follow --nats-url.
	NATSURL string `mapstructure:"nats-url"`
}

// Load reads filename, if it exists, then the environment, then the flags in
// fs. An explicitly named file which does not exist is an error; a missing
// default file is not.
func Load(v *viper.Viper, filename string, explicit bool, fs *pflag.FlagSet, lg log.Logger) (*Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"purge-concurrency", "nats-url"} {
		if err := v.BindEnv(key); err != nil {
			return nil, errors.Code(errors.ErrUsage, err)
		}
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, errors.Code(errors.ErrUsage, err)
	}

	if filename != "" {
		v.SetConfigFile(filename)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if !explicit && os.IsNotExist(err) {
				lg.Debugf("no config file at %s", filename)
			} else {
				return nil, errors.Codef(errors.ErrUsage, "read config: %s", err)
			}
		} else {
			lg.Debugf("read config file %s", filename)
		}
	}

	conf := &Config{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, errors.Codef(errors.ErrUsage, "parse config: %s", err)
	}
	return conf, nil
}
