package main

import (
	"io"
	"os"

	"github.com/go-yaml/yaml"
	"github.com/pkg/errors"

	"github.com/totegamma/sigchat/core"
)

type Config struct {
	Server Server           `yaml:"server"`
	Hasher core.ConfigInput `yaml:"hasher"`
}

type Server struct {
	Listen        string `yaml:"listen"`
	DataDir       string `yaml:"dataDir"`
	Dsn           string `yaml:"dsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	StaticDir     string `yaml:"staticDir"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

// DefaultConfig is used when no configuration file exists
func DefaultConfig() Config {
	return Config{
		Server: Server{
			Listen:    ":3000",
			DataDir:   "db",
			StaticDir: "site",
		},
		Hasher: core.ConfigInput{
			Rounds: core.DefaultHashRounds,
		},
	}
}

// Load loads config from given path on top of the defaults.
// A missing file keeps the defaults.
func (c *Config) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "failed to open configuration file")
	}
	defer f.Close()

	err = yaml.NewDecoder(f).Decode(c)
	if err != nil && !errors.Is(err, io.EOF) {
		return errors.Wrap(err, "failed to load configuration file")
	}

	if c.Server.Listen == "" {
		c.Server.Listen = ":3000"
	}
	if c.Server.DataDir == "" {
		c.Server.DataDir = "db"
	}
	if c.Server.StaticDir == "" {
		c.Server.StaticDir = "site"
	}

	return nil
}
