package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

func init() {
	ini.PrettyFormat = false
}

var iniOptions = ini.LoadOptions{
	SkipUnrecognizableLines:  true,
	SpaceBeforeInlineComment: true,
}

type Store struct {
	Driver string `ini:"driver" comment:"sqlite3 or postgres"`
	DSN    string `ini:"dsn" comment:"database file path (sqlite3) or connection string (postgres)"`
}

type Query struct {
	Depth        int  `ini:"depth" comment:"default correlation iterations"`
	Concurrency  int  `ini:"concurrency" comment:"parallel store queries per frontier category"`
	MaxQPS       int  `ini:"maxQps" comment:"store query rate cap, 0 disables"`
	FollowIdents bool `ini:"followIdents" comment:"seed and follow the ident frontier"`
	Subnet       bool `ini:"subnet" comment:"generalize IPv4 hosts to their /24 block"`
}

type Config struct {
	LogDataDir string `ini:"logDataDir"`
	Store      Store
	Query      Query
}

// Default returns the built-in configuration, pointed at quassel's sqlite
// backend in the working directory.
func Default() *Config {
	return &Config{
		LogDataDir: filepath.Join("data", "log"),
		Store: Store{
			Driver: "sqlite3",
			DSN:    "quassel-storage.sqlite",
		},
		Query: Query{
			Depth:       3,
			Concurrency: 8,
		},
	}
}

// Load reads the config file at path. A missing file is not an error: the
// defaults are written out so the user has something to edit, then used.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		if err := Write(path, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	file, err := ini.LoadSources(iniOptions, path)
	if err != nil {
		return nil, errors.Wrapf(err, "open config file %s", path)
	}
	cfg := Default()
	if err := file.MapTo(cfg); err != nil {
		return nil, errors.Wrapf(err, "map config file %s", path)
	}
	if cfg.Query.Depth <= 0 {
		cfg.Query.Depth = 3
	}
	if cfg.Query.Concurrency <= 0 {
		cfg.Query.Concurrency = 8
	}
	return cfg, nil
}

// Write persists the configuration in ini form.
func Write(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create config directory")
		}
	}
	file := ini.Empty()
	if err := file.ReflectFrom(cfg); err != nil {
		return errors.Wrap(err, "reflect config")
	}
	if err := file.SaveTo(path); err != nil {
		return errors.Wrapf(err, "write config file %s", path)
	}
	return nil
}
