package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Logging  LoggingConfig  `toml:"logging"`
	Database DatabaseConfig `toml:"database"`
	Text     TextConfig     `toml:"text"`
	Load     LoadConfig     `toml:"load"`
	Kernel   KernelConfig   `toml:"kernel"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type DatabaseConfig struct {
	Driver          string   `toml:"driver"` // "postgres" or "sqlite"
	DSN             string   `toml:"dsn"`
	MaxOpenConns    int      `toml:"max_open_conns"`
	MaxIdleConns    int      `toml:"max_idle_conns"`
	ConnMaxLifetime Duration `toml:"conn_max_lifetime"`
}

type TextConfig struct {
	TabsToSpaces bool `toml:"tabs_to_spaces"`
	Internal     bool `toml:"internal"` // don't keep the source file path
}

type LoadConfig struct {
	Workers    int      `toml:"workers"`
	Extensions []string `toml:"extensions"`
}

type KernelConfig struct {
	TypesFile          string `toml:"types_file"`
	RelationsIncludeUI bool   `toml:"relations_include_ui"`
}

// Duration decodes TOML strings like "30m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", b, err)
	}
	d.Duration = v
	return nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Load.Workers < 1 {
		cfg.Load.Workers = 1
	}
	return cfg, nil
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	return defaults()
}

func defaults() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			DSN:             "tray.db",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: Duration{30 * time.Minute},
		},
		Text: TextConfig{
			TabsToSpaces: true,
		},
		Load: LoadConfig{
			Workers:    4,
			Extensions: []string{".txt", ".py", ".md"},
		},
	}
}
