// Package config loads stepper configuration using Viper.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// FileName is the optional project config file read from the working
// directory.
const FileName = "stepper.yml"

// EnvPrefix prefixes every environment override, e.g. STEPPER_ADDR.
const EnvPrefix = "STEPPER"

// Config holds all configuration values for the stepper binary.
type Config struct {
	Addr      string `mapstructure:"addr" yaml:"addr"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// Definition is a YAML wizard definition. Empty means the built-in
	// survey.
	Definition string `mapstructure:"definition" yaml:"definition"`
	Watch      bool   `mapstructure:"watch" yaml:"watch"`

	AllowedOrigins  []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	SessionIdle     time.Duration `mapstructure:"session_idle" yaml:"session_idle"`
	MaxSessions     int           `mapstructure:"max_sessions" yaml:"max_sessions"`
	EventsPerSecond float64       `mapstructure:"events_per_second" yaml:"events_per_second"`
	EventBurst      int           `mapstructure:"event_burst" yaml:"event_burst"`
	MaxConnsPerIP   int           `mapstructure:"max_conns_per_ip" yaml:"max_conns_per_ip"`

	// CSRFSecret signs form post tokens. Empty means random per process.
	CSRFSecret string `mapstructure:"csrf_secret" yaml:"csrf_secret"`

	SubmitTimeout   time.Duration `mapstructure:"submit_timeout" yaml:"submit_timeout"`
	SubmitDelay     time.Duration `mapstructure:"submit_delay" yaml:"submit_delay"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

var defaults = map[string]any{
	"addr":              ":8080",
	"log_level":         "info",
	"log_format":        "text",
	"definition":        "",
	"watch":             false,
	"allowed_origins":   []string{},
	"session_idle":      30 * time.Minute,
	"max_sessions":      10000,
	"events_per_second": 20.0,
	"event_burst":       40,
	"max_conns_per_ip":  20,
	"csrf_secret":       "",
	"submit_timeout":    30 * time.Second,
	"submit_delay":      time.Duration(0),
	"shutdown_timeout":  15 * time.Second,
}

// Load reads configuration with precedence
// flags > STEPPER_* env > config file > defaults.
// path names the config file; empty means ./stepper.yml when it exists.
// flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	if path == "" && fileExists(FileName) {
		path = FileName
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// bindFlags binds every flag whose name, with dashes as underscores, is a
// config key.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if _, ok := defaults[key]; !ok || err != nil {
			return
		}
		if bindErr := v.BindPFlag(key, f); bindErr != nil {
			err = fmt.Errorf("binding flag %s: %w", f.Name, bindErr)
		}
	})
	return err
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("config: log_format must be text or json, got %q", c.LogFormat)
	}
	if c.Addr == "" {
		return fmt.Errorf("config: addr is required")
	}
	if c.SessionIdle < 0 || c.SubmitTimeout < 0 || c.SubmitDelay < 0 || c.ShutdownTimeout < 0 {
		return fmt.Errorf("config: durations must not be negative")
	}
	if c.MaxSessions < 0 || c.MaxConnsPerIP < 0 || c.EventBurst < 0 {
		return fmt.Errorf("config: limits must not be negative")
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
