// Package config loads dtobuddy settings from defaults, an optional
// dtobuddy.yaml, .env files and DTOBUDDY_* environment variables, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Port        int
	OutDir      string
	EventBuffer int
	Assist      AssistConfig
	Session     SessionConfig

	// ExportDir, when set, receives the artifacts of every editing session
	// after each change.
	ExportDir string

	// File is the config file that was read, if any.
	File string
}

// AssistConfig configures the Gemini client.
type AssistConfig struct {
	Endpoint string
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// SessionConfig bounds editing session lifetimes.
type SessionConfig struct {
	MaxAge      time.Duration
	IdleTimeout time.Duration
}

// Options tune Load. The zero value reads from the working directory of the
// real filesystem.
type Options struct {
	Fs afero.Fs
	// Dir is where dtobuddy.yaml and the .env files are looked up.
	Dir string
	// File, when set, names the config file explicitly.
	File string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("out_dir", ".")
	v.SetDefault("event_buffer", 256)
	v.SetDefault("export_dir", "")
	v.SetDefault("assist.endpoint", "https://generativelanguage.googleapis.com/")
	v.SetDefault("assist.model", "gemini-2.0-flash")
	v.SetDefault("assist.api_key", "")
	v.SetDefault("assist.timeout", 60*time.Second)
	v.SetDefault("session.max_age", 24*time.Hour)
	v.SetDefault("session.idle_timeout", 30*time.Minute)
}

// Load reads the configuration.
func Load(opts Options) (*Config, error) {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	if err := loadDotEnv(fs, dir); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetFs(fs)
	setDefaults(v)
	v.SetEnvPrefix("DTOBUDDY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName("dtobuddy")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "dtobuddy"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.File != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{
		Port:        v.GetInt("port"),
		OutDir:      v.GetString("out_dir"),
		EventBuffer: v.GetInt("event_buffer"),
		ExportDir:   v.GetString("export_dir"),
		Assist: AssistConfig{
			Endpoint: v.GetString("assist.endpoint"),
			Model:    v.GetString("assist.model"),
			APIKey:   v.GetString("assist.api_key"),
			Timeout:  v.GetDuration("assist.timeout"),
		},
		Session: SessionConfig{
			MaxAge:      v.GetDuration("session.max_age"),
			IdleTimeout: v.GetDuration("session.idle_timeout"),
		},
		File: v.ConfigFileUsed(),
	}
	if cfg.Assist.APIKey == "" {
		cfg.Assist.APIKey = os.Getenv("GOOGLE_API_KEY")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv loads .env, then .env.local with higher priority. Variables
// already set in the environment win over .env but not over .env.local.
func loadDotEnv(fs afero.Fs, dir string) error {
	for _, name := range []string{".env", ".env.local"} {
		path := filepath.Join(dir, name)
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("reading %s: %w", path, err)
		}
		vars, err := godotenv.UnmarshalBytes(data)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		for k, val := range vars {
			if _, set := os.LookupEnv(k); set && name == ".env" {
				continue
			}
			os.Setenv(k, val)
		}
	}
	return nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Session.MaxAge <= 0 || c.Session.IdleTimeout <= 0 {
		return errors.New("session timeouts must be positive")
	}
	if c.Assist.Timeout <= 0 {
		return errors.New("assist.timeout must be positive")
	}
	return nil
}
