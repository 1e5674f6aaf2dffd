// Package config builds container options from environment variables, .env
// files and YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/danpasecinic/quill"
)

const (
	EnvID                = "QUILL_ID"
	EnvAllowNullBindings = "QUILL_ALLOW_NULL_BINDINGS"
	EnvAutoConstruct     = "QUILL_AUTO_CONSTRUCT"
	EnvLogLevel          = "QUILL_LOG_LEVEL"
	EnvLogFormat         = "QUILL_LOG_FORMAT"
	EnvInspectAddr       = "QUILL_INSPECT_ADDR"
	EnvMetricsNamespace  = "QUILL_METRICS_NAMESPACE"
)

type Config struct {
	ID                string `yaml:"id" validate:"omitempty,max=128"`
	AllowNullBindings bool   `yaml:"allow_null_bindings"`
	AutoConstruct     bool   `yaml:"auto_construct"`
	LogLevel          string `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat         string `yaml:"log_format" validate:"oneof=text json"`
	InspectAddr       string `yaml:"inspect_addr" validate:"omitempty,hostname_port"`
	MetricsNamespace  string `yaml:"metrics_namespace" validate:"omitempty,excludesall=- /"`
}

func Default() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		MetricsNamespace: "quill",
	}
}

// Load reads the given .env files, falling back to .env, then applies the
// process environment on top. Missing files are skipped and the process
// environment is never modified.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	dotenv := make(map[string]string)
	for _, file := range envFiles {
		values, err := godotenv.Read(file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		for k, v := range values {
			if _, seen := dotenv[k]; !seen {
				dotenv[k] = v
			}
		}
	}

	return Default().finish(lookupChain(os.LookupEnv, mapLookup(dotenv)))
}

// LoadFile reads a YAML file over the defaults. Environment variables still
// take precedence.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	return Decode(f, os.LookupEnv)
}

// Decode reads YAML from r and applies variables from lookup.
func Decode(r io.Reader, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	if err := yaml.NewDecoder(r).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg.finish(lookup)
}

// FromEnv builds a config from lookup alone.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	return Default().finish(lookup)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) finish(lookup func(string) (string, bool)) (*Config, error) {
	if err := c.apply(lookup); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) apply(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvID); ok {
		c.ID = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.LogLevel = strings.ToLower(v)
	}
	if v, ok := lookup(EnvLogFormat); ok {
		c.LogFormat = strings.ToLower(v)
	}
	if v, ok := lookup(EnvInspectAddr); ok {
		c.InspectAddr = v
	}
	if v, ok := lookup(EnvMetricsNamespace); ok {
		c.MetricsNamespace = v
	}

	var err error
	if c.AllowNullBindings, err = envBool(lookup, EnvAllowNullBindings, c.AllowNullBindings); err != nil {
		return err
	}
	if c.AutoConstruct, err = envBool(lookup, EnvAutoConstruct, c.AutoConstruct); err != nil {
		return err
	}
	return nil
}

func envBool(lookup func(string) (string, bool), key string, fallback bool) (bool, error) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func lookupChain(lookups ...func(string) (string, bool)) func(string) (string, bool) {
	return func(key string) (string, bool) {
		for _, lookup := range lookups {
			if v, ok := lookup(key); ok {
				return v, true
			}
		}
		return "", false
	}
}

func (c *Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger writes to w in the configured format and level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Level()}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Options translates the config into container options, logging to w.
func (c *Config) Options(w io.Writer) []quill.Option {
	opts := []quill.Option{
		quill.WithLogger(c.Logger(w)),
		quill.WithAllowNullBindings(c.AllowNullBindings),
	}
	if c.ID != "" {
		opts = append(opts, quill.WithID(c.ID))
	}
	if c.AutoConstruct {
		opts = append(opts, quill.WithAutoConstruct())
	}
	return opts
}
