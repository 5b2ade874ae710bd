// Package config loads the server configuration from defaults, an optional
// .env file, an optional YAML or JSON file and the environment, in that
// order of increasing precedence. Command-line flags are applied on top by
// the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvConfigFile names the variable consulted when no config path is given.
const EnvConfigFile = "SOLBOT_LSP_CONFIG"

const defaultMaxContentLength = 8 << 20

// Config is the complete server configuration.
type Config struct {
	// LogFile is the log destination. "-" selects stderr; stdout is reserved
	// for protocol traffic. ENV: SOLBOT_LSP_LOG_FILE
	LogFile string `json:"logFile,omitempty" yaml:"logFile,omitempty" env:"SOLBOT_LSP_LOG_FILE" jsonschema:"description=Log file path or - for stderr"`
	// LogLevel is one of debug, info, warn or error. ENV: SOLBOT_LSP_LOG_LEVEL
	LogLevel string `json:"logLevel,omitempty" yaml:"logLevel,omitempty" env:"SOLBOT_LSP_LOG_LEVEL" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info"`
	// LogFormat is text or json. ENV: SOLBOT_LSP_LOG_FORMAT
	LogFormat string `json:"logFormat,omitempty" yaml:"logFormat,omitempty" env:"SOLBOT_LSP_LOG_FORMAT" jsonschema:"enum=text,enum=json,default=text"`
	// Lenient drops wrongly typed method and id members instead of rejecting
	// the message. ENV: SOLBOT_LSP_LENIENT
	Lenient bool `json:"lenient,omitempty" yaml:"lenient,omitempty" env:"SOLBOT_LSP_LENIENT" jsonschema:"description=Drop wrongly typed method and id members instead of rejecting the message"`
	// MaxContentLength bounds a single message body in bytes.
	// ENV: SOLBOT_LSP_MAX_CONTENT_LENGTH
	MaxContentLength int `json:"maxContentLength,omitempty" yaml:"maxContentLength,omitempty" env:"SOLBOT_LSP_MAX_CONTENT_LENGTH" jsonschema:"minimum=1"`
	// MetricsAddr enables a Prometheus endpoint on host:port when set.
	// ENV: SOLBOT_LSP_METRICS_ADDR
	MetricsAddr string `json:"metricsAddr,omitempty" yaml:"metricsAddr,omitempty" env:"SOLBOT_LSP_METRICS_ADDR" jsonschema:"description=Listen address for the /metrics endpoint; empty disables it"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogFile:          filepath.Join(os.TempDir(), "solbot-lsp.log"),
		LogLevel:         "info",
		LogFormat:        "text",
		MaxContentLength: defaultMaxContentLength,
	}
}

// Load builds a Config. The file at path is optional; when path is empty the
// SOLBOT_LSP_CONFIG variable is consulted. Each dotenv file is loaded into
// the process environment first, without overriding variables that are
// already set; missing dotenv files are ignored.
func Load(path string, dotenv ...string) (*Config, error) {
	cfg := Default()

	for _, f := range dotenv {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readFile merges the file at path into c. The format follows the
// extension: .yaml and .yml are YAML, anything else is JSON.
func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse YAML config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse JSON config file: %w", err)
		}
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q: want text or json", c.LogFormat)
	}
	if c.LogFile == "" {
		return errors.New("log file must not be empty; use - for stderr")
	}
	if c.MaxContentLength <= 0 {
		return fmt.Errorf("invalid max content length %d: must be positive", c.MaxContentLength)
	}
	if c.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(c.MetricsAddr); err != nil {
			return fmt.Errorf("invalid metrics address %q: %w", c.MetricsAddr, err)
		}
	}
	return nil
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return l, nil
}
