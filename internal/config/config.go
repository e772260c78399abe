package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/gated/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "gated.json"

	// DefaultPort is the default server port.
	DefaultPort = 8080

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultMinQueryLength is the shortest query that reaches the catalog.
	DefaultMinQueryLength = 3

	// DefaultSearchLimit caps the number of results per query.
	DefaultSearchLimit = 50
)

// Catalog backends.
const (
	BackendMemory = "memory"
	BackendS3     = "s3"
)

// Config represents the complete gated.json configuration.
type Config struct {
	// Name is the instance name shown in the page title.
	Name string `json:"name,omitempty"`

	// Server contains HTTP server configuration.
	Server ServerConfig `json:"server,omitempty"`

	// Catalog selects and configures the object catalog backend.
	Catalog CatalogConfig `json:"catalog,omitempty"`

	// Search configures the search component.
	Search SearchConfig `json:"search,omitempty"`

	// Metrics configures Prometheus metrics.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Tracing configures OpenTelemetry tracing.
	Tracing TracingConfig `json:"tracing,omitempty"`

	// Log configures structured logging.
	Log LogConfig `json:"log,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty"`

	// RenderTimeout bounds how long a server-rendered page waits for
	// results (e.g., "2s").
	RenderTimeout string `json:"renderTimeout,omitempty"`

	// ShutdownTimeout bounds graceful shutdown (e.g., "10s").
	ShutdownTimeout string `json:"shutdownTimeout,omitempty"`
}

// CatalogConfig contains catalog backend settings.
type CatalogConfig struct {
	// Backend is "memory" or "s3".
	Backend string `json:"backend,omitempty"`

	// Bucket is the S3 bucket name.
	Bucket string `json:"bucket,omitempty"`

	// Prefix restricts listing to keys under this prefix.
	Prefix string `json:"prefix,omitempty"`

	// Region is the S3 region.
	Region string `json:"region,omitempty"`

	// Endpoint overrides the S3 endpoint, for S3-compatible stores.
	Endpoint string `json:"endpoint,omitempty"`

	// UsePathStyle forces path-style addressing.
	UsePathStyle bool `json:"usePathStyle,omitempty"`

	// WatchInterval is how often the catalog summary is refreshed.
	WatchInterval string `json:"watchInterval,omitempty"`

	// Seed lists object keys preloaded into the memory backend.
	Seed []string `json:"seed,omitempty"`
}

// SearchConfig contains search component settings.
type SearchConfig struct {
	// MinQueryLength is the filter threshold; shorter queries never reach
	// the catalog.
	MinQueryLength int `json:"minQueryLength,omitempty"`

	// Limit caps the number of results.
	Limit int `json:"limit,omitempty"`

	// Retries is the number of retries for a failed search.
	Retries int `json:"retries,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes metrics and instruments resources.
	Enabled bool `json:"enabled,omitempty"`

	// Path is the metrics endpoint path.
	Path string `json:"path,omitempty"`

	// Namespace is the metrics namespace.
	Namespace string `json:"namespace,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// Enabled wraps resource loads in spans.
	Enabled bool `json:"enabled,omitempty"`

	// TracerName is the tracer name.
	TracerName string `json:"tracerName,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{
		Name: "gated",
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
	c.applyDefaults()
	return c
}

// Load reads configuration from the specified directory.
// It looks for gated.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigNotFound).
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Run 'gated init' to write a default configuration")
		}
		return nil, errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.CodeConfigInvalid).
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that the file is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "gated"
	}

	// Server
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.RenderTimeout == "" {
		c.Server.RenderTimeout = "2s"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}

	// Catalog
	if c.Catalog.Backend == "" {
		c.Catalog.Backend = BackendMemory
	}
	if c.Catalog.WatchInterval == "" {
		c.Catalog.WatchInterval = "5s"
	}
	if c.Catalog.Backend == BackendS3 && c.Catalog.Region == "" {
		c.Catalog.Region = "us-east-1"
	}

	// Search
	if c.Search.MinQueryLength == 0 {
		c.Search.MinQueryLength = DefaultMinQueryLength
	}
	if c.Search.Limit == 0 {
		c.Search.Limit = DefaultSearchLimit
	}

	// Metrics
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "gated"
	}

	// Tracing
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = "github.com/vango-dev/gated"
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("server.port must be between 0 and 65535")
	}

	durations := map[string]string{
		"server.renderTimeout":   c.Server.RenderTimeout,
		"server.shutdownTimeout": c.Server.ShutdownTimeout,
		"catalog.watchInterval":  c.Catalog.WatchInterval,
	}
	for field, value := range durations {
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return errors.New(errors.CodeConfigInvalid).
				WithDetailf("%s must be a positive duration, got %q", field, value).
				WithSuggestion("Use Go duration syntax such as \"500ms\" or \"5s\"")
		}
	}

	switch c.Catalog.Backend {
	case BackendMemory:
	case BackendS3:
		if c.Catalog.Bucket == "" {
			return errors.New(errors.CodeConfigInvalid).
				WithDetail("catalog.bucket is required for the s3 backend")
		}
	default:
		return errors.New(errors.CodeConfigInvalid).
			WithDetailf("unknown catalog.backend %q", c.Catalog.Backend).
			WithSuggestion("Use \"memory\" or \"s3\"")
	}

	if c.Search.MinQueryLength < 0 {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("search.minQueryLength must not be negative")
	}
	if c.Search.Limit < 0 || c.Search.Retries < 0 {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("search.limit and search.retries must not be negative")
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.New(errors.CodeConfigInvalid).
			WithDetailf("metrics.path must start with '/', got %q", c.Metrics.Path)
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New(errors.CodeConfigInvalid).
			WithDetailf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// Address returns the listen address.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// RenderTimeout returns server.renderTimeout, or 2s if it does not parse.
func (c *Config) RenderTimeout() time.Duration {
	return durationOr(c.Server.RenderTimeout, 2*time.Second)
}

// ShutdownTimeout returns server.shutdownTimeout, or 10s if it does not parse.
func (c *Config) ShutdownTimeout() time.Duration {
	return durationOr(c.Server.ShutdownTimeout, 10*time.Second)
}

// WatchInterval returns catalog.watchInterval, or 5s if it does not parse.
func (c *Config) WatchInterval() time.Duration {
	return durationOr(c.Catalog.WatchInterval, 5*time.Second)
}

func durationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// NewLogger builds a slog logger from the log section.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if c.Log.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, errors.New(errors.CodeConfigInvalid).
			WithDetailf("log.level must be debug, info, warn or error, got %q", s)
	}
	return level, nil
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find gated.json.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New(errors.CodeConfigNotFound).
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory").
				WithSuggestion("Run 'gated init' or pass --config")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory
// or its nearest parent that has one.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
