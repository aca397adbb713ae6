package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/lessonvars/internal/errors"
	"github.com/vango-dev/lessonvars/pkg/registry"
	"github.com/vango-dev/lessonvars/pkg/store"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "lessonvars.json"

	// DefaultPort is the default widget host port.
	DefaultPort = 4000

	// DefaultHost is the default widget host address.
	DefaultHost = "localhost"

	// DefaultSendBuffer is the default number of frames queued per
	// WebSocket connection before it is dropped.
	DefaultSendBuffer = 64

	// DefaultShutdownTimeout is how long the server waits for open
	// requests on shutdown.
	DefaultShutdownTimeout = "5s"

	// DefaultDebounce is how long the watcher waits for a burst of file
	// events to settle before reloading.
	DefaultDebounce = "200ms"

	// DefaultNamespace is the default metrics namespace.
	DefaultNamespace = "lessonvars"
)

// Config represents the complete lessonvars.json configuration.
type Config struct {
	// Name is the lesson name, shown in logs.
	Name string `json:"name,omitempty"`

	// Server contains widget host configuration.
	Server ServerConfig `json:"server,omitempty"`

	// Variables contains declaration source configuration.
	Variables VariablesConfig `json:"variables,omitempty"`

	// Store contains store tuning.
	Store StoreConfig `json:"store,omitempty"`

	// Dev contains development settings.
	Dev DevConfig `json:"dev,omitempty"`

	// Log contains logging settings.
	Log LogConfig `json:"log,omitempty"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains widget host settings.
type ServerConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`

	// SendBuffer is the per-connection outgoing frame buffer.
	SendBuffer int `json:"sendBuffer,omitempty"`

	// ShutdownTimeout is a Go duration string (e.g. "5s").
	ShutdownTimeout string `json:"shutdownTimeout,omitempty"`

	// AllowedOrigins lists the origins allowed to open a WebSocket. Empty
	// means same origin only; "*" allows any.
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`
}

// VariablesConfig says where declarations come from.
type VariablesConfig struct {
	// Source is a file path, relative to the config file, or an
	// s3://bucket/key URI. Empty means the built-in lesson declarations.
	Source string `json:"source,omitempty"`

	// Region is the AWS region for s3:// sources.
	Region string `json:"region,omitempty"`
}

// StoreConfig contains store settings.
type StoreConfig struct {
	// StormBudget caps notifications per outermost write. 0 means the
	// built-in default; negative disables the cap.
	StormBudget int `json:"stormBudget,omitempty"`

	// SkipUnchanged suppresses notifications for writes equal to the
	// current value.
	SkipUnchanged bool `json:"skipUnchanged,omitempty"`
}

// DevConfig contains development settings.
type DevConfig struct {
	// Enabled turns on loud binding diagnostics.
	Enabled bool `json:"enabled,omitempty"`

	// Watch reloads declarations when the source file changes.
	Watch bool `json:"watch,omitempty"`

	// Debounce is a Go duration string (e.g. "200ms").
	Debounce string `json:"debounce,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled"`
	Namespace string `json:"namespace,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{
		Metrics: MetricsConfig{Enabled: true},
	}
	c.applyDefaults()
	return c
}

// Load reads configuration from the specified directory.
// It looks for lessonvars.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path. A missing file
// yields an error that wraps fs.ErrNotExist.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E401").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Create " + ConfigFileName + " or pass flags instead").
				Wrap(err)
		}
		return nil, errors.New("E401").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E401").
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON")
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
		return errors.New("E401").Wrap(err)
	}

	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E401").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.SendBuffer == 0 {
		c.Server.SendBuffer = DefaultSendBuffer
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Dev.Debounce == "" {
		c.Dev.Debounce = DefaultDebounce
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("E401").
			WithDetail("server.port must be between 0 and 65535")
	}
	if c.Server.SendBuffer < 1 {
		return errors.New("E401").
			WithDetail("server.sendBuffer must be at least 1")
	}
	if _, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil {
		return errors.New("E401").
			WithDetail("server.shutdownTimeout is not a duration").
			Wrap(err)
	}
	if _, err := time.ParseDuration(c.Dev.Debounce); err != nil {
		return errors.New("E401").
			WithDetail("dev.debounce is not a duration").
			Wrap(err)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return errors.New("E401").Wrap(err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("E401").
			WithDetail(fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format))
	}
	if c.Variables.Source != "" {
		if _, err := registry.ParseLocation(c.Variables.Source); err != nil {
			return errors.New("E401").
				WithDetail("variables.source is not a path or s3:// URI").
				Wrap(err)
		}
	}
	if c.Dev.Watch && strings.HasPrefix(c.Variables.Source, "s3://") {
		return errors.New("E401").
			WithDetail("dev.watch needs a local variables.source").
			WithSuggestion("Point variables.source at a file or turn off dev.watch")
	}
	return nil
}

// Address returns the listen address of the widget host.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// ShutdownTimeoutDuration returns the parsed shutdown timeout, or the
// default when it does not parse.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	return durationOr(c.Server.ShutdownTimeout, DefaultShutdownTimeout)
}

// DebounceDuration returns the parsed watcher debounce.
func (c *Config) DebounceDuration() time.Duration {
	return durationOr(c.Dev.Debounce, DefaultDebounce)
}

func durationOr(s, fallback string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	d, _ := time.ParseDuration(fallback)
	return d
}

// VariablesLocation resolves Variables.Source. A relative path is taken
// relative to the config file. ok is false when no source is configured.
func (c *Config) VariablesLocation() (loc registry.Location, ok bool, err error) {
	if c.Variables.Source == "" {
		return registry.Location{}, false, nil
	}
	loc, err = registry.ParseLocation(c.Variables.Source)
	if err != nil {
		return registry.Location{}, false, err
	}
	if !loc.IsS3() && !filepath.IsAbs(loc.Path) && c.Dir() != "" {
		loc.Path = filepath.Join(c.Dir(), loc.Path)
	}
	return loc, true, nil
}

// StoreOptions translates the store settings into store options.
func (c *Config) StoreOptions() []store.Option {
	var opts []store.Option
	if c.Store.StormBudget != 0 {
		opts = append(opts, store.WithStormBudget(c.Store.StormBudget))
	}
	if c.Store.SkipUnchanged {
		opts = append(opts, store.WithSkipUnchanged(true))
	}
	return opts
}

// NewLogger builds the configured slog logger writing to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", s, err)
	}
	return level, nil
}
