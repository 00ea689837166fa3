package config

import (
	"bytes"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/fibre/internal/errors"
	"github.com/vango-dev/fibre/pkg/snapshot"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "fibre.yaml"

	// AltConfigFileName is accepted when ConfigFileName is absent. JSON is
	// parsed by the same YAML decoder.
	AltConfigFileName = "fibre.json"

	// DefaultAddr is the default inspector listen address.
	DefaultAddr = "localhost:7070"

	// DefaultFrameInterval is the default transition frame interval.
	DefaultFrameInterval = 16 * time.Millisecond

	// DefaultBoltPath is the default bbolt snapshot database.
	DefaultBoltPath = ".fibre/snapshots.db"
)

// Snapshot backends.
const (
	BackendMemory = "memory"
	BackendBolt   = "bolt"
	BackendS3     = "s3"
)

// Config represents the complete fibre.yaml configuration.
type Config struct {
	// Inspector contains the mirror server configuration.
	Inspector InspectorConfig `yaml:"inspector,omitempty"`

	// Frames configures the frame driver used by transitions.
	Frames FramesConfig `yaml:"frames,omitempty"`

	// Transitions configures CSS transition lookups.
	Transitions TransitionsConfig `yaml:"transitions,omitempty"`

	// Metrics configures Prometheus metrics.
	Metrics MetricsConfig `yaml:"metrics,omitempty"`

	// Log configures logging.
	Log LogConfig `yaml:"log,omitempty"`

	// Snapshots configures snapshot storage.
	Snapshots SnapshotsConfig `yaml:"snapshots,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// InspectorConfig contains mirror server settings.
type InspectorConfig struct {
	// Addr is the listen address (host:port).
	Addr string `yaml:"addr,omitempty"`

	// AllowedOrigins lists extra WebSocket origins. Same-host origins are
	// always accepted; "*" accepts any origin.
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
}

// FramesConfig contains frame driver settings.
type FramesConfig struct {
	// Interval is the time between frames. Zero disables the frame driver,
	// which makes transitions finish synchronously.
	Interval time.Duration `yaml:"interval,omitempty"`

	// Disabled turns transitions into synchronous inserts and removals.
	Disabled bool `yaml:"disabled,omitempty"`
}

// TransitionsConfig contains transition settings.
type TransitionsConfig struct {
	// Durations maps transition names to their CSS duration. Names listed
	// with a zero duration finish right after the frame swap; unlisted
	// names wait for transitionend.
	Durations map[string]time.Duration `yaml:"durations,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled registers scheduler metrics and serves /metrics.
	Enabled bool `yaml:"enabled"`

	// Namespace is the metrics namespace.
	Namespace string `yaml:"namespace,omitempty"`

	// Subsystem is the metrics subsystem.
	Subsystem string `yaml:"subsystem,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level,omitempty"`

	// Format is text or json.
	Format string `yaml:"format,omitempty"`
}

// SnapshotsConfig contains snapshot storage settings.
type SnapshotsConfig struct {
	// Backend is memory, bolt or s3.
	Backend string `yaml:"backend,omitempty"`

	// Bolt configures the bolt backend.
	Bolt BoltConfig `yaml:"bolt,omitempty"`

	// S3 configures the s3 backend.
	S3 S3Config `yaml:"s3,omitempty"`
}

// BoltConfig contains bbolt settings.
type BoltConfig struct {
	// Path is the database file, relative to the config directory.
	Path string `yaml:"path,omitempty"`
}

// S3Config contains S3 settings.
type S3Config struct {
	Bucket   string `yaml:"bucket,omitempty"`
	Region   string `yaml:"region,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Inspector: InspectorConfig{Addr: DefaultAddr},
		Frames:    FramesConfig{Interval: DefaultFrameInterval},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "fibre",
			Subsystem: "scheduler",
		},
		Log: LogConfig{Level: "info", Format: "text"},
		Snapshots: SnapshotsConfig{
			Backend: BackendBolt,
			Bolt:    BoltConfig{Path: DefaultBoltPath},
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for fibre.yaml, then fibre.json, in the directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if alt := filepath.Join(dir, AltConfigFileName); fileExists(alt) {
			path = alt
		}
	}
	return LoadFile(path)
}

// LoadFile reads configuration from the specified file path. Keys that are
// not part of the schema are rejected.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("F070").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path))
		}
		return nil, errors.New("F071").Wrap(err)
	}

	cfg := New()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.New("F071").
			Wrap(err).
			WithSuggestion("Check the indentation and key names in " + filepath.Base(path))
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

// SaveTo writes the configuration to the specified path as YAML.
func (c *Config) SaveTo(path string) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return errors.New("F071").Wrap(err)
	}
	if err := enc.Close(); err != nil {
		return errors.New("F071").Wrap(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.New("F071").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file, or "." for a
// config that was not loaded from disk.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return "."
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills values a file left empty.
func (c *Config) applyDefaults() {
	if c.Inspector.Addr == "" {
		c.Inspector.Addr = DefaultAddr
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Snapshots.Backend == "" {
		c.Snapshots.Backend = BackendBolt
	}
	if c.Snapshots.Bolt.Path == "" {
		c.Snapshots.Bolt.Path = DefaultBoltPath
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "fibre"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Inspector.Addr); err != nil {
		return errors.New("F072").WithField("inspector.addr").Wrap(err)
	}
	if c.Frames.Interval < 0 {
		return errors.New("F072").WithField("frames.interval").
			WithDetail("The frame interval cannot be negative.")
	}
	for name, d := range c.Transitions.Durations {
		if d < 0 {
			return errors.New("F072").WithField("transitions.durations." + name).
				WithDetail("Transition durations cannot be negative.")
		}
	}
	if _, ok := parseLevel(c.Log.Level); !ok {
		return errors.New("F072").WithField("log.level").
			WithDetail("Use one of debug, info, warn, error.")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("F072").WithField("log.format").
			WithDetail("Use text or json.")
	}
	switch c.Snapshots.Backend {
	case BackendMemory, BackendBolt:
	case BackendS3:
		if c.Snapshots.S3.Bucket == "" {
			return errors.New("F072").WithField("snapshots.s3.bucket").
				WithDetail("The s3 backend needs a bucket.")
		}
		if c.Snapshots.S3.Region == "" {
			return errors.New("F072").WithField("snapshots.s3.region").
				WithDetail("The s3 backend needs a region.")
		}
	default:
		return errors.New("F072").WithField("snapshots.backend").
			WithDetail("Use memory, bolt or s3.")
	}
	return nil
}

// FrameInterval returns the frame interval, or zero when frames are
// disabled.
func (c *Config) FrameInterval() time.Duration {
	if c.Frames.Disabled {
		return 0
	}
	return c.Frames.Interval
}

// BoltPath returns the absolute path of the bolt database.
func (c *Config) BoltPath() string {
	if filepath.IsAbs(c.Snapshots.Bolt.Path) {
		return c.Snapshots.Bolt.Path
	}
	return filepath.Join(c.Dir(), c.Snapshots.Bolt.Path)
}

// OpenStore opens the configured snapshot store.
func (c *Config) OpenStore() (snapshot.Store, error) {
	switch c.Snapshots.Backend {
	case BackendMemory:
		return snapshot.NewMemoryStore(), nil
	case BackendS3:
		s3c := c.Snapshots.S3
		client := snapshot.NewS3Client(snapshot.S3ClientOptions{Region: s3c.Region, Endpoint: s3c.Endpoint})
		return snapshot.NewS3Store(client, s3c.Bucket, s3c.Prefix), nil
	default:
		path := c.BoltPath()
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, errors.New("F061").Wrap(err)
		}
		store, err := snapshot.OpenBolt(path)
		if err != nil {
			return nil, errors.New("F061").Wrap(err)
		}
		return store, nil
	}
}

// NewLogger creates the configured slog logger writing to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, bool) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo, false
	}
	return level, true
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	return fileExists(filepath.Join(dir, ConfigFileName)) || fileExists(filepath.Join(dir, AltConfigFileName))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing fibre.yaml, or an error if not found.
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
			return "", errors.New("F070").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromDir loads the configuration of the project containing dir.
func LoadFromDir(dir string) (*Config, error) {
	root, err := FindProjectRoot(dir)
	if err != nil {
		return nil, err
	}
	return Load(root)
}
