package config

import (
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/vango-dev/fibre/internal/errors"
	"github.com/vango-dev/fibre/pkg/snapshot"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Inspector.Addr != DefaultAddr {
		t.Errorf("Inspector.Addr = %q, want %q", cfg.Inspector.Addr, DefaultAddr)
	}
	if cfg.Frames.Interval != DefaultFrameInterval {
		t.Errorf("Frames.Interval = %v, want %v", cfg.Frames.Interval, DefaultFrameInterval)
	}
	if cfg.Snapshots.Backend != BackendBolt {
		t.Errorf("Snapshots.Backend = %q, want %q", cfg.Snapshots.Backend, BackendBolt)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(tmpDir)
	var fe *errors.Error
	if !stderrors.As(err, &fe) || fe.Code != "F070" {
		t.Fatalf("Load(empty dir) error = %v, want F070", err)
	}

	configYAML := `
inspector:
  addr: 0.0.0.0:9000
  allowedOrigins: ["http://localhost:5173"]
frames:
  interval: 10ms
transitions:
  durations:
    fade: 200ms
    instant: 0s
log:
  level: debug
  format: json
snapshots:
  backend: s3
  s3:
    bucket: snaps
    region: eu-west-1
    prefix: ui/
`
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := &Config{
		Inspector: InspectorConfig{
			Addr:           "0.0.0.0:9000",
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		Frames: FramesConfig{Interval: 10 * time.Millisecond},
		Transitions: TransitionsConfig{Durations: map[string]time.Duration{
			"fade":    200 * time.Millisecond,
			"instant": 0,
		}},
		Metrics: MetricsConfig{Enabled: true, Namespace: "fibre", Subsystem: "scheduler"},
		Log:     LogConfig{Level: "debug", Format: "json"},
		Snapshots: SnapshotsConfig{
			Backend: BackendS3,
			Bolt:    BoltConfig{Path: DefaultBoltPath},
			S3:      S3Config{Bucket: "snaps", Region: "eu-west-1", Prefix: "ui/"},
		},
	}
	if diff := cmp.Diff(want, cfg, cmpopts.IgnoreUnexported(Config{})); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	if cfg.Path() != filepath.Join(tmpDir, ConfigFileName) {
		t.Errorf("Path() = %q", cfg.Path())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configJSON := `{"inspector": {"addr": "localhost:8000"}, "metrics": {"enabled": false}}`
	if err := os.WriteFile(filepath.Join(tmpDir, AltConfigFileName), []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Inspector.Addr != "localhost:8000" {
		t.Errorf("Inspector.Addr = %q", cfg.Inspector.Addr)
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled should be false")
	}
	if cfg.Frames.Interval != DefaultFrameInterval {
		t.Errorf("Frames.Interval = %v, want default", cfg.Frames.Interval)
	}
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "inspector:\n  port: 80\n"},
		{"bad duration", "frames:\n  interval: soon\n"},
		{"bad yaml", "inspector: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ConfigFileName)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadFile(path)
			var fe *errors.Error
			if !stderrors.As(err, &fe) || fe.Code != "F071" {
				t.Errorf("LoadFile() error = %v, want F071", err)
			}
		})
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Inspector.Addr != DefaultAddr {
		t.Errorf("Inspector.Addr = %q, want default", cfg.Inspector.Addr)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, ConfigFileName)

	cfg := New()
	cfg.Transitions.Durations = map[string]time.Duration{"slide": 350 * time.Millisecond}
	cfg.Snapshots.Backend = BackendMemory
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "slide: 350ms") {
		t.Errorf("durations should be written as strings:\n%s", data)
	}

	loaded, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := loaded.Transitions.Durations["slide"]; got != 350*time.Millisecond {
		t.Errorf("slide = %v", got)
	}
	if loaded.Snapshots.Backend != BackendMemory {
		t.Errorf("Backend = %q", loaded.Snapshots.Backend)
	}

	loaded.Inspector.Addr = "localhost:9999"
	if err := loaded.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	again, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if again.Inspector.Addr != "localhost:9999" {
		t.Errorf("Inspector.Addr = %q after Save", again.Inspector.Addr)
	}
}

func TestSaveWithoutPath(t *testing.T) {
	if err := New().Save(); err == nil {
		t.Error("Save() without a path should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"bad addr", func(c *Config) { c.Inspector.Addr = "nohost" }, "inspector.addr"},
		{"negative interval", func(c *Config) { c.Frames.Interval = -time.Second }, "frames.interval"},
		{"negative duration", func(c *Config) {
			c.Transitions.Durations = map[string]time.Duration{"fade": -1}
		}, "transitions.durations.fade"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"bad backend", func(c *Config) { c.Snapshots.Backend = "redis" }, "snapshots.backend"},
		{"s3 without bucket", func(c *Config) {
			c.Snapshots.Backend = BackendS3
			c.Snapshots.S3.Region = "us-east-1"
		}, "snapshots.s3.bucket"},
		{"s3 without region", func(c *Config) {
			c.Snapshots.Backend = BackendS3
			c.Snapshots.S3.Bucket = "b"
		}, "snapshots.s3.region"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.modify(cfg)
			err := cfg.Validate()
			var fe *errors.Error
			if !stderrors.As(err, &fe) {
				t.Fatalf("Validate() error = %v, want *errors.Error", err)
			}
			if fe.Code != "F072" || fe.Field != tt.field {
				t.Errorf("got %s on %q, want F072 on %q", fe.Code, fe.Field, tt.field)
			}
		})
	}
}

func TestFrameInterval(t *testing.T) {
	cfg := New()
	if cfg.FrameInterval() != DefaultFrameInterval {
		t.Errorf("FrameInterval() = %v", cfg.FrameInterval())
	}
	cfg.Frames.Disabled = true
	if cfg.FrameInterval() != 0 {
		t.Errorf("FrameInterval() = %v, want 0 when disabled", cfg.FrameInterval())
	}
}

func TestBoltPath(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, ConfigFileName)
	if err := os.WriteFile(path, []byte("snapshots:\n  bolt:\n    path: data/snaps.db\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := cfg.BoltPath(), filepath.Join(tmpDir, "data", "snaps.db"); got != want {
		t.Errorf("BoltPath() = %q, want %q", got, want)
	}

	store, err := cfg.OpenStore()
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	defer store.Close()
	if _, ok := store.(*snapshot.BoltStore); !ok {
		t.Errorf("OpenStore() = %T, want *snapshot.BoltStore", store)
	}
	if _, err := os.Stat(cfg.BoltPath()); err != nil {
		t.Errorf("bolt file not created: %v", err)
	}
}

func TestOpenStoreMemory(t *testing.T) {
	cfg := New()
	cfg.Snapshots.Backend = BackendMemory
	store, err := cfg.OpenStore()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.(*snapshot.MemoryStore); !ok {
		t.Errorf("OpenStore() = %T, want *snapshot.MemoryStore", store)
	}
}

func TestNewLogger(t *testing.T) {
	var buf strings.Builder
	cfg := New()
	cfg.Log.Level = "warn"
	cfg.Log.Format = "json"

	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", slog.Int("n", 1))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record logged at warn level: %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"n":1`) {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestFindProjectRoot(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "a", "b")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}

	if _, err := FindProjectRoot(subDir); err == nil {
		t.Error("Expected error when no config exists")
	}

	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte("log:\n  level: info\n"), 0644); err != nil {
		t.Fatal(err)
	}

	root, err := FindProjectRoot(subDir)
	if err != nil {
		t.Fatalf("FindProjectRoot() error = %v", err)
	}
	wantRoot, _ := filepath.Abs(tmpDir)
	if root != wantRoot {
		t.Errorf("root = %q, want %q", root, wantRoot)
	}

	cfg, err := LoadFromDir(subDir)
	if err != nil {
		t.Fatalf("LoadFromDir() error = %v", err)
	}
	if cfg.Dir() != wantRoot {
		t.Errorf("Dir() = %q, want %q", cfg.Dir(), wantRoot)
	}
}

func TestExists(t *testing.T) {
	tmpDir := t.TempDir()
	if Exists(tmpDir) {
		t.Error("Exists() = true for empty dir")
	}
	if err := os.WriteFile(filepath.Join(tmpDir, AltConfigFileName), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	if !Exists(tmpDir) {
		t.Error("Exists() = false with fibre.json present")
	}
}
