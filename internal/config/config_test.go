package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Helpers
// =============================================================================

// isolateXDG points every XDG directory into a temp dir.
func isolateXDG(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmp, "data"))
	return tmp
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// =============================================================================
// Default Tests
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	tmp := isolateXDG(t)
	cfg := DefaultConfig()

	if cfg.Store.Type != StoreFile {
		t.Errorf("Store.Type = %q, want file", cfg.Store.Type)
	}
	if cfg.Store.Path != filepath.Join(tmp, "data", "tasktrack", "store") {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
	if cfg.ViewsDir != filepath.Join(tmp, "config", "tasktrack", "views") {
		t.Errorf("ViewsDir = %q", cfg.ViewsDir)
	}
	if cfg.Locale != "und" || cfg.DefaultSort != "createdAt" || cfg.Logging.Verbose {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadCreatesSampleConfig(t *testing.T) {
	tmp := isolateXDG(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Store.Type != StoreFile {
		t.Errorf("Store.Type = %q, want file", cfg.Store.Type)
	}

	path := filepath.Join(tmp, "config", "tasktrack", "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("sample config not written: %v", err)
	}
	if string(data) != GetSampleConfig() {
		t.Error("written config should be the embedded sample")
	}
}

// TestSampleConfigMatchesDefaults verifies the documented values are the defaults
func TestSampleConfigMatchesDefaults(t *testing.T) {
	isolateXDG(t)

	var sample Config
	if err := yaml.Unmarshal([]byte(GetSampleConfig()), &sample); err != nil {
		t.Fatalf("sample config is not valid YAML: %v", err)
	}
	sample.applyDefaults()

	if def := DefaultConfig(); sample != *def {
		t.Errorf("sample = %+v\ndefaults = %+v", sample, *def)
	}
}

// =============================================================================
// Load Tests
// =============================================================================

func TestLoadFromPath(t *testing.T) {
	isolateXDG(t)
	t.Setenv("TASKTRACK_TEST_DIR", "/srv/tasks")
	path := writeConfig(t, `
store:
  type: SQLite
  path: $TASKTRACK_TEST_DIR/tasks.db
locale: de
default_sort: priority
views_dir: /etc/tasktrack/views
logging:
  verbose: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	want := Config{
		Store:       StoreConfig{Type: StoreSQLite, Path: "/srv/tasks/tasks.db"},
		Locale:      "de",
		DefaultSort: "priority",
		ViewsDir:    "/etc/tasktrack/views",
		Logging:     LoggingConfig{Verbose: true},
	}
	if *cfg != want {
		t.Errorf("cfg = %+v, want %+v", *cfg, want)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	isolateXDG(t)
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "store: [", "invalid YAML"},
		{"unknown store", "store:\n  type: redis\n", "unknown store.type"},
		{"bad sort", "default_sort: size\n", "invalid default_sort"},
		{"bad locale", "locale: \"not a locale!\"\n", "invalid locale"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestMemoryStoreNeedsNoPath(t *testing.T) {
	isolateXDG(t)
	cfg, err := Load(writeConfig(t, "store:\n  type: memory\n"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Store.Path != "" {
		t.Errorf("Store.Path = %q, want empty for memory", cfg.Store.Path)
	}
}

// =============================================================================
// Flag Tests
// =============================================================================

func TestApplyFlags(t *testing.T) {
	tmp := isolateXDG(t)

	cfg := DefaultConfig()
	cfg.ApplyFlags("sqlite", "", true)
	if cfg.Store.Type != StoreSQLite || cfg.Store.Path != filepath.Join(tmp, "data", "tasktrack", "tasks.db") {
		t.Errorf("store after --store sqlite = %+v", cfg.Store)
	}
	if !cfg.Logging.Verbose {
		t.Error("--verbose should enable verbose logging")
	}

	cfg.ApplyFlags("", "~/custom.db", false)
	home, _ := os.UserHomeDir()
	if cfg.Store.Path != filepath.Join(home, "custom.db") {
		t.Errorf("Store.Path = %q, want expanded ~/custom.db", cfg.Store.Path)
	}
	if !cfg.Logging.Verbose {
		t.Error("verbose=false flag must not turn off configured verbose")
	}
}
