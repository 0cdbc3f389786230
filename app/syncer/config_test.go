package syncer

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileYieldsDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yml"), DefaultConfig())
	if err != nil {
		t.Fatalf("Expected no error for missing file, got: %v", err)
	}
	if config != DefaultConfig() {
		t.Errorf("Expected defaults, got: %+v", config)
	}
}

func TestLoadConfigParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.yml")
	content := `
enabled: true
interval: 15
sync_on_startup: false
notification: false
batch_size: 10
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path, DefaultConfig())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !config.Enabled {
		t.Error("Expected enabled to be true")
	}
	if config.Interval != 15 {
		t.Errorf("Expected interval 15, got %d", config.Interval)
	}
	if config.SyncOnStartup {
		t.Error("Expected sync_on_startup to be false")
	}
	if config.Notification {
		t.Error("Expected notification to be false")
	}
	if config.BatchSize != 10 {
		t.Errorf("Expected batch size 10, got %d", config.BatchSize)
	}
}

func TestLoadConfigAppliesGivenDefaults(t *testing.T) {
	defaults := DefaultConfig()
	defaults.BatchSize = 7

	// No file: the caller-supplied defaults come back as-is.
	config, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yml"), defaults)
	if err != nil {
		t.Fatalf("Expected no error for missing file, got: %v", err)
	}
	if config.BatchSize != 7 {
		t.Errorf("Expected batch size 7 from defaults, got %d", config.BatchSize)
	}

	// A file that omits batch_size keeps the default batch size.
	path := filepath.Join(t.TempDir(), "sync.yml")
	if err := os.WriteFile(path, []byte("enabled: true\ninterval: 15\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	config, err = LoadConfig(path, defaults)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !config.Enabled {
		t.Error("Expected enabled from file")
	}
	if config.BatchSize != 7 {
		t.Errorf("Expected batch size 7 from defaults, got %d", config.BatchSize)
	}

	// A file that sets batch_size overrides the default.
	if err := os.WriteFile(path, []byte("batch_size: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	config, err = LoadConfig(path, defaults)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if config.BatchSize != 3 {
		t.Errorf("Expected batch size 3 from file, got %d", config.BatchSize)
	}
}

func TestLoadConfigMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.yml")
	if err := os.WriteFile(path, []byte("enabled: [not a bool"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path, DefaultConfig()); err == nil {
		t.Error("Expected error for malformed config")
	}
}

func TestLoadConfigNormalizesInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.yml")
	content := `
enabled: true
interval: -5
batch_size: 0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path, DefaultConfig())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if config.Interval != DefaultConfig().Interval {
		t.Errorf("Expected interval reset to default, got %d", config.Interval)
	}
	if config.BatchSize != DefaultConfig().BatchSize {
		t.Errorf("Expected batch size reset to default, got %d", config.BatchSize)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.yml")
	want := Config{Enabled: true, Interval: 45, SyncOnStartup: true, Notification: false, BatchSize: 8}

	if err := SaveConfig(path, want); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	got, err := LoadConfig(path, DefaultConfig())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}
