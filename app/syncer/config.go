package syncer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the persisted auto-sync configuration.
type Config struct {
	Enabled       bool `yaml:"enabled"`
	Interval      int  `yaml:"interval"` // minutes
	SyncOnStartup bool `yaml:"sync_on_startup"`
	Notification  bool `yaml:"notification"`
	BatchSize     int  `yaml:"batch_size"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:       false,
		Interval:      30,
		SyncOnStartup: true,
		Notification:  true,
		BatchSize:     5,
	}
}

// LoadConfig reads the sync configuration from path. Keys absent from the
// file keep their values from defaults; a missing file yields the defaults
// unchanged; a malformed file is an error.
func LoadConfig(path string, defaults Config) (Config, error) {
	defaults.normalize()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return defaults, nil
	}
	if err != nil {
		return defaults, fmt.Errorf("failed to read sync config %s: %w", path, err)
	}

	config := defaults
	if err := yaml.Unmarshal(data, &config); err != nil {
		return defaults, fmt.Errorf("failed to parse sync config %s: %w", path, err)
	}

	config.normalize()
	return config, nil
}

// SaveConfig writes the sync configuration to path.
func SaveConfig(path string, config Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal sync config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write sync config %s: %w", path, err)
	}
	return nil
}

func (c *Config) normalize() {
	if c.Interval <= 0 {
		c.Interval = DefaultConfig().Interval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultConfig().BatchSize
	}
}
