package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for subprep.
type Config struct {
	HostID   string         `toml:"host_id"`
	BaseDir  string         `toml:"base_dir"`
	LogDir   string         `toml:"log_dir"`
	Corpus   CorpusConfig   `toml:"corpus"`
	Database DatabaseConfig `toml:"database"`
	Export   ExportConfig   `toml:"export"`
}

// CorpusConfig names the trees and manifest the filter operates on.
// Every path is explicit; nothing is discovered from the working directory.
type CorpusConfig struct {
	// Root is the parent of the xml/ document tree. The staging tree is
	// created beside it as xml.staging/.
	Root         string `toml:"root"`
	ManifestPath string `toml:"manifest_path"`
	SourceLang   string `toml:"source_lang"`
	TargetLang   string `toml:"target_lang"`
	// KeepStagingOnError leaves an aborted run's staging tree in place
	// for manual inspection instead of removing it.
	KeepStagingOnError bool `toml:"keep_staging_on_error"`
}

// DatabaseConfig represents configuration for the export database.
// The Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// ExportConfig tunes the XML-to-DB export.
type ExportConfig struct {
	// BatchSize is the number of documents committed per transaction.
	// Must be positive; defaults to 50.
	BatchSize int `toml:"batch_size"`
}

// NewConfig creates a new Config with the provided values and defaults.
func NewConfig(hostID, baseDir string) *Config {
	return &Config{
		HostID:  hostID,
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Corpus: CorpusConfig{
			SourceLang: "en",
			TargetLang: "zh_cn",
		},
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Export: ExportConfig{BatchSize: 50},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
