package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - SUBPREP_CONFIG_PATH: config file location (default: ~/.config/subprep.toml)
//   - SUBPREP_HOME: base directory for subprep data (default: ~/.local/share/subprep)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking SUBPREP_CONFIG_PATH first,
// then falling back to the default ~/.config/subprep.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("SUBPREP_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "subprep.toml"), nil
}

// getBaseDir returns the base directory for subprep data, checking SUBPREP_HOME
// first, then falling back to the XDG default ~/.local/share/subprep.
func getBaseDir() (string, error) {
	if path := os.Getenv("SUBPREP_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "subprep"), nil
}
