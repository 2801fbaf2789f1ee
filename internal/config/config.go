package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the optional fastcp configuration file.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
	Server   ServerConfig   `toml:"server"`
}

// DefaultsConfig holds persistent flag defaults. Pointer fields distinguish
// "unset" from zero, so command-line flags always win.
type DefaultsConfig struct {
	PreserveMetadata *bool `toml:"preserve_metadata"`
	Verify           *bool `toml:"verify"`
	ThreadCount      *int  `toml:"thread_count"`
	BufferSize       *int  `toml:"buffer_size"`
}

// ServerConfig holds transfer-engine connection defaults.
type ServerConfig struct {
	Address          *string `toml:"address"`
	Port             *int    `toml:"port"`
	CompressionLevel *int    `toml:"compression_level"`
	FallbackLocal    *bool   `toml:"fallback_local"`
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "fastcp", "config.toml")
}

// Load reads the config file from the XDG path. Returns a zero Config
// (no error) if the file does not exist. Config is always optional.
func Load() (Config, error) {
	return loadFile(Path())
}

func loadFile(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}

	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}
	return cfg, nil
}
