package conf

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config is the cli configuration loaded from a toml file.
type Config struct {
	// ByteOrder is either "little" or "big".
	ByteOrder string `toml:"byte_order"`
	// LogLevel is any level understood by charmbracelet/log.
	LogLevel string `toml:"log_level"`
	// Output is the strftime template for the path packed files are written to.
	// %f expands to the name of the source file without its extension.
	Output string `toml:"output"`
}

// Default returns the config used when no file is given.
func Default() *Config {
	return &Config{
		ByteOrder: "little",
		LogLevel:  "info",
		Output:    "%f-%Y%m%d%H%M%S.turf",
	}
}

// Load reads and parses the config file at path. Missing fields keep their
// defaults and an empty path or a missing file returns the default config.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config toml: %w", err)
	}
	cfg.ByteOrder = strings.ToLower(strings.TrimSpace(cfg.ByteOrder))
	switch cfg.ByteOrder {
	case "little", "big":
	default:
		return nil, fmt.Errorf("invalid byte_order %q, expected little or big", cfg.ByteOrder)
	}
	return cfg, nil
}
