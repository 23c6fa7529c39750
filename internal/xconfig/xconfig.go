// Package xconfig loads xlake.yaml: cwd first, then
// $XDG_CONFIG_HOME/xlake/config.yaml, giving defaults CLI flags always
// override. A malformed file is a fatal ConfigError; an absent file is not
// an error.
package xconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/xlake-project/xlake/internal/invariant"
)

// maxBatchMemoryLimitMB bounds a loaded batch.memory_limit_mb so a garbled
// config value cannot silently become "unlimited" or overflow downstream
// byte-count arithmetic; 1<<20 MB is 1TiB, far past any real batch.
const maxBatchMemoryLimitMB = 1 << 20

const defaultStoreDir = ".xlake/store"
const defaultBatchMemoryLimitMB = 512

// Config is the loaded (or defaulted) configuration surface.
type Config struct {
	Store struct {
		Dir string `yaml:"dir"`
	} `yaml:"store"`
	Debug bool `yaml:"debug"`
	Batch struct {
		MemoryLimitMB int `yaml:"memory_limit_mb"`
	} `yaml:"batch"`
}

// ConfigError wraps a load failure for a specific config path.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("xconfig: %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Default returns the built-in defaults, used when no config file is found
// anywhere in the search path.
func Default() *Config {
	invariant.Positive(defaultBatchMemoryLimitMB, "defaultBatchMemoryLimitMB")

	c := &Config{}
	c.Store.Dir = defaultStoreDir
	c.Batch.MemoryLimitMB = defaultBatchMemoryLimitMB
	return c
}

// Load searches cwd/xlake.yaml then $XDG_CONFIG_HOME/xlake/config.yaml (or
// ~/.config/xlake/config.yaml if XDG_CONFIG_HOME is unset), returning
// defaults merged under the first file found. Absence of both files is not
// an error; a present-but-malformed file is.
func Load() (*Config, error) {
	cfg := Default()

	for _, path := range searchPaths() {
		buf, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, &ConfigError{Path: path, Err: err}
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, &ConfigError{Path: path, Err: err}
		}
		invariant.InRange(cfg.Batch.MemoryLimitMB, 0, maxBatchMemoryLimitMB, "batch.memory_limit_mb")
		return cfg, nil
	}

	return cfg, nil
}

func searchPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, "xlake.yaml"))
	}

	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		if home, err := os.UserHomeDir(); err == nil {
			xdg = filepath.Join(home, ".config")
		}
	}
	if xdg != "" {
		paths = append(paths, filepath.Join(xdg, "xlake", "config.yaml"))
	}

	return paths
}
