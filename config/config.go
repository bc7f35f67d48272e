// Package config loads engine-wide tunables (page size, buffer pool
// capacity, data directory, lock timeout ceiling) via viper, the
// corpus's configuration library (see _examples/tuannm99-novasql).
package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"

	"github.com/hlang/heapdb/common"
)

// Config holds the tunables the storage engine reads at startup.
type Config struct {
	// PageSize is loaded and defaulted to 4096 but not applied: the
	// storage layer uses the constant storage.PageSize, and nothing in
	// the engine reads this field.
	PageSize int `mapstructure:"page_size"`
	// BufferPoolPages is the buffer pool's page capacity, C in the design
	// document.
	BufferPoolPages int `mapstructure:"buffer_pool_pages"`
	// DataDir is the directory holding one <name>.dat file per table.
	DataDir string `mapstructure:"data_dir"`
	// LockTimeoutMax is the upper bound of the per-request random lock
	// wait timeout ([0, LockTimeoutMax)).
	LockTimeoutMax time.Duration `mapstructure:"lock_timeout_max"`
	// LogLevel is the logrus level name used by dblog.SetLevel.
	LogLevel string `mapstructure:"log_level"`
}

// Default returns the engine's built-in defaults, matching the design
// document's constants (PageSize=4096, LockTimeoutMax=2000ms).
func Default() *Config {
	return &Config{
		PageSize:        4096,
		BufferPoolPages: 50,
		DataDir:         ".",
		LockTimeoutMax:  2000 * time.Millisecond,
		LogLevel:        "info",
	}
}

// Load reads configuration from a YAML file at path, if it exists, over
// the built-in defaults; environment variables (HEAPDB_PAGE_SIZE,
// HEAPDB_BUFFER_POOL_PAGES, HEAPDB_DATA_DIR, HEAPDB_LOCK_TIMEOUT_MAX,
// HEAPDB_LOG_LEVEL) override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	def := Default()
	v.SetDefault("page_size", def.PageSize)
	v.SetDefault("buffer_pool_pages", def.BufferPoolPages)
	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("lock_timeout_max", def.LockTimeoutMax)
	v.SetDefault("log_level", def.LogLevel)

	v.SetEnvPrefix("heapdb")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
				return nil, common.WrapError(common.IoError, err, "load config %q", path)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, common.WrapError(common.DbError, err, "parse config")
	}
	return cfg, nil
}
