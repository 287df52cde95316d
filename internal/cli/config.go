package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/winscope/pkg/cache"
	"github.com/matzehuels/winscope/pkg/errors"
)

// Cache backends accepted in [cache] backend.
const (
	backendFile  = "file"
	backendRedis = "redis"
	backendNone  = "none"
)

// defaultServerAddr is the listen address of "winscope serve".
const defaultServerAddr = ":8080"

// Config is the contents of config.toml. Command-line flags override it.
//
//	only_visible = true
//	timeline_width = 120
//	packages = ["com.android.launcher3"]
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	prefix = "winscope:staging:"
//
//	[server]
//	addr = ":8080"
type Config struct {
	OnlyVisible   bool     `toml:"only_visible"`
	TimelineWidth int      `toml:"timeline_width"`
	Packages      []string `toml:"packages"`

	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	Prefix        string `toml:"prefix"`
}

// ServerConfig configures "winscope serve".
type ServerConfig struct {
	Addr string `toml:"addr"`
}

func (c CacheConfig) redisConfig() cache.RedisConfig {
	return cache.RedisConfig{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

// keyer returns the cache keyer, scoped by Prefix when one is set.
func (c CacheConfig) keyer() cache.Keyer {
	if c.Prefix == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(nil, c.Prefix)
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		TimelineWidth: 80,
		Cache:         CacheConfig{Backend: backendFile, RedisAddr: "localhost:6379"},
		Server:        ServerConfig{Addr: defaultServerAddr},
	}
}

// LoadConfig reads path over the defaults. An empty path means the default
// location, which may be absent; an explicit path must exist.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		dir, err := configDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(dir, "config.toml")
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, errors.New(errors.ErrCodeFileNotFound, "config file not found: %s", path)
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case backendFile, backendRedis, backendNone:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "invalid cache backend: %q (must be file, redis or none)", c.Cache.Backend)
	}
	if c.TimelineWidth <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "timeline_width must be positive, got %d", c.TimelineWidth)
	}
	for _, p := range c.Packages {
		if err := errors.ValidatePackageName(p); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "packages")
		}
	}
	return nil
}
