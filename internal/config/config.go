// Package config loads the lineage configuration file.
//
// The file is TOML and lives at $XDG_CONFIG_HOME/lineage/config.toml
// (~/.config/lineage/config.toml) unless a path is given explicitly:
//
//	[store]
//	backend = "sqlite"
//	path = "/var/lib/lineage/trees.db"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "168h"
//
//	[server]
//	addr = ":8080"
//
//	[layout]
//	reference_x = 1000
//	max_resolve_passes = 16
//
// A missing file is not an error; every field has a default. Connection
// strings can be supplied through LINEAGE_MONGO_URI, LINEAGE_REDIS_ADDR and
// LINEAGE_STORE_PATH, which take precedence over the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/lineage/pkg/cache"
	"github.com/matzehuels/lineage/pkg/layout"
	"github.com/matzehuels/lineage/pkg/server"
	"github.com/matzehuels/lineage/pkg/store"
)

const (
	appName = "lineage"

	// DefaultConfigFile is the config file name inside the config directory.
	DefaultConfigFile = "config.toml"

	// DefaultMongoDatabase is used when mongo_database is not set.
	DefaultMongoDatabase = "lineage"
)

// Environment overrides.
const (
	EnvMongoURI  = "LINEAGE_MONGO_URI"
	EnvRedisAddr = "LINEAGE_REDIS_ADDR"
	EnvStorePath = "LINEAGE_STORE_PATH"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config is the complete configuration.
type Config struct {
	Store  StoreConfig  `toml:"store"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
	Layout LayoutConfig `toml:"layout"`
}

// StoreConfig selects where trees are persisted.
type StoreConfig struct {
	Backend       string `toml:"backend"`
	Path          string `toml:"path"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// CacheConfig selects where layouts and artifacts are cached.
type CacheConfig struct {
	Backend   string   `toml:"backend"`
	Dir       string   `toml:"dir"`
	RedisAddr string   `toml:"redis_addr"`
	RedisDB   int      `toml:"redis_db"`
	TTL       Duration `toml:"ttl"`
}

// ServerConfig configures `lineage serve`.
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	RequestTimeout Duration `toml:"request_timeout"`
}

// LayoutConfig holds engine defaults.
type LayoutConfig struct {
	ReferenceX       float64 `toml:"reference_x"`
	MaxResolvePasses int     `toml:"max_resolve_passes"`
}

// Duration is a time.Duration written as a string ("90s", "24h") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:       string(store.BackendFile),
			MongoDatabase: DefaultMongoDatabase,
		},
		Cache: CacheConfig{
			Backend: CacheFile,
			TTL:     Duration{cache.TTLLayout},
		},
		Server: ServerConfig{
			Addr:           server.DefaultAddr,
			RequestTimeout: Duration{server.DefaultRequestTimeout},
		},
		Layout: LayoutConfig{
			ReferenceX:       layout.DefaultReferenceX,
			MaxResolvePasses: layout.DefaultMaxResolvePasses,
		},
	}
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, DefaultConfigFile)
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err) && !explicit:
		// fall through to env overrides
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("config file %s: unknown key %s", path, undecoded[0])
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvMongoURI); v != "" {
		c.Store.MongoURI = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv(EnvStorePath); v != "" {
		c.Store.Path = v
	}
}

// Validate checks backend names and the settings each backend needs.
func (c *Config) Validate() error {
	switch store.Backend(c.Store.Backend) {
	case store.BackendFile, store.BackendSQLite:
	case store.BackendMongo:
		if c.Store.MongoURI == "" {
			return fmt.Errorf("store backend mongo needs mongo_uri (or %s)", EnvMongoURI)
		}
	default:
		return fmt.Errorf("unknown store backend %q (must be file, sqlite or mongo)", c.Store.Backend)
	}

	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache backend redis needs redis_addr (or %s)", EnvRedisAddr)
		}
	default:
		return fmt.Errorf("unknown cache backend %q (must be file, redis or none)", c.Cache.Backend)
	}

	if c.Layout.MaxResolvePasses < 0 {
		return fmt.Errorf("layout.max_resolve_passes must not be negative")
	}
	return nil
}

// StoreOpenConfig converts the [store] section for [store.Open]. An empty
// sqlite path defaults to trees.db in the data directory.
func (c *Config) StoreOpenConfig() (store.Config, error) {
	cfg := store.Config{
		Backend:       store.Backend(c.Store.Backend),
		Path:          c.Store.Path,
		MongoURI:      c.Store.MongoURI,
		MongoDatabase: c.Store.MongoDatabase,
	}
	if cfg.Backend == store.BackendSQLite && cfg.Path == "" {
		dir, err := Dir()
		if err != nil {
			return cfg, err
		}
		cfg.Path = filepath.Join(dir, "trees.db")
	}
	return cfg, nil
}

// Dir returns the configuration directory using the XDG convention.
func Dir() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// CacheDir returns the cache directory: [cache] dir, or the XDG cache home.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	if home := os.Getenv("XDG_CACHE_HOME"); home != "" {
		return filepath.Join(home, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
