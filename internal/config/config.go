// Package config loads settings for the flowchart CLI and server.
//
// Values are layered, later layers winning:
//
//  1. built-in defaults
//  2. the TOML file at [Path] (or an explicit --config path)
//  3. environment variables, after loading a .env file if one exists
//  4. command-line flags, applied by the caller
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/hanhandi-git/flowchartRenderer/pkg/cache"
	"github.com/hanhandi-git/flowchartRenderer/pkg/dialect"
	"github.com/hanhandi-git/flowchartRenderer/pkg/editor"
	"github.com/hanhandi-git/flowchartRenderer/pkg/render"
)

const appName = "flowchart"

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheFile   = "file"
	CacheNone   = "none"
)

// Environment variables read by [Load].
const (
	EnvAddr     = "FLOWCHART_ADDR"
	EnvCache    = "FLOWCHART_CACHE"
	EnvRedisURL = "FLOWCHART_REDIS_URL"
	EnvMermaid  = "FLOWCHART_MMDC"
	EnvDebounce = "FLOWCHART_DEBOUNCE"
	EnvResolve  = "FLOWCHART_RESOLVE"
)

// Config holds every tunable setting.
type Config struct {
	// Addr is the listen address of "flowchart serve".
	Addr string `toml:"addr"`
	// Cache selects the render cache backend.
	Cache string `toml:"cache"`
	// CacheEntries bounds the memory cache.
	CacheEntries int `toml:"cache_entries"`
	// RedisURL is required when Cache is "redis".
	RedisURL string `toml:"redis_url"`
	// Mermaid is the Mermaid CLI executable.
	Mermaid string `toml:"mmdc"`
	// Debounce is the editing session quiet period.
	Debounce time.Duration `toml:"debounce"`
	// Resolve is the edge resolution mode: single-pass or two-pass.
	Resolve string `toml:"resolve"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:         ":8080",
		Cache:        CacheMemory,
		CacheEntries: cache.DefaultMemoryEntries,
		Mermaid:      render.DefaultMermaidCommand,
		Debounce:     editor.DefaultQuiet,
		Resolve:      dialect.SinglePass.String(),
	}
}

// Path returns the default config file location,
// $XDG_CONFIG_HOME/flowchart/config.toml or ~/.config/flowchart/config.toml.
func Path() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load builds a configuration from defaults, the file at path and the
// environment. An empty path uses [Path]; a missing default file is not an
// error, a missing explicit file is.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return cfg, err
			}
		}
	}

	// .env never overrides variables already set in the process.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// ApplyEnv overrides fields from environment variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str(EnvAddr, &c.Addr)
	str(EnvCache, &c.Cache)
	str(EnvRedisURL, &c.RedisURL)
	str(EnvMermaid, &c.Mermaid)
	str(EnvResolve, &c.Resolve)

	if v, ok := lookup(EnvDebounce); ok && strings.TrimSpace(v) != "" {
		d, err := parseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDebounce, err)
		}
		c.Debounce = d
	}
	return nil
}

// parseDuration accepts Go durations ("750ms") and bare milliseconds ("750").
func parseDuration(s string) (time.Duration, error) {
	if ms, err := strconv.Atoi(s); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(s)
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Cache {
	case CacheMemory, CacheFile, CacheNone:
	case CacheRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("cache %q requires %s or redis_url", CacheRedis, EnvRedisURL)
		}
	default:
		return fmt.Errorf("unknown cache backend %q (use memory, redis, file or none)", c.Cache)
	}
	if c.CacheEntries <= 0 {
		return fmt.Errorf("cache_entries must be positive, got %d", c.CacheEntries)
	}
	if c.Debounce <= 0 {
		return fmt.Errorf("debounce must be positive, got %s", c.Debounce)
	}
	if _, err := dialect.ParseResolve(c.Resolve); err != nil {
		return err
	}
	return nil
}

// ResolveMode returns the parsed edge resolution mode.
func (c Config) ResolveMode() dialect.Resolve {
	r, _ := dialect.ParseResolve(c.Resolve)
	return r
}
