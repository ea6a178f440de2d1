// Package config loads Axis dev server configuration through Viper from
// .axis.yml, AXIS_-prefixed environment variables, and command-line
// flags, in ascending precedence.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DefaultBuckets are the project directories served and watched when the
// config names none.
var DefaultBuckets = []string{"components", "lib", "app", "src"}

// Viper unmarshals through mapstructure, so every field carries both
// tag families; yaml tags alone leave the snake_case keys unbound.
type Config struct {
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Project     ProjectConfig     `yaml:"project" mapstructure:"project"`
	Transpile   TranspileConfig   `yaml:"transpile" mapstructure:"transpile"`
	Development DevelopmentConfig `yaml:"development" mapstructure:"development"`
}

type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	Host           string   `yaml:"host" mapstructure:"host"`
	Open           bool     `yaml:"open" mapstructure:"open"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

type ProjectConfig struct {
	Root    string   `yaml:"root" mapstructure:"root"`
	Buckets []string `yaml:"buckets" mapstructure:"buckets"`
	Exclude []string `yaml:"exclude" mapstructure:"exclude"`
}

type TranspileConfig struct {
	Mode         string `yaml:"mode" mapstructure:"mode"`
	Compiler     string `yaml:"compiler" mapstructure:"compiler"`
	CacheEntries int    `yaml:"cache_entries" mapstructure:"cache_entries"`
}

type DevelopmentConfig struct {
	HotReload    bool `yaml:"hot_reload" mapstructure:"hot_reload"`
	ErrorOverlay bool `yaml:"error_overlay" mapstructure:"error_overlay"`
	DebounceMs   int  `yaml:"debounce_ms" mapstructure:"debounce_ms"`
}

// Load builds a Config from whatever Viper has already read and applies
// defaults and validation.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.Server.Port == 0 {
		config.Server.Port = 3000
	}
	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Project.Root == "" {
		config.Project.Root = "."
	}
	if len(config.Project.Buckets) == 0 {
		config.Project.Buckets = append([]string(nil), DefaultBuckets...)
	}
	// Viper leaves empty string slices behind on partial unmarshal.
	if viper.IsSet("project.buckets") {
		if buckets := viper.GetStringSlice("project.buckets"); len(buckets) > 0 {
			config.Project.Buckets = buckets
		}
	}
	if len(config.Project.Exclude) == 0 {
		config.Project.Exclude = []string{"node_modules", ".git", "dist"}
	}
	if config.Transpile.Mode == "" {
		config.Transpile.Mode = "development"
	}
	if config.Transpile.Compiler == "" {
		config.Transpile.Compiler = "esbuild"
	}
	if config.Transpile.CacheEntries == 0 {
		config.Transpile.CacheEntries = 500
	}
	if !viper.IsSet("development.hot_reload") {
		config.Development.HotReload = true
	}
	if !viper.IsSet("development.error_overlay") {
		config.Development.ErrorOverlay = true
	}
	if config.Development.DebounceMs == 0 {
		config.Development.DebounceMs = 100
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := validateProjectConfig(&config.Project); err != nil {
		return fmt.Errorf("project config: %w", err)
	}
	if err := validateTranspileConfig(&config.Transpile); err != nil {
		return fmt.Errorf("transpile config: %w", err)
	}
	return nil
}

func validateServerConfig(config *ServerConfig) error {
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}
	if config.Host != "" {
		for _, char := range []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"} {
			if strings.Contains(config.Host, char) {
				return fmt.Errorf("host contains dangerous character: %s", char)
			}
		}
	}
	return nil
}

func validateProjectConfig(config *ProjectConfig) error {
	for _, bucket := range config.Buckets {
		if err := validatePath(bucket); err != nil {
			return fmt.Errorf("invalid bucket %q: %w", bucket, err)
		}
	}
	return nil
}

func validateTranspileConfig(config *TranspileConfig) error {
	switch config.Mode {
	case "development", "dev", "production", "prod":
	default:
		return fmt.Errorf("unknown mode %q, want development or production", config.Mode)
	}
	if config.CacheEntries < 0 {
		return fmt.Errorf("cache_entries must be non-negative, got %d", config.CacheEntries)
	}
	return nil
}

// validatePath rejects traversal and shell-hostile characters in
// config-supplied paths.
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}
	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}
	for _, char := range []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"} {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}
	return nil
}
