// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Nagios     NagiosConfig     `yaml:"nagios"`
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Include    IncludeConfig    `yaml:"include"`
}

// NagiosConfig points at the daemon's status and command files.
type NagiosConfig struct {
	StatusFile        string        `yaml:"status_file"`
	CommandFile       string        `yaml:"command_file"`
	MaxCacheAge       time.Duration `yaml:"max_cache_age"`
	SkipUnknownBlocks bool          `yaml:"skip_unknown_blocks"`
}

type IncludeConfig struct {
	Directory string `yaml:"directory"`
	Pattern   string `yaml:"pattern"`
	Enabled   bool   `yaml:"enabled"`
}

type ServerConfig struct {
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	Path             string        `yaml:"path"`
	CleanupInterval  time.Duration `yaml:"cleanup_interval"`
	HistoryRetention time.Duration `yaml:"history_retention"`
}

type PrometheusConfig struct {
	Enabled     bool   `yaml:"enabled"`
	MetricsPath string `yaml:"metrics_path"`
}

type MonitoringConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PartialConfig is the shape of an include file. Only sections present in
// the file are merged.
type PartialConfig struct {
	Nagios     *PartialNagiosConfig     `yaml:"nagios,omitempty"`
	Server     *ServerConfig            `yaml:"server,omitempty"`
	Database   *DatabaseConfig          `yaml:"database,omitempty"`
	Prometheus *PartialPrometheusConfig `yaml:"prometheus,omitempty"`
	Monitoring *MonitoringConfig        `yaml:"monitoring,omitempty"`
	Logging    *LoggingConfig           `yaml:"logging,omitempty"`
}

// Booleans are pointers in the partial sections so an include that leaves
// them out does not reset them.
type PartialNagiosConfig struct {
	StatusFile        string        `yaml:"status_file"`
	CommandFile       string        `yaml:"command_file"`
	MaxCacheAge       time.Duration `yaml:"max_cache_age"`
	SkipUnknownBlocks *bool         `yaml:"skip_unknown_blocks"`
}

type PartialPrometheusConfig struct {
	Enabled     *bool  `yaml:"enabled"`
	MetricsPath string `yaml:"metrics_path"`
}

func Load(filename string) (*Config, error) {
	config, err := loadConfigFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to load main config file: %w", err)
	}

	if config.Include.Enabled && config.Include.Directory != "" {
		if err := loadIncludes(config, filepath.Dir(filename)); err != nil {
			return nil, fmt.Errorf("failed to load includes: %w", err)
		}
	}

	setDefaults(config)

	if err := validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func loadConfigFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &config, nil
}

func loadIncludes(config *Config, baseDir string) error {
	includeDir := config.Include.Directory
	if !filepath.IsAbs(includeDir) {
		includeDir = filepath.Join(baseDir, includeDir)
	}

	if _, err := os.Stat(includeDir); os.IsNotExist(err) {
		return fmt.Errorf("include directory does not exist: %s", includeDir)
	}

	pattern := config.Include.Pattern
	if pattern == "" {
		pattern = "*.yaml"
	}

	matches, err := filepath.Glob(filepath.Join(includeDir, pattern))
	if err != nil {
		return fmt.Errorf("failed to glob include pattern: %w", err)
	}

	// .yml is picked up too when the default pattern is in use
	if pattern == "*.yaml" {
		ymlMatches, err := filepath.Glob(filepath.Join(includeDir, "*.yml"))
		if err != nil {
			return fmt.Errorf("failed to glob .yml files: %w", err)
		}
		matches = append(matches, ymlMatches...)
	}

	sort.Slice(matches, func(i, j int) bool {
		return filepath.Base(matches[i]) < filepath.Base(matches[j])
	})

	for _, match := range matches {
		if err := loadAndMergeInclude(config, match); err != nil {
			return fmt.Errorf("failed to load include file %s: %w", match, err)
		}
	}

	return nil
}

func loadAndMergeInclude(config *Config, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read include file: %w", err)
	}

	var partial PartialConfig
	if err := yaml.Unmarshal(data, &partial); err != nil {
		return fmt.Errorf("failed to parse include file YAML: %w", err)
	}

	mergePartialConfig(config, &partial)
	return nil
}

func mergePartialConfig(config *Config, partial *PartialConfig) {
	if partial.Nagios != nil {
		mergeNagiosConfig(&config.Nagios, partial.Nagios)
	}
	if partial.Server != nil {
		mergeServerConfig(&config.Server, partial.Server)
	}
	if partial.Database != nil {
		mergeDatabaseConfig(&config.Database, partial.Database)
	}
	if partial.Prometheus != nil {
		mergePrometheusConfig(&config.Prometheus, partial.Prometheus)
	}
	if partial.Monitoring != nil {
		mergeMonitoringConfig(&config.Monitoring, partial.Monitoring)
	}
	if partial.Logging != nil {
		mergeLoggingConfig(&config.Logging, partial.Logging)
	}
}

func mergeNagiosConfig(main *NagiosConfig, partial *PartialNagiosConfig) {
	if partial.StatusFile != "" {
		main.StatusFile = partial.StatusFile
	}
	if partial.CommandFile != "" {
		main.CommandFile = partial.CommandFile
	}
	if partial.MaxCacheAge != 0 {
		main.MaxCacheAge = partial.MaxCacheAge
	}
	if partial.SkipUnknownBlocks != nil {
		main.SkipUnknownBlocks = *partial.SkipUnknownBlocks
	}
}

func mergeServerConfig(main *ServerConfig, partial *ServerConfig) {
	if partial.Port != "" {
		main.Port = partial.Port
	}
	if partial.ReadTimeout != 0 {
		main.ReadTimeout = partial.ReadTimeout
	}
	if partial.WriteTimeout != 0 {
		main.WriteTimeout = partial.WriteTimeout
	}
}

func mergeDatabaseConfig(main *DatabaseConfig, partial *DatabaseConfig) {
	if partial.Path != "" {
		main.Path = partial.Path
	}
	if partial.CleanupInterval != 0 {
		main.CleanupInterval = partial.CleanupInterval
	}
	if partial.HistoryRetention != 0 {
		main.HistoryRetention = partial.HistoryRetention
	}
}

func mergePrometheusConfig(main *PrometheusConfig, partial *PartialPrometheusConfig) {
	if partial.Enabled != nil {
		main.Enabled = *partial.Enabled
	}
	if partial.MetricsPath != "" {
		main.MetricsPath = partial.MetricsPath
	}
}

func mergeMonitoringConfig(main *MonitoringConfig, partial *MonitoringConfig) {
	if partial.PollInterval != 0 {
		main.PollInterval = partial.PollInterval
	}
}

func mergeLoggingConfig(main *LoggingConfig, partial *LoggingConfig) {
	if partial.Level != "" {
		main.Level = partial.Level
	}
	if partial.Format != "" {
		main.Format = partial.Format
	}
}

func setDefaults(cfg *Config) {
	if cfg.Nagios.StatusFile == "" {
		cfg.Nagios.StatusFile = "/usr/local/nagios/var/status.dat"
	}
	if cfg.Nagios.CommandFile == "" {
		cfg.Nagios.CommandFile = "/usr/local/nagios/var/rw/nagios.cmd"
	}
	if cfg.Nagios.MaxCacheAge == 0 {
		cfg.Nagios.MaxCacheAge = 10 * time.Second
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8000"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15 * time.Second
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "./data/nagwatch.db"
	}
	if cfg.Database.HistoryRetention == 0 {
		cfg.Database.HistoryRetention = 30 * 24 * time.Hour
	}
	if cfg.Database.CleanupInterval == 0 {
		cfg.Database.CleanupInterval = time.Hour
	}

	if cfg.Include.Pattern == "" {
		cfg.Include.Pattern = "*.yaml"
	}

	if cfg.Monitoring.PollInterval == 0 {
		cfg.Monitoring.PollInterval = 30 * time.Second
	}

	if cfg.Prometheus.MetricsPath == "" {
		cfg.Prometheus.MetricsPath = "/metrics"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

func validate(cfg *Config) error {
	if cfg.Nagios.MaxCacheAge < 0 {
		return fmt.Errorf("nagios.max_cache_age cannot be negative")
	}
	if cfg.Monitoring.PollInterval <= 0 {
		return fmt.Errorf("monitoring.poll_interval must be positive")
	}
	if cfg.Database.CleanupInterval <= 0 {
		return fmt.Errorf("database.cleanup_interval must be positive")
	}
	if cfg.Database.HistoryRetention <= 0 {
		return fmt.Errorf("database.history_retention must be positive")
	}
	if !strings.HasPrefix(cfg.Prometheus.MetricsPath, "/") {
		return fmt.Errorf("prometheus.metrics_path must start with /")
	}

	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", cfg.Logging.Format)
	}

	if cfg.Include.Enabled {
		if cfg.Include.Directory == "" {
			return fmt.Errorf("include.directory must be specified when include.enabled is true")
		}
		if cfg.Include.Pattern != "" && !isValidGlobPattern(cfg.Include.Pattern) {
			return fmt.Errorf("include.pattern contains invalid glob pattern: %s", cfg.Include.Pattern)
		}
	}

	return nil
}

// isValidGlobPattern rejects patterns that would escape the include directory.
func isValidGlobPattern(pattern string) bool {
	if strings.Contains(pattern, "/") || strings.Contains(pattern, "\\") {
		return false
	}
	_, err := filepath.Match(pattern, "test.yaml")
	return err == nil
}
