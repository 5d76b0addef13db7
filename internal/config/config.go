// Package config loads sglog settings from YAML files and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	lerrors "github.com/hasegama/simple-global-logging/internal/errors"
	"github.com/hasegama/simple-global-logging/internal/logging"
)

// CurrentVersion is the config schema version written by WriteYAML.
const CurrentVersion = 1

// ProjectConfigName is the per-directory config file.
const ProjectConfigName = ".sglog.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SGLOG_"

// Color modes for tail output.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config is the complete sglog configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Tail    TailConfig    `yaml:"tail" json:"tail"`
}

// LoggingConfig mirrors logging.Config in file form.
type LoggingConfig struct {
	Verbose   bool   `yaml:"verbose" json:"verbose"`
	BaseDir   string `yaml:"base_dir" json:"base_dir"`
	Filename  string `yaml:"filename,omitempty" json:"filename,omitempty"`
	Timezone  string `yaml:"timezone" json:"timezone"`
	KeepANSI  bool   `yaml:"keep_ansi" json:"keep_ansi"`
	Console   bool   `yaml:"console" json:"console"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// TailConfig configures `sglog tail`.
type TailConfig struct {
	Lines int    `yaml:"lines" json:"lines"`
	Color string `yaml:"color" json:"color"`
}

// NewConfig returns a Config with default values.
func NewConfig() *Config {
	def := logging.DefaultConfig()
	return &Config{
		Version: CurrentVersion,
		Logging: LoggingConfig{
			Verbose:   def.Verbose,
			BaseDir:   def.BaseDir,
			Timezone:  def.Timezone,
			MaxSizeMB: def.MaxSizeMB,
			MaxFiles:  def.MaxFiles,
		},
		Tail: TailConfig{
			Lines: 50,
			Color: ColorAuto,
		},
	}
}

// LogConfig converts the file settings into a logging.Config.
func (c *Config) LogConfig() logging.Config {
	return logging.Config{
		Verbose:   c.Logging.Verbose,
		BaseDir:   c.Logging.BaseDir,
		Filename:  c.Logging.Filename,
		Timezone:  c.Logging.Timezone,
		KeepANSI:  c.Logging.KeepANSI,
		Console:   c.Logging.Console,
		MaxSizeMB: c.Logging.MaxSizeMB,
		MaxFiles:  c.Logging.MaxFiles,
	}
}

// GetUserConfigPath returns the path to the user configuration file:
//   - $XDG_CONFIG_HOME/sglog/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/sglog/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sglog", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "sglog", "config.yaml")
	}
	return filepath.Join(home, ".config", "sglog", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load builds the configuration for dir in order of increasing precedence:
//  1. Defaults
//  2. User config (~/.config/sglog/config.yaml)
//  3. Project config (.sglog.yaml in dir)
//  4. Environment variables (SGLOG_*)
//
// The result is validated before it is returned.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if path := filepath.Join(dir, ProjectConfigName); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadYAML decodes path on top of c. Keys missing from the file keep their
// current value, so an explicit `verbose: false` still overrides a layer
// below.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return lerrors.New(lerrors.ErrCodeConfigPermission, "read config file", err).
			WithDetail("path", path)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return lerrors.ConfigError("parse config file", err).
			WithDetail("path", path).
			WithSuggestion("Check the YAML syntax, or remove the file to use defaults")
	}
	return nil
}

// applyEnvOverrides reads SGLOG_* variables. Malformed numbers and booleans
// are configuration errors rather than silently ignored.
func (c *Config) applyEnvOverrides() error {
	if v, ok := lookupEnv("DIR"); ok {
		c.Logging.BaseDir = v
	}
	if v, ok := lookupEnv("FILENAME"); ok {
		c.Logging.Filename = v
	}
	if v, ok := lookupEnv("TZ"); ok {
		c.Logging.Timezone = v
	}
	if v, ok := lookupEnv("COLOR"); ok {
		c.Tail.Color = strings.ToLower(v)
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"VERBOSE", &c.Logging.Verbose},
		{"KEEP_ANSI", &c.Logging.KeepANSI},
		{"CONSOLE", &c.Logging.Console},
	}
	for _, b := range bools {
		v, ok := lookupEnv(b.name)
		if !ok {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return envError(b.name, v, err)
		}
		*b.dst = parsed
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"MAX_SIZE_MB", &c.Logging.MaxSizeMB},
		{"MAX_FILES", &c.Logging.MaxFiles},
		{"TAIL_LINES", &c.Tail.Lines},
	}
	for _, n := range ints {
		v, ok := lookupEnv(n.name)
		if !ok {
			continue
		}
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return envError(n.name, v, err)
		}
		*n.dst = parsed
	}
	return nil
}

func lookupEnv(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func envError(name, value string, cause error) error {
	return lerrors.ConfigError("invalid environment override", cause).
		WithDetail("variable", EnvPrefix+name).
		WithDetail("value", value)
}

// Validate checks the configuration for values Setup would reject.
func (c *Config) Validate() error {
	if _, err := logging.ParseTimezone(c.Logging.Timezone); err != nil {
		return err
	}
	if c.Logging.Filename != "" {
		if err := logging.ValidateFilename(c.Logging.Filename); err != nil {
			return err
		}
	}
	if c.Logging.MaxSizeMB < 0 {
		return invalid("logging.max_size_mb must be non-negative", strconv.Itoa(c.Logging.MaxSizeMB))
	}
	if c.Logging.MaxFiles < 0 {
		return invalid("logging.max_files must be non-negative", strconv.Itoa(c.Logging.MaxFiles))
	}
	if c.Tail.Lines < 0 {
		return invalid("tail.lines must be non-negative", strconv.Itoa(c.Tail.Lines))
	}
	switch c.Tail.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return invalid("tail.color must be 'auto', 'always' or 'never'", c.Tail.Color)
	}
	return nil
}

func invalid(message, value string) error {
	return lerrors.ConfigError(message, nil).WithDetail("value", value)
}

// WriteYAML writes the configuration to path, creating parent directories.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return lerrors.InternalError("marshal config", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return lerrors.New(lerrors.ErrCodeDirCreate, "create config directory", err).
			WithDetail("dir", filepath.Dir(path))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return lerrors.IOError("write config file", err).WithDetail("path", path)
	}
	return nil
}

// String renders the configuration as YAML.
func (c *Config) String() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("<invalid config: %v>", err)
	}
	return string(data)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
