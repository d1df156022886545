package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/menta2k/thumbnailer/internal/log"
	"github.com/menta2k/thumbnailer/pkg/fonts"
	"github.com/menta2k/thumbnailer/pkg/layout"
)

// Config is the user configuration, persisted as YAML. Environment variables
// override it at runtime and are never written back.
type Config struct {
	ConfigVersion int           `yaml:"config_version"`
	Fonts         FontsConfig   `yaml:"fonts"`
	Preview       PreviewConfig `yaml:"preview"`
	Export        ExportConfig  `yaml:"export"`
	Focus         FocusConfig   `yaml:"focus"`
	Logging       LoggingConfig `yaml:"logging"`
}

// FontsConfig selects the font directory and the starting overlay style.
type FontsConfig struct {
	// Dir holds <Family>-Regular.ttf / <Family>-Bold.ttf files.
	Dir            string        `yaml:"dir"`
	Text           fonts.Family  `yaml:"text"`
	Location       fonts.Family  `yaml:"location"`
	TextAnchor     layout.Anchor `yaml:"text_anchor"`
	LocationAnchor layout.Anchor `yaml:"location_anchor"`
}

// PreviewConfig controls the preview surface and its optional file.
type PreviewConfig struct {
	Width   int    `yaml:"width"`
	Format  string `yaml:"format"` // png, jpg or webp
	Quality int    `yaml:"quality"`
}

// ExportConfig controls where exports are saved.
type ExportConfig struct {
	Dir      string `yaml:"dir"`
	Filename string `yaml:"filename"`
}

// FocusConfig selects how the initial crop is placed.
type FocusConfig struct {
	Backend        string `yaml:"backend"` // none, saliency, ollama or llamacpp
	URL            string `yaml:"url"`
	Model          string `yaml:"model"`
	MaxDim         int    `yaml:"max_dim"`
	Quality        int    `yaml:"quality"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Focus backends.
const (
	FocusNone     = "none"
	FocusSaliency = "saliency"
	FocusOllama   = "ollama"
	FocusLlamaCpp = "llamacpp"
)

// Environment overrides.
const (
	EnvFontsDir     = "THUMB_FONTS_DIR"
	EnvPreviewWidth = "THUMB_PREVIEW_WIDTH"
	EnvExportDir    = "THUMB_EXPORT_DIR"
	EnvFocusBackend = "THUMB_FOCUS_BACKEND"
	EnvFocusURL     = "THUMB_FOCUS_URL"
	EnvFocusModel   = "THUMB_FOCUS_MODEL"
	EnvLogLevel     = "THUMB_LOG_LEVEL"
	EnvLogFormat    = "THUMB_LOG_FORMAT"
	EnvLogSource    = "THUMB_LOG_SOURCE"
	EnvLogFile      = "THUMB_LOG_FILE"
)

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		ConfigVersion: 1,
		Fonts: FontsConfig{
			Text:           fonts.DefaultText,
			Location:       fonts.DefaultLocation,
			TextAnchor:     layout.BottomLeft,
			LocationAnchor: layout.TopCenter,
		},
		Preview: PreviewConfig{Width: 800, Format: "png", Quality: 90},
		Export:  ExportConfig{Dir: ".", Filename: "thumbnail.png"},
		Focus: FocusConfig{
			Backend:        FocusNone,
			MaxDim:         768,
			Quality:        85,
			TimeoutSeconds: 300,
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// LoadFromFile reads a YAML file over the defaults, so omitted keys keep
// their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Load reads filename if it exists and returns the defaults otherwise. Env
// overrides are applied and the result is validated.
func Load(filename string) (*Config, error) {
	cfg, err := LoadFromFile(filename)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = Default(), nil
	}
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveToFile writes the configuration as YAML
func (c *Config) SaveToFile(filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from THUMB_* variables. Malformed numbers are
// ignored.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvFontsDir); v != "" {
		c.Fonts.Dir = v
	}
	if v := os.Getenv(EnvPreviewWidth); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Preview.Width = n
		}
	}
	if v := os.Getenv(EnvExportDir); v != "" {
		c.Export.Dir = v
	}
	if v := os.Getenv(EnvFocusBackend); v != "" {
		c.Focus.Backend = strings.ToLower(v)
	}
	if v := os.Getenv(EnvFocusURL); v != "" {
		c.Focus.URL = v
	}
	if v := os.Getenv(EnvFocusModel); v != "" {
		c.Focus.Model = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv(EnvLogSource); v != "" {
		c.Logging.Source = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		c.Logging.File = v
	}
}

// Validate checks if the configuration is valid. Font names are rewritten to
// their canonical spelling.
func (c *Config) Validate() error {
	text, err := fonts.ParseFamily(string(c.Fonts.Text))
	if err != nil {
		return fmt.Errorf("fonts.text: %w", err)
	}
	loc, err := fonts.ParseFamily(string(c.Fonts.Location))
	if err != nil {
		return fmt.Errorf("fonts.location: %w", err)
	}
	c.Fonts.Text, c.Fonts.Location = text, loc
	if c.Preview.Width < 1 {
		return fmt.Errorf("preview.width must be positive")
	}
	switch strings.ToLower(c.Preview.Format) {
	case "png", "jpg", "jpeg", "webp":
	default:
		return fmt.Errorf("preview.format must be png, jpg or webp")
	}
	if c.Preview.Quality < 1 || c.Preview.Quality > 100 {
		return fmt.Errorf("preview.quality must be between 1 and 100")
	}
	if c.Export.Filename == "" {
		return fmt.Errorf("export.filename cannot be empty")
	}
	switch c.Focus.Backend {
	case FocusNone, FocusSaliency:
	case FocusOllama, FocusLlamaCpp:
		if c.Focus.Model == "" && c.Focus.Backend == FocusOllama {
			return fmt.Errorf("focus.model is required for the ollama backend")
		}
	default:
		return fmt.Errorf("focus.backend must be none, saliency, ollama or llamacpp")
	}
	if c.Focus.Quality < 1 || c.Focus.Quality > 100 {
		return fmt.Errorf("focus.quality must be between 1 and 100")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json")
	}
	return nil
}

// LogOptions converts the logging section for log.Init.
func (c *Config) LogOptions() log.Options {
	return log.Options{
		Level:     c.Logging.Level,
		Format:    c.Logging.Format,
		AddSource: c.Logging.Source,
		File:      c.Logging.File,
	}
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".config", "thumbnailer", "config.yaml")
}
