package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr        string `json:"addr" yaml:"addr" toml:"addr"`
	DataFile    string `json:"data_file" yaml:"data_file" toml:"data_file"`
	FixturesDir string `json:"fixtures_dir" yaml:"fixtures_dir" toml:"fixtures_dir"`
	LogLevel    string `json:"log_level" yaml:"log_level" toml:"log_level"`
	// M2MChanged turns on many-to-many change signals in the store.
	M2MChanged   bool  `json:"m2m_changed" yaml:"m2m_changed" toml:"m2m_changed"`
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`

	CORS  CORS  `json:"cors" yaml:"cors" toml:"cors"`
	Forum Forum `json:"forum" yaml:"forum" toml:"forum"`
}

// CORS configures cross-origin requests; disabled unless Enabled.
type CORS struct {
	Enabled bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	Origins []string `json:"origins" yaml:"origins" toml:"origins"`
	Methods []string `json:"methods" yaml:"methods" toml:"methods"`
	Headers []string `json:"headers" yaml:"headers" toml:"headers"`
}

// Forum holds the site settings shown on the secondary pages.
type Forum struct {
	AppShortName string `json:"app_short_name" yaml:"app_short_name" toml:"app_short_name"`
	About        string `json:"about" yaml:"about" toml:"about"`
	FAQ          string `json:"faq" yaml:"faq" toml:"faq"`
	Privacy      string `json:"privacy" yaml:"privacy" toml:"privacy"`
	// AllowAnonymousFeedback defaults to true when unset.
	AllowAnonymousFeedback *bool  `json:"allow_anonymous_feedback" yaml:"allow_anonymous_feedback" toml:"allow_anonymous_feedback"`
	BadgesMode             string `json:"badges_mode" yaml:"badges_mode" toml:"badges_mode"`
	LoginURL               string `json:"login_url" yaml:"login_url" toml:"login_url"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := Decode(filepath.Ext(path), b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode unmarshals b into v using the codec for ext.
func Decode(ext string, b []byte, v any) error {
	switch ext = strings.ToLower(ext); ext {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, v)
	case ".json":
		return json.Unmarshal(b, v)
	case ".toml":
		return toml.Unmarshal(b, v)
	default:
		return fmt.Errorf("unsupported config extension: %s", ext)
	}
}

// Supported reports whether Decode handles ext.
func Supported(ext string) bool {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml", ".json", ".toml":
		return true
	}
	return false
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Forum.AppShortName == "" {
		c.Forum.AppShortName = "Forum"
	}
	if c.Forum.AllowAnonymousFeedback == nil {
		t := true
		c.Forum.AllowAnonymousFeedback = &t
	}
	if c.Forum.BadgesMode == "" {
		c.Forum.BadgesMode = "public"
	}
	if c.Forum.LoginURL == "" {
		c.Forum.LoginURL = "/account/signin/"
	}
	return c
}
