// Package config handles paritycheck configuration from YAML files or SQLite.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/paritycheck/parity/feature"
	"github.com/hazyhaar/paritycheck/parity/internal/probe"
	"github.com/hazyhaar/paritycheck/parity/internal/recommend"
)

// Config is the top-level paritycheck configuration.
type Config struct {
	Browser   BrowserConfig    `yaml:"browser"`
	Targets   []feature.Target `yaml:"targets"`
	Probe     probe.Config     `yaml:"probe"`
	Compare   CompareConfig    `yaml:"compare"`
	Recommend recommend.Config `yaml:"recommend"`
	Preflight PreflightConfig  `yaml:"preflight"`
	Sinks     []SinkConfig     `yaml:"sinks"`
	Store     StoreConfig      `yaml:"store"`
}

// BrowserConfig controls Chrome lifecycle and page loads.
type BrowserConfig struct {
	Remote           string        `yaml:"remote"`
	Bin              string        `yaml:"bin"`
	Stealth          string        `yaml:"stealth"` // headless | headful
	XvfbDisplay      string        `yaml:"xvfb_display"`
	ResourceBlocking []string      `yaml:"resource_blocking"`
	NavTimeout       time.Duration `yaml:"nav_timeout"`
	Settle           time.Duration `yaml:"settle"`
	OpTimeout        time.Duration `yaml:"op_timeout"`
	IgnoreCertErrors bool          `yaml:"ignore_cert_errors"`
}

// CompareConfig selects the error comparison policy.
type CompareConfig struct {
	NormalizeErrors bool `yaml:"normalize_errors"`
}

// PreflightConfig controls the HTTP deployment-metadata fetch.
type PreflightConfig struct {
	Disabled  bool          `yaml:"disabled"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// SinkConfig defines an output backend.
type SinkConfig struct {
	Type string `yaml:"type"` // stdout | webhook | file | store
	URL  string `yaml:"url"`  // webhook
	Dir  string `yaml:"dir"`  // file
}

// StoreConfig locates the run history database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills zero values. Probe and recommend settings default
// inside their own packages.
func (c *Config) ApplyDefaults() {
	if c.Browser.Stealth == "" {
		c.Browser.Stealth = "headless"
	}
	if c.Browser.XvfbDisplay == "" {
		c.Browser.XvfbDisplay = ":99"
	}
	if c.Browser.NavTimeout <= 0 {
		c.Browser.NavTimeout = 30 * time.Second
	}
	if c.Browser.Settle <= 0 {
		c.Browser.Settle = 2 * time.Second
	}
	if c.Browser.OpTimeout <= 0 {
		c.Browser.OpTimeout = 10 * time.Second
	}
	if c.Preflight.Timeout <= 0 {
		c.Preflight.Timeout = 15 * time.Second
	}
	if len(c.Sinks) == 0 {
		c.Sinks = []SinkConfig{{Type: "stdout"}}
	}
	for i := range c.Targets {
		if c.Targets[i].Name == "" {
			c.Targets[i].Name = fmt.Sprintf("T%d", i+1)
		}
	}
}

// Validate checks the settings a run cannot do without.
func (c *Config) Validate() error {
	if len(c.Targets) != 2 {
		return fmt.Errorf("config: need exactly two targets, got %d", len(c.Targets))
	}
	for _, t := range c.Targets {
		if err := ValidateTarget(t); err != nil {
			return err
		}
	}
	if c.Targets[0].Name == c.Targets[1].Name {
		return fmt.Errorf("config: target names must differ (%q)", c.Targets[0].Name)
	}
	switch c.Browser.Stealth {
	case "headless", "headful":
	default:
		return fmt.Errorf("config: browser.stealth %q: want headless or headful", c.Browser.Stealth)
	}
	for _, s := range c.Sinks {
		switch s.Type {
		case "stdout", "store":
		case "webhook":
			if s.URL == "" {
				return fmt.Errorf("config: webhook sink needs a url")
			}
		case "file":
			if s.Dir == "" {
				return fmt.Errorf("config: file sink needs a dir")
			}
		default:
			return fmt.Errorf("config: unknown sink type %q", s.Type)
		}
	}
	return nil
}

// ErrInvalidTarget wraps every target validation failure.
var ErrInvalidTarget = errors.New("config: invalid target")

// ValidateTarget checks that t has a name and an absolute http(s) URL.
func ValidateTarget(t feature.Target) error {
	if t.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidTarget)
	}
	u, err := url.Parse(t.URL)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidTarget, t.Name, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s: %q is not an absolute http(s) URL", ErrInvalidTarget, t.Name, t.URL)
	}
	return nil
}
