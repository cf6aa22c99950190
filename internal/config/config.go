// Package config loads and normalizes the docweave configuration file.
package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/docweave/internal/foundation/errors"
	"git.home.luguber.info/inful/docweave/internal/markdown"
	"git.home.luguber.info/inful/docweave/internal/render"
)

// Config is the top-level configuration document.
type Config struct {
	Markdown MarkdownConfig `yaml:"markdown"`
	Output   OutputConfig   `yaml:"output"`
	Preview  PreviewConfig  `yaml:"preview"`
	State    StateConfig    `yaml:"state"`
	Events   EventsConfig   `yaml:"events"`
	Source   SourceConfig   `yaml:"source"`
}

// MarkdownConfig selects renderer plugins by name.
type MarkdownConfig struct {
	Extensions []string `yaml:"extensions,omitempty"`
}

// OutputConfig controls where build artifacts land.
type OutputConfig struct {
	Directory      string `yaml:"directory,omitempty"`
	FragmentSuffix string `yaml:"fragment_suffix,omitempty"`
}

// PreviewConfig controls the preview server.
type PreviewConfig struct {
	Address         string `yaml:"address,omitempty"`
	Watch           bool   `yaml:"watch"`
	RebuildInterval string `yaml:"rebuild_interval,omitempty"` // time.ParseDuration format, empty disables
}

// RebuildIntervalDuration returns the parsed rebuild interval. Zero means no
// periodic rebuild. The format is checked at load time.
func (p PreviewConfig) RebuildIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(p.RebuildInterval)
	return d
}

// StateConfig controls the run-history store. An empty path disables it.
type StateConfig struct {
	Path string `yaml:"path,omitempty"`
}

// EventsConfig controls post-render event publishing. An empty URL disables it.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// SourceConfig optionally names a git repository to fetch sources from
// instead of the local filesystem.
type SourceConfig struct {
	GitURL string `yaml:"git_url,omitempty"`
	Branch string `yaml:"branch,omitempty"`
	Dir    string `yaml:"dir,omitempty"` // subdirectory within the repository
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and normalizes a configuration file. A missing file yields the
// defaults rather than an error, matching the zero-config CLI experience.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "read config file").
			WithContext("path", path).Build()
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "parse config file").
			WithContext("path", path).Build()
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.Markdown.Extensions) == 0 {
		c.Markdown.Extensions = []string{"gfm"}
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "./site"
	}
	if c.Output.FragmentSuffix == "" {
		c.Output.FragmentSuffix = render.DefaultFragmentSuffix
	}
	if c.Preview.Address == "" {
		c.Preview.Address = "127.0.0.1:8165"
	}
	if c.Events.Subject == "" {
		c.Events.Subject = "docweave.render.completed"
	}
	if c.Source.Branch == "" {
		c.Source.Branch = "main"
	}
}

// applyEnv overlays environment variables on top of the file values.
// A .env file, when present, is loaded by the CLI before this runs.
func (c *Config) applyEnv() {
	if v := os.Getenv("DOCWEAVE_NATS_URL"); v != "" {
		c.Events.NATSURL = v
	}
	if v := os.Getenv("DOCWEAVE_STATE_PATH"); v != "" {
		c.State.Path = v
	}
	if v := os.Getenv("DOCWEAVE_PREVIEW_ADDR"); v != "" {
		c.Preview.Address = v
	}
}

func (c *Config) validate() error {
	known := map[string]bool{}
	for _, name := range markdown.KnownExtensions() {
		known[name] = true
	}
	for _, name := range c.Markdown.Extensions {
		if !known[strings.ToLower(name)] {
			return ferrors.ConfigError("unknown markdown extension").
				WithContext("extension", name).Build()
		}
	}
	if c.Preview.RebuildInterval != "" {
		if _, err := time.ParseDuration(c.Preview.RebuildInterval); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid rebuild_interval").
				WithContext("value", c.Preview.RebuildInterval).Build()
		}
	}
	return nil
}
