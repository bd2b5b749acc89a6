package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	RendererChrome = "chrome"
	RendererHTTP   = "http"

	// EnvPrefix prefixes every environment override, e.g. MANGADEX_DL_OUTPUT.
	EnvPrefix = "MANGADEX_DL_"
)

type Config struct {
	Output   string `yaml:"output" env:"OUTPUT"`
	Language string `yaml:"language" env:"LANGUAGE"`
	CheckAll bool   `yaml:"check_all" env:"CHECK_ALL"`
	CBZ      bool   `yaml:"cbz" env:"CBZ"`
	Debug    bool   `yaml:"debug" env:"DEBUG"`

	Renderer      string        `yaml:"renderer" env:"RENDERER"`
	RenderTimeout time.Duration `yaml:"render_timeout" env:"RENDER_TIMEOUT"`
	ListingDelay  time.Duration `yaml:"listing_delay" env:"LISTING_DELAY"`

	Cookie           string `yaml:"cookie" env:"COOKIE"`
	CookieFile       string `yaml:"cookie_file" env:"COOKIE_FILE"`
	UserAgent        string `yaml:"user_agent" env:"USER_AGENT"`
	CloudflareBypass bool   `yaml:"cloudflare_bypass" env:"CLOUDFLARE_BYPASS"`

	MetricsFile string `yaml:"metrics_file" env:"METRICS_FILE"`
}

// Options carries command line values. Zero values leave the config alone.
type Options struct {
	IgnoreConfig bool
	Debug        bool
	Output       string
	Language     string
	CheckAll     bool
	CBZ          bool
	Renderer     string
	MetricsFile  string
	Cookie       string
	CookieFile   string
	UserAgent    string
}

func DefaultConfig() *Config {
	return &Config{
		Output:           ".",
		Language:         "English",
		Renderer:         RendererChrome,
		RenderTimeout:    45 * time.Second,
		ListingDelay:     2 * time.Second,
		CloudflareBypass: true,
	}
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func loadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := DefaultConfig()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}

	return c, nil
}

// LoadMerged builds the effective config: defaults, then the active
// profile, then MANGADEX_DL_* variables, then flags. The returned string
// describes where the profile came from.
func LoadMerged(opts Options) (*Config, string, error) {
	return loadMerged(opts, nil)
}

func loadMerged(opts Options, environ map[string]string) (*Config, string, error) {
	cfg, used, err := loadProfile(opts.IgnoreConfig)
	if err != nil {
		return nil, "", err
	}

	if err := applyEnv(cfg, environ); err != nil {
		return nil, "", err
	}

	mergeConfig(cfg, opts)
	normalizeDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return cfg, used, nil
}

func loadProfile(ignore bool) (*Config, string, error) {
	if ignore {
		return DefaultConfig(), "(ignored config)", nil
	}

	activePath, err := ActiveConfigPath()
	if err == ErrNoConfig || activePath == "" {
		return DefaultConfig(), "(default config in memory)\nRun `mangadex-dl config init` to create an actual config\n", nil
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := loadYAML(activePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config %s: %w", activePath, err)
	}

	return cfg, activePath, nil
}

// applyEnv overlays MANGADEX_DL_* variables. environ replaces the process
// environment when non-nil.
func applyEnv(c *Config, environ map[string]string) error {
	o := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		o.Environment = environ
	}

	if err := env.ParseWithOptions(c, o); err != nil {
		return fmt.Errorf("environment: %w", err)
	}

	return nil
}

func mergeConfig(c *Config, o Options) {
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.Language != "" {
		c.Language = o.Language
	}
	if o.CheckAll {
		c.CheckAll = true
	}
	if o.CBZ {
		c.CBZ = true
	}
	if o.Debug {
		c.Debug = true
	}
	if o.Renderer != "" {
		c.Renderer = o.Renderer
	}
	if o.MetricsFile != "" {
		c.MetricsFile = o.MetricsFile
	}
	if o.Cookie != "" {
		c.Cookie = o.Cookie
	}
	if o.CookieFile != "" {
		c.CookieFile = o.CookieFile
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
}

func normalizeDefaults(c *Config) {
	def := DefaultConfig()

	if c.Output == "" {
		c.Output = def.Output
	}
	if strings.TrimSpace(c.Language) == "" {
		c.Language = def.Language
	}
	c.Renderer = strings.ToLower(strings.TrimSpace(c.Renderer))
	if c.Renderer == "" {
		c.Renderer = def.Renderer
	}
	if c.RenderTimeout <= 0 {
		c.RenderTimeout = def.RenderTimeout
	}
	if c.ListingDelay < 0 {
		c.ListingDelay = 0
	}
}

func (c *Config) Validate() error {
	switch c.Renderer {
	case RendererChrome, RendererHTTP:
		return nil
	}

	return fmt.Errorf("unknown renderer %q (want %s or %s)", c.Renderer, RendererChrome, RendererHTTP)
}

func (c *Config) Print(w io.Writer) {
	_, _ = fmt.Fprintf(w, " -output: %s\n", c.Output)
	_, _ = fmt.Fprintf(w, " -language: %s\n", c.Language)
	_, _ = fmt.Fprintf(w, " -renderer: %s\n", c.Renderer)
	_, _ = fmt.Fprintf(w, " -render_timeout: %s\n", c.RenderTimeout)
	_, _ = fmt.Fprintf(w, " -listing_delay: %s\n", c.ListingDelay)
	if c.CheckAll {
		_, _ = fmt.Fprintf(w, " -check_all: %t\n", c.CheckAll)
	}
	if c.CBZ {
		_, _ = fmt.Fprintf(w, " -cbz: %t\n", c.CBZ)
	}
	if c.Debug {
		_, _ = fmt.Fprintf(w, " -debug: %t\n", c.Debug)
	}
	if !c.CloudflareBypass {
		_, _ = fmt.Fprintf(w, " -cloudflare_bypass: %t\n", c.CloudflareBypass)
	}
	if c.CookieFile != "" {
		_, _ = fmt.Fprintf(w, " -cookie_file: %s\n", c.CookieFile)
	}
	if c.UserAgent != "" {
		_, _ = fmt.Fprintf(w, " -user_agent: %s\n", c.UserAgent)
	}
	if c.MetricsFile != "" {
		_, _ = fmt.Fprintf(w, " -metrics_file: %s\n", c.MetricsFile)
	}
}
