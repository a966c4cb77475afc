// Package config loads the deployment settings of the certpdf commands:
// where templates live, the network fallback, and per-category geometry
// overrides. Values come from an optional YAML file and are then overridden
// by CERTPDF_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/lvillar/certpdf"
	"github.com/lvillar/certpdf/render"
	"github.com/lvillar/certpdf/templates"
)

// Environment variables read by Apply.
const (
	EnvTemplateDir     = "CERTPDF_TEMPLATE_DIR"
	EnvTemplateBaseURL = "CERTPDF_TEMPLATE_BASE_URL"
	EnvFetchTimeout    = "CERTPDF_FETCH_TIMEOUT"
	EnvWatermark       = "CERTPDF_WATERMARK"
)

// DefaultTemplateDir is the local template directory used when none is
// configured.
const DefaultTemplateDir = "assets"

// MaxWatermarkLength bounds the watermark text.
const MaxWatermarkLength = 50

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
	ErrInvalidConfig  = errors.New("invalid config")
)

// Config holds all settings of a certpdf deployment.
type Config struct {
	TemplateDir     string `yaml:"templateDir"`
	TemplateBaseURL string `yaml:"templateBaseURL"`
	FetchTimeout    string `yaml:"fetchTimeout"` // Go duration, e.g. "5s"

	Watermark    string             `yaml:"watermark"`
	Verification VerificationConfig `yaml:"verification"`

	// Geometry is keyed by category name (work, study, carer).
	Geometry map[string]GeometryOverride `yaml:"geometry"`
}

// VerificationConfig enables a verification code on every certificate.
type VerificationConfig struct {
	Kind    string `yaml:"kind"` // "", "qr" or "pdf417"
	BaseURL string `yaml:"baseURL"`
}

// GeometryOverride replaces individual anchors of the default geometry.
// Unset fields keep their defaults.
type GeometryOverride struct {
	PageWidth        *float64 `yaml:"pageWidth"`
	PageHeight       *float64 `yaml:"pageHeight"`
	IssueDateY       *float64 `yaml:"issueDateY"`
	RightMargin      *float64 `yaml:"rightMargin"`
	ParagraphAnchorY *float64 `yaml:"paragraphAnchorY"`
	LeftMargin       *float64 `yaml:"leftMargin"`
	MaxWidth         *float64 `yaml:"maxWidth"`
	LineHeight       *float64 `yaml:"lineHeight"`
	BodyGap          *float64 `yaml:"bodyGap"`
	ParagraphGap     *float64 `yaml:"paragraphGap"`
	MaxY             *float64 `yaml:"maxY"`
	ReferenceY       *float64 `yaml:"referenceY"`
	BodyFontSize     *float64 `yaml:"bodyFontSize"`
}

// Default returns a config reading templates from ./assets.
func Default() *Config {
	return &Config{
		TemplateDir:  DefaultTemplateDir,
		FetchTimeout: templates.DefaultTimeout.String(),
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults. Environment overrides are applied afterwards.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- config path is operator-provided
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
			}
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
		}
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment looked up with getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvTemplateDir); v != "" {
		c.TemplateDir = v
	}
	if v := getenv(EnvTemplateBaseURL); v != "" {
		c.TemplateBaseURL = v
	}
	if v := getenv(EnvFetchTimeout); v != "" {
		c.FetchTimeout = v
	}
	if v := getenv(EnvWatermark); v != "" {
		c.Watermark = v
	}
}

// Validate checks field formats and category names.
func (c *Config) Validate() error {
	if c.TemplateDir == "" && c.TemplateBaseURL == "" {
		return fmt.Errorf("%w: neither templateDir nor templateBaseURL is set", ErrInvalidConfig)
	}
	if c.TemplateBaseURL != "" {
		u, err := url.Parse(c.TemplateBaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: templateBaseURL %q must be an absolute http(s) URL", ErrInvalidConfig, c.TemplateBaseURL)
		}
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	if len(c.Watermark) > MaxWatermarkLength {
		return fmt.Errorf("%w: watermark exceeds %d characters", ErrInvalidConfig, MaxWatermarkLength)
	}
	if c.Verification.Kind != "" {
		if _, err := render.ParseCodeKind(c.Verification.Kind); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	for name := range c.Geometry {
		cat, err := certpdf.ParseCategory(name)
		if err != nil {
			return fmt.Errorf("%w: geometry: %v", ErrInvalidConfig, err)
		}
		if err := c.GeometryFor(cat).Validate(); err != nil {
			return fmt.Errorf("%w: geometry %s: %v", ErrInvalidConfig, name, err)
		}
	}
	return nil
}

// Timeout parses FetchTimeout; empty means templates.DefaultTimeout.
func (c *Config) Timeout() (time.Duration, error) {
	if c.FetchTimeout == "" {
		return templates.DefaultTimeout, nil
	}
	d, err := time.ParseDuration(c.FetchTimeout)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: fetchTimeout %q", ErrInvalidConfig, c.FetchTimeout)
	}
	return d, nil
}

// GeometryFor returns the default geometry of cat with overrides applied.
func (c *Config) GeometryFor(cat certpdf.Category) certpdf.Geometry {
	g := certpdf.DefaultGeometry(cat)
	for name, o := range c.Geometry {
		if strings.EqualFold(name, cat.String()) {
			o.apply(&g)
		}
	}
	return g
}

func (o GeometryOverride) apply(g *certpdf.Geometry) {
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&g.Page.Width, o.PageWidth)
	set(&g.Page.Height, o.PageHeight)
	set(&g.IssueDateY, o.IssueDateY)
	set(&g.RightMargin, o.RightMargin)
	set(&g.ParagraphAnchorY, o.ParagraphAnchorY)
	set(&g.LeftMargin, o.LeftMargin)
	set(&g.MaxWidth, o.MaxWidth)
	set(&g.LineHeight, o.LineHeight)
	set(&g.BodyGap, o.BodyGap)
	set(&g.ParagraphGap, o.ParagraphGap)
	set(&g.MaxY, o.MaxY)
	set(&g.ReferenceY, o.ReferenceY)
	set(&g.BodyFont.Size, o.BodyFontSize)
}

// Loader builds the template loader: the local directory first, then the
// network fallback when a base URL is configured.
func (c *Config) Loader(log *zap.Logger) (*templates.Loader, error) {
	timeout, err := c.Timeout()
	if err != nil {
		return nil, err
	}
	var sources []templates.Source
	if c.TemplateDir != "" {
		sources = append(sources, templates.Dir(os.DirFS(c.TemplateDir)))
	}
	if c.TemplateBaseURL != "" {
		sources = append(sources, templates.HTTP(c.TemplateBaseURL, templates.WithTimeout(timeout)))
	}
	return templates.NewLoader(sources...).WithLogger(log), nil
}

// RenderOptions translates the config into renderer options.
func (c *Config) RenderOptions(log *zap.Logger) []render.Option {
	opts := []render.Option{render.WithLogger(log)}
	for _, cat := range certpdf.Categories {
		opts = append(opts, render.WithGeometry(cat, c.GeometryFor(cat)))
	}
	if c.Watermark != "" {
		opts = append(opts, render.WithWatermark(render.Watermark{Text: c.Watermark}))
	}
	if c.Verification.Kind != "" {
		kind, _ := render.ParseCodeKind(c.Verification.Kind)
		opts = append(opts, render.WithVerificationCode(render.VerificationCode{
			Kind:    kind,
			BaseURL: c.Verification.BaseURL,
		}))
	}
	return opts
}
