package render

import (
	"time"

	"go.uber.org/zap"

	"github.com/lvillar/certpdf"
	"github.com/lvillar/certpdf/metrics"
)

// Option is a functional option for configuring a Renderer via New.
type Option func(*config)

type config struct {
	log       *zap.Logger
	geometry  map[certpdf.Category]certpdf.Geometry
	compress  bool
	created   time.Time
	title     string
	watermark *Watermark
	verify    *VerificationCode
	fonts     []metrics.TTF
}

// DefaultCreationDate is stamped into every document unless
// WithCreationDate overrides it; a fixed date keeps output reproducible.
var DefaultCreationDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// WithLogger sets the structured logger. Patient names are never logged.
func WithLogger(log *zap.Logger) Option {
	return func(c *config) {
		if log != nil {
			c.log = log
		}
	}
}

// WithGeometry replaces the layout anchors used for category cat.
func WithGeometry(cat certpdf.Category, g certpdf.Geometry) Option {
	return func(c *config) {
		c.geometry[cat] = g
	}
}

// WithCompression toggles content stream compression (default: on).
func WithCompression(on bool) Option {
	return func(c *config) {
		c.compress = on
	}
}

// WithCreationDate sets the document's /CreationDate entry.
func WithCreationDate(t time.Time) Option {
	return func(c *config) {
		c.created = t
	}
}

// WithTitle sets the document title prefix (default: "Medical Certificate").
func WithTitle(title string) Option {
	return func(c *config) {
		c.title = title
	}
}

// WithWatermark overlays wm on every rendered certificate.
func WithWatermark(wm Watermark) Option {
	return func(c *config) {
		c.watermark = &wm
	}
}

// WithVerificationCode draws a machine-readable code carrying the
// certificate reference inside the geometry's verification box.
func WithVerificationCode(vc VerificationCode) Option {
	return func(c *config) {
		c.verify = &vc
	}
}

// WithFont registers a TrueType font that geometries can name as their
// body or reference font.
func WithFont(family, style string, ttf []byte) Option {
	return func(c *config) {
		c.fonts = append(c.fonts, metrics.TTF{Family: family, Style: style, Data: ttf})
	}
}

func newConfig(opts []Option) config {
	cfg := config{
		log:      zap.NewNop(),
		geometry: make(map[certpdf.Category]certpdf.Geometry, len(certpdf.Categories)),
		compress: true,
		created:  DefaultCreationDate,
		title:    "Medical Certificate",
	}
	for _, cat := range certpdf.Categories {
		cfg.geometry[cat] = certpdf.DefaultGeometry(cat)
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
