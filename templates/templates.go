// Package templates retrieves the pre-designed page document of each
// certificate category.
//
// A Loader tries its Sources in order. The stock setup is a local directory
// first and an HTTP base URL second, for deployments where the packaged
// assets are not on the local filesystem:
//
//	loader := templates.NewLoader(
//	    templates.Dir(os.DirFS("/srv/certpdf/templates")),
//	    templates.HTTP("https://assets.example.com/templates/", templates.WithTimeout(5*time.Second)),
//	)
//	pdf, err := loader.Load(ctx, certpdf.Work)
package templates

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lvillar/certpdf"
)

// Source fetches a named template asset.
type Source interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// FileName returns the asset name of a category's template.
func FileName(c certpdf.Category) string {
	return c.String() + "_template.pdf"
}

// NotFoundError is returned when no source could supply a template. It
// matches certpdf.ErrTemplateNotFound.
type NotFoundError struct {
	File   string  // attempted asset name
	Status int     // last HTTP status observed, 0 if no network attempt got a response
	Errs   []error // one entry per source, in order
}

func (e *NotFoundError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "certpdf: template %q not found", e.File)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.Status)
	}
	for _, err := range e.Errs {
		b.WriteString("; ")
		b.WriteString(err.Error())
	}
	return b.String()
}

func (e *NotFoundError) Unwrap() error {
	return certpdf.ErrTemplateNotFound
}

// Loader resolves category templates against an ordered list of sources.
// Every call fetches afresh. A Loader is safe for concurrent use when its
// sources are.
type Loader struct {
	sources []Source
	log     *zap.Logger
}

// NewLoader returns a Loader that tries sources in order.
func NewLoader(sources ...Source) *Loader {
	return &Loader{sources: sources, log: zap.NewNop()}
}

// WithLogger returns a copy of l that logs source misses to log.
func (l *Loader) WithLogger(log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{sources: l.sources, log: log}
}

// Load returns the template bytes of category c.
func (l *Loader) Load(ctx context.Context, c certpdf.Category) ([]byte, error) {
	name := FileName(c)
	nf := &NotFoundError{File: name}
	if len(l.sources) == 0 {
		nf.Errs = append(nf.Errs, errors.New("no template sources configured"))
		return nil, nf
	}

	for i, src := range l.sources {
		data, err := src.Fetch(ctx, name)
		if err == nil {
			if len(data) == 0 {
				err = errors.New("empty asset")
			} else {
				return data, nil
			}
		}
		var se *StatusError
		if errors.As(err, &se) {
			nf.Status = se.Status
		}
		l.log.Debug("template source miss",
			zap.String("file", name),
			zap.Int("source", i),
			zap.Error(err))
		nf.Errs = append(nf.Errs, err)
	}
	return nil, nf
}
