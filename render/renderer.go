// Package render turns a certpdf.Request into a finished certificate PDF:
// sanitize, generate wording, load the category template, lay the text out
// against the template's fixed regions, guard against overflow and
// serialize.
//
// Example:
//
//	loader := templates.NewLoader(templates.Dir(os.DirFS("assets")))
//	r := render.New(loader, render.WithLogger(log))
//	pdf, err := r.Render(ctx, req)
//	switch {
//	case errors.Is(err, certpdf.ErrBodyTooLong):
//	    // ask for a shorter name or a narrower date range
//	case errors.Is(err, certpdf.ErrInvalidInput):
//	    // user-correctable validation error
//	case errors.Is(err, certpdf.ErrTemplateNotFound):
//	    // deployment fault
//	}
package render

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"github.com/lvillar/certpdf"
	"github.com/lvillar/certpdf/metrics"
)

// Stage is a step of the render pipeline.
type Stage int

const (
	Validating Stage = iota
	Generating
	TemplateLoading
	Drawing
	GuardChecking
	Serializing
	Done
	Failed
)

var stageNames = [...]string{
	Validating:      "validating",
	Generating:      "generating",
	TemplateLoading: "template-loading",
	Drawing:         "drawing",
	GuardChecking:   "guard-checking",
	Serializing:     "serializing",
	Done:            "done",
	Failed:          "failed",
}

func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Error reports the stage at which a render failed. It unwraps to one of
// certpdf.ErrInvalidInput, ErrTemplateNotFound, ErrBodyTooLong or ErrRender.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("certpdf.render %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// pageSizeTolerance is how far, in points, a template page may differ from
// the geometry's page before a warning is logged.
const pageSizeTolerance = 1.0

// TemplateLoader supplies the template document of a category.
// *templates.Loader satisfies it.
type TemplateLoader interface {
	Load(ctx context.Context, c certpdf.Category) ([]byte, error)
}

// Result is the outcome of a render as a single value. Exactly one of
// Bytes and Err is set.
type Result struct {
	Success bool
	Bytes   []byte
	Err     error
}

// Renderer produces certificate PDFs. It holds no per-render state and is
// safe for concurrent use.
type Renderer struct {
	loader TemplateLoader
	cfg    config
}

// New returns a Renderer that loads templates from loader.
func New(loader TemplateLoader, opts ...Option) *Renderer {
	return &Renderer{loader: loader, cfg: newConfig(opts)}
}

// Geometry returns the layout anchors used for category c.
func (r *Renderer) Geometry(c certpdf.Category) certpdf.Geometry {
	if g, ok := r.cfg.geometry[c]; ok {
		return g
	}
	return certpdf.DefaultGeometry(c)
}

// Render runs the full pipeline for req and returns the PDF bytes. On any
// failure the returned slice is nil and the error is an *Error.
func (r *Renderer) Render(ctx context.Context, req certpdf.Request) ([]byte, error) {
	log := r.cfg.log.With(
		zap.Stringer("category", req.Category),
		zap.String("certificate_ref", req.CertificateRef),
	)
	out, err := r.render(ctx, req, log)
	if err != nil {
		var re *Error
		stage := Failed
		if errors.As(err, &re) {
			stage = re.Stage
		}
		log.Warn("certificate render failed", zap.Stringer("stage", stage), zap.Error(err))
		return nil, err
	}
	log.Debug("certificate rendered", zap.Int("bytes", len(out)))
	return out, nil
}

// RenderResult is Render folded into a Result value.
func (r *Renderer) RenderResult(ctx context.Context, req certpdf.Request) Result {
	out, err := r.Render(ctx, req)
	if err != nil {
		return Result{Err: err}
	}
	return Result{Success: true, Bytes: out}
}

func (r *Renderer) render(ctx context.Context, req certpdf.Request, log *zap.Logger) ([]byte, error) {
	log.Debug("render stage", zap.Stringer("stage", Validating))
	req, g, err := r.validate(req)
	if err != nil {
		return nil, &Error{Stage: Validating, Err: err}
	}

	// Wording is derived inside the planner; nothing here can fail.
	log.Debug("render stage", zap.Stringer("stage", Generating))

	log.Debug("render stage", zap.Stringer("stage", TemplateLoading))
	if r.loader == nil {
		return nil, &Error{Stage: TemplateLoading, Err: fmt.Errorf("%w: no template loader configured", certpdf.ErrTemplateNotFound)}
	}
	tpl, err := r.loader.Load(ctx, req.Category)
	if err != nil {
		if !errors.Is(err, certpdf.ErrTemplateNotFound) {
			err = fmt.Errorf("%w: %v", certpdf.ErrTemplateNotFound, err)
		}
		return nil, &Error{Stage: TemplateLoading, Err: err}
	}

	return r.compose(req, g, tpl, log)
}

// validate sanitizes the patient name and resolves the geometry.
func (r *Renderer) validate(req certpdf.Request) (certpdf.Request, certpdf.Geometry, error) {
	if !req.Category.Valid() {
		return req, certpdf.Geometry{}, fmt.Errorf("%w: unknown certificate category %d", certpdf.ErrInvalidInput, int(req.Category))
	}
	name, err := certpdf.SanitizeName(req.PatientName)
	if err != nil {
		return req, certpdf.Geometry{}, err
	}
	req.PatientName = name
	g := r.Geometry(req.Category)
	if err := g.Validate(); err != nil {
		return req, g, err
	}
	if err := r.checkPrintable(req, g); err != nil {
		return req, g, err
	}
	if r.cfg.verify != nil {
		if err := r.cfg.verify.Validate(); err != nil {
			return req, g, fmt.Errorf("%w: %v", certpdf.ErrInvalidInput, err)
		}
	}
	return req, g, nil
}

type printedText struct {
	name  string
	value string
	font  certpdf.Font
}

// checkPrintable rejects request text that a core font would draw with
// substituted glyphs. Text set in a registered TrueType font is not checked.
func (r *Renderer) checkPrintable(req certpdf.Request, g certpdf.Geometry) error {
	fields := []printedText{
		{"patient name", req.PatientName, g.BodyFont},
		{"consultation date", req.ConsultationDate, g.BodyFont},
		{"start date", req.StartDate, g.BodyFont},
		{"end date", req.EndDate, g.BodyFont},
		{"issue date", req.IssueDate, g.BodyFont},
		{"certificate reference", req.CertificateRef, g.ReferenceFont},
	}
	if r.cfg.watermark != nil {
		fields = append(fields, printedText{"watermark", r.cfg.watermark.Text, watermarkFont})
	}
	for _, f := range fields {
		if metrics.Registered(r.cfg.fonts, f.font.Family, f.font.Style) {
			continue
		}
		if c, bad := metrics.Unprintable(f.value); bad {
			return fmt.Errorf("%w: %s contains %q (U+%04X), which %s cannot print; register a TrueType font with WithFont",
				certpdf.ErrUnprintable, f.name, c, c, f.font.Family)
		}
	}
	return nil
}

// compose covers Drawing, GuardChecking and Serializing. A panic raised by
// the PDF libraries is reported as ErrRender and never as partial output.
func (r *Renderer) compose(req certpdf.Request, g certpdf.Geometry, tpl []byte, log *zap.Logger) (out []byte, err error) {
	stage := Drawing
	defer func() {
		if p := recover(); p != nil {
			out = nil
			err = &Error{Stage: stage, Err: fmt.Errorf("%w: %v", certpdf.ErrRender, p)}
		}
	}()

	log.Debug("render stage", zap.Stringer("stage", Drawing))
	box, err := inspectTemplate(tpl)
	if err != nil {
		return nil, &Error{Stage: Drawing, Err: fmt.Errorf("%w: %v", certpdf.ErrRender, err)}
	}
	if math.Abs(box.Width()-g.Page.Width) > pageSizeTolerance || math.Abs(box.Height()-g.Page.Height) > pageSizeTolerance {
		log.Warn("template page size differs from geometry; scaling template to fit",
			zap.Float64("template_width", box.Width()),
			zap.Float64("template_height", box.Height()),
			zap.Float64("page_width", g.Page.Width),
			zap.Float64("page_height", g.Page.Height))
	}

	doc := newPage(g.Page, &r.cfg)
	doc.setMetadata(r.cfg.title, req)
	if err := doc.importTemplate(tpl); err != nil {
		return nil, &Error{Stage: Drawing, Err: fmt.Errorf("%w: %v", certpdf.ErrRender, err)}
	}

	plan, err := certpdf.PlanLayout(req, g, doc.measure)
	if err != nil {
		if errors.Is(err, certpdf.ErrBodyTooLong) {
			return nil, &Error{Stage: GuardChecking, Err: err}
		}
		return nil, &Error{Stage: Drawing, Err: err}
	}
	if err := doc.measure.Err(); err != nil {
		return nil, &Error{Stage: Drawing, Err: fmt.Errorf("%w: measuring text: %v", certpdf.ErrRender, err)}
	}
	log.Debug("render stage",
		zap.Stringer("stage", GuardChecking),
		zap.Float64("cursor_y", plan.CursorY),
		zap.Float64("max_y", g.MaxY))

	doc.drawPlan(plan)
	if r.cfg.verify != nil {
		box := g.VerificationBox
		if err := doc.drawVerificationCode(*r.cfg.verify, req.CertificateRef, box.X, box.Y, box.W, box.H); err != nil {
			return nil, &Error{Stage: Drawing, Err: fmt.Errorf("%w: %v", certpdf.ErrRender, err)}
		}
	}
	if r.cfg.watermark != nil {
		doc.drawWatermark(*r.cfg.watermark)
	}

	stage = Serializing
	log.Debug("render stage", zap.Stringer("stage", Serializing))
	out, err = doc.output()
	if err != nil {
		return nil, &Error{Stage: Serializing, Err: fmt.Errorf("%w: %v", certpdf.ErrRender, err)}
	}
	return out, nil
}

// Plan validates req and lays it out without loading a template. Text is
// measured with the same fonts Render would use.
func (r *Renderer) Plan(req certpdf.Request) (*certpdf.Plan, error) {
	req, g, err := r.validate(req)
	if err != nil {
		return nil, &Error{Stage: Validating, Err: err}
	}
	m := metrics.NewPDF(gofpdf.New("P", "pt", "A4", ""), r.cfg.fonts...)
	plan, err := certpdf.PlanLayout(req, g, m)
	if err != nil {
		stage := Drawing
		if errors.Is(err, certpdf.ErrBodyTooLong) {
			stage = GuardChecking
		}
		return nil, &Error{Stage: stage, Err: err}
	}
	if err := m.Err(); err != nil {
		return nil, &Error{Stage: Drawing, Err: fmt.Errorf("%w: measuring text: %v", certpdf.ErrRender, err)}
	}
	return plan, nil
}
