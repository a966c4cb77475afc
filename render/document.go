package render

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/jung-kurt/gofpdf/contrib/gofpdi"

	"github.com/lvillar/certpdf"
	"github.com/lvillar/certpdf/internal/pdfdoc"
	"github.com/lvillar/certpdf/metrics"
)

// document is a single-page PDF whose background is the imported template.
// gofpdf positions text from the top edge, so instructions arriving in page
// space are flipped back with the same Page.ToPageY transform.
type document struct {
	pdf     *gofpdf.Fpdf
	page    certpdf.Page
	measure *metrics.PDF
}

// newPage creates the output document sized to page with the configured
// fonts and metadata, but without a background.
func newPage(page certpdf.Page, cfg *config) *document {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: page.Width, Ht: page.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(cfg.compress)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(cfg.created)
	pdf.SetCreator("certpdf", true)

	d := &document{
		pdf:     pdf,
		page:    page,
		measure: metrics.NewPDF(pdf, cfg.fonts...),
	}
	pdf.AddPage()
	return d
}

// inspectTemplate checks that tpl is a readable PDF with at least one page
// and returns the size of its first page.
func inspectTemplate(tpl []byte) (pdfdoc.Rectangle, error) {
	doc, err := pdfdoc.Parse(tpl)
	if err != nil {
		return pdfdoc.Rectangle{}, fmt.Errorf("template is not a readable PDF: %w", err)
	}
	first, err := doc.Page(1)
	if err != nil {
		return pdfdoc.Rectangle{}, fmt.Errorf("template has no pages: %w", err)
	}
	return first.MediaBox, nil
}

// importTemplate draws page 1 of tpl scaled to the full page.
func (d *document) importTemplate(tpl []byte) error {
	imp := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(tpl))
	tplID := imp.ImportPageFromStream(d.pdf, &rs, 1, "/MediaBox")
	imp.UseImportedTemplate(d.pdf, tplID, 0, 0, d.page.Width, d.page.Height)
	if d.pdf.Err() {
		return fmt.Errorf("importing template: %w", d.pdf.Error())
	}
	return nil
}

// setMetadata records title and subject in the document information
// dictionary.
func (d *document) setMetadata(title string, req certpdf.Request) {
	d.pdf.SetTitle(title, true)
	if req.CertificateRef != "" {
		d.pdf.SetSubject(fmt.Sprintf("%s certificate %s", req.Category, req.CertificateRef), true)
	}
}

// drawPlan writes every instruction of plan onto the page.
func (d *document) drawPlan(plan *certpdf.Plan) {
	for _, in := range plan.Instructions {
		d.pdf.SetFont(in.Font.Family, in.Font.Style, in.Font.Size)
		d.pdf.SetTextColor(in.Color.R, in.Color.G, in.Color.B)
		d.pdf.Text(in.X, d.page.ToPageY(in.Y), d.measure.Encode(in.Text, in.Font))
	}
	d.pdf.SetTextColor(0, 0, 0)
}

// output serializes the document in canonical object order. gofpdf writes
// imported template objects in map order, so its raw output differs from
// run to run.
func (d *document) output() ([]byte, error) {
	if d.pdf.Err() {
		return nil, d.pdf.Error()
	}
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, err
	}
	out, err := pdfdoc.Canonicalize(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("canonicalizing output: %w", err)
	}
	return out, nil
}
