// Package metrics provides certpdf.Measurer implementations.
//
// PDF measures with the same font tables the gofpdf document uses to draw,
// so a plan measured with it lands exactly where the renderer puts it.
// TrueType measures straight from an OpenType/TrueType file with
// golang.org/x/image and needs no PDF document at all.
package metrics

import (
	"strings"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/lvillar/certpdf"
)

// TTF is a TrueType font to register with a document under Family/Style.
type TTF struct {
	Family string
	Style  string
	Data   []byte
}

// PDF measures strings with a gofpdf document's font metrics. Core fonts
// (Helvetica, Times, Courier) are measured after translating UTF-8 to
// cp1252, the encoding they are drawn in. A PDF is not safe for concurrent
// use.
type PDF struct {
	pdf       *gofpdf.Fpdf
	translate func(string) string
	utf8      map[string]bool
}

// CoreFonts returns a measurer for the standard PDF fonts backed by a
// private scratch document.
func CoreFonts() *PDF {
	return NewPDF(gofpdf.New("P", "pt", "A4", ""))
}

// NewPDF wraps pdf and registers fonts as UTF-8 TrueType families on it.
// Measuring changes the document's current font.
func NewPDF(pdf *gofpdf.Fpdf, fonts ...TTF) *PDF {
	m := &PDF{
		pdf:       pdf,
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
		utf8:      make(map[string]bool),
	}
	if m.translate == nil {
		m.translate = func(s string) string { return s }
	}
	for _, f := range fonts {
		pdf.AddUTF8FontFromBytes(f.Family, f.Style, f.Data)
		m.utf8[fontKey(f.Family, f.Style)] = true
	}
	return m
}

// Registered reports whether family/style is one of fonts.
func Registered(fonts []TTF, family, style string) bool {
	key := fontKey(family, style)
	for _, f := range fonts {
		if fontKey(f.Family, f.Style) == key {
			return true
		}
	}
	return false
}

// Unprintable returns the first rune of s that has no cp1252 code. Core
// fonts are drawn in cp1252 and gofpdf replaces such runes with '.'.
func Unprintable(s string) (rune, bool) {
	for _, r := range s {
		if _, ok := charmap.Windows1252.EncodeRune(r); !ok {
			return r, true
		}
	}
	return 0, false
}

// IsUTF8 reports whether family/style was registered as a TrueType font.
func (m *PDF) IsUTF8(family, style string) bool {
	return m.utf8[fontKey(family, style)]
}

// Encode converts s to the byte encoding the font expects.
func (m *PDF) Encode(s string, f certpdf.Font) string {
	if m.IsUTF8(f.Family, f.Style) {
		return s
	}
	return m.translate(s)
}

// StringWidth implements certpdf.Measurer. Once the document is in an
// error state every width is 0; check Err after measuring.
func (m *PDF) StringWidth(s string, f certpdf.Font) float64 {
	if m.pdf.Err() {
		return 0
	}
	m.pdf.SetFont(f.Family, f.Style, f.Size)
	if m.pdf.Err() {
		return 0
	}
	return m.pdf.GetStringWidth(m.Encode(s, f))
}

// Err returns the first error raised by the underlying document.
func (m *PDF) Err() error {
	return m.pdf.Error()
}

func fontKey(family, style string) string {
	return strings.ToLower(family) + "/" + strings.ToUpper(style)
}
