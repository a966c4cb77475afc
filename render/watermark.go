package render

import "github.com/lvillar/certpdf"

// Watermark is a translucent diagonal text overlay, used to mark specimen
// or draft certificates.
type Watermark struct {
	Text     string        // watermark text, e.g. "SPECIMEN"
	FontSize float64       // font size in points (default: 72)
	Color    certpdf.Color // text color (default: light gray)
	Opacity  float64       // 0.0 to 1.0 (default: 0.25)
	Angle    float64       // rotation angle in degrees (default: 45)
}

func (wm Watermark) withDefaults() Watermark {
	if wm.FontSize == 0 {
		wm.FontSize = 72
	}
	if wm.Opacity == 0 {
		wm.Opacity = 0.25
	}
	if wm.Angle == 0 {
		wm.Angle = 45
	}
	if wm.Color == (certpdf.Color{}) {
		wm.Color = certpdf.Color{R: 200, G: 200, B: 200}
	}
	return wm
}

// watermarkFont is the face of every watermark; Size is set per watermark.
var watermarkFont = certpdf.Font{Family: "Helvetica", Style: "B"}

// drawWatermark renders the watermark text centered on the page.
func (d *document) drawWatermark(wm Watermark) {
	if wm.Text == "" {
		return
	}
	wm = wm.withDefaults()
	font := watermarkFont
	font.Size = wm.FontSize
	text := d.measure.Encode(wm.Text, font)

	d.pdf.SetFont(font.Family, font.Style, font.Size)
	d.pdf.SetTextColor(wm.Color.R, wm.Color.G, wm.Color.B)
	d.pdf.SetAlpha(wm.Opacity, "Normal")

	textW := d.pdf.GetStringWidth(text)
	cx := d.page.Width / 2
	cy := d.page.Height / 2

	d.pdf.TransformBegin()
	d.pdf.TransformRotate(wm.Angle, cx, cy)
	d.pdf.Text(cx-textW/2, cy+wm.FontSize/3, text)
	d.pdf.TransformEnd()

	d.pdf.SetAlpha(1.0, "Normal")
	d.pdf.SetTextColor(0, 0, 0)
}
