package certpdf

import "fmt"

// A4 page dimensions in points.
const (
	A4Width  = 595.28
	A4Height = 841.89
)

// Page is the drawing surface in points.
type Page struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// ToPageY converts a design Y (origin at the top-left corner, growing
// downwards) into PDF user space (origin at the bottom-left corner, growing
// upwards). The transform is its own inverse.
func (p Page) ToPageY(designY float64) float64 {
	return p.Height - designY
}

// Color is an RGB color with 0-255 components.
type Color struct {
	R int `json:"r" yaml:"r"`
	G int `json:"g" yaml:"g"`
	B int `json:"b" yaml:"b"`
}

// Black is the default body text color.
var Black = Color{}

// Rect is a box in design coordinates.
type Rect struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	W float64 `json:"w" yaml:"w"`
	H float64 `json:"h" yaml:"h"`
}

// Geometry holds the fixed anchors of one certificate family. All Y values
// are design coordinates measured from the top of the page to the text
// baseline. A Geometry is treated as immutable once handed to the planner.
type Geometry struct {
	Page Page `json:"page" yaml:"page"`

	IssueDateY  float64 `json:"issueDateY" yaml:"issueDateY"`
	RightMargin float64 `json:"rightMargin" yaml:"rightMargin"`

	ParagraphAnchorY float64 `json:"paragraphAnchorY" yaml:"paragraphAnchorY"`
	LeftMargin       float64 `json:"leftMargin" yaml:"leftMargin"`
	MaxWidth         float64 `json:"maxWidth" yaml:"maxWidth"`
	LineHeight       float64 `json:"lineHeight" yaml:"lineHeight"`
	BodyGap          float64 `json:"bodyGap" yaml:"bodyGap"`
	ParagraphGap     float64 `json:"paragraphGap" yaml:"paragraphGap"`

	// MaxY is the top edge of the signature/doctor block.
	MaxY float64 `json:"maxY" yaml:"maxY"`

	// ReferenceY places the certificate reference between the template's
	// divider and footer.
	ReferenceY float64 `json:"referenceY" yaml:"referenceY"`

	BodyFont       Font  `json:"bodyFont" yaml:"bodyFont"`
	ReferenceFont  Font  `json:"referenceFont" yaml:"referenceFont"`
	BodyColor      Color `json:"bodyColor" yaml:"bodyColor"`
	ReferenceColor Color `json:"referenceColor" yaml:"referenceColor"`

	// VerificationBox is where an optional verification code is drawn.
	VerificationBox Rect `json:"verificationBox" yaml:"verificationBox"`
}

// DefaultGeometry returns the anchors of the stock A4 templates. The study
// template carries a taller signature block and therefore less body room.
func DefaultGeometry(c Category) Geometry {
	g := Geometry{
		Page:             Page{Width: A4Width, Height: A4Height},
		IssueDateY:       190,
		RightMargin:      56,
		ParagraphAnchorY: 250,
		LeftMargin:       56,
		MaxWidth:         483,
		LineHeight:       17,
		BodyGap:          10,
		ParagraphGap:     14,
		MaxY:             560,
		ReferenceY:       770,
		BodyFont:         Font{Family: "Helvetica", Size: 11},
		ReferenceFont:    Font{Family: "Helvetica", Size: 8},
		BodyColor:        Black,
		ReferenceColor:   Color{R: 110, G: 110, B: 110},
		VerificationBox:  Rect{X: 56, Y: 640, W: 64, H: 64},
	}
	if c == Study {
		g.MaxY = 520
	}
	return g
}

// Validate reports anchors that cannot produce a sensible page.
func (g Geometry) Validate() error {
	switch {
	case g.Page.Width <= 0 || g.Page.Height <= 0:
		return fmt.Errorf("%w: page size %.2fx%.2f", ErrInvalidInput, g.Page.Width, g.Page.Height)
	case g.MaxWidth <= 0:
		return fmt.Errorf("%w: max text width %.2f", ErrInvalidInput, g.MaxWidth)
	case g.LineHeight <= 0:
		return fmt.Errorf("%w: line height %.2f", ErrInvalidInput, g.LineHeight)
	case g.BodyFont.Size <= 0 || g.ReferenceFont.Size <= 0:
		return fmt.Errorf("%w: font sizes must be positive", ErrInvalidInput)
	case g.LeftMargin+g.MaxWidth > g.Page.Width:
		return fmt.Errorf("%w: text column ends past the right edge", ErrInvalidInput)
	case g.ParagraphAnchorY >= g.MaxY:
		return fmt.Errorf("%w: paragraph anchor %.2f is below max Y %.2f", ErrInvalidInput, g.ParagraphAnchorY, g.MaxY)
	case g.MaxY > g.Page.Height:
		return fmt.Errorf("%w: max Y %.2f is off the page", ErrInvalidInput, g.MaxY)
	}
	return nil
}
