package metrics

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"

	"github.com/lvillar/certpdf"
)

// TrueType measures strings with parsed OpenType/TrueType fonts at 72 DPI,
// so one pixel equals one point. It is safe for concurrent use.
type TrueType struct {
	mu    sync.Mutex
	fonts map[string]*opentype.Font
	faces map[faceKey]font.Face
	err   error
}

type faceKey struct {
	font string
	size float64
}

// NewTrueType returns an empty TrueType measurer.
func NewTrueType() *TrueType {
	return &TrueType{
		fonts: make(map[string]*opentype.Font),
		faces: make(map[faceKey]font.Face),
	}
}

// Add parses data and registers it under family/style.
func (t *TrueType) Add(family, style string, data []byte) error {
	parsed, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("metrics: parsing %s %s: %w", family, style, err)
	}
	t.mu.Lock()
	t.fonts[fontKey(family, style)] = parsed
	t.mu.Unlock()
	return nil
}

// StringWidth implements certpdf.Measurer. Unregistered fonts measure as 0
// and are reported by Err.
func (t *TrueType) StringWidth(s string, f certpdf.Font) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	face, err := t.face(f)
	if err != nil {
		if t.err == nil {
			t.err = err
		}
		return 0
	}
	adv := font.MeasureString(face, s)
	return float64(adv) / 64
}

// Err returns the first lookup or face construction error.
func (t *TrueType) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *TrueType) face(f certpdf.Font) (font.Face, error) {
	name := fontKey(f.Family, f.Style)
	key := faceKey{font: name, size: f.Size}
	if face, ok := t.faces[key]; ok {
		return face, nil
	}
	parsed, ok := t.fonts[name]
	if !ok {
		return nil, fmt.Errorf("metrics: font %q style %q not registered", f.Family, f.Style)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    f.Size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("metrics: face %s at %.1fpt: %w", name, f.Size, err)
	}
	t.faces[key] = face
	return face, nil
}
