package certpdf

import "strings"

// Font identifies a face by its PDF family name and style at a point size.
type Font struct {
	Family string  `json:"family" yaml:"family"` // Helvetica, Times, Courier or a registered TTF family
	Style  string  `json:"style" yaml:"style"`   // "", "B", "I" or "BI"
	Size   float64 `json:"size" yaml:"size"`     // points
}

// Measurer returns the advance width of s, in points, when set in f.
type Measurer interface {
	StringWidth(s string, f Font) float64
}

// MeasurerFunc adapts a plain function to the Measurer interface.
type MeasurerFunc func(s string, f Font) float64

// StringWidth calls fn(s, f).
func (fn MeasurerFunc) StringWidth(s string, f Font) float64 {
	return fn(s, f)
}

// Wrap greedily packs the whitespace-separated words of text into lines no
// wider than maxWidth. A word that is wider than maxWidth on its own is put
// on a line by itself and never broken.
func Wrap(text string, f Font, maxWidth float64, m Measurer) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	line := words[0]
	for _, word := range words[1:] {
		candidate := line + " " + word
		if m.StringWidth(candidate, f) > maxWidth {
			lines = append(lines, line)
			line = word
			continue
		}
		line = candidate
	}
	return append(lines, line)
}
