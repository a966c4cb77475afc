// Package certpdf lays out and validates the body of a certified medical
// document (work, study or carer's leave certificate) that is later drawn on
// top of a pre-designed page template.
//
// The root package holds the pure parts of the engine: input sanitizing,
// wording, word wrapping, the coordinate transform, the layout planner and
// the overflow guard. Template retrieval lives in package templates and the
// PDF pipeline that ties everything together lives in package render.
//
// Example:
//
//	req := certpdf.Request{
//	    Category:         certpdf.Work,
//	    PatientName:      "John Smith",
//	    ConsultationDate: "18 February 2026",
//	    StartDate:        "18 February 2026",
//	    EndDate:          "18 February 2026",
//	    CertificateRef:   "MC-2026-000123",
//	    IssueDate:        "18 February 2026",
//	}
//	plan, err := certpdf.PlanLayout(req, certpdf.DefaultGeometry(req.Category), metrics.CoreFonts())
package certpdf

import (
	"fmt"
	"strings"
)

// Category selects the template, the statement wording and the closing
// wording of a certificate.
type Category int

const (
	Work Category = iota
	Study
	Carer
)

// Categories lists every certificate category in declaration order.
var Categories = []Category{Work, Study, Carer}

func (c Category) String() string {
	switch c {
	case Work:
		return "work"
	case Study:
		return "study"
	case Carer:
		return "carer"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Valid reports whether c is one of the declared categories.
func (c Category) Valid() bool {
	return c >= Work && c <= Carer
}

// ParseCategory maps "work", "study" or "carer" (any case) to a Category.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "work":
		return Work, nil
	case "study":
		return Study, nil
	case "carer":
		return Carer, nil
	}
	return 0, fmt.Errorf("%w: unknown certificate category %q", ErrInvalidInput, s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: unknown certificate category %d", ErrInvalidInput, int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Request is the fully determined input of a single render. All dates are
// display strings formatted upstream.
type Request struct {
	Category         Category `json:"category"`
	PatientName      string   `json:"patientName"`
	ConsultationDate string   `json:"consultationDate"`
	StartDate        string   `json:"startDate"`
	EndDate          string   `json:"endDate"`
	CertificateRef   string   `json:"certificateRef"`
	IssueDate        string   `json:"issueDate"`
}

// SingleDay reports whether the certificate covers one day. The comparison
// is on the display strings, not on calendar dates.
func (r Request) SingleDay() bool {
	return r.StartDate == r.EndDate
}
