package certpdf

import "fmt"

// Instruction draws one line of text with its baseline origin at X, Y in
// PDF user space (bottom-left origin).
type Instruction struct {
	Text  string  `json:"text"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Font  Font    `json:"font"`
	Color Color   `json:"color"`
}

// Plan is the ordered list of draw instructions for one certificate.
type Plan struct {
	Page         Page          `json:"page"`
	Instructions []Instruction `json:"instructions"`
	// CursorY is the design-space cursor after the closing paragraph.
	CursorY float64 `json:"cursorY"`
}

// PlanLayout flows the certificate text down the page starting at the
// paragraph anchor. The overflow guard runs after the opening paragraph and
// again after the closing paragraph; either trip returns an *OverflowError
// and no plan.
//
// The request is expected to be sanitized already.
func PlanLayout(req Request, g Geometry, m Measurer) (*Plan, error) {
	if !req.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown certificate category %d", ErrInvalidInput, int(req.Category))
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	p := &planner{plan: &Plan{Page: g.Page}, g: g, m: m}

	issueW := m.StringWidth(req.IssueDate, g.BodyFont)
	p.put(req.IssueDate, g.Page.Width-g.RightMargin-issueW, g.IssueDateY, g.BodyFont, g.BodyColor)

	cursor := g.ParagraphAnchorY
	p.put(Salutation, g.LeftMargin, cursor, g.BodyFont, g.BodyColor)
	cursor += g.LineHeight + g.BodyGap

	cursor = p.paragraph(BodyText(req), cursor)
	cursor += g.ParagraphGap
	if err := Guard(cursor, g.MaxY); err != nil {
		return nil, err
	}

	cursor = p.paragraph(ReturnText(req), cursor)
	if err := Guard(cursor, g.MaxY); err != nil {
		return nil, err
	}

	if req.CertificateRef != "" {
		ref := "Certificate ID: " + req.CertificateRef
		refW := m.StringWidth(ref, g.ReferenceFont)
		p.put(ref, (g.Page.Width-refW)/2, g.ReferenceY, g.ReferenceFont, g.ReferenceColor)
	}

	p.plan.CursorY = cursor
	return p.plan, nil
}

type planner struct {
	plan *Plan
	g    Geometry
	m    Measurer
}

// put appends a line positioned in design coordinates.
func (p *planner) put(text string, x, designY float64, f Font, c Color) {
	p.plan.Instructions = append(p.plan.Instructions, Instruction{
		Text:  text,
		X:     x,
		Y:     p.g.Page.ToPageY(designY),
		Font:  f,
		Color: c,
	})
}

// paragraph wraps text into the body column and returns the advanced cursor.
func (p *planner) paragraph(text string, cursor float64) float64 {
	for _, line := range Wrap(text, p.g.BodyFont, p.g.MaxWidth, p.m) {
		p.put(line, p.g.LeftMargin, cursor, p.g.BodyFont, p.g.BodyColor)
		cursor += p.g.LineHeight
	}
	return cursor
}
