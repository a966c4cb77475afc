package pdfdoc

import "fmt"

// Rectangle is a PDF rectangle [llx lly urx ury] in points.
type Rectangle struct {
	LLX, LLY, URX, URY float64
}

// Width returns the horizontal extent of r.
func (r Rectangle) Width() float64 { return r.URX - r.LLX }

// Height returns the vertical extent of r.
func (r Rectangle) Height() float64 { return r.URY - r.LLY }

// Page is one leaf of the page tree.
type Page struct {
	Number    int
	MediaBox  Rectangle
	Resources Dict
	Contents  []Stream
}

// maxTreeDepth bounds page tree recursion on malformed files.
const maxTreeDepth = 64

func (d *Document) loadPages() error {
	root, ok := d.Resolve(d.trailer["Root"]).(Dict)
	if !ok {
		return fmt.Errorf("pdfdoc: missing document catalog")
	}
	tree, ok := d.Resolve(root["Pages"]).(Dict)
	if !ok {
		return fmt.Errorf("pdfdoc: missing page tree")
	}
	d.pages = nil
	return d.walkPages(tree, Dict{}, 0)
}

// walkPages collects leaves in order. MediaBox and Resources inherit down
// the tree.
func (d *Document) walkPages(node, inherited Dict, depth int) error {
	if depth > maxTreeDepth {
		return fmt.Errorf("pdfdoc: page tree deeper than %d", maxTreeDepth)
	}
	attrs := make(Dict, len(inherited))
	for k, v := range inherited {
		attrs[k] = v
	}
	for _, k := range []Name{"MediaBox", "Resources"} {
		if v, ok := node[k]; ok {
			attrs[k] = v
		}
	}

	if node.Name("Type") == "Page" || node["Kids"] == nil {
		page := &Page{Number: len(d.pages) + 1}
		if rect, ok := d.rectangle(attrs["MediaBox"]); ok {
			page.MediaBox = rect
		}
		page.Resources, _ = d.Resolve(attrs["Resources"]).(Dict)
		switch c := d.Resolve(node["Contents"]).(type) {
		case Stream:
			page.Contents = []Stream{c}
		case Array:
			for _, item := range c {
				if s, ok := d.Resolve(item).(Stream); ok {
					page.Contents = append(page.Contents, s)
				}
			}
		}
		d.pages = append(d.pages, page)
		return nil
	}

	kids, _ := d.Resolve(node["Kids"]).(Array)
	for _, kid := range kids {
		child, ok := d.Resolve(kid).(Dict)
		if !ok {
			continue
		}
		if err := d.walkPages(child, attrs, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) rectangle(obj Object) (Rectangle, bool) {
	arr, ok := d.Resolve(obj).(Array)
	if !ok || len(arr) != 4 {
		return Rectangle{}, false
	}
	var v [4]float64
	for i, item := range arr {
		n, ok := number(d.Resolve(item))
		if !ok {
			return Rectangle{}, false
		}
		v[i] = n
	}
	return Rectangle{LLX: v[0], LLY: v[1], URX: v[2], URY: v[3]}, true
}

// ContentStream returns the decoded, concatenated content streams of p.
func (p *Page) ContentStream() ([]byte, error) {
	var out []byte
	for _, s := range p.Contents {
		data, err := decodeStream(s)
		if err != nil {
			return nil, fmt.Errorf("pdfdoc: page %d content: %w", p.Number, err)
		}
		out = append(out, data...)
		out = append(out, '\n')
	}
	return out, nil
}
