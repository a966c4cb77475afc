package pdfdoc

import (
	"fmt"
	"strconv"
)

// trailerKeys are the trailer entries carried into canonical output.
var trailerKeys = []Name{"ID", "Info", "Root"}

// Canonicalize rewrites a PDF file so that its bytes depend only on its
// object graph. Objects reachable from the trailer are renumbered
// breadth-first, visiting dictionary keys in byte order, and written with
// sorted keys and a fresh cross-reference table. Unreachable objects are
// dropped. Stream data is copied unchanged.
//
// Two files that differ only in object numbering or order, as produced by
// writers that emit objects from Go maps, canonicalize to the same bytes.
func Canonicalize(data []byte) ([]byte, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}

	trailer := make(Dict, len(trailerKeys))
	for _, k := range trailerKeys {
		if v, ok := doc.trailer[k]; ok {
			trailer[k] = v
		}
	}
	if _, ok := trailer["Root"]; !ok {
		return nil, fmt.Errorf("pdfdoc: trailer has no /Root")
	}

	renumber := make(map[int]int)
	var order []int
	values := make(map[int]Object)

	enqueue := func(obj Object) {
		walkRefs(obj, func(ref Reference) {
			if _, ok := renumber[ref.Number]; ok {
				return
			}
			if e, ok := doc.xref[ref.Number]; !ok || !e.InUse {
				return
			}
			renumber[ref.Number] = len(order) + 1
			order = append(order, ref.Number)
		})
	}

	enqueue(trailer)
	for i := 0; i < len(order); i++ {
		num := order[i]
		v, err := doc.object(num)
		if err != nil {
			return nil, err
		}
		values[num] = v
		enqueue(v)
	}

	out := make([]byte, 0, len(data))
	out = append(out, "%PDF-"+doc.Version+"\n"...)

	offsets := make([]int, len(order))
	for i, num := range order {
		offsets[i] = len(out)
		out = strconv.AppendInt(out, int64(i+1), 10)
		out = append(out, " 0 obj\n"...)
		out = appendObject(out, values[num], renumber)
		out = append(out, "\nendobj\n"...)
	}

	xrefAt := len(out)
	out = append(out, "xref\n0 "...)
	out = strconv.AppendInt(out, int64(len(order)+1), 10)
	out = append(out, "\n0000000000 65535 f \n"...)
	for _, off := range offsets {
		out = append(out, fmt.Sprintf("%010d 00000 n \n", off)...)
	}

	trailer["Size"] = Integer(len(order) + 1)
	out = append(out, "trailer\n"...)
	out = appendObject(out, trailer, renumber)
	out = append(out, "\nstartxref\n"...)
	out = strconv.AppendInt(out, int64(xrefAt), 10)
	out = append(out, "\n%%EOF\n"...)
	return out, nil
}

// walkRefs calls fn for every reference inside obj in canonical order.
func walkRefs(obj Object, fn func(Reference)) {
	switch v := obj.(type) {
	case Reference:
		fn(v)
	case Array:
		for _, item := range v {
			walkRefs(item, fn)
		}
	case Dict:
		for _, k := range v.sortedKeys() {
			walkRefs(v[k], fn)
		}
	case Stream:
		walkRefs(v.Dict, fn)
	}
}
