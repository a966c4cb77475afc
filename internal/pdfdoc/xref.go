package pdfdoc

import (
	"bytes"
	"fmt"
	"strconv"
)

// xrefEntry locates one object. For an object stored inside an object
// stream, Offset is unused and Stream/Index locate it.
type xrefEntry struct {
	Offset     int64
	Generation int
	InUse      bool
	Stream     int
	Index      int
}

type xrefTable map[int]xrefEntry

// startXRef returns the offset recorded after the last "startxref".
func startXRef(data []byte) (int64, error) {
	tail := data[max(0, len(data)-1024):]
	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx < 0 {
		return 0, fmt.Errorf("pdfdoc: startxref not found")
	}
	p := newParser(tail[idx+len("startxref"):])
	tok := p.token()
	off, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("pdfdoc: invalid startxref offset %q", tok)
	}
	return off, nil
}

// readXRef reads the cross-reference section at offset and every section it
// chains to through /Prev. Newer entries win. The returned trailer is the
// newest one.
func readXRef(data []byte, offset int64) (xrefTable, Dict, error) {
	table := make(xrefTable)
	var trailer Dict
	seen := make(map[int64]bool)

	for offset >= 0 {
		if seen[offset] {
			return nil, nil, fmt.Errorf("pdfdoc: xref loop at offset %d", offset)
		}
		seen[offset] = true
		if offset >= int64(len(data)) {
			return nil, nil, fmt.Errorf("pdfdoc: xref offset %d out of bounds", offset)
		}

		section, tr, err := readXRefSection(data, offset)
		if err != nil {
			return nil, nil, err
		}
		for num, e := range section {
			if _, ok := table[num]; !ok {
				table[num] = e
			}
		}
		if trailer == nil {
			trailer = tr
		}

		prev, ok := tr.Int("Prev")
		if !ok {
			break
		}
		offset = prev
	}
	return table, trailer, nil
}

func readXRefSection(data []byte, offset int64) (xrefTable, Dict, error) {
	p := newParser(data[offset:])
	if p.token() != "xref" {
		return readXRefStream(data, offset)
	}

	table := make(xrefTable)
	for {
		p.skipSpace()
		if p.hasPrefix("trailer") {
			p.pos += len("trailer")
			break
		}
		first, err1 := strconv.Atoi(p.token())
		count, err2 := strconv.Atoi(p.token())
		if err1 != nil || err2 != nil {
			return nil, nil, fmt.Errorf("pdfdoc: malformed xref subsection at offset %d", offset)
		}
		for i := 0; i < count; i++ {
			off, err1 := strconv.ParseInt(p.token(), 10, 64)
			gen, err2 := strconv.Atoi(p.token())
			kind := p.token()
			if err1 != nil || err2 != nil {
				return nil, nil, fmt.Errorf("pdfdoc: malformed xref entry %d", first+i)
			}
			if _, ok := table[first+i]; !ok {
				table[first+i] = xrefEntry{Offset: off, Generation: gen, InUse: kind == "n"}
			}
		}
	}

	obj, err := p.object()
	if err != nil {
		return nil, nil, fmt.Errorf("pdfdoc: trailer: %w", err)
	}
	trailer, ok := obj.(Dict)
	if !ok {
		return nil, nil, fmt.Errorf("pdfdoc: trailer is not a dictionary")
	}
	return table, trailer, nil
}

// readXRefStream reads a PDF 1.5 cross-reference stream.
func readXRefStream(data []byte, offset int64) (xrefTable, Dict, error) {
	_, obj, err := newParser(data[offset:]).indirect()
	if err != nil {
		return nil, nil, fmt.Errorf("pdfdoc: xref stream: %w", err)
	}
	stream, ok := obj.(Stream)
	if !ok {
		return nil, nil, fmt.Errorf("pdfdoc: xref stream is not a stream")
	}
	raw, err := decodeStream(stream)
	if err != nil {
		return nil, nil, fmt.Errorf("pdfdoc: xref stream: %w", err)
	}

	var w [3]int
	wArr := stream.Dict.Array("W")
	if len(wArr) != 3 {
		return nil, nil, fmt.Errorf("pdfdoc: xref stream /W must have 3 entries")
	}
	for i, v := range wArr {
		n, _ := number(v)
		w[i] = int(n)
	}
	size := w[0] + w[1] + w[2]
	if size == 0 {
		return nil, nil, fmt.Errorf("pdfdoc: xref stream has zero-width entries")
	}

	var index []int
	for _, v := range stream.Dict.Array("Index") {
		n, _ := number(v)
		index = append(index, int(n))
	}
	if len(index) == 0 {
		total, _ := stream.Dict.Int("Size")
		index = []int{0, int(total)}
	}

	field := func(b []byte) int64 {
		var v int64
		for _, c := range b {
			v = v<<8 | int64(c)
		}
		return v
	}

	table := make(xrefTable)
	pos := 0
	for i := 0; i+1 < len(index); i += 2 {
		for j := 0; j < index[i+1] && pos+size <= len(raw); j++ {
			row := raw[pos : pos+size]
			pos += size

			kind := int64(1)
			if w[0] > 0 {
				kind = field(row[:w[0]])
			}
			f1 := field(row[w[0] : w[0]+w[1]])
			f2 := field(row[w[0]+w[1]:])

			num := index[i] + j
			switch kind {
			case 0:
				table[num] = xrefEntry{Generation: int(f2)}
			case 1:
				table[num] = xrefEntry{Offset: f1, Generation: int(f2), InUse: true}
			case 2:
				table[num] = xrefEntry{InUse: true, Stream: int(f1), Index: int(f2)}
			}
		}
	}
	return table, stream.Dict, nil
}
