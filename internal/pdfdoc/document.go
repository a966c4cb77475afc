package pdfdoc

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Document is a parsed PDF file. Objects are parsed on first use and
// cached; a Document is not safe for concurrent use.
type Document struct {
	Version string

	data    []byte
	xref    xrefTable
	trailer Dict
	cache   map[int]Object
	pages   []*Page
}

// Parse reads the cross-reference data and page tree of a PDF file held in
// memory. Encrypted files are rejected.
func Parse(data []byte) (*Document, error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\n\f\r "), []byte("%PDF-")) {
		return nil, fmt.Errorf("pdfdoc: missing %%PDF header")
	}
	off, err := startXRef(data)
	if err != nil {
		return nil, err
	}
	xref, trailer, err := readXRef(data, off)
	if err != nil {
		return nil, err
	}
	if _, ok := trailer["Encrypt"]; ok {
		return nil, fmt.Errorf("pdfdoc: encrypted documents are not supported")
	}

	d := &Document{
		Version: version(data),
		data:    data,
		xref:    xref,
		trailer: trailer,
		cache:   make(map[int]Object),
	}
	if err := d.loadPages(); err != nil {
		return nil, err
	}
	return d, nil
}

func version(data []byte) string {
	head := string(data[:min(32, len(data))])
	i := strings.Index(head, "%PDF-")
	if i < 0 {
		return ""
	}
	v := head[i+len("%PDF-"):]
	if j := strings.IndexAny(v, "\r\n "); j >= 0 {
		v = v[:j]
	}
	return v
}

// Trailer returns the newest trailer dictionary.
func (d *Document) Trailer() Dict {
	return d.trailer
}

// NumPages returns the number of pages.
func (d *Document) NumPages() int {
	return len(d.pages)
}

// Page returns the 1-based page n.
func (d *Document) Page(n int) (*Page, error) {
	if n < 1 || n > len(d.pages) {
		return nil, fmt.Errorf("pdfdoc: page %d out of range [1, %d]", n, len(d.pages))
	}
	return d.pages[n-1], nil
}

// Metadata returns the text entries of the document information
// dictionary.
func (d *Document) Metadata() map[string]string {
	meta := make(map[string]string)
	info, _ := d.Resolve(d.trailer["Info"]).(Dict)
	for k, v := range info {
		if s, ok := v.(String); ok {
			meta[string(k)] = decodeText(s.Value)
		}
	}
	return meta
}

// Resolve follows obj if it is a reference. A dangling reference resolves
// to Null, as PDF readers treat it.
func (d *Document) Resolve(obj Object) Object {
	ref, ok := obj.(Reference)
	if !ok {
		return obj
	}
	v, err := d.object(ref.Number)
	if err != nil {
		return Null{}
	}
	return v
}

// object returns the value of object num, parsing it on first use.
func (d *Document) object(num int) (Object, error) {
	if v, ok := d.cache[num]; ok {
		return v, nil
	}
	e, ok := d.xref[num]
	if !ok || !e.InUse {
		return Null{}, nil
	}

	// Insert a placeholder so reference cycles through /Length end.
	d.cache[num] = Null{}

	var (
		v   Object
		err error
	)
	if e.Stream > 0 {
		v, err = d.compressedObject(num, e)
	} else {
		v, err = d.objectAt(num, e.Offset)
	}
	if err != nil {
		delete(d.cache, num)
		return nil, err
	}
	d.cache[num] = v
	return v, nil
}

func (d *Document) objectAt(num int, off int64) (Object, error) {
	if off < 0 || off >= int64(len(d.data)) {
		return nil, fmt.Errorf("pdfdoc: object %d offset %d out of bounds", num, off)
	}
	p := newParser(d.data[off:])
	p.length = func(ref Reference) (int, bool) {
		n, ok := number(d.Resolve(ref))
		return int(n), ok
	}
	ref, v, err := p.indirect()
	if err != nil {
		return nil, err
	}
	if ref.Number != num {
		return nil, fmt.Errorf("pdfdoc: xref points object %d at object %d", num, ref.Number)
	}
	return v, nil
}

// compressedObject extracts object num from the object stream named by e.
func (d *Document) compressedObject(num int, e xrefEntry) (Object, error) {
	container, err := d.object(e.Stream)
	if err != nil {
		return nil, err
	}
	stream, ok := container.(Stream)
	if !ok || stream.Dict.Name("Type") != "ObjStm" {
		return nil, fmt.Errorf("pdfdoc: object %d: container %d is not an object stream", num, e.Stream)
	}
	raw, err := decodeStream(stream)
	if err != nil {
		return nil, fmt.Errorf("pdfdoc: object stream %d: %w", e.Stream, err)
	}
	n, _ := stream.Dict.Int("N")
	first, _ := stream.Dict.Int("First")
	if first < 0 || first > int64(len(raw)) {
		return nil, fmt.Errorf("pdfdoc: object stream %d: bad /First", e.Stream)
	}

	header := newParser(raw[:first])
	for i := int64(0); i < n; i++ {
		objNum, err1 := strconv.Atoi(header.token())
		objOff, err2 := strconv.Atoi(header.token())
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("pdfdoc: object stream %d: malformed header", e.Stream)
		}
		if objNum != num {
			continue
		}
		start := int(first) + objOff
		if start >= len(raw) {
			return nil, fmt.Errorf("pdfdoc: object %d offset out of bounds", num)
		}
		return newParser(raw[start:]).object()
	}
	return nil, fmt.Errorf("pdfdoc: object %d not found in object stream %d", num, e.Stream)
}

// decodeText converts a PDF text string to UTF-8. Strings with a UTF-16BE
// byte-order mark are decoded as such; anything else is read as Latin-1.
func decodeText(b []byte) string {
	if len(b) >= 2 && b[0] == 0xfe && b[1] == 0xff {
		return decodeUTF16BE(b[2:])
	}
	var sb strings.Builder
	for _, c := range b {
		sb.WriteRune(rune(c))
	}
	return sb.String()
}
