package pdfdoc

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// parser is a recursive descent parser over PDF object syntax.
type parser struct {
	data []byte
	pos  int

	// length resolves an indirect /Length of a stream.
	length func(Reference) (int, bool)
}

func newParser(data []byte) *parser {
	return &parser{data: data}
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

func isDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isRegular(b byte) bool {
	return !isWhitespace(b) && !isDelimiter(b)
}

// skipSpace advances past whitespace and comments.
func (p *parser) skipSpace() {
	for p.pos < len(p.data) {
		switch b := p.data[p.pos]; {
		case isWhitespace(b):
			p.pos++
		case b == '%':
			for p.pos < len(p.data) && p.data[p.pos] != '\n' && p.data[p.pos] != '\r' {
				p.pos++
			}
		default:
			return
		}
	}
}

// token reads the next run of regular characters.
func (p *parser) token() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.data) && isRegular(p.data[p.pos]) {
		p.pos++
	}
	return string(p.data[start:p.pos])
}

// hasPrefix reports whether the unread input starts with s.
func (p *parser) hasPrefix(s string) bool {
	return bytes.HasPrefix(p.data[p.pos:], []byte(s))
}

// object parses the next direct object.
func (p *parser) object() (Object, error) {
	p.skipSpace()
	if p.pos >= len(p.data) {
		return nil, io.ErrUnexpectedEOF
	}

	switch b := p.data[p.pos]; {
	case p.hasPrefix("<<"):
		return p.dict()
	case b == '<':
		return p.hexString()
	case b == '(':
		return p.literalString()
	case b == '/':
		return p.name()
	case b == '[':
		return p.array()
	case b == '+', b == '-', b == '.', b >= '0' && b <= '9':
		return p.numberOrRef()
	}

	switch tok := p.token(); tok {
	case "true":
		return Boolean(true), nil
	case "false":
		return Boolean(false), nil
	case "null":
		return Null{}, nil
	case "":
		return nil, fmt.Errorf("pdfdoc: unexpected %q at offset %d", p.data[p.pos], p.pos)
	default:
		return nil, fmt.Errorf("pdfdoc: unexpected keyword %q at offset %d", tok, p.pos)
	}
}

func (p *parser) name() (Name, error) {
	if p.pos >= len(p.data) || p.data[p.pos] != '/' {
		return "", fmt.Errorf("pdfdoc: expected name at offset %d", p.pos)
	}
	p.pos++

	var buf []byte
	for p.pos < len(p.data) && isRegular(p.data[p.pos]) {
		b := p.data[p.pos]
		if b == '#' && p.pos+2 < len(p.data) {
			hi, lo := unhex(p.data[p.pos+1]), unhex(p.data[p.pos+2])
			if hi >= 0 && lo >= 0 {
				buf = append(buf, byte(hi<<4|lo))
				p.pos += 3
				continue
			}
		}
		buf = append(buf, b)
		p.pos++
	}
	return Name(buf), nil
}

// numberOrRef parses an integer, a real or an "N G R" reference.
func (p *parser) numberOrRef() (Object, error) {
	start := p.pos
	tok := p.token()

	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(tok, 64)
		if ferr != nil {
			return nil, fmt.Errorf("pdfdoc: invalid number %q at offset %d", tok, start)
		}
		return Real(f), nil
	}

	after := p.pos
	p.skipSpace()
	if p.pos < len(p.data) && p.data[p.pos] >= '0' && p.data[p.pos] <= '9' {
		if gen, err := strconv.ParseInt(p.token(), 10, 64); err == nil {
			p.skipSpace()
			if p.pos < len(p.data) && p.data[p.pos] == 'R' &&
				(p.pos+1 == len(p.data) || !isRegular(p.data[p.pos+1])) {
				p.pos++
				return Reference{Number: int(n), Generation: int(gen)}, nil
			}
		}
	}
	p.pos = after
	return Integer(n), nil
}

func (p *parser) literalString() (String, error) {
	value, end, ok := readLiteral(p.data, p.pos)
	if !ok {
		return String{}, fmt.Errorf("pdfdoc: unterminated string at offset %d", p.pos)
	}
	p.pos = end
	return String{Value: value}, nil
}

func (p *parser) hexString() (String, error) {
	value, end, ok := readHex(p.data, p.pos)
	if !ok {
		return String{}, fmt.Errorf("pdfdoc: malformed hex string at offset %d", p.pos)
	}
	p.pos = end
	return String{Value: value, IsHex: true}, nil
}

func (p *parser) array() (Array, error) {
	p.pos++ // [
	arr := Array{}
	for {
		p.skipSpace()
		if p.pos >= len(p.data) {
			return nil, fmt.Errorf("pdfdoc: unterminated array")
		}
		if p.data[p.pos] == ']' {
			p.pos++
			return arr, nil
		}
		obj, err := p.object()
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}
}

func (p *parser) dict() (Dict, error) {
	p.pos += 2 // <<
	d := make(Dict)
	for {
		p.skipSpace()
		if p.pos >= len(p.data) {
			return nil, fmt.Errorf("pdfdoc: unterminated dictionary")
		}
		if p.hasPrefix(">>") {
			p.pos += 2
			return d, nil
		}
		key, err := p.name()
		if err != nil {
			return nil, err
		}
		val, err := p.object()
		if err != nil {
			return nil, fmt.Errorf("pdfdoc: value of /%s: %w", key, err)
		}
		d[key] = val
	}
}

// indirect parses "N G obj ... endobj" and returns the reference and value.
func (p *parser) indirect() (Reference, Object, error) {
	var ref Reference
	num, err := strconv.Atoi(p.token())
	if err != nil {
		return ref, nil, fmt.Errorf("pdfdoc: expected object number at offset %d", p.pos)
	}
	gen, err := strconv.Atoi(p.token())
	if err != nil {
		return ref, nil, fmt.Errorf("pdfdoc: expected generation number at offset %d", p.pos)
	}
	if kw := p.token(); kw != "obj" {
		return ref, nil, fmt.Errorf("pdfdoc: expected obj, got %q", kw)
	}
	ref = Reference{Number: num, Generation: gen}

	val, err := p.object()
	if err != nil {
		return ref, nil, fmt.Errorf("pdfdoc: object %d %d: %w", num, gen, err)
	}

	p.skipSpace()
	if p.hasPrefix("stream") {
		dict, ok := val.(Dict)
		if !ok {
			return ref, nil, fmt.Errorf("pdfdoc: object %d %d: stream without dictionary", num, gen)
		}
		data, err := p.streamData(dict)
		if err != nil {
			return ref, nil, fmt.Errorf("pdfdoc: object %d %d: %w", num, gen, err)
		}
		dict["Length"] = Integer(len(data))
		val = Stream{Dict: dict, Data: data}
	}

	p.skipSpace()
	if p.hasPrefix("endobj") {
		p.pos += len("endobj")
	}
	return ref, val, nil
}

// streamData reads the bytes between "stream" and "endstream".
func (p *parser) streamData(dict Dict) ([]byte, error) {
	p.pos += len("stream")
	if p.pos < len(p.data) && p.data[p.pos] == '\r' {
		p.pos++
	}
	if p.pos < len(p.data) && p.data[p.pos] == '\n' {
		p.pos++
	}

	length := -1
	switch l := dict["Length"].(type) {
	case Integer:
		length = int(l)
	case Reference:
		if p.length != nil {
			if n, ok := p.length(l); ok {
				length = n
			}
		}
	}

	if length < 0 || p.pos+length > len(p.data) || !bytes.HasPrefix(bytes.TrimLeft(p.data[p.pos+length:], "\r\n \t"), []byte("endstream")) {
		// Length missing or wrong: fall back to the endstream keyword.
		end := bytes.Index(p.data[p.pos:], []byte("endstream"))
		if end < 0 {
			return nil, fmt.Errorf("unterminated stream")
		}
		length = len(bytes.TrimRight(p.data[p.pos:p.pos+end], "\r\n"))
	}

	data := make([]byte, length)
	copy(data, p.data[p.pos:p.pos+length])
	p.pos += length
	p.skipSpace()
	if p.hasPrefix("endstream") {
		p.pos += len("endstream")
	}
	return data, nil
}

// readLiteral decodes the literal string starting at data[pos] == '('.
func readLiteral(data []byte, pos int) (value []byte, end int, ok bool) {
	if pos >= len(data) || data[pos] != '(' {
		return nil, pos, false
	}
	pos++
	var buf []byte
	for depth := 1; pos < len(data); {
		b := data[pos]
		pos++
		switch b {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return buf, pos, true
			}
		case '\\':
			if pos >= len(data) {
				return nil, pos, false
			}
			esc := data[pos]
			pos++
			switch esc {
			case 'n':
				buf = append(buf, '\n')
			case 'r':
				buf = append(buf, '\r')
			case 't':
				buf = append(buf, '\t')
			case 'b':
				buf = append(buf, '\b')
			case 'f':
				buf = append(buf, '\f')
			case '\r', '\n':
				// line continuation
				if esc == '\r' && pos < len(data) && data[pos] == '\n' {
					pos++
				}
			default:
				if esc >= '0' && esc <= '7' {
					oct := int(esc - '0')
					for i := 0; i < 2 && pos < len(data) && data[pos] >= '0' && data[pos] <= '7'; i++ {
						oct = oct*8 + int(data[pos]-'0')
						pos++
					}
					buf = append(buf, byte(oct))
				} else {
					buf = append(buf, esc)
				}
			}
			continue
		}
		buf = append(buf, b)
	}
	return nil, pos, false
}

// readHex decodes the hex string starting at data[pos] == '<'.
func readHex(data []byte, pos int) (value []byte, end int, ok bool) {
	if pos >= len(data) || data[pos] != '<' {
		return nil, pos, false
	}
	pos++
	var buf []byte
	hi := -1
	for pos < len(data) {
		b := data[pos]
		pos++
		switch {
		case b == '>':
			if hi >= 0 {
				buf = append(buf, byte(hi<<4))
			}
			return buf, pos, true
		case isWhitespace(b):
		default:
			v := unhex(b)
			if v < 0 {
				return nil, pos, false
			}
			if hi < 0 {
				hi = v
			} else {
				buf = append(buf, byte(hi<<4|v))
				hi = -1
			}
		}
	}
	return nil, pos, false
}

func unhex(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10
	}
	return -1
}
