// Package pdfdoc reads the object structure of a PDF file and writes it back
// in a canonical form.
//
// The renderer uses it twice: to inspect a category template before it is
// imported, and to renumber the finished document so that every render of
// the same request produces the same bytes.
package pdfdoc

import (
	"fmt"
	"sort"
	"strconv"
)

// Object is a PDF object. The unexported method keeps the set closed.
type Object interface {
	pdfObject()
	String() string
}

// Null is the PDF null object.
type Null struct{}

// Boolean is a PDF boolean.
type Boolean bool

// Integer is a PDF integer.
type Integer int64

// Real is a PDF real number.
type Real float64

// Name is a PDF name without its leading slash.
type Name string

// String is a PDF string. IsHex records whether it was written as <...>.
type String struct {
	Value []byte
	IsHex bool
}

// Array is a PDF array.
type Array []Object

// Dict is a PDF dictionary.
type Dict map[Name]Object

// Stream is a stream dictionary and its still-encoded data.
type Stream struct {
	Dict Dict
	Data []byte
}

// Reference is an indirect reference such as "12 0 R".
type Reference struct {
	Number     int
	Generation int
}

func (Null) pdfObject()      {}
func (Boolean) pdfObject()   {}
func (Integer) pdfObject()   {}
func (Real) pdfObject()      {}
func (Name) pdfObject()      {}
func (String) pdfObject()    {}
func (Array) pdfObject()     {}
func (Dict) pdfObject()      {}
func (Stream) pdfObject()    {}
func (Reference) pdfObject() {}

func (Null) String() string { return "null" }

func (b Boolean) String() string { return strconv.FormatBool(bool(b)) }

func (i Integer) String() string { return strconv.FormatInt(int64(i), 10) }

func (r Real) String() string { return formatReal(float64(r)) }

func (n Name) String() string { return string(appendName(nil, n)) }

func (s String) String() string { return string(appendString(nil, s)) }

func (a Array) String() string { return fmt.Sprintf("[array len=%d]", len(a)) }

func (d Dict) String() string { return fmt.Sprintf("<<dict len=%d>>", len(d)) }

func (s Stream) String() string { return fmt.Sprintf("<<stream len=%d>>", len(s.Data)) }

func (r Reference) String() string { return fmt.Sprintf("%d %d R", r.Number, r.Generation) }

// Name returns the name stored under key, or "".
func (d Dict) Name(key Name) Name {
	n, _ := d[key].(Name)
	return n
}

// Int returns the numeric value stored under key.
func (d Dict) Int(key Name) (int64, bool) {
	switch n := d[key].(type) {
	case Integer:
		return int64(n), true
	case Real:
		return int64(n), true
	}
	return 0, false
}

// Dict returns the direct sub-dictionary stored under key, or nil.
func (d Dict) Dict(key Name) Dict {
	sub, _ := d[key].(Dict)
	return sub
}

// Array returns the direct array stored under key, or nil.
func (d Dict) Array(key Name) Array {
	arr, _ := d[key].(Array)
	return arr
}

// sortedKeys returns the keys of d in byte order.
func (d Dict) sortedKeys() []Name {
	keys := make([]Name, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// number returns the value of an Integer or Real.
func number(obj Object) (float64, bool) {
	switch n := obj.(type) {
	case Integer:
		return float64(n), true
	case Real:
		return float64(n), true
	}
	return 0, false
}

func formatReal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// appendName writes /n, escaping bytes that are not regular characters.
func appendName(dst []byte, n Name) []byte {
	const hexDigits = "0123456789ABCDEF"
	dst = append(dst, '/')
	for i := 0; i < len(n); i++ {
		b := n[i]
		if b < '!' || b > '~' || b == '#' || isDelimiter(b) {
			dst = append(dst, '#', hexDigits[b>>4], hexDigits[b&0x0f])
			continue
		}
		dst = append(dst, b)
	}
	return dst
}

// appendString writes s in the form it was read in.
func appendString(dst []byte, s String) []byte {
	if s.IsHex {
		return append(append(append(dst, '<'), fmt.Sprintf("%X", s.Value)...), '>')
	}
	dst = append(dst, '(')
	for _, b := range s.Value {
		switch b {
		case '(', ')', '\\':
			dst = append(dst, '\\', b)
		case '\r':
			dst = append(dst, '\\', 'r')
		default:
			dst = append(dst, b)
		}
	}
	return append(dst, ')')
}

// appendObject serializes obj. References are mapped through renumber; a
// reference it does not know becomes null.
func appendObject(dst []byte, obj Object, renumber map[int]int) []byte {
	switch v := obj.(type) {
	case nil, Null:
		return append(dst, "null"...)
	case Boolean, Integer, Real:
		return append(dst, v.String()...)
	case Name:
		return appendName(dst, v)
	case String:
		return appendString(dst, v)
	case Array:
		dst = append(dst, '[')
		for i, item := range v {
			if i > 0 {
				dst = append(dst, ' ')
			}
			dst = appendObject(dst, item, renumber)
		}
		return append(dst, ']')
	case Dict:
		dst = append(dst, "<<"...)
		for _, k := range v.sortedKeys() {
			dst = appendName(dst, k)
			dst = append(dst, ' ')
			dst = appendObject(dst, v[k], renumber)
		}
		return append(dst, ">>"...)
	case Stream:
		dict := make(Dict, len(v.Dict)+1)
		for k, val := range v.Dict {
			dict[k] = val
		}
		dict["Length"] = Integer(len(v.Data))
		dst = appendObject(dst, dict, renumber)
		dst = append(dst, "\nstream\n"...)
		dst = append(dst, v.Data...)
		return append(dst, "\nendstream"...)
	case Reference:
		n, ok := renumber[v.Number]
		if !ok {
			return append(dst, "null"...)
		}
		return append(dst, strconv.Itoa(n)+" 0 R"...)
	}
	return append(dst, "null"...)
}
