package pdfdoc

import (
	"strings"
	"unicode/utf16"
)

// ExtractText returns the strings shown by the page's own content streams,
// one space between text objects and positioning operators. Text inside
// form XObjects (such as an imported template) is not followed, and glyphs
// are read as single-byte Latin-1 unless a string carries a UTF-16 BOM.
func (p *Page) ExtractText() (string, error) {
	data, err := p.ContentStream()
	if err != nil {
		return "", err
	}
	return contentText(data), nil
}

func contentText(data []byte) string {
	var sb strings.Builder
	inText := false
	space := func() {
		if sb.Len() > 0 && !strings.HasSuffix(sb.String(), " ") {
			sb.WriteByte(' ')
		}
	}

	for i := 0; i < len(data); {
		b := data[i]
		switch {
		case isWhitespace(b):
			i++

		case b == '(':
			s, end, ok := readLiteral(data, i)
			if !ok {
				return strings.TrimSpace(sb.String())
			}
			if inText {
				sb.WriteString(decodeText(s))
			}
			i = end

		case b == '<' && i+1 < len(data) && data[i+1] == '<':
			i += 2

		case b == '<':
			s, end, ok := readHex(data, i)
			if !ok {
				i++
				continue
			}
			if inText {
				sb.WriteString(decodeText(s))
			}
			i = end

		case isRegular(b):
			start := i
			for i < len(data) && isRegular(data[i]) {
				i++
			}
			switch string(data[start:i]) {
			case "BT":
				inText = true
			case "ET":
				inText = false
				space()
			case "Td", "TD", "T*", "'", "\"":
				if inText {
					space()
				}
			}

		default:
			i++
		}
	}
	return strings.TrimSpace(sb.String())
}

func decodeUTF16BE(b []byte) string {
	u := make([]uint16, len(b)/2)
	for i := range u {
		u[i] = uint16(b[2*i])<<8 | uint16(b[2*i+1])
	}
	return string(utf16.Decode(u))
}
