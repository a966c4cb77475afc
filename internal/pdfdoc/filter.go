package pdfdoc

import (
	"bytes"
	"compress/zlib"
	"encoding/ascii85"
	"encoding/hex"
	"fmt"
	"io"
)

// decodeStream applies the stream's filter chain.
func decodeStream(s Stream) ([]byte, error) {
	var filters []Name
	switch f := s.Dict["Filter"].(type) {
	case nil:
		return s.Data, nil
	case Name:
		filters = []Name{f}
	case Array:
		for _, item := range f {
			n, ok := item.(Name)
			if !ok {
				return nil, fmt.Errorf("pdfdoc: filter array holds %T", item)
			}
			filters = append(filters, n)
		}
	default:
		return nil, fmt.Errorf("pdfdoc: unexpected filter %T", f)
	}

	parms := decodeParms(s.Dict, len(filters))
	data := s.Data
	for i, f := range filters {
		var err error
		if data, err = applyFilter(f, data, parms[i]); err != nil {
			return nil, fmt.Errorf("pdfdoc: %s: %w", f, err)
		}
	}
	return data, nil
}

// decodeParms returns one (possibly nil) parameter dictionary per filter.
func decodeParms(d Dict, n int) []Dict {
	out := make([]Dict, n)
	switch p := d["DecodeParms"].(type) {
	case Dict:
		if n > 0 {
			out[0] = p
		}
	case Array:
		for i := 0; i < n && i < len(p); i++ {
			out[i], _ = p[i].(Dict)
		}
	}
	return out
}

func applyFilter(name Name, data []byte, parms Dict) ([]byte, error) {
	switch name {
	case "FlateDecode", "Fl":
		out, err := inflate(data)
		if err != nil {
			return nil, err
		}
		return unpredict(out, parms)
	case "ASCIIHexDecode", "AHx":
		return asciiHex(data)
	case "ASCII85Decode", "A85":
		return ascii85Decode(data)
	}
	return nil, fmt.Errorf("unsupported filter")
}

func inflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// unpredict reverses a PNG predictor (Predictor >= 10). TIFF predictors are
// not used by the writers this package reads.
func unpredict(data []byte, parms Dict) ([]byte, error) {
	predictor, _ := parms.Int("Predictor")
	if predictor < 10 {
		return data, nil
	}
	columns := int64(1)
	if c, ok := parms.Int("Columns"); ok && c > 0 {
		columns = c
	}
	colors := int64(1)
	if c, ok := parms.Int("Colors"); ok && c > 0 {
		colors = c
	}
	bpc := int64(8)
	if b, ok := parms.Int("BitsPerComponent"); ok && b > 0 {
		bpc = b
	}
	bpp := int(max(1, colors*bpc/8))
	rowLen := int((columns*colors*bpc + 7) / 8)

	var out []byte
	prev := make([]byte, rowLen)
	for pos := 0; pos+1+rowLen <= len(data); pos += 1 + rowLen {
		kind := data[pos]
		row := append([]byte(nil), data[pos+1:pos+1+rowLen]...)
		for i := range row {
			var left, up, upLeft byte
			if i >= bpp {
				left = row[i-bpp]
				upLeft = prev[i-bpp]
			}
			up = prev[i]
			switch kind {
			case 0:
			case 1:
				row[i] += left
			case 2:
				row[i] += up
			case 3:
				row[i] += byte((int(left) + int(up)) / 2)
			case 4:
				row[i] += paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("unknown PNG filter type %d", kind)
			}
		}
		out = append(out, row...)
		prev = row
	}
	return out, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	}
	return c
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func asciiHex(data []byte) ([]byte, error) {
	if end := bytes.IndexByte(data, '>'); end >= 0 {
		data = data[:end]
	}
	clean := make([]byte, 0, len(data)+1)
	for _, b := range data {
		if !isWhitespace(b) {
			clean = append(clean, b)
		}
	}
	if len(clean)%2 != 0 {
		clean = append(clean, '0')
	}
	out := make([]byte, hex.DecodedLen(len(clean)))
	if _, err := hex.Decode(out, clean); err != nil {
		return nil, err
	}
	return out, nil
}

func ascii85Decode(data []byte) ([]byte, error) {
	if end := bytes.Index(data, []byte("~>")); end >= 0 {
		data = data[:end]
	}
	return io.ReadAll(ascii85.NewDecoder(bytes.NewReader(data)))
}
