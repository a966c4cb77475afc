package render

import (
	"fmt"
	"strings"
	"sync"

	"github.com/boombuler/barcode/pdf417"
	"github.com/boombuler/barcode/qr"
	"github.com/jung-kurt/gofpdf/contrib/barcode"
)

// CodeKind selects the symbology of the verification code.
type CodeKind string

const (
	CodeQR     CodeKind = "qr"
	CodePDF417 CodeKind = "pdf417"
)

// VerificationCode encodes BaseURL followed by the certificate reference
// and draws it in the geometry's verification box.
type VerificationCode struct {
	Kind    CodeKind
	BaseURL string
}

// Payload returns the string encoded for ref.
func (vc VerificationCode) Payload(ref string) string {
	return vc.BaseURL + ref
}

// Validate rejects unknown symbologies.
func (vc VerificationCode) Validate() error {
	switch vc.Kind {
	case CodeQR, CodePDF417:
		return nil
	}
	return fmt.Errorf("render: unknown verification code kind %q", vc.Kind)
}

// ParseCodeKind maps "qr" or "pdf417" (any case) to a CodeKind.
func ParseCodeKind(s string) (CodeKind, error) {
	k := CodeKind(strings.ToLower(strings.TrimSpace(s)))
	if err := (VerificationCode{Kind: k}).Validate(); err != nil {
		return "", err
	}
	return k, nil
}

// barcodeMu serializes contrib/barcode, which keeps registered codes in a
// package-level map.
var barcodeMu sync.Mutex

// pdf417Security is the PDF417 error correction level.
const pdf417Security = 2

// drawVerificationCode registers and places the code for ref. The box is in
// design coordinates, which gofpdf uses natively.
// PDF417 goes through boombuler/barcode/pdf417, which encodes a payload to
// the same bars on every run.
func (d *document) drawVerificationCode(vc VerificationCode, ref string, x, y, w, h float64) error {
	if ref == "" || w <= 0 || h <= 0 {
		return nil
	}
	barcodeMu.Lock()
	defer barcodeMu.Unlock()

	var key string
	switch vc.Kind {
	case CodePDF417:
		code, err := pdf417.Encode(vc.Payload(ref), pdf417Security)
		if err != nil {
			return fmt.Errorf("encoding PDF417 code: %w", err)
		}
		key = barcode.Register(code)
	default:
		key = barcode.RegisterQR(d.pdf, vc.Payload(ref), qr.M, qr.Unicode)
	}
	barcode.Barcode(d.pdf, key, x, y, w, h, false)
	if d.pdf.Err() {
		return fmt.Errorf("drawing verification code: %w", d.pdf.Error())
	}
	return nil
}
