package certpdf

import (
	"errors"
	"fmt"
)

// Sentinel errors for the certificate rendering failure classes.
var (
	ErrInvalidInput     = errors.New("certpdf: invalid input")
	ErrEmptyName        = fmt.Errorf("%w: patient name is empty", ErrInvalidInput)
	ErrNameTooLong      = fmt.Errorf("%w: patient name exceeds %d characters", ErrInvalidInput, MaxNameLength)
	ErrUnprintable      = fmt.Errorf("%w: text cannot be printed in the selected font", ErrInvalidInput)
	ErrTemplateNotFound = errors.New("certpdf: template not found")
	ErrBodyTooLong      = errors.New("certpdf: certificate body too long")
	ErrRender           = errors.New("certpdf: render failed")
)

// OverflowError reports that the text flow crossed the bottom of the
// writable body region. It matches ErrBodyTooLong.
type OverflowError struct {
	CursorY float64 // design-space cursor when the guard tripped
	MaxY    float64 // top of the fixed signature block
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("certpdf: certificate body too long (%.1f > %.1f): shorten the patient name or narrow the date range", e.CursorY, e.MaxY)
}

func (e *OverflowError) Unwrap() error {
	return ErrBodyTooLong
}
