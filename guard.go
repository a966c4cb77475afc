package certpdf

// Guard rejects a layout whose cursor has moved past maxY. The text is
// never truncated to make it fit.
func Guard(cursorY, maxY float64) error {
	if cursorY > maxY {
		return &OverflowError{CursorY: cursorY, MaxY: maxY}
	}
	return nil
}
