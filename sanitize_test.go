package certpdf

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"plain", "John Smith", "John Smith", nil},
		{"surrounding spaces", "  John Smith \t", "John Smith", nil},
		{"control characters", "Jo\x00hn\x1b Sm\x7fith", "John Smith", nil},
		{"newline inside", "John\nSmith", "JohnSmith", nil},
		{"zero width", "J\u200bo\u200ch\u200dn", "John", nil},
		{"bom and soft hyphen", "\ufeffAnne-Marie O\u00adBrien", "Anne-Marie OBrien", nil},
		{"accents kept", "Zoë Müller", "Zoë Müller", nil},
		{"empty", "", "", ErrEmptyName},
		{"only invisible", "\u200b\x00\ufeff", "", ErrEmptyName},
		{"only whitespace", "   \t  ", "", ErrEmptyName},
		{"exactly max", strings.Repeat("a", MaxNameLength), strings.Repeat("a", MaxNameLength), nil},
		{"too long", strings.Repeat("a", MaxNameLength+1), "", ErrNameTooLong},
		{"max runes multibyte", strings.Repeat("é", MaxNameLength), strings.Repeat("é", MaxNameLength), nil},
		{"long before stripping", strings.Repeat("a\u200b", MaxNameLength), strings.Repeat("a", MaxNameLength), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeName(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("error %v does not match ErrInvalidInput", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("SanitizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func FuzzSanitizeNameIdempotent(f *testing.F) {
	for _, seed := range []string{
		"John Smith",
		" \u200b John \x00",
		"\ufeff\u00ad",
		"a\u200d\u200cb",
		strings.Repeat("x ", 60),
		"\xff\xfe broken utf8",
		"\u0085 next line  ",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		once, err := SanitizeName(input)
		if err != nil {
			return
		}
		twice, err := SanitizeName(once)
		if err != nil {
			t.Fatalf("second pass failed on %q: %v", once, err)
		}
		if once != twice {
			t.Fatalf("not idempotent: %q -> %q", once, twice)
		}
		if !utf8.ValidString(once) {
			t.Fatalf("invalid UTF-8 in output %q", once)
		}
	})
}
