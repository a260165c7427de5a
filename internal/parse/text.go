package parse

import (
	"strings"
	"unicode"
)

// ScanText cleans a string produced by a barcode or QR decoder. Surrounding
// whitespace is trimmed and control, format (zero-width, BOM) and other
// invisible characters that decoders sometimes emit are dropped. The result
// is empty when nothing printable remains.
func ScanText(raw string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return ' '
		case unicode.IsControl(r), unicode.In(r, unicode.Cf):
			return -1
		}
		return r
	}, raw)
	return strings.TrimSpace(s)
}

// EscapeLike escapes the LIKE wildcards of s using '!' as the escape
// character, so that user text is matched literally inside "%...%".
func EscapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}
