package document

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	ExtPDF  = "pdf"
	ExtDOCX = "docx"
	ExtTXT  = "txt"
)

var allowedExtensions = map[string]struct{}{
	ExtPDF:  {},
	ExtDOCX: {},
	ExtTXT:  {},
}

// Ext returns the lower-cased text after the last dot, or "" if there is none.
func Ext(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}

// Allowed reports whether filename carries one of the accepted extensions.
func Allowed(filename string) bool {
	if !strings.Contains(filename, ".") {
		return false
	}
	_, ok := allowedExtensions[Ext(filename)]
	return ok
}

// SanitizeFilename reduces an upload name to a safe ASCII file name. The result
// may be empty when nothing representable is left.
func SanitizeFilename(name string) string {
	name = norm.NFKD.String(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r > unicode.MaxASCII:
			continue
		case r == '/' || r == '\\' || unicode.IsSpace(r):
			b.WriteByte('_')
		case r == '.' || r == '-' || r == '_',
			r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "._")
}
