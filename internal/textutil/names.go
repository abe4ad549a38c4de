package textutil

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// SanitizeToken turns value into a lowercase name safe for a lock or state
// file. Runs of anything other than ASCII letters, digits, '-' and '_' collapse
// to one underscore. Blank input yields "unknown".
func SanitizeToken(value string) string {
	value = cases.Fold().String(norm.NFC.String(strings.TrimSpace(value)))
	var b strings.Builder
	pendingSep := false
	for _, r := range value {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	if out := strings.Trim(b.String(), "_-"); out != "" {
		return out
	}
	return "unknown"
}

// NormalizeExtension returns a case-folded extension with a leading dot, so
// ".TXT", "txt" and ".txt" compare equal.
func NormalizeExtension(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return cases.Fold().String(ext)
}

// Stem returns the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
