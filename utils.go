package filecrate

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsValidKey reports whether k is acceptable as an object key. Keys are
// relative slash-separated paths made of valid UTF-8. Empty segments, dot
// segments, and traversal dots are rejected, as is any character that cannot
// survive a signed URL or a listing document unescaped: whitespace, control
// characters, and \ ? # ~.
func IsValidKey(k string) bool {
	if k == "" || !utf8.ValidString(k) {
		return false
	}

	for _, r := range k {
		if r < 0x20 || r == 0x7f || unicode.IsSpace(r) {
			return false
		}
		if strings.ContainsRune(`\?#~`, r) {
			return false
		}
	}

	for _, seg := range strings.Split(k, "/") {
		if seg == "" || seg == "." || strings.Contains(seg, "..") {
			return false
		}
	}

	return true
}
