package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// maxTitleBytes keeps "<title>_frames_compressed.pdf" under common 255-byte
// filename limits.
const maxTitleBytes = 200

const untitled = "untitled"

var reservedWindowsNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {}, "LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// SanitizeTitle turns a video title into a folder and file stem that is safe
// on every supported filesystem. The mapping is deterministic: the title is
// NFC-normalized, each of <>:"/\|?* and control characters becomes an
// underscore, whitespace runs collapse to one space, and trailing dots are
// dropped. An empty result becomes "untitled".
func SanitizeTitle(title string) string {
	title = norm.NFC.String(title)

	var b strings.Builder
	b.Grow(len(title))
	pendingSpace := false
	for _, r := range title {
		switch {
		case strings.ContainsRune(`<>:"/\|?*`, r), unicode.IsControl(r) && !unicode.IsSpace(r):
			r = '_'
		case unicode.IsSpace(r):
			pendingSpace = true
			continue
		}
		if pendingSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pendingSpace = false
		b.WriteRune(r)
	}

	out := strings.TrimRight(b.String(), ". ")
	out = truncateUTF8(out, maxTitleBytes)
	out = strings.TrimRight(out, ". ")
	if out == "" {
		return untitled
	}
	if _, reserved := reservedWindowsNames[strings.ToUpper(out)]; reserved {
		out += "_"
	}
	return out
}

// SanitizeToken converts a string to a lowercase filesystem-safe token.
// Letters are lowercased, digits and hyphens/underscores are kept, everything
// else becomes an underscore. Returns "unknown" for empty input.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}

func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
