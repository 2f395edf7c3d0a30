package archive

import (
	"fmt"
	"strings"
)

// imageExtensions lists the entry suffixes treated as pages.
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp"}

// ValidateEntryName rejects archive entry names that could escape the
// archive root: empty names, absolute paths, and any name containing a
// ".." segment (backslashes are normalized to forward slashes first).
// Entry names come from untrusted archive content, so this runs on every
// name before it is used to address or extract anything.
func ValidateEntryName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidEntryName)
	}
	normalized := strings.ReplaceAll(name, "\\", "/")
	if strings.HasPrefix(normalized, "/") {
		return fmt.Errorf("%w: absolute path %q", ErrInvalidEntryName, name)
	}
	for _, seg := range strings.Split(normalized, "/") {
		if seg == ".." {
			return fmt.Errorf("%w: path traversal in %q", ErrInvalidEntryName, name)
		}
	}
	return nil
}

// IsImageEntry reports whether name looks like an image page. Directory
// entries (trailing slash) never qualify.
func IsImageEntry(name string) bool {
	if strings.HasSuffix(name, "/") {
		return false
	}
	lower := strings.ToLower(name)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// NaturalLess compares entry names with natural number ordering, so
// "page2.jpg" sorts before "page10.jpg" (lexicographic order would invert
// this). Digit runs are compared as numbers with leading zeros ignored;
// everything else is compared case-insensitively.
func NaturalLess(a, b string) bool {
	ai, bi := 0, 0
	for ai < len(a) && bi < len(b) {
		if isDigit(a[ai]) && isDigit(b[bi]) {
			aRun, aEnd := digitRun(a, ai)
			bRun, bEnd := digitRun(b, bi)
			if c := compareRuns(aRun, bRun); c != 0 {
				return c < 0
			}
			ai, bi = aEnd, bEnd
			continue
		}
		ca, cb := lowerByte(a[ai]), lowerByte(b[bi])
		if ca != cb {
			return ca < cb
		}
		ai++
		bi++
	}
	return len(a)-ai < len(b)-bi
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func lowerByte(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

// digitRun returns the digit run starting at start, with leading zeros
// stripped, and the index just past it.
func digitRun(s string, start int) (string, int) {
	end := start
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	run := s[start:end]
	trimmed := strings.TrimLeft(run, "0")
	return trimmed, end
}

// compareRuns compares two zero-stripped digit runs numerically. Comparing
// by length first avoids integer overflow on absurdly long runs.
func compareRuns(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
