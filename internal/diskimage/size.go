package diskimage

import "strings"

// sizeSuffixes are the unit suffixes diskutil accepts, lowercased.
var sizeSuffixes = []string{"b", "kb", "mb", "gb", "tb", "k", "m", "g", "t"}

// IsValidSize is a syntactic guard run before diskutil is spawned: the string
// must end in a known unit suffix (any case) or consist of decimal digits only.
// diskutil itself does the real range checking.
//
// The empty string is rejected even though it is vacuously "digits only":
// diskutil would fail on it, so the error surfaces before anything is spawned.
func IsValidSize(size string) bool {
	if size == "" {
		return false
	}

	lower := strings.ToLower(size)
	for _, suffix := range sizeSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}

	for _, c := range size {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
