// Package compression applies APFS/HFS+ transparent compression to files in place.
package compression

import "strings"

// Kind selects the transparent compression algorithm.
type Kind int

const (
	KindNone Kind = iota
	KindLzfse
	KindLzvn
	KindZlib
)

// DefaultKind is used for unknown selectors and for the post-attach pass.
const DefaultKind = KindLzfse

// String returns the selector spelling accepted on the command line.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindLzfse:
		return "lzfse"
	case KindLzvn:
		return "lzvn"
	case KindZlib:
		return "zlib"
	default:
		return "unknown"
	}
}

// toolName returns the compressor token afsctool expects after -T.
func (k Kind) toolName() string {
	switch k {
	case KindLzvn:
		return "LZVN"
	case KindZlib:
		return "ZLIB"
	default:
		return "LZFSE"
	}
}

// ParseKind maps a selector to a Kind. The boolean is false when the selector
// was not recognised, in which case DefaultKind is returned.
func ParseKind(selector string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(selector)) {
	case "none":
		return KindNone, true
	case "lzfse":
		return KindLzfse, true
	case "lzvn":
		return KindLzvn, true
	case "zlib":
		return KindZlib, true
	default:
		return DefaultKind, false
	}
}
