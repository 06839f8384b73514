//go:build !darwin

package compression

// Transparent compression only exists on macOS.
func isCompressed(string) bool {
	return false
}
