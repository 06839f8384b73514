//go:build darwin

package compression

import "golang.org/x/sys/unix"

// ufCompressed is UF_COMPRESSED from <sys/stat.h>.
const ufCompressed = 0x00000020

func isCompressed(path string) bool {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return false
	}
	return st.Flags&ufCompressed != 0
}
