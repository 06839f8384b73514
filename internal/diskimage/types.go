package diskimage

import (
	"fmt"
	"strings"

	"github.com/deploymenttheory/afpack/internal/utils/errors"
)

// Format is the on-disk container format understood by diskutil.
type Format int

const (
	FormatRAW Format = iota
	FormatASIF
	FormatUDSB
)

// DefaultFormat is the format used when none is requested.
const DefaultFormat = FormatASIF

// String returns the exact token passed to diskutil's --format flag.
func (f Format) String() string {
	switch f {
	case FormatRAW:
		return "RAW"
	case FormatASIF:
		return "ASIF"
	case FormatUDSB:
		return "UDSB"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Extension returns the conventional file extension, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatRAW:
		return ".img"
	case FormatUDSB:
		return ".sparsebundle"
	default:
		return ".asif"
	}
}

// ParseFormat maps a case-insensitive name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "RAW":
		return FormatRAW, nil
	case "ASIF":
		return FormatASIF, nil
	case "UDSB":
		return FormatUDSB, nil
	default:
		return DefaultFormat, fmt.Errorf("%w: unknown image format %q", errors.ErrInvalidArgument, s)
	}
}

// FileSystem is the filesystem laid down inside a blank image.
type FileSystem int

const (
	FileSystemAPFS FileSystem = iota
	FileSystemExFAT
	FileSystemMSDOS
	FileSystemNone
)

// DefaultFileSystem is the filesystem used when none is requested.
const DefaultFileSystem = FileSystemAPFS

// String returns the display name. diskutil receives it lowercased.
func (fs FileSystem) String() string {
	switch fs {
	case FileSystemAPFS:
		return "APFS"
	case FileSystemExFAT:
		return "ExFAT"
	case FileSystemMSDOS:
		return "MS-DOS"
	case FileSystemNone:
		return "None"
	default:
		return fmt.Sprintf("FileSystem(%d)", int(fs))
	}
}

// ParseFileSystem maps a case-insensitive display name to a FileSystem.
func ParseFileSystem(s string) (FileSystem, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "apfs":
		return FileSystemAPFS, nil
	case "exfat":
		return FileSystemExFAT, nil
	case "ms-dos", "msdos", "fat32":
		return FileSystemMSDOS, nil
	case "none":
		return FileSystemNone, nil
	default:
		return DefaultFileSystem, fmt.Errorf("%w: unknown filesystem %q", errors.ErrInvalidArgument, s)
	}
}
