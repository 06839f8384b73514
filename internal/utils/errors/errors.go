package errors

import (
	"errors"
)

var (
	// General Errors
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrOSNotSupported      = errors.New("ASIF creation requires macOS 26 Tahoe or later")
	ErrArtifactDirRequired = errors.New("artifact directory must be specified")

	// Disk Image Errors
	ErrCommandFailed    = errors.New("command failed")
	ErrInvalidPath      = errors.New("invalid path")
	ErrInvalidSize      = errors.New("invalid size")
	ErrDiskutilNotFound = errors.New("diskutil command not found")

	// Compression Errors
	ErrUnsupportedCompression = errors.New("unsupported compression format")
	ErrCompressionFailed      = errors.New("compression failed")

	// File & Directory Errors
	ErrDirNotFound  = errors.New("directory not found")
	ErrTrashFailed  = errors.New("failed to move to trash")
	ErrFileNotFound = errors.New("file not found")

	// Configuration Errors
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrConfigParseError = errors.New("error parsing configuration")

	// Workflow Errors
	ErrWorkflowInvalid = errors.New("invalid workflow")
)
