// Package plistutil provides utilities for working with property list files
package plistutil

import (
	"bytes"
	"fmt"
	"os"

	"github.com/deploymenttheory/afpack/internal/utils/errors"
	"github.com/spf13/afero"
	"howett.net/plist"
)

// Format represents the plist format
type Format int

const (
	// FormatXML is the XML plist format
	FormatXML Format = iota
	// FormatBinary is the binary plist format
	FormatBinary
)

// DecodePlist decodes a property list file into v. Struct fields use `plist:"Key"` tags.
func DecodePlist(fs afero.Fs, path string, v interface{}) error {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", errors.ErrFileNotFound, path)
		}
		return fmt.Errorf("%w: %s: %v", errors.ErrInvalidPath, path, err)
	}

	decoder := plist.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("%w: %s: %v", errors.ErrConfigParseError, path, err)
	}
	return nil
}

// WritePlist writes data to a property list file in the specified format
func WritePlist(fs afero.Fs, path string, data interface{}, format Format) error {
	file, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", errors.ErrInvalidPath, path, err)
	}
	defer file.Close()

	var encoder *plist.Encoder
	switch format {
	case FormatBinary:
		encoder = plist.NewEncoderForFormat(file, plist.BinaryFormat)
	default:
		encoder = plist.NewEncoderForFormat(file, plist.XMLFormat)
		encoder.Indent("\t")
	}

	return encoder.Encode(data)
}
