package osutil

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/deploymenttheory/afpack/internal/utils/errors"
	"github.com/deploymenttheory/afpack/internal/utils/executil"
	"github.com/deploymenttheory/afpack/internal/utils/plistutil"
	"github.com/spf13/afero"
)

// SystemVersionPlist is where macOS records its product version
const SystemVersionPlist = "/System/Library/CoreServices/SystemVersion.plist"

// MinASIFMajorVersion is the first macOS release (Tahoe) whose diskutil understands ASIF
const MinASIFMajorVersion = 26

// SystemVersion mirrors the keys of SystemVersion.plist that we care about.
type SystemVersion struct {
	ProductName    string `plist:"ProductName"`
	ProductVersion string `plist:"ProductVersion"`
	ProductBuild   string `plist:"ProductBuildVersion"`
}

// swVers is replaced in tests
var swVers = func() (string, error) {
	res, err := executil.ExecRunner{}.Run(context.Background(), "sw_vers", "-productVersion")
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("sw_vers exited %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return res.Stdout, nil
}

// ProductVersion returns the macOS product version, e.g. "26.0.1".
// SystemVersion.plist is consulted first, sw_vers second.
func ProductVersion(fs afero.Fs) (string, error) {
	var sv SystemVersion
	if err := plistutil.DecodePlist(fs, SystemVersionPlist, &sv); err == nil && sv.ProductVersion != "" {
		return strings.TrimSpace(sv.ProductVersion), nil
	}

	out, err := swVers()
	if err != nil {
		return "", fmt.Errorf("%w: unable to determine macOS version: %v", errors.ErrOSNotSupported, err)
	}
	version := strings.TrimSpace(out)
	if version == "" {
		return "", fmt.Errorf("%w: sw_vers returned no version", errors.ErrOSNotSupported)
	}
	return version, nil
}

// MajorVersion extracts the leading numeric component of a dotted version string
func MajorVersion(version string) (int, error) {
	head, _, _ := strings.Cut(strings.TrimSpace(version), ".")
	major, err := strconv.Atoi(head)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed version %q", errors.ErrInvalidArgument, version)
	}
	return major, nil
}

// CheckASIFSupport returns nil when the host can create and attach ASIF images
func CheckASIFSupport(fs afero.Fs) error {
	if !IsMacOS() {
		return fmt.Errorf("%w: running on %s", errors.ErrOSNotSupported, GetOSType())
	}
	return checkVersion(fs)
}

func checkVersion(fs afero.Fs) error {
	version, err := ProductVersion(fs)
	if err != nil {
		return err
	}
	major, err := MajorVersion(version)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrOSNotSupported, err)
	}
	if major < MinASIFMajorVersion {
		return fmt.Errorf("%w: found macOS %s", errors.ErrOSNotSupported, version)
	}
	return nil
}
