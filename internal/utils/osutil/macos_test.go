package osutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/deploymenttheory/afpack/internal/utils/errors"
	"github.com/deploymenttheory/afpack/internal/utils/plistutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSystemVersion(t *testing.T, fs afero.Fs, version string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(SystemVersionPlist), 0755))
	sv := SystemVersion{ProductName: "macOS", ProductVersion: version, ProductBuild: "25A100"}
	require.NoError(t, plistutil.WritePlist(fs, SystemVersionPlist, sv, plistutil.FormatXML))
}

func stubSwVers(t *testing.T, out string, err error) {
	t.Helper()
	orig := swVers
	swVers = func() (string, error) { return out, err }
	t.Cleanup(func() { swVers = orig })
}

func TestMajorVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"26.0", 26, false},
		{"26.0.1\n", 26, false},
		{"15", 15, false},
		{"", 0, true},
		{"Tahoe", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := MajorVersion(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProductVersionFromPlist(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSystemVersion(t, fs, "26.1")
	stubSwVers(t, "", fmt.Errorf("should not be called"))

	version, err := ProductVersion(fs)
	require.NoError(t, err)
	assert.Equal(t, "26.1", version)
}

func TestProductVersionFallsBackToSwVers(t *testing.T) {
	stubSwVers(t, "15.6\n", nil)

	version, err := ProductVersion(afero.NewMemMapFs())
	require.NoError(t, err)
	assert.Equal(t, "15.6", version)
}

func TestCheckVersion(t *testing.T) {
	t.Run("tahoe", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeSystemVersion(t, fs, "26.0")
		assert.NoError(t, checkVersion(fs))
	})

	t.Run("sequoia", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeSystemVersion(t, fs, "15.5")
		assert.ErrorIs(t, checkVersion(fs), errors.ErrOSNotSupported)
	})

	t.Run("unknown", func(t *testing.T) {
		stubSwVers(t, "", fmt.Errorf("exec: \"sw_vers\": executable file not found"))
		assert.ErrorIs(t, checkVersion(afero.NewMemMapFs()), errors.ErrOSNotSupported)
	})
}
