package lifecycle

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/deploymenttheory/afpack/internal/compression"
	"github.com/deploymenttheory/afpack/internal/diskimage"
	"github.com/deploymenttheory/afpack/internal/utils/errors"
	"github.com/deploymenttheory/afpack/internal/utils/fsutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects the ordered side effects of a Pack run.
type recorder struct {
	events []string
}

func (r *recorder) add(format string, args ...interface{}) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

type fakeImages struct {
	rec       *recorder
	fs        afero.Fs
	failOn    string
	lastBlank diskimage.CreateBlankOptions
	lastFrom  diskimage.CreateFromOptions
	lastSize  diskimage.ResizeOptions
	lastMount diskimage.AttachOptions
}

func (f *fakeImages) fail(op string) error {
	if f.failOn == op {
		return fmt.Errorf("%w: diskutil said no", errors.ErrCommandFailed)
	}
	return nil
}

func (f *fakeImages) CreateBlank(imagePath string, opts diskimage.CreateBlankOptions) (string, error) {
	f.lastBlank = opts
	f.rec.add("create-blank %s fs=%s format=%s size=%s", imagePath, opts.FS, opts.Format, opts.Size)
	return "", f.fail("create-blank")
}

func (f *fakeImages) CreateFrom(source, dest string, opts diskimage.CreateFromOptions) (string, error) {
	f.lastFrom = opts
	f.rec.add("create-from %s %s format=%s", source, dest, opts.Format)
	if err := f.fail("create-from"); err != nil {
		return "", err
	}
	if !opts.DryRun {
		_ = afero.WriteFile(f.fs, dest, []byte("image"), 0644)
	}
	return "", nil
}

func (f *fakeImages) Resize(imagePath string, opts diskimage.ResizeOptions) (string, error) {
	f.lastSize = opts
	f.rec.add("resize %s size=%s", imagePath, opts.Size)
	return "", f.fail("resize")
}

func (f *fakeImages) Attach(imagePath string, opts diskimage.AttachOptions) (string, error) {
	f.lastMount = opts
	f.rec.add("attach %s mount=%s", imagePath, opts.MountPoint)
	return "", f.fail("attach")
}

func (f *fakeImages) Detach(mountPoint string) (string, error) {
	f.rec.add("detach %s", mountPoint)
	return "", f.fail("detach")
}

type fakeCompressor struct {
	rec *recorder
}

func (f *fakeCompressor) Apply(root, selector string) {
	f.rec.add("compress %s %s", root, selector)
}

func (f *fakeCompressor) ApplyKind(root string, kind compression.Kind) {
	f.rec.add("compress %s %s", root, kind)
}

func newTestPacker(opts Options) (*Packer, *fakeImages, *recorder, afero.Fs, *bytes.Buffer) {
	rec := &recorder{}
	fs := afero.NewMemMapFs()
	images := &fakeImages{rec: rec, fs: fs}
	out := &bytes.Buffer{}
	p := &Packer{
		Images:     images,
		Compressor: &fakeCompressor{rec: rec},
		Fs:         fs,
		Remove: func(path string) error {
			rec.add("remove %s", path)
			return fs.RemoveAll(path)
		},
		Sleep: func(d time.Duration) {
			rec.add("sleep %s", d)
		},
		Out:     out,
		Options: opts,
	}
	return p, images, rec, fs, out
}

func TestImagePath(t *testing.T) {
	assert.Equal(t, "deps.asif", ImagePath("deps"))
	assert.Equal(t, "deps.asif", ImagePath("deps/"))
	assert.Equal(t, "/work/node_modules.asif", ImagePath("/work/node_modules"))
}

func TestPackBlankImage(t *testing.T) {
	p, images, rec, _, _ := newTestPacker(DefaultOptions())

	require.NoError(t, p.Pack("deps", "2GB", "none"))

	assert.Equal(t, []string{
		"create-blank deps.asif fs=APFS format=ASIF size=2GB",
		"attach deps.asif mount=deps",
		"compress deps.asif lzfse",
	}, rec.events)
	assert.False(t, images.lastMount.DryRun)
}

func TestPackFromExistingDirectory(t *testing.T) {
	p, _, rec, fs, _ := newTestPacker(DefaultOptions())
	require.NoError(t, afero.WriteFile(fs, "deps/index.js", []byte("x"), 0644))

	require.NoError(t, p.Pack("deps", "5GB", "lzfse"))

	assert.Equal(t, []string{
		"create-from deps deps.asif format=ASIF",
		"compress deps lzfse",
		"sleep 3s",
		"resize deps.asif size=5GB",
		"remove deps",
		"attach deps.asif mount=deps",
		"compress deps.asif lzfse",
	}, rec.events)
	assert.False(t, fsutil.PathExists(fs, "deps"))
}

func TestPackWithoutCompressionStillSleeps(t *testing.T) {
	p, _, rec, fs, _ := newTestPacker(DefaultOptions())
	require.NoError(t, fs.MkdirAll("deps", 0755))

	require.NoError(t, p.Pack("deps", "5GB", "none"))

	assert.Equal(t, []string{
		"create-from deps deps.asif format=ASIF",
		"sleep 3s",
		"resize deps.asif size=5GB",
		"remove deps",
		"attach deps.asif mount=deps",
		"compress deps.asif lzfse",
	}, rec.events)
}

func TestPackExistingImageOnlyAttaches(t *testing.T) {
	p, _, rec, fs, _ := newTestPacker(DefaultOptions())
	require.NoError(t, afero.WriteFile(fs, "deps.asif", []byte("image"), 0644))
	require.NoError(t, fs.MkdirAll("deps", 0755))

	require.NoError(t, p.Pack("deps/", "5GB", "zlib"))

	assert.Equal(t, []string{
		"attach deps.asif mount=deps",
		"compress deps.asif lzfse",
	}, rec.events)
	assert.True(t, fsutil.DirExists(fs, "deps"))
}

func TestPackFinalPassDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.FinalPass = false
	p, _, rec, _, _ := newTestPacker(opts)

	require.NoError(t, p.Pack("deps", "2GB", "none"))
	assert.NotContains(t, rec.events, "compress deps.asif lzfse")
}

func TestPackDryRun(t *testing.T) {
	opts := DefaultOptions()
	opts.DryRun = true
	p, images, rec, fs, out := newTestPacker(opts)
	require.NoError(t, fs.MkdirAll("deps", 0755))

	require.NoError(t, p.Pack("deps", "5GB", "none"))

	assert.True(t, fsutil.DirExists(fs, "deps"))
	assert.NotContains(t, rec.events, "remove deps")
	assert.Contains(t, out.String(), "[DRY RUN] removing deps\n")
	assert.True(t, images.lastFrom.DryRun)
	assert.True(t, images.lastSize.DryRun)
	assert.True(t, images.lastMount.DryRun)
}

func TestPackVerbose(t *testing.T) {
	opts := DefaultOptions()
	opts.Verbose = true
	p, images, _, fs, out := newTestPacker(opts)
	require.NoError(t, fs.MkdirAll("deps", 0755))

	require.NoError(t, p.Pack("deps", "5GB", "lzvn"))

	assert.True(t, images.lastFrom.Verbose)
	assert.True(t, images.lastSize.Verbose)
	assert.True(t, images.lastMount.Verbose)
	assert.Equal(t, "creating disk image from existing directory\n"+
		"Applying compression\n"+
		"resizing disk image\n"+
		"attached deps.asif -> deps\n", out.String())
}

func TestPackFailures(t *testing.T) {
	tests := []struct {
		name       string
		failOn     string
		withDir    bool
		wantStage  Stage
		wantEvents []string
		dirRemains bool
	}{
		{
			name:      "create blank",
			failOn:    "create-blank",
			wantStage: StageCreate,
			wantEvents: []string{
				"create-blank deps.asif fs=APFS format=ASIF size=2GB",
			},
		},
		{
			name:      "create from",
			failOn:    "create-from",
			withDir:   true,
			wantStage: StageCreate,
			wantEvents: []string{
				"create-from deps deps.asif format=ASIF",
			},
			dirRemains: true,
		},
		{
			name:      "resize",
			failOn:    "resize",
			withDir:   true,
			wantStage: StageCreate,
			wantEvents: []string{
				"create-from deps deps.asif format=ASIF",
				"sleep 3s",
				"resize deps.asif size=2GB",
			},
			dirRemains: true,
		},
		{
			name:      "attach after removal",
			failOn:    "attach",
			withDir:   true,
			wantStage: StageAttach,
			wantEvents: []string{
				"create-from deps deps.asif format=ASIF",
				"sleep 3s",
				"resize deps.asif size=2GB",
				"remove deps",
				"attach deps.asif mount=deps",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, images, rec, fs, _ := newTestPacker(DefaultOptions())
			images.failOn = tt.failOn
			if tt.withDir {
				require.NoError(t, fs.MkdirAll("deps", 0755))
			}

			err := p.Pack("deps", "2GB", "none")
			require.Error(t, err)

			var stageErr *StageError
			require.ErrorAs(t, err, &stageErr)
			assert.Equal(t, tt.wantStage, stageErr.Stage)
			assert.ErrorIs(t, err, errors.ErrCommandFailed)
			assert.Equal(t, tt.wantEvents, rec.events)
			assert.Equal(t, tt.dirRemains, fsutil.DirExists(fs, "deps"))
		})
	}
}

func TestPackRemoveFailure(t *testing.T) {
	p, _, rec, fs, _ := newTestPacker(DefaultOptions())
	require.NoError(t, fs.MkdirAll("deps", 0755))
	p.Remove = func(string) error { return fmt.Errorf("%w: busy", errors.ErrTrashFailed) }

	err := p.Pack("deps", "2GB", "none")
	assert.ErrorIs(t, err, errors.ErrTrashFailed)
	assert.Equal(t, "error removing artifact directory: failed to move to trash: busy", err.Error())
	assert.NotContains(t, rec.events, "attach deps.asif mount=deps")
}

func TestStageErrorMessages(t *testing.T) {
	err := &StageError{Stage: StageCreate, Err: fmt.Errorf("%w: 12x", errors.ErrInvalidSize)}
	assert.Equal(t, "error create image: invalid size: 12x", err.Error())

	err = &StageError{Stage: StageAttach, Err: errors.ErrDiskutilNotFound}
	assert.Equal(t, "Error attaching ASIF: diskutil command not found", err.Error())
}

func TestDetach(t *testing.T) {
	p, _, rec, _, _ := newTestPacker(DefaultOptions())
	require.NoError(t, p.Detach("deps/"))
	assert.Equal(t, []string{"detach deps"}, rec.events)
}
