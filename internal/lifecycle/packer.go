// Package lifecycle turns an artifact directory into an attached ASIF image.
//
// Pack is strictly sequential: every diskutil call, the compression pass and
// the settle delay block the caller. Nothing is rolled back on failure, so a
// crash between removing the directory and attaching the image leaves neither
// in place.
package lifecycle

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/deploymenttheory/afpack/internal/compression"
	"github.com/deploymenttheory/afpack/internal/diskimage"
	"github.com/deploymenttheory/afpack/internal/logger"
	"github.com/deploymenttheory/afpack/internal/utils/fsutil"
	"github.com/spf13/afero"
)

// imageFormat is the only format Pack produces.
const imageFormat = diskimage.FormatASIF

// DefaultSettleDelay is how long diskutil is given between create and resize.
const DefaultSettleDelay = 3 * time.Second

// ImageManager is the subset of diskimage.Client that Pack drives.
type ImageManager interface {
	CreateBlank(imagePath string, opts diskimage.CreateBlankOptions) (string, error)
	CreateFrom(sourcePath, destPath string, opts diskimage.CreateFromOptions) (string, error)
	Resize(imagePath string, opts diskimage.ResizeOptions) (string, error)
	Attach(imagePath string, opts diskimage.AttachOptions) (string, error)
	Detach(mountPoint string) (string, error)
}

// Compressor is the subset of compression.Trigger that Pack drives.
type Compressor interface {
	Apply(root, selector string)
	ApplyKind(root string, kind compression.Kind)
}

// Options are fixed for the lifetime of a Packer.
type Options struct {
	DryRun      bool
	Verbose     bool
	SettleDelay time.Duration

	// FinalPass compresses the image file itself after it is attached,
	// independent of the selector given to Pack.
	FinalPass     bool
	FinalPassKind compression.Kind
}

// DefaultOptions returns the behaviour of a plain `afpack <dir>` run.
func DefaultOptions() Options {
	return Options{
		SettleDelay:   DefaultSettleDelay,
		FinalPass:     true,
		FinalPassKind: compression.DefaultKind,
	}
}

// Packer sequences image creation, compression, removal and attach.
type Packer struct {
	Images     ImageManager
	Compressor Compressor
	Fs         afero.Fs
	Remove     func(path string) error
	Sleep      func(time.Duration)
	Out        io.Writer
	Options    Options
}

// NewPacker wires a Packer to the OS filesystem. Remove deletes the directory outright.
func NewPacker(images ImageManager, compressor Compressor, opts Options) *Packer {
	fs := afero.NewOsFs()
	return &Packer{
		Images:     images,
		Compressor: compressor,
		Fs:         fs,
		Remove: func(path string) error {
			return fsutil.DeleteDirRecursive(fs, path)
		},
		Sleep:   time.Sleep,
		Out:     os.Stdout,
		Options: opts,
	}
}

// ImagePath derives the image file for an artifact directory: "deps/" becomes "deps.asif".
func ImagePath(afdir string) string {
	return fsutil.CleanPath(afdir) + imageFormat.Extension()
}

// Pack makes afdir an ASIF-backed mount point with capacity maxSize.
// compress selects the algorithm applied to afdir's files after the image is
// created from them; "none" skips it. The first failure aborts the run.
func (p *Packer) Pack(afdir, maxSize, compress string) error {
	afdir = fsutil.CleanPath(afdir)
	imagePath := ImagePath(afdir)

	logger.LogDebug("Packing artifact directory", map[string]interface{}{
		"afdir":    afdir,
		"image":    imagePath,
		"max_size": maxSize,
		"compress": compress,
		"dry_run":  p.Options.DryRun,
	})

	removed := false
	if !fsutil.PathExists(p.Fs, imagePath) {
		if err := p.createImage(afdir, imagePath, maxSize, compress); err != nil {
			return &StageError{Stage: StageCreate, Err: err}
		}

		var err error
		removed, err = p.removeArtifactDir(afdir)
		if err != nil {
			return &StageError{Stage: StageRemove, Err: err}
		}
	}

	attachOpts := diskimage.NewAttachOptions().
		WithDryRun(p.Options.DryRun).
		WithVerbose(p.Options.Verbose).
		WithMountPoint(afdir)
	if _, err := p.Images.Attach(imagePath, attachOpts); err != nil {
		if removed {
			logger.LogWarn("Artifact directory was removed but the image could not be attached", map[string]interface{}{
				"afdir": afdir,
				"image": imagePath,
			})
		}
		return &StageError{Stage: StageAttach, Err: err}
	}
	p.vlog("attached %s -> %s", imagePath, afdir)

	if p.Options.FinalPass {
		p.Compressor.ApplyKind(imagePath, p.Options.FinalPassKind)
	}
	return nil
}

// Detach unmounts an image previously attached by Pack.
func (p *Packer) Detach(mountPoint string) error {
	_, err := p.Images.Detach(fsutil.CleanPath(mountPoint))
	return err
}

func (p *Packer) createImage(afdir, imagePath, maxSize, compress string) error {
	dryRun, verbose := p.Options.DryRun, p.Options.Verbose

	if !fsutil.PathExists(p.Fs, afdir) {
		// A blank image is created at full size, so there is nothing to compress or resize
		p.vlog("creating blank disk image")
		opts := diskimage.NewCreateBlankOptions(maxSize, diskimage.FileSystemAPFS, imageFormat).
			WithDryRun(dryRun).
			WithVerbose(verbose)
		_, err := p.Images.CreateBlank(imagePath, opts)
		return err
	}

	p.vlog("creating disk image from existing directory")
	fromOpts := diskimage.NewCreateFromOptions(imageFormat).
		WithDryRun(dryRun).
		WithVerbose(verbose)
	if _, err := p.Images.CreateFrom(afdir, imagePath, fromOpts); err != nil {
		return err
	}

	if compress != compression.KindNone.String() {
		p.vlog("Applying compression")
		p.Compressor.Apply(afdir, compress)
	}

	p.Sleep(p.Options.SettleDelay)

	p.vlog("resizing disk image")
	resizeOpts := diskimage.NewResizeOptions(maxSize).
		WithDryRun(dryRun).
		WithVerbose(verbose)
	_, err := p.Images.Resize(imagePath, resizeOpts)
	return err
}

// removeArtifactDir reports whether the directory was actually removed.
func (p *Packer) removeArtifactDir(afdir string) (bool, error) {
	if !fsutil.PathExists(p.Fs, afdir) {
		return false, nil
	}
	if p.Options.DryRun {
		fmt.Fprintf(p.Out, "[DRY RUN] removing %s\n", afdir)
		return false, nil
	}
	if err := p.Remove(afdir); err != nil {
		return false, err
	}
	logger.LogInfo("Removed artifact directory", map[string]interface{}{"afdir": afdir})
	return true, nil
}

func (p *Packer) vlog(format string, args ...interface{}) {
	if p.Options.Verbose {
		fmt.Fprintf(p.Out, format+"\n", args...)
	}
}
