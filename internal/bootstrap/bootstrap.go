// Package bootstrap assembles the diskutil client, compression trigger and
// packer from the loaded configuration.
package bootstrap

import (
	"fmt"

	"github.com/deploymenttheory/afpack/internal/composition"
	"github.com/deploymenttheory/afpack/internal/compression"
	"github.com/deploymenttheory/afpack/internal/config"
	"github.com/deploymenttheory/afpack/internal/diskimage"
	"github.com/deploymenttheory/afpack/internal/lifecycle"
	"github.com/deploymenttheory/afpack/internal/logger"
	"github.com/deploymenttheory/afpack/internal/utils/errors"
	"github.com/deploymenttheory/afpack/internal/utils/fsutil"
	"github.com/deploymenttheory/afpack/internal/utils/osutil"
	"github.com/spf13/afero"
)

// Version is stamped at build time with -ldflags "-X .../bootstrap.Version=..."
var Version = "0.1.0"

// RunOptions are the per-invocation switches that never live in a config file.
type RunOptions struct {
	DryRun  bool
	Verbose bool
}

// Components holds the wired collaborators for one afpack run.
type Components struct {
	Images  *diskimage.Client
	Trigger *compression.Trigger
	Packer  *lifecycle.Packer
}

// Boot builds the components described by cfg.
func Boot(cfg config.AppConfig, run RunOptions) (*Components, error) {
	images := diskimage.NewClient()
	images.Diskutil = cfg.Diskutil.Path

	trigger := compression.NewTrigger(compression.NewAFSCEngine(cfg.Compression.Tool))
	trigger.MinRatio = cfg.Compression.MinRatio
	trigger.Workers = workerCount(cfg.Compression.Workers)
	trigger.SkipCompressed = cfg.Compression.SkipCompressed
	trigger.DryRun = run.DryRun

	finalKind, ok := compression.ParseKind(cfg.Pack.FinalPassKind)
	if !ok {
		return nil, fmt.Errorf("%w: pack.final_pass_kind %q", errors.ErrUnsupportedCompression, cfg.Pack.FinalPassKind)
	}

	opts := lifecycle.Options{
		DryRun:        run.DryRun,
		Verbose:       run.Verbose,
		SettleDelay:   cfg.Pack.SettleDelay,
		FinalPass:     cfg.Pack.FinalPass,
		FinalPassKind: finalKind,
	}
	packer := lifecycle.NewPacker(images, trigger, opts)

	remove, err := NewRemover(packer.Fs, cfg.Pack.Removal)
	if err != nil {
		return nil, err
	}
	packer.Remove = remove

	logger.LogDebug("Components ready", map[string]interface{}{
		"diskutil":    images.Diskutil,
		"compressor":  cfg.Compression.Tool,
		"workers":     trigger.Workers,
		"removal":     cfg.Pack.Removal,
		"final_pass":  opts.FinalPass,
		"settle_time": opts.SettleDelay.String(),
	})

	return &Components{
		Images:  images,
		Trigger: trigger,
		Packer:  packer,
	}, nil
}

// Environment exposes the components to workflow steps.
func (c *Components) Environment(cfg config.AppConfig, run RunOptions) *composition.Environment {
	return &composition.Environment{
		Packer:          c.Packer,
		Images:          c.Images,
		Compressor:      c.Trigger,
		DryRun:          run.DryRun,
		Verbose:         run.Verbose,
		DefaultMaxSize:  cfg.Pack.MaxSize,
		DefaultCompress: cfg.Pack.Compress,
	}
}

// NewRemover returns the function that disposes of an artifact directory
// once its contents live in the image.
func NewRemover(fs afero.Fs, mode string) (func(path string) error, error) {
	switch mode {
	case config.RemovalTrash:
		return func(path string) error {
			trashDir, err := fsutil.GetTrashDir()
			if err != nil {
				return fmt.Errorf("%w: %v", errors.ErrTrashFailed, err)
			}
			target, err := fsutil.MoveToTrash(fs, trashDir, path)
			if err != nil {
				return err
			}
			logger.LogDebug("Moved to trash", map[string]interface{}{"path": path, "target": target})
			return nil
		}, nil
	case config.RemovalDelete:
		return func(path string) error {
			return fsutil.DeleteDirRecursive(fs, path)
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown removal mode %q", errors.ErrConfigInvalid, mode)
	}
}

// CheckOS fails unless the host can create ASIF images or the check is disabled.
func CheckOS(cfg config.AppConfig) error {
	if cfg.SkipOSCheck {
		logger.LogWarn("Skipping macOS version check", nil)
		return nil
	}
	return osutil.CheckASIFSupport(afero.NewOsFs())
}

// workerCount keeps the compression pool between one and the CPU count.
func workerCount(configured int) int {
	if configured < 1 {
		return 1
	}
	if n := osutil.GetNumCPU(); configured > n {
		return n
	}
	return configured
}
