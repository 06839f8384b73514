// Package diskimage drives `diskutil image` to create, resize, attach and
// detach disk images. It never interprets image contents itself.
package diskimage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/deploymenttheory/afpack/internal/logger"
	"github.com/deploymenttheory/afpack/internal/utils/errors"
	"github.com/deploymenttheory/afpack/internal/utils/executil"
	"github.com/deploymenttheory/afpack/internal/utils/fsutil"
	"github.com/spf13/afero"
)

// DefaultDiskutil is the binary name resolved through PATH.
const DefaultDiskutil = "diskutil"

const (
	dryRunEchoPrefix   = "[DRY RUN] Would execute: "
	dryRunResultPrefix = "[DRY RUN] Command: "
	verbosePrefix      = "[VERBOSE] Executing: "
)

// Client issues diskutil commands. Every call blocks until diskutil exits.
type Client struct {
	Runner   executil.Runner
	Fs       afero.Fs
	Out      io.Writer // receives dry-run and verbose echoes
	Diskutil string
}

// NewClient returns a Client that runs the real diskutil against the OS filesystem.
func NewClient() *Client {
	return &Client{
		Runner:   executil.ExecRunner{},
		Fs:       afero.NewOsFs(),
		Out:      os.Stdout,
		Diskutil: DefaultDiskutil,
	}
}

// Attach attaches imagePath, optionally at a mount point that is created on demand.
func (c *Client) Attach(imagePath string, opts AttachOptions) (string, error) {
	args := []string{"image", "attach"}

	if opts.MountPoint != "" {
		// Dry runs never touch the filesystem, so the mount point is left alone
		if !opts.DryRun && !fsutil.PathExists(c.Fs, opts.MountPoint) {
			if err := fsutil.CreateDirIfNotExists(c.Fs, opts.MountPoint); err != nil {
				return "", fmt.Errorf("%w: %v", errors.ErrCommandFailed, err)
			}
		}
		args = append(args, "--mountPoint", opts.MountPoint)
	}

	if opts.Verbose {
		args = append(args, "--verbose")
	}
	args = append(args, imagePath)

	if opts.DryRun {
		return c.echoDryRun(args), nil
	}
	return c.run(args, opts.Verbose)
}

// CreateBlank creates an empty image of opts.Size.
//
//	diskutil image create blank --fs apfs --format ASIF --size 2GB ./node_modules.asif
func (c *Client) CreateBlank(imagePath string, opts CreateBlankOptions) (string, error) {
	if !IsValidSize(opts.Size) {
		return "", fmt.Errorf("%w: %s", errors.ErrInvalidSize, opts.Size)
	}

	args := []string{
		"image", "create", "blank",
		"--fs", strings.ToLower(opts.FS.String()),
		"--format", opts.Format.String(),
		"--size", opts.Size,
		imagePath,
	}

	if opts.DryRun {
		return c.echoDryRun(args), nil
	}
	return c.run(args, opts.Verbose)
}

// CreateFrom creates destPath from the contents of sourcePath, a directory or another image.
//
//	diskutil image create from --format ASIF ./node_modules ./node_modules.asif
func (c *Client) CreateFrom(sourcePath, destPath string, opts CreateFromOptions) (string, error) {
	args := []string{
		"image", "create", "from",
		"--format", opts.Format.String(),
		sourcePath,
		destPath,
	}

	if opts.DryRun {
		return c.echoDryRun(args), nil
	}

	if !fsutil.PathExists(c.Fs, sourcePath) {
		return "", fmt.Errorf("%w: %s", errors.ErrInvalidPath, sourcePath)
	}
	return c.run(args, opts.Verbose)
}

// Resize changes the capacity of imagePath to opts.Size.
func (c *Client) Resize(imagePath string, opts ResizeOptions) (string, error) {
	if !IsValidSize(opts.Size) {
		return "", fmt.Errorf("%w: %s", errors.ErrInvalidSize, opts.Size)
	}

	args := []string{"image", "resize", "--size", opts.Size, imagePath}

	if opts.DryRun {
		return c.echoDryRun(args), nil
	}

	if !fsutil.PathExists(c.Fs, imagePath) {
		return "", fmt.Errorf("%w: %s", errors.ErrInvalidPath, imagePath)
	}
	return c.run(args, opts.Verbose)
}

// Detach unmounts the volume at mountPoint.
func (c *Client) Detach(mountPoint string) (string, error) {
	return c.run([]string{"unmount", mountPoint}, false)
}

func (c *Client) run(args []string, verbose bool) (string, error) {
	cmdline := c.commandLine(args)
	if verbose {
		fmt.Fprintln(c.Out, verbosePrefix+cmdline)
	}
	logger.LogDebug("Running diskutil", map[string]interface{}{"command": cmdline})

	res, err := c.Runner.Run(context.Background(), c.Diskutil, args...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrDiskutilNotFound, err)
	}

	if res.ExitCode != 0 {
		logger.LogDebug("diskutil failed", map[string]interface{}{
			"command":   cmdline,
			"exit_code": res.ExitCode,
		})
		return "", fmt.Errorf("%w: %s", errors.ErrCommandFailed, res.Stderr)
	}
	return res.Stdout, nil
}

func (c *Client) echoDryRun(args []string) string {
	cmdline := c.commandLine(args)
	fmt.Fprintln(c.Out, dryRunEchoPrefix+cmdline)
	return dryRunResultPrefix + cmdline
}

// commandLine renders args the way a user would type them, quoting where the shell needs it.
func (c *Client) commandLine(args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, c.Diskutil)
	for _, arg := range args {
		if arg == "" || strings.ContainsAny(arg, " \t\"'\\$") {
			arg = strconv.Quote(arg)
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}
