package cmd

import (
	"fmt"

	"github.com/deploymenttheory/afpack/internal/bootstrap"
	"github.com/deploymenttheory/afpack/internal/config"
	"github.com/deploymenttheory/afpack/internal/diskimage"
	"github.com/spf13/cobra"
)

// attachCmd mounts an existing image without touching any directory contents
var attachCmd = &cobra.Command{
	Use:   "attach <image>",
	Short: "Attach an existing disk image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		run := runOptions(cmd)
		components, err := bootstrap.Boot(config.Instance, run)
		if err != nil {
			return err
		}

		mountPoint, _ := cmd.Flags().GetString("mount-point")
		opts := diskimage.NewAttachOptions().
			WithDryRun(run.DryRun).
			WithVerbose(run.Verbose)
		if mountPoint != "" {
			opts = opts.WithMountPoint(mountPoint)
		}

		out, err := components.Images.Attach(args[0], opts)
		if err != nil {
			return err
		}
		if !run.DryRun && out != "" {
			fmt.Fprint(cmd.OutOrStdout(), out)
		}
		return nil
	},
}

// detachCmd unmounts a volume previously attached by afpack
var detachCmd = &cobra.Command{
	Use:   "detach <mountpoint>",
	Short: "Detach the image mounted at a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		components, err := bootstrap.Boot(config.Instance, runOptions(cmd))
		if err != nil {
			return err
		}
		return components.Packer.Detach(args[0])
	},
}

func init() {
	attachCmd.Flags().String("mount-point", "", "Directory to mount the image at (created if missing)")
}
