package cmd

import (
	"fmt"
	"os"

	"github.com/deploymenttheory/afpack/internal/bootstrap"
	"github.com/deploymenttheory/afpack/internal/config"
	"github.com/deploymenttheory/afpack/internal/logger"
	"github.com/deploymenttheory/afpack/internal/utils/errors"
	"github.com/spf13/cobra"
)

var cfgFile string
var workflowFile string

// rootCmd packs an artifact directory into an attached ASIF image
var rootCmd = &cobra.Command{
	Use:   "afpack <afdir>",
	Short: "Pack an artifact directory into a mounted ASIF disk image",
	Long: `afpack moves a build artifact directory (node_modules, target, .venv)
into a sparse ASIF disk image and mounts the image back at the same path.

If the image already exists it is simply attached. Otherwise it is created
from the directory (or blank when the directory is missing), optionally
compressed, resized to --maxsize, and the original directory is removed.

ASIF images require macOS 26 Tahoe or later.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// CLI flags can override config settings
		logChanged := false
		if cmd.Flags().Changed("debug") {
			config.Instance.Debug, _ = cmd.Flags().GetBool("debug")
			logChanged = true
		}

		if cmd.Flags().Changed("log-format") {
			config.Instance.LogFormat, _ = cmd.Flags().GetString("log-format")
			logChanged = true
		}

		if cmd.Flags().Changed("skip-os-check") {
			config.Instance.SkipOSCheck, _ = cmd.Flags().GetBool("skip-os-check")
		}

		if !logChanged {
			return nil
		}
		return logger.InitLogger(logger.LoggerConfig{
			Debug:     config.Instance.Debug,
			LogFormat: config.Instance.LogFormat,
			LogFile:   config.Instance.LogFile,
		})
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if workflowFile != "" {
			return executeWorkflow(cmd, workflowFile)
		}

		if len(args) == 0 {
			return errors.ErrArtifactDirRequired
		}

		cfg := packConfig(cmd, config.Instance)
		if err := bootstrap.CheckOS(cfg); err != nil {
			return err
		}

		components, err := bootstrap.Boot(cfg, runOptions(cmd))
		if err != nil {
			return err
		}

		return components.Packer.Pack(args[0], cfg.Pack.MaxSize, cfg.Pack.Compress)
	},
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.LogError("Command execution failed", err, nil)
		logger.Sync()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Config file flag. main reads it before the config is loaded.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is search in standard locations)")

	// Workflow file flag
	rootCmd.PersistentFlags().StringVarP(&workflowFile, "workflow", "w", "", "workflow file to execute")

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("log-format", "human", "Log format: json or human")
	rootCmd.PersistentFlags().Bool("dry-run", false, "Print diskutil commands instead of running them")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Print each diskutil command before running it")
	rootCmd.PersistentFlags().Bool("skip-os-check", false, "Skip the macOS 26 version check")

	addPackFlags(rootCmd)

	rootCmd.AddCommand(attachCmd)
	rootCmd.AddCommand(detachCmd)
	rootCmd.AddCommand(versionCmd)
}

// addPackFlags registers the flags that shape a pack run
func addPackFlags(cmd *cobra.Command) {
	cmd.Flags().String("compress", "none", "Compression applied to the directory before resize: none, lzfse, lzvn or zlib")
	cmd.Flags().String("maxsize", "10G", "Maximum size of the image, e.g. 512M, 10G, 1T")
}

// packConfig returns cfg with explicitly set pack flags applied
func packConfig(cmd *cobra.Command, cfg config.AppConfig) config.AppConfig {
	if cmd.Flags().Changed("compress") {
		cfg.Pack.Compress, _ = cmd.Flags().GetString("compress")
	}
	if cmd.Flags().Changed("maxsize") {
		cfg.Pack.MaxSize, _ = cmd.Flags().GetString("maxsize")
	}
	return cfg
}

// runOptions reads the per-invocation switches
func runOptions(cmd *cobra.Command) bootstrap.RunOptions {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	verbose, _ := cmd.Flags().GetBool("verbose")
	return bootstrap.RunOptions{DryRun: dryRun, Verbose: verbose}
}
