// Package tooling exposes afpack as a library for Go programs that want to
// pack artifact directories without shelling out to the CLI.
package tooling

import (
	"fmt"
	"strings"

	"github.com/deploymenttheory/afpack/internal/bootstrap"
	"github.com/deploymenttheory/afpack/internal/composition"
	"github.com/deploymenttheory/afpack/internal/config"
	"github.com/deploymenttheory/afpack/internal/logger"
	"github.com/deploymenttheory/afpack/internal/utils/errors"
	"github.com/spf13/afero"
)

// InitOptions contains options for initializing the tooling API
type InitOptions struct {
	ConfigFile  string // Path to configuration file
	Debug       bool   // Enable debug logging
	LogFormat   string // Log format: "human" or "json"
	LogFile     string // Path to log file
	SuppressLog bool   // Suppress all logging
	SkipOSCheck bool   // Do not require macOS 26
}

// PackRequest describes one artifact directory to pack.
// Empty MaxSize and Compress fall back to the configuration.
type PackRequest struct {
	ArtifactDir string
	MaxSize     string
	Compress    string
	DryRun      bool
	Verbose     bool
}

// WorkflowResult contains the results of a workflow execution
type WorkflowResult struct {
	Success      bool                   // Whether the workflow completed successfully
	ErrorMessage string                 // Error message if any
	Variables    map[string]interface{} // Final state of variables after workflow execution
}

var initialized bool

// Initialize initializes the tooling API with the given options
func Initialize(options InitOptions) error {
	if initialized {
		return nil
	}

	configErr := config.Initialize(options.ConfigFile)

	if options.Debug {
		config.Instance.Debug = true
	}

	if options.LogFormat != "" {
		config.Instance.LogFormat = options.LogFormat
	}

	if options.LogFile != "" {
		config.Instance.LogFile = options.LogFile
	}

	if options.SkipOSCheck {
		config.Instance.SkipOSCheck = true
	}

	if !options.SuppressLog {
		logConfig := logger.LoggerConfig{
			Debug:     config.Instance.Debug,
			LogFormat: config.Instance.LogFormat,
			LogFile:   config.Instance.LogFile,
		}

		if err := logger.InitLogger(logConfig); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		logger.LogInfo("Tooling API initialized", map[string]interface{}{
			"config_file": options.ConfigFile,
			"debug":       options.Debug,
			"log_format":  options.LogFormat,
		})

		// Defaults and environment are still usable after a bad config file
		if configErr != nil {
			logger.LogWarn("Configuration initialization warning", map[string]interface{}{
				"error": configErr.Error(),
			})
		}
	}

	initialized = true
	return nil
}

// DefaultOptions returns the default initialization options
func DefaultOptions() InitOptions {
	return InitOptions{
		LogFormat: "human",
	}
}

func ensureInitialized() error {
	if initialized {
		return nil
	}
	if err := Initialize(DefaultOptions()); err != nil {
		return fmt.Errorf("failed to initialize tooling API: %w", err)
	}
	return nil
}

// Pack creates or attaches the ASIF image backing req.ArtifactDir
func Pack(req PackRequest) error {
	if err := ensureInitialized(); err != nil {
		return err
	}

	if strings.TrimSpace(req.ArtifactDir) == "" {
		return errors.ErrArtifactDirRequired
	}

	cfg := config.Instance
	if req.MaxSize != "" {
		cfg.Pack.MaxSize = req.MaxSize
	}
	if req.Compress != "" {
		cfg.Pack.Compress = req.Compress
	}

	if err := bootstrap.CheckOS(cfg); err != nil {
		return err
	}

	components, err := bootstrap.Boot(cfg, bootstrap.RunOptions{DryRun: req.DryRun, Verbose: req.Verbose})
	if err != nil {
		return err
	}

	return components.Packer.Pack(req.ArtifactDir, cfg.Pack.MaxSize, cfg.Pack.Compress)
}

// Detach unmounts the image attached at mountPoint
func Detach(mountPoint string) error {
	if err := ensureInitialized(); err != nil {
		return err
	}

	components, err := bootstrap.Boot(config.Instance, bootstrap.RunOptions{})
	if err != nil {
		return err
	}
	return components.Packer.Detach(mountPoint)
}

// ExecuteWorkflow executes a workflow defined in a file
func ExecuteWorkflow(workflowFile string) (*WorkflowResult, error) {
	if err := ensureInitialized(); err != nil {
		return nil, err
	}
	return executeWorkflow(afero.NewOsFs(), workflowFile)
}

// ExecuteWorkflowFromYAML executes a workflow defined in a YAML string
func ExecuteWorkflowFromYAML(workflowYAML string) (*WorkflowResult, error) {
	if err := ensureInitialized(); err != nil {
		return nil, err
	}

	fs := afero.NewMemMapFs()
	const path = "/workflow.yaml"
	if err := afero.WriteFile(fs, path, []byte(workflowYAML), 0644); err != nil {
		return nil, fmt.Errorf("failed to stage workflow: %w", err)
	}
	return executeWorkflow(fs, path)
}

func executeWorkflow(fs afero.Fs, workflowFile string) (*WorkflowResult, error) {
	logger.LogInfo("Executing workflow", map[string]interface{}{
		"file": workflowFile,
	})

	workflow, err := composition.LoadWorkflow(fs, workflowFile)
	if err != nil {
		return &WorkflowResult{
			Success:      false,
			ErrorMessage: fmt.Sprintf("Failed to load workflow: %s", err.Error()),
		}, err
	}

	if errs := composition.ValidateWorkflow(workflow); len(errs) > 0 {
		var errorMessages []string
		for _, err := range errs {
			errorMessages = append(errorMessages, err.Error())
		}

		errorMessage := fmt.Sprintf("Workflow validation failed with %d errors: %s",
			len(errs), strings.Join(errorMessages, "; "))

		return &WorkflowResult{
			Success:      false,
			ErrorMessage: errorMessage,
		}, fmt.Errorf("%w: %s", errors.ErrWorkflowInvalid, errorMessage)
	}

	cfg := config.Instance
	if err := bootstrap.CheckOS(cfg); err != nil {
		return &WorkflowResult{Success: false, ErrorMessage: err.Error()}, err
	}

	run := bootstrap.RunOptions{}
	components, err := bootstrap.Boot(cfg, run)
	if err != nil {
		return &WorkflowResult{Success: false, ErrorMessage: err.Error()}, err
	}

	if err := composition.ExecuteWorkflow(workflow, components.Environment(cfg, run)); err != nil {
		return &WorkflowResult{
			Success:      false,
			ErrorMessage: fmt.Sprintf("Workflow execution failed: %s", err.Error()),
			Variables:    workflow.Variables,
		}, err
	}

	return &WorkflowResult{
		Success:   true,
		Variables: workflow.Variables,
	}, nil
}

// GetVersion returns the current version of the tooling API
func GetVersion() string {
	return bootstrap.Version
}

// Shutdown performs any necessary cleanup before the application exits
func Shutdown() error {
	if initialized {
		logger.LogInfo("Tooling API shutting down", nil)
		logger.Sync()
	}
	return nil
}
