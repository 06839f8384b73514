package cmd

import (
	"fmt"

	"github.com/deploymenttheory/afpack/internal/bootstrap"
	"github.com/deploymenttheory/afpack/internal/composition"
	"github.com/deploymenttheory/afpack/internal/config"
	"github.com/deploymenttheory/afpack/internal/logger"
	"github.com/deploymenttheory/afpack/internal/utils/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// executeWorkflow loads, validates and runs a workflow file
func executeWorkflow(cmd *cobra.Command, file string) error {
	logger.LogInfo("Executing workflow", map[string]interface{}{
		"file": file,
	})

	workflow, err := composition.LoadWorkflow(afero.NewOsFs(), file)
	if err != nil {
		return err
	}

	if errs := composition.ValidateWorkflow(workflow); len(errs) > 0 {
		for _, err := range errs {
			logger.LogError("Workflow validation error", err, nil)
		}
		return fmt.Errorf("%w: %d validation errors in %s", errors.ErrWorkflowInvalid, len(errs), file)
	}

	cfg := packConfig(cmd, config.Instance)
	if err := bootstrap.CheckOS(cfg); err != nil {
		return err
	}

	run := runOptions(cmd)
	components, err := bootstrap.Boot(cfg, run)
	if err != nil {
		return err
	}

	return composition.ExecuteWorkflow(workflow, components.Environment(cfg, run))
}
