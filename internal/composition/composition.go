// Package composition runs afpack operations described in a YAML or JSON workflow file.
package composition

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/deploymenttheory/afpack/internal/logger"
	"github.com/deploymenttheory/afpack/internal/utils/errors"
	"github.com/deploymenttheory/afpack/internal/utils/fsutil"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// LoadWorkflow loads a composition workflow from a file
func LoadWorkflow(fs afero.Fs, filePath string) (*Workflow, error) {
	if !fsutil.PathExists(fs, filePath) {
		return nil, fmt.Errorf("%w: workflow file %s", errors.ErrFileNotFound, filePath)
	}

	v := viper.New()
	v.SetFs(fs)
	v.SetConfigFile(filePath)

	// Determine the file type from the extension, defaulting to YAML
	ext := strings.ToLower(filepath.Ext(filePath))
	if ext != "" {
		v.SetConfigType(ext[1:])
	} else {
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: reading workflow file: %v", errors.ErrConfigParseError, err)
	}

	workflow := &Workflow{}
	if err := v.Unmarshal(workflow); err != nil {
		return nil, fmt.Errorf("%w: parsing workflow: %v", errors.ErrConfigParseError, err)
	}

	if workflow.Variables == nil {
		workflow.Variables = make(map[string]interface{})
	}

	addSystemVariables(workflow)

	if err := processTemplates(workflow); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrWorkflowInvalid, err)
	}

	return workflow, nil
}

// addSystemVariables adds system variables to the workflow's variables.
// Values defined in the workflow file win.
func addSystemVariables(workflow *Workflow) {
	setDefault := func(key string, value interface{}) {
		if _, ok := workflow.Variables[key]; !ok {
			workflow.Variables[key] = value
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		setDefault("current_dir", cwd)
	}

	if home, err := fsutil.GetHomeDir(); err == nil {
		setDefault("home_dir", home)
	}

	setDefault("timestamp", fmt.Sprintf("%d", time.Now().Unix()))
}

// processTemplates processes template strings in step parameters
func processTemplates(workflow *Workflow) error {
	for i, step := range workflow.Steps {
		processedParams := make(map[string]interface{}, len(step.Parameters))
		for key, value := range step.Parameters {
			strValue, ok := value.(string)
			if !ok {
				processedParams[key] = value
				continue
			}
			processed, err := processTemplate(strValue, workflow.Variables)
			if err != nil {
				return fmt.Errorf("error processing template in step %s, parameter %s: %w", step.Name, key, err)
			}
			processedParams[key] = processed
		}
		workflow.Steps[i].Parameters = processedParams
	}
	return nil
}

// processTemplate processes a single template string
func processTemplate(templateString string, variables map[string]interface{}) (string, error) {
	if !strings.Contains(templateString, "{{") {
		return templateString, nil
	}

	tmpl, err := template.New("inline").Option("missingkey=error").Parse(templateString)
	if err != nil {
		return "", err
	}

	var buffer bytes.Buffer
	if err := tmpl.Execute(&buffer, variables); err != nil {
		return "", err
	}

	return buffer.String(), nil
}

// ValidateWorkflow validates the workflow structure and parameters
func ValidateWorkflow(workflow *Workflow) []error {
	var errs []error

	if workflow.Name == "" {
		errs = append(errs, fmt.Errorf("%w: workflow name is required", errors.ErrWorkflowInvalid))
	}

	if len(workflow.Steps) == 0 {
		errs = append(errs, fmt.Errorf("%w: workflow must contain at least one step", errors.ErrWorkflowInvalid))
	}

	for i, step := range workflow.Steps {
		if step.Name == "" {
			errs = append(errs, fmt.Errorf("%w: step %d: name is required", errors.ErrWorkflowInvalid, i+1))
		}

		if step.Type == "" {
			errs = append(errs, fmt.Errorf("%w: step %d (%s): type is required", errors.ErrWorkflowInvalid, i+1, step.Name))
			continue
		}

		if !isValidStepType(step.Type) {
			errs = append(errs, fmt.Errorf("%w: step %d (%s): invalid type '%s'", errors.ErrWorkflowInvalid, i+1, step.Name, step.Type))
			continue
		}

		for _, err := range validateStepParameters(step) {
			errs = append(errs, fmt.Errorf("%w: step %d (%s): %v", errors.ErrWorkflowInvalid, i+1, step.Name, err))
		}
	}

	return errs
}

// isValidStepType checks if a step type is valid
func isValidStepType(stepType string) bool {
	_, ok := requiredParameters[stepType]
	return ok
}

// requiredParameters lists the parameters each step type cannot run without
var requiredParameters = map[string][]string{
	StepPack:     {"afdir"},
	StepAttach:   {"image"},
	StepDetach:   {"mount_point"},
	StepResize:   {"image", "size"},
	StepCompress: {"path"},
}

// validateStepParameters validates parameters for a specific step type
func validateStepParameters(step Step) []error {
	var errs []error

	for _, name := range requiredParameters[step.Type] {
		if _, ok := stringParam(step, name); !ok {
			errs = append(errs, fmt.Errorf("missing required parameter '%s'", name))
		}
	}

	return errs
}

// ExecuteWorkflow executes the workflow steps. The first failing step aborts the run.
func ExecuteWorkflow(workflow *Workflow, env *Environment) error {
	logger.LogInfo("Starting workflow execution", map[string]interface{}{
		"workflow": workflow.Name,
		"steps":    len(workflow.Steps),
	})

	registry := createStepHandlerRegistry(env)

	for i, step := range workflow.Steps {
		logger.LogInfo(fmt.Sprintf("Executing step %d/%d: %s", i+1, len(workflow.Steps), step.Name),
			map[string]interface{}{
				"type":        step.Type,
				"description": step.Description,
			})

		if step.Condition != "" {
			shouldRun, err := evaluateCondition(step.Condition, workflow.Variables)
			if err != nil {
				return fmt.Errorf("error evaluating condition for step '%s': %w", step.Name, err)
			}

			if !shouldRun {
				logger.LogInfo(fmt.Sprintf("Skipping step %d/%d: %s (condition not met)", i+1, len(workflow.Steps), step.Name), nil)
				continue
			}
		}

		handler, found := registry[step.Type]
		if !found {
			return fmt.Errorf("%w: no handler found for step type '%s'", errors.ErrWorkflowInvalid, step.Type)
		}

		result, err := handler(step, workflow.Variables)
		if err != nil {
			return fmt.Errorf("error executing step '%s': %w", step.Name, err)
		}

		for k, v := range result {
			workflow.Variables[k] = v
		}

		logger.LogInfo(fmt.Sprintf("Completed step %d/%d: %s", i+1, len(workflow.Steps), step.Name), nil)
	}

	logger.LogInfo("Workflow execution completed successfully", map[string]interface{}{
		"workflow": workflow.Name,
	})

	return nil
}
