package composition

import (
	"fmt"
	"strings"

	"github.com/deploymenttheory/afpack/internal/diskimage"
	"github.com/deploymenttheory/afpack/internal/lifecycle"
	"github.com/deploymenttheory/afpack/internal/logger"
	"github.com/deploymenttheory/afpack/internal/utils/errors"
)

// Step types understood by ExecuteWorkflow
const (
	StepPack     = "pack"
	StepAttach   = "attach"
	StepDetach   = "detach"
	StepResize   = "resize"
	StepCompress = "compress"
)

// StepHandler is a function that executes a workflow step
type StepHandler func(step Step, variables map[string]interface{}) (map[string]interface{}, error)

func createStepHandlerRegistry(env *Environment) map[string]StepHandler {
	return map[string]StepHandler{
		StepPack:     env.handlePackStep,
		StepAttach:   env.handleAttachStep,
		StepDetach:   env.handleDetachStep,
		StepResize:   env.handleResizeStep,
		StepCompress: env.handleCompressStep,
	}
}

// evaluateCondition evaluates a condition string using the provided variables
func evaluateCondition(condition string, variables map[string]interface{}) (bool, error) {
	result, err := processTemplate(condition, variables)
	if err != nil {
		return false, err
	}

	result = strings.TrimSpace(strings.ToLower(result))
	return result == "true" || result == "yes" || result == "1", nil
}

// stringParam returns a non-empty string parameter
func stringParam(step Step, key string) (string, bool) {
	value, ok := step.Parameters[key].(string)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return value, true
}

func requireParam(step Step, key string) (string, error) {
	value, ok := stringParam(step, key)
	if !ok {
		logger.LogError(fmt.Sprintf("%s step requires a %s parameter", step.Type, key), nil, nil)
		return "", fmt.Errorf("%w: missing parameter '%s'", errors.ErrInvalidArgument, key)
	}
	return value, nil
}

func (e *Environment) handlePackStep(step Step, variables map[string]interface{}) (map[string]interface{}, error) {
	afdir, err := requireParam(step, "afdir")
	if err != nil {
		return nil, err
	}

	maxSize, ok := stringParam(step, "maxsize")
	if !ok {
		maxSize = e.DefaultMaxSize
	}

	compress, ok := stringParam(step, "compress")
	if !ok {
		compress = e.DefaultCompress
	}

	if err := e.Packer.Pack(afdir, maxSize, compress); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"image_path":  lifecycle.ImagePath(afdir),
		"mount_point": afdir,
	}, nil
}

func (e *Environment) handleAttachStep(step Step, variables map[string]interface{}) (map[string]interface{}, error) {
	image, err := requireParam(step, "image")
	if err != nil {
		return nil, err
	}

	opts := diskimage.NewAttachOptions().WithDryRun(e.DryRun).WithVerbose(e.Verbose)
	if mountPoint, ok := stringParam(step, "mount_point"); ok {
		opts = opts.WithMountPoint(mountPoint)
	}

	if _, err := e.Images.Attach(image, opts); err != nil {
		return nil, err
	}

	return map[string]interface{}{"mount_point": opts.MountPoint}, nil
}

func (e *Environment) handleDetachStep(step Step, variables map[string]interface{}) (map[string]interface{}, error) {
	mountPoint, err := requireParam(step, "mount_point")
	if err != nil {
		return nil, err
	}

	_, err = e.Images.Detach(mountPoint)
	return nil, err
}

func (e *Environment) handleResizeStep(step Step, variables map[string]interface{}) (map[string]interface{}, error) {
	image, err := requireParam(step, "image")
	if err != nil {
		return nil, err
	}

	size, err := requireParam(step, "size")
	if err != nil {
		return nil, err
	}

	opts := diskimage.NewResizeOptions(size).WithDryRun(e.DryRun).WithVerbose(e.Verbose)
	_, err = e.Images.Resize(image, opts)
	return nil, err
}

func (e *Environment) handleCompressStep(step Step, variables map[string]interface{}) (map[string]interface{}, error) {
	path, err := requireParam(step, "path")
	if err != nil {
		return nil, err
	}

	algorithm, ok := stringParam(step, "algorithm")
	if !ok {
		algorithm = "lzfse"
	}

	e.Compressor.Apply(path, algorithm)
	return nil, nil
}
