package lifecycle

import "fmt"

// Stage names the step of Pack that failed. The value doubles as the message prefix.
type Stage string

const (
	StageCreate Stage = "error create image"
	StageRemove Stage = "error removing artifact directory"
	StageAttach Stage = "Error attaching ASIF"
)

// StageError wraps the first failure of a Pack run.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
