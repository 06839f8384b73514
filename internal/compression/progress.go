package compression

import (
	"github.com/deploymenttheory/afpack/internal/logger"
)

// Progress receives per-file events from an Engine. Implementations must be
// safe for concurrent use because files are compressed in parallel.
type Progress interface {
	// Error reports a failure that is not tied to a started file task.
	Error(path, message string)
	// FileTask is called once before a file is compressed.
	FileTask(path string, size int64) Task
}

// Task tracks a single file.
type Task interface {
	Increment(n int64)
	Error(message string)
}

// NoProgress logs errors and discards everything else.
type NoProgress struct{}

func (NoProgress) Error(path, message string) {
	logger.LogWarn("Compression error", map[string]interface{}{
		"path":  path,
		"error": message,
	})
}

func (NoProgress) FileTask(path string, _ int64) Task {
	return noTask{path: path}
}

type noTask struct {
	path string
}

func (noTask) Increment(int64) {}

func (t noTask) Error(message string) {
	NoProgress{}.Error(t.path, message)
}
