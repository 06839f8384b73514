package compression

import (
	"fmt"
	"io"
	"os"

	"github.com/deploymenttheory/afpack/internal/logger"
)

// Trigger runs an Engine over a single root with fixed tuning.
type Trigger struct {
	Engine         Engine
	MinRatio       float64
	Workers        int
	SkipCompressed bool
	Progress       Progress
	DryRun         bool
	Out            io.Writer
}

// NewTrigger returns a trigger with a 1.0 ratio threshold, two workers and
// already-compressed files skipped.
func NewTrigger(engine Engine) *Trigger {
	return &Trigger{
		Engine:         engine,
		MinRatio:       1.0,
		Workers:        2,
		SkipCompressed: true,
		Progress:       NoProgress{},
		Out:            os.Stdout,
	}
}

// Apply compresses root with the algorithm named by selector. "none" does
// nothing; unknown selectors fall back to DefaultKind with a warning.
func (t *Trigger) Apply(root, selector string) {
	kind, ok := ParseKind(selector)
	if !ok {
		logger.LogWarn(fmt.Sprintf("Warning: Unknown compression type '%s', using default", selector), map[string]interface{}{
			"default": DefaultKind.String(),
		})
	}
	t.ApplyKind(root, kind)
}

// ApplyKind compresses root with kind. It blocks until the engine finishes.
func (t *Trigger) ApplyKind(root string, kind Kind) {
	if kind == KindNone {
		return
	}

	if t.DryRun {
		fmt.Fprintf(t.Out, "[DRY RUN] Would compress %s with %s\n", root, kind)
		return
	}

	logger.LogDebug("Applying compression", map[string]interface{}{
		"path":      root,
		"algorithm": kind.String(),
	})
	t.Engine.RecursiveCompress([]string{root}, kind, t.MinRatio, t.Workers, t.Progress, t.SkipCompressed)
}
