package compression

import (
	"context"
	"fmt"
	"io/fs"
	"math"
	"strconv"
	"strings"

	"github.com/deploymenttheory/afpack/internal/logger"
	"github.com/deploymenttheory/afpack/internal/utils/executil"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"
)

// DefaultTool is the afsctool binary resolved through PATH.
const DefaultTool = "afsctool"

// Engine compresses every regular file below the given roots in place.
// Per-file failures are reported to progress; there is no aggregate error.
type Engine interface {
	RecursiveCompress(roots []string, kind Kind, minRatio float64, workers int, progress Progress, skipCompressed bool)
}

// AFSCEngine walks the roots itself and hands each file to afsctool.
type AFSCEngine struct {
	Runner executil.Runner
	Fs     afero.Fs
	Tool   string

	// IsCompressed reports whether a file already carries UF_COMPRESSED.
	IsCompressed func(path string) bool
}

// NewAFSCEngine returns an engine that runs the real afsctool on the OS filesystem.
func NewAFSCEngine(tool string) *AFSCEngine {
	if tool == "" {
		tool = DefaultTool
	}
	return &AFSCEngine{
		Runner:       executil.ExecRunner{},
		Fs:           afero.NewOsFs(),
		Tool:         tool,
		IsCompressed: isCompressed,
	}
}

type fileJob struct {
	path string
	size int64
}

// RecursiveCompress blocks until every file has been processed.
func (e *AFSCEngine) RecursiveCompress(roots []string, kind Kind, minRatio float64, workers int, progress Progress, skipCompressed bool) {
	if kind == KindNone {
		return
	}
	if workers < 1 {
		workers = 1
	}
	if progress == nil {
		progress = NoProgress{}
	}

	jobs := e.collect(roots, progress, skipCompressed)
	logger.LogDebug("Compressing files", map[string]interface{}{
		"files":     len(jobs),
		"algorithm": kind.String(),
		"workers":   workers,
	})

	args := e.baseArgs(kind, minRatio)
	p := pool.New().WithMaxGoroutines(workers)
	for _, job := range jobs {
		job := job
		p.Go(func() {
			e.compressFile(job, args, progress)
		})
	}
	p.Wait()
}

func (e *AFSCEngine) collect(roots []string, progress Progress, skipCompressed bool) []fileJob {
	var jobs []fileJob
	for _, root := range roots {
		err := afero.Walk(e.Fs, root, func(path string, info fs.FileInfo, err error) error {
			if err != nil {
				progress.Error(path, err.Error())
				return nil
			}
			if !info.Mode().IsRegular() || info.Size() == 0 {
				return nil
			}
			if skipCompressed && e.IsCompressed != nil && e.IsCompressed(path) {
				return nil
			}
			jobs = append(jobs, fileJob{path: path, size: info.Size()})
			return nil
		})
		if err != nil {
			progress.Error(root, err.Error())
		}
	}
	return jobs
}

// baseArgs builds `-c -T <KIND> [-s <savings%>]`. A ratio of 1.0 or more
// accepts any saving, so no threshold is passed.
func (e *AFSCEngine) baseArgs(kind Kind, minRatio float64) []string {
	args := []string{"-c", "-T", kind.toolName()}
	if minRatio > 0 && minRatio < 1 {
		savings := int(math.Round((1 - minRatio) * 100))
		args = append(args, "-s", strconv.Itoa(savings))
	}
	return args
}

func (e *AFSCEngine) compressFile(job fileJob, baseArgs []string, progress Progress) {
	task := progress.FileTask(job.path, job.size)

	args := append(append([]string(nil), baseArgs...), job.path)
	res, err := e.Runner.Run(context.Background(), e.Tool, args...)
	if err != nil {
		task.Error(fmt.Sprintf("%s unavailable: %v", e.Tool, err))
		return
	}
	if res.ExitCode != 0 {
		msg := strings.TrimSpace(res.Stderr)
		if msg == "" {
			msg = fmt.Sprintf("%s exited with status %d", e.Tool, res.ExitCode)
		}
		task.Error(msg)
		return
	}
	task.Increment(job.size)
}
