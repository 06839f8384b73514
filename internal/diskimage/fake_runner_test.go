package diskimage

import (
	"bytes"
	"context"
	"strings"

	"github.com/deploymenttheory/afpack/internal/utils/executil"
	"github.com/spf13/afero"
)

type call struct {
	Name string
	Args []string
}

func (c call) String() string {
	return c.Name + " " + strings.Join(c.Args, " ")
}

// fakeRunner records invocations and replays a canned result.
type fakeRunner struct {
	calls  []call
	result *executil.Result
	err    error
	onRun  func(name string, args []string)
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (*executil.Result, error) {
	f.calls = append(f.calls, call{Name: name, Args: append([]string(nil), args...)})
	if f.onRun != nil {
		f.onRun(name, args)
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &executil.Result{Stdout: "ok\n"}, nil
}

func newTestClient() (*Client, *fakeRunner, afero.Fs, *bytes.Buffer) {
	runner := &fakeRunner{}
	fs := afero.NewMemMapFs()
	out := &bytes.Buffer{}
	return &Client{Runner: runner, Fs: fs, Out: out, Diskutil: DefaultDiskutil}, runner, fs, out
}
