package external

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	ps "github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mysh/internal/parser"
	"mysh/internal/resolver"
)

type fixture struct {
	runner *Runner
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	dir    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		stdout: new(bytes.Buffer),
		stderr: new(bytes.Buffer),
		dir:    t.TempDir(),
	}
	f.runner = &Runner{
		Resolver: resolver.FromEnv(),
		Stdin:    strings.NewReader(""),
		Stdout:   f.stdout,
		Stderr:   f.stderr,
	}
	return f
}

func (f *fixture) path(name string) string {
	return filepath.Join(f.dir, name)
}

// run parses line and executes it, failing the test if the pipeline does
// not terminate in time, which is what a leaked pipe end looks like.
func (f *fixture) run(t *testing.T, line string) (Result, error) {
	t.Helper()

	tokens, err := parser.Tokenize(line, parser.DefaultMaxTokens)
	require.NoError(t, err)
	pipeline, err := parser.Parse(tokens)
	require.NoError(t, err)

	type outcome struct {
		result Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := f.runner.Run(pipeline)
		done <- outcome{result, err}
	}()

	select {
	case o := <-done:
		return o.result, o.err
	case <-time.After(10 * time.Second):
		t.Fatalf("pipeline %q did not terminate", line)
		return Result{}, nil
	}
}

func TestRunSingle(t *testing.T) {
	f := newFixture(t)

	result, err := f.run(t, "printf hello")
	require.NoError(t, err)
	assert.True(t, result.Success())
	assert.Equal(t, "hello", f.stdout.String())

	require.Len(t, result.Stages, 1)
	assert.True(t, result.Stages[0].Started)
	assert.NotZero(t, result.Stages[0].Pid)
}

func TestRunExitCode(t *testing.T) {
	f := newFixture(t)

	result, err := f.run(t, "sh -c 'exit 3'")
	require.NoError(t, err)
	assert.False(t, result.Success())
	assert.Equal(t, 3, result.Stages[0].ExitCode)
}

func TestRunPipelinePreservesBytes(t *testing.T) {
	f := newFixture(t)

	result, err := f.run(t, `printf 'a\nb\nc\n' | cat`)
	require.NoError(t, err)
	assert.True(t, result.Success())
	assert.Equal(t, "a\nb\nc\n", f.stdout.String())
}

func TestRunPipelineCountsLines(t *testing.T) {
	f := newFixture(t)

	result, err := f.run(t, `printf 'a\nb\nc\n' | wc -l`)
	require.NoError(t, err)
	assert.True(t, result.Success())
	assert.Equal(t, "3", strings.TrimSpace(f.stdout.String()))
}

func TestRunStatusIsLastStage(t *testing.T) {
	f := newFixture(t)

	result, err := f.run(t, "false | true")
	require.NoError(t, err)
	assert.True(t, result.Success())
	assert.NotEqual(t, 0, result.Stages[0].ExitCode)

	result, err = f.run(t, "true | false")
	require.NoError(t, err)
	assert.False(t, result.Success())
}

func TestRunThreeStagesTerminate(t *testing.T) {
	f := newFixture(t)

	result, err := f.run(t, `printf 'x\ny\n' | cat | wc -l`)
	require.NoError(t, err)
	assert.True(t, result.Success())
	assert.Equal(t, "2", strings.TrimSpace(f.stdout.String()))
}

func TestRunUnknownMiddleStage(t *testing.T) {
	f := newFixture(t)

	result, err := f.run(t, "printf abc | no-such-command-mysh | wc -c")
	require.NoError(t, err)

	require.Len(t, result.Stages, 3)
	assert.False(t, result.Stages[1].Started)
	assert.Contains(t, f.stderr.String(), "no-such-command-mysh: command not found")

	// wc sees end of stream because nobody holds the write end any more.
	assert.Equal(t, "0", strings.TrimSpace(f.stdout.String()))
	assert.True(t, result.Success())
}

func TestRunUnknownLastStage(t *testing.T) {
	f := newFixture(t)

	result, err := f.run(t, "printf abc | no-such-command-mysh")
	require.NoError(t, err)
	assert.False(t, result.Success())
	assert.True(t, result.Stages[0].Started)
}

func TestRunReportsEveryStageFailure(t *testing.T) {
	f := newFixture(t)

	// Children writing to stderr through os/exec's copying goroutines must
	// not race with the stage failures the parent reports on the same
	// stream.
	line := `sh -c 'echo first >&2' | no-such-command-a | sh -c 'echo second >&2' | no-such-command-b | wc -c`
	for i := 0; i < 20; i++ {
		f.stderr.Reset()
		f.stdout.Reset()

		result, err := f.run(t, line)
		require.NoError(t, err)
		assert.True(t, result.Success())

		stderr := f.stderr.String()
		assert.Contains(t, stderr, "no-such-command-a: command not found")
		assert.Contains(t, stderr, "no-such-command-b: command not found")
		assert.Contains(t, stderr, "first\n")
		assert.Contains(t, stderr, "second\n")
	}
}

func TestLockStream(t *testing.T) {
	assert.Nil(t, lockStream(nil))
	assert.Same(t, os.Stderr, lockStream(os.Stderr))

	buf := new(bytes.Buffer)
	locked, ok := lockStream(buf).(*lockedWriter)
	require.True(t, ok)
	_, err := locked.Write([]byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "x", buf.String())
}

func TestRunArgumentListTooLongFailsStageOnly(t *testing.T) {
	f := newFixture(t)

	// A single argument above the kernel's per-string limit makes exec fail
	// with E2BIG.
	huge := strings.Repeat("x", 256*1024)
	pipeline := []parser.Command{
		{Args: []string{"true", huge}},
		{Args: []string{"printf", "after"}},
	}

	result, err := f.runner.Run(pipeline)
	require.NoError(t, err)
	assert.False(t, result.Stages[0].Started)
	assert.True(t, result.Success())
	assert.Equal(t, "after", f.stdout.String())
	assert.Contains(t, f.stderr.String(), "argument list too long")
}

func TestIsExecError(t *testing.T) {
	for _, errno := range []syscall.Errno{syscall.ENOENT, syscall.EACCES, syscall.ENOEXEC, syscall.ENOTDIR, syscall.EISDIR, syscall.E2BIG} {
		assert.True(t, isExecError(&os.PathError{Op: "fork/exec", Path: "x", Err: errno}), errno.Error())
	}
	assert.False(t, isExecError(&os.PathError{Op: "fork/exec", Path: "x", Err: syscall.EAGAIN}))
}

func TestRunRedirectOutputTruncates(t *testing.T) {
	f := newFixture(t)
	out := f.path("out.txt")
	require.NoError(t, os.WriteFile(out, []byte("previous content that is long"), 0644))

	result, err := f.run(t, "printf new > "+out)
	require.NoError(t, err)
	assert.True(t, result.Success())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
	assert.Empty(t, f.stdout.String())
}

func TestRunRedirectInput(t *testing.T) {
	f := newFixture(t)
	in := f.path("in.txt")
	require.NoError(t, os.WriteFile(in, []byte("from file\n"), 0644))

	result, err := f.run(t, "cat < "+in)
	require.NoError(t, err)
	assert.True(t, result.Success())
	assert.Equal(t, "from file\n", f.stdout.String())
}

func TestRunMissingInputSpawnsNothing(t *testing.T) {
	f := newFixture(t)

	result, err := f.run(t, "cat < "+f.path("missing.txt"))
	require.NoError(t, err)
	assert.False(t, result.Success())
	assert.False(t, result.Stages[0].Started)
	assert.Zero(t, result.Stages[0].Pid)
	assert.Contains(t, f.stderr.String(), "cannot open for reading")
}

func TestRunRedirectOverridesPipe(t *testing.T) {
	f := newFixture(t)
	mid := f.path("mid.txt")

	result, err := f.run(t, "printf abc > "+mid+" | wc -c")
	require.NoError(t, err)
	assert.True(t, result.Success())

	data, err := os.ReadFile(mid)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
	assert.Equal(t, "0", strings.TrimSpace(f.stdout.String()))
}

func TestRunLastStageRedirect(t *testing.T) {
	f := newFixture(t)
	out := f.path("upper.txt")

	result, err := f.run(t, "printf abc | tr a-z A-Z > "+out)
	require.NoError(t, err)
	assert.True(t, result.Success())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "ABC", string(data))
}

func TestRunExecFailureFailsStageOnly(t *testing.T) {
	f := newFixture(t)
	script := f.path("not-executable")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho hi\n"), 0644))

	result, err := f.run(t, script)
	require.NoError(t, err)
	assert.False(t, result.Success())
	assert.False(t, result.Stages[0].Started)
	assert.NotEmpty(t, f.stderr.String())
}

func TestRunReapsEveryStage(t *testing.T) {
	f := newFixture(t)

	result, err := f.run(t, `printf 'a\n' | cat | cat`)
	require.NoError(t, err)

	for _, stage := range result.Stages {
		require.True(t, stage.Started, stage.Name)
		process, err := ps.FindProcess(stage.Pid)
		require.NoError(t, err)
		assert.Nil(t, process, "stage %s (pid %d) still present after Run", stage.Name, stage.Pid)
	}
}

func TestRunEmptyPipeline(t *testing.T) {
	f := newFixture(t)
	_, err := f.runner.Run(nil)
	assert.ErrorIs(t, err, parser.ErrEmptyCommand)
}

func TestPipeSetClose(t *testing.T) {
	pipes, err := newPipeSet(2)
	require.NoError(t, err)

	assert.NotNil(t, pipes.reader(0))
	assert.NotNil(t, pipes.writer(1))
	assert.Nil(t, pipes.reader(-1))
	assert.Nil(t, pipes.writer(2))

	pipes.Close()
	pipes.Close()

	assert.Nil(t, pipes.reader(0))
	assert.Nil(t, pipes.writer(1))
}
