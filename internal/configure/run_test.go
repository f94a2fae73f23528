package configure

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOpenMPCompiler behaves like a GCC with OpenMP: compiles and
// assembles silently, and names the runtime symbol when preprocessing.
const fakeOpenMPCompiler = `mode=compile
for a in "$@"; do
  [ "$a" = "-E" ] && mode=preprocess
done
if [ "$mode" = "preprocess" ]; then
  echo "extern int omp_get_thread_num(void);"
fi
exit 0`

// fakePlainCompiler accepts everything silently but has no OpenMP runtime.
const fakePlainCompiler = "exit 0"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// pipelineOptions builds Options pointing every path at a temp dir with a
// valid version header.
func pipelineOptions(t *testing.T, compiler string) *Options {
	t.Helper()
	dir := t.TempDir()
	header := filepath.Join(dir, "pngquant.h")
	require.NoError(t, os.WriteFile(header,
		[]byte("#define PNGQUANT_VERSION \"2.17.0 (January 2022)\"\n"), 0o644))

	return &Options{
		Prefix:        "/usr/local",
		Compiler:      compiler,
		VersionHeader: header,
		Output:        filepath.Join(dir, "config.mk"),
	}
}

func readArtifact(t *testing.T, path string) (cflags, ldflags string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, line := range strings.Split(string(data), "\n") {
		if rest, ok := strings.CutPrefix(line, "CFLAGS = "); ok {
			cflags = rest
		}
		if rest, ok := strings.CutPrefix(line, "LDFLAGS = "); ok {
			ldflags = rest
		}
	}
	return cflags, ldflags
}

func TestRun_FullPipeline(t *testing.T) {
	cc := writeFakeCompiler(t, fakeOpenMPCompiler)
	opts := pipelineOptions(t, cc)
	opts.SSE = SSEEnabled
	opts.OpenMP = OpenMPStatic
	opts.ExtraCFlags = []string{"-DEXTRA=1"}
	opts.ExtraLDFlags = []string{"-L/opt/lib"}

	require.NoError(t, Run(context.Background(), opts, discardLogger()))

	cflags, ldflags := readArtifact(t, opts.Output)

	// Merge order contract: debug slot before SSE before OpenMP before
	// user extras.
	ndebug := strings.Index(cflags, "-DNDEBUG")
	sse := strings.Index(cflags, "-DUSE_SSE=1")
	openmp := strings.Index(cflags, "-fopenmp")
	extra := strings.Index(cflags, "-DEXTRA=1")
	require.NotEqual(t, -1, ndebug)
	require.NotEqual(t, -1, sse)
	require.NotEqual(t, -1, openmp)
	require.NotEqual(t, -1, extra)
	assert.Less(t, ndebug, sse)
	assert.Less(t, sse, openmp)
	assert.Less(t, openmp, extra)

	assert.Contains(t, cflags, "-std=c99")
	assert.Contains(t, cflags, "-Bstatic -fopenmp -Bdynamic")
	// The fake compiler accepts every soft flag silently.
	assert.Contains(t, cflags, "-mfpmath=sse")
	assert.Contains(t, cflags, "-fexcess-precision=fast")

	assert.True(t, strings.HasSuffix(ldflags, "-lm"), "math library must be the final LDFLAGS token, got %q", ldflags)
	assert.Contains(t, ldflags, "-fopenmp")
	assert.Contains(t, ldflags, "-L/opt/lib")
}

func TestRun_DisableSSE(t *testing.T) {
	cc := writeFakeCompiler(t, fakePlainCompiler)
	opts := pipelineOptions(t, cc)
	opts.SSE = SSEDisabled

	require.NoError(t, Run(context.Background(), opts, discardLogger()))

	cflags, _ := readArtifact(t, opts.Output)
	assert.Contains(t, cflags, "-DUSE_SSE=0")
	assert.NotContains(t, cflags, "-msse")
}

func TestRun_DebugFlagReplacesNDEBUG(t *testing.T) {
	cc := writeFakeCompiler(t, fakePlainCompiler)
	opts := pipelineOptions(t, cc)
	opts.SSE = SSEDisabled
	opts.Debug = true

	require.NoError(t, Run(context.Background(), opts, discardLogger()))

	cflags, _ := readArtifact(t, opts.Output)
	assert.Contains(t, cflags, "-g")
	assert.NotContains(t, cflags, "-DNDEBUG")
}

func TestRun_UserCFlagsReplaceBase(t *testing.T) {
	cc := writeFakeCompiler(t, fakePlainCompiler)
	opts := pipelineOptions(t, cc)
	opts.SSE = SSEDisabled
	opts.UserCFlags = "-Os -pipe"

	require.NoError(t, Run(context.Background(), opts, discardLogger()))

	cflags, _ := readArtifact(t, opts.Output)
	assert.True(t, strings.HasPrefix(cflags, "-Os -pipe "), "override must replace the default base flags, got %q", cflags)
	assert.NotContains(t, cflags, "-O3")
}

func TestRun_OpenMPUnsupportedWritesNothing(t *testing.T) {
	cc := writeFakeCompiler(t, fakePlainCompiler)
	opts := pipelineOptions(t, cc)
	opts.OpenMP = OpenMPStatic

	err := Run(context.Background(), opts, discardLogger())
	require.Error(t, err)

	var featErr *FeatureError
	require.ErrorAs(t, err, &featErr)

	_, statErr := os.Stat(opts.Output)
	assert.True(t, os.IsNotExist(statErr), "no artifact may exist after a fatal feature failure")
}

func TestRun_BrokenCompilerWritesNothing(t *testing.T) {
	cc := writeFakeCompiler(t, `echo "error: cannot create executables" >&2; exit 1`)
	opts := pipelineOptions(t, cc)

	err := Run(context.Background(), opts, discardLogger())
	require.Error(t, err)

	var envErr *EnvironmentError
	require.ErrorAs(t, err, &envErr)

	_, statErr := os.Stat(opts.Output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_Deterministic(t *testing.T) {
	cc := writeFakeCompiler(t, fakeOpenMPCompiler)
	opts := pipelineOptions(t, cc)
	opts.SSE = SSEEnabled
	opts.OpenMP = OpenMPDynamic

	require.NoError(t, Run(context.Background(), opts, discardLogger()))
	first, err := os.ReadFile(opts.Output)
	require.NoError(t, err)

	require.NoError(t, Run(context.Background(), opts, discardLogger()))
	second, err := os.ReadFile(opts.Output)
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical inputs must produce byte-identical artifacts")
}

func TestRun_WriteGuard(t *testing.T) {
	cc := writeFakeCompiler(t, fakePlainCompiler)
	opts := pipelineOptions(t, cc)
	opts.SSE = SSEDisabled
	require.NoError(t, os.WriteFile(opts.Output, []byte("precious\n"), 0o444))

	err := Run(context.Background(), opts, discardLogger())
	require.Error(t, err)

	var guardErr *WriteGuardError
	require.ErrorAs(t, err, &guardErr)

	data, readErr := os.ReadFile(opts.Output)
	require.NoError(t, readErr)
	assert.Equal(t, "precious\n", string(data))
}
