package configure

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/klauspost/cpuid/v2"
)

// prober is the subset of Probe the resolver needs. Tests substitute a
// canned implementation so feature decisions can be exercised without a
// compiler.
type prober interface {
	AcceptsFlag(ctx context.Context, flag string) bool
	SupportsOpenMP(ctx context.Context, flags []string) bool
}

// SSE flag sets. The define is appended unconditionally once the mode is
// resolved; the two conditional flags are soft-probed because only some
// compilers know them (-wd577 is ICC's warning silencer, -mfpmath=sse
// matters for GCC on 32-bit x86).
var (
	sseEnabledCFlags     = []string{"-DUSE_SSE=1", "-msse"}
	sseConditionalCFlags = []string{"-wd577", "-mfpmath=sse"}
	sseDisabledCFlags    = []string{"-DUSE_SSE=0"}
)

// OpenMP flag sets. Static bracketing forces libgomp to resolve statically
// while leaving the rest of the link dynamic.
var (
	openmpDynamicFlags = []string{"-fopenmp"}
	openmpStaticFlags  = []string{"-Bstatic", "-fopenmp", "-Bdynamic"}
)

// pragmaSuppressionFlag silences "unknown pragma" warnings for the omp
// pragmas left in the source when OpenMP is not requested. Soft by nature,
// appended without probing.
const pragmaSuppressionFlag = "-Wno-unknown-pragmas"

// Auxiliary portability flags, each soft-probed. Absence is never fatal.
var (
	auxCFlags  = []string{"-fexcess-precision=fast", "-march=native", "-ffp-contract=off"}
	auxLDFlags = []string{"-Wl,--sort-section=alignment"}
)

// FeatureResolver turns the requested SSE and OpenMP modes, plus the soft
// auxiliary flags, into concrete entries on the configuration accumulator.
type FeatureResolver struct {
	Probe prober
	Log   *slog.Logger

	// Host introspection hooks, swapped out in tests.
	arch      string
	cpuHasSSE func() bool
}

// NewFeatureResolver returns a resolver bound to the real host.
func NewFeatureResolver(p prober, log *slog.Logger) *FeatureResolver {
	return &FeatureResolver{
		Probe:     p,
		Log:       log,
		arch:      runtime.GOARCH,
		cpuHasSSE: hostHasSSE,
	}
}

// hostHasSSE consults the CPU feature descriptor. On non-x86 hosts cpuid
// reports no features at all, which resolves to SSE off.
func hostHasSSE() bool {
	return cpuid.CPU.Supports(cpuid.SSE)
}

func (r *FeatureResolver) logger() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}

// detectSSE resolves SSEAuto against the host. A 64-bit x86 architecture
// identifier settles it immediately; anything else falls back to the CPU
// feature descriptor.
func (r *FeatureResolver) detectSSE() bool {
	switch r.arch {
	case "amd64", "amd64p32":
		return true
	}
	return r.cpuHasSSE()
}

// ResolveSSE appends the SSE compile flags for the given mode. Never fatal.
func (r *FeatureResolver) ResolveSSE(ctx context.Context, mode SSEMode, cfg *Config) {
	enabled := false
	switch mode {
	case SSEEnabled:
		enabled = true
	case SSEDisabled:
		enabled = false
	case SSEAuto:
		enabled = r.detectSSE()
		r.logger().Debug("sse auto-detect", "arch", r.arch, "enabled", enabled)
	}

	if !enabled {
		cfg.AddCFlags(sseDisabledCFlags...)
		return
	}

	cfg.AddCFlags(sseEnabledCFlags...)
	for _, flag := range sseConditionalCFlags {
		if r.Probe.AcceptsFlag(ctx, flag) {
			cfg.AddCFlags(flag)
		}
	}
}

// ResolveOpenMP appends the OpenMP flags for the given mode, probing the
// toolchain first. A requested mode that fails the capability probe is
// fatal; no artifact may be written afterwards.
func (r *FeatureResolver) ResolveOpenMP(ctx context.Context, mode OpenMPMode, cfg *Config) error {
	if mode == OpenMPNone {
		cfg.AddCFlags(pragmaSuppressionFlag)
		return nil
	}

	flags := openmpDynamicFlags
	if mode == OpenMPStatic {
		flags = openmpStaticFlags
	}

	if !r.Probe.SupportsOpenMP(ctx, flags) {
		return &FeatureError{Feature: "OpenMP", Remedy: "Use GCC 4.2 or later, or a Clang built with libomp."}
	}

	cfg.AddCFlags(flags...)
	cfg.AddLDFlags(flags...)
	return nil
}

// ResolveAuxiliary soft-probes the fixed portability flag list and appends
// whatever the compiler takes silently.
func (r *FeatureResolver) ResolveAuxiliary(ctx context.Context, cfg *Config) {
	for _, flag := range auxCFlags {
		if r.Probe.AcceptsFlag(ctx, flag) {
			cfg.AddCFlags(flag)
		}
	}
	for _, flag := range auxLDFlags {
		if r.Probe.AcceptsFlag(ctx, flag) {
			cfg.AddLDFlags(flag)
		}
	}
}
