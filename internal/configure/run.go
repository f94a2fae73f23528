package configure

import (
	"context"
	"log/slog"
	"strings"
)

// defaultBaseCFlags are the built-in optimization and warning flags, used
// unless a CFLAGS override replaces them.
var defaultBaseCFlags = []string{"-O3", "-fno-math-errno", "-funroll-loops", "-fomit-frame-pointer", "-Wall"}

// standardCFlags pin the language standard and the in-tree include path.
// They always follow the base flags so an override cannot drop them.
var standardCFlags = []string{"-std=c99", "-I."}

// mathLibFlag links libm. It must stay the final LDFLAGS token: some
// linkers resolve libraries strictly left to right.
const mathLibFlag = "-lm"

// baseCFlags returns the first CFLAGS segment: the user override verbatim
// when present, the built-in defaults otherwise.
func baseCFlags(opts *Options) []string {
	if opts.UserCFlags != "" {
		return strings.Fields(opts.UserCFlags)
	}
	return append([]string{}, defaultBaseCFlags...)
}

// Run executes the whole configure pipeline against the resolved Options.
// It returns nil only after the artifact has been written; every fatal
// condition aborts before anything touches the filesystem.
func Run(ctx context.Context, opts *Options, log *slog.Logger) error {
	if err := CheckToolAvailable(opts.Compiler); err != nil {
		return err
	}

	probe := NewProbe(opts.Compiler, log)
	if err := probe.Baseline(ctx); err != nil {
		return err
	}

	version, err := ReadVersion(opts.VersionHeader)
	if err != nil {
		return err
	}

	cfg := &Config{
		Prefix:   opts.Prefix,
		Version:  version,
		Compiler: opts.Compiler,
	}

	// CFLAGS merge order is a contract with the downstream makefile:
	// base → standard/include → debug-or-NDEBUG → SSE → OpenMP →
	// auxiliary → user extras. LDFLAGS: user base → OpenMP → auxiliary →
	// user extras → -lm.
	cfg.AddCFlags(baseCFlags(opts)...)
	cfg.AddCFlags(standardCFlags...)
	if opts.Debug {
		cfg.AddCFlags("-g")
	} else {
		cfg.AddCFlags("-DNDEBUG")
	}
	cfg.AddLDFlags(strings.Fields(opts.UserLDFlags)...)

	resolver := NewFeatureResolver(probe, log)
	resolver.ResolveSSE(ctx, opts.SSE, cfg)
	if err := resolver.ResolveOpenMP(ctx, opts.OpenMP, cfg); err != nil {
		return err
	}
	resolver.ResolveAuxiliary(ctx, cfg)

	cfg.AddCFlags(opts.ExtraCFlags...)
	cfg.AddLDFlags(opts.ExtraLDFlags...)
	cfg.AddLDFlags(mathLibFlag)

	if err := Emit(cfg, opts.Output); err != nil {
		return err
	}

	log.Info("configuration written",
		"path", opts.Output,
		"version", version,
		"cc", opts.Compiler)
	return nil
}
