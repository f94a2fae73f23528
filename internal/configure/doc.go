// Package configure implements the pre-build toolchain probe for pngquant.
//
// Before the C library can be compiled, the build needs to know what the
// host compiler is capable of: whether it accepts C99 at all, whether SSE
// instructions can be enabled, whether OpenMP is wired up, and which
// optional tuning flags it accepts without complaint. This package answers
// those questions by trial-compiling small synthetic programs and writes
// the result to a flat config.mk consumed by the downstream make build.
//
// # Pipeline
//
// The run is a fixed sequence of stages, each consuming the previous
// stage's output:
//
//	ParseArgs → Probe.Baseline → ReadVersion → FeatureResolver → Emit
//
//	ParseArgs       CLI tokens + environment → Options
//	Probe           trial compiler invocations (stdin source, null output)
//	FeatureResolver SSE / OpenMP / auxiliary flag decisions
//	Emit            deterministic merge and config.mk write
//
// Any fatal failure aborts before Emit runs; a run either produces a
// complete artifact or writes nothing and exits nonzero.
//
// # Flag acceptance policy
//
// Optional flags are accepted only when the probe produces zero diagnostic
// output. A flag that compiles with warnings is rejected. This is stricter
// than "compiles without error" and is intentional: relaxing it would
// change which optimization flags end up in released builds.
package configure
