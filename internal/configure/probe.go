package configure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultProbeTimeout bounds a single compiler invocation. The original
// configure script had no timeout at all; a wedged compiler would hang the
// build forever, so every probe runs under this deadline.
const DefaultProbeTimeout = 30 * time.Second

// baselineProgram is the minimal C99 program every usable compiler must
// accept. Failure to compile it means the toolchain is broken, not that a
// feature is missing.
const baselineProgram = "int main(void) { return 0; }\n"

// openmpProgram pulls in the OpenMP header only when the compiler defines
// _OPENMP. After preprocessing, the runtime symbol omp_get_thread_num shows
// up in the expansion iff the header and runtime are actually wired up.
const openmpProgram = "#ifdef _OPENMP\n#include <omp.h>\n#endif\n"

// openmpRuntimeSymbol is the token whose presence in the preprocessed
// output proves OpenMP support. Flag acceptance alone is not enough: some
// compilers swallow -fopenmp without shipping the runtime.
const openmpRuntimeSymbol = "omp_get_thread_num"

// Result is the outcome of one trial compiler invocation.
type Result struct {
	OK     bool
	Output string // combined stdout+stderr diagnostics
}

// Probe runs trial invocations of a single configured compiler. Source
// text is fed on stdin, object output goes to the null device, and
// diagnostics are captured. Probe keeps no state between invocations.
type Probe struct {
	Compiler string
	Timeout  time.Duration
	Log      *slog.Logger
}

// NewProbe returns a Probe for the given compiler command with the default
// invocation timeout.
func NewProbe(compiler string, log *slog.Logger) *Probe {
	return &Probe{Compiler: compiler, Timeout: DefaultProbeTimeout, Log: log}
}

func (p *Probe) logger() *slog.Logger {
	if p.Log != nil {
		return p.Log
	}
	return slog.Default()
}

// run spawns the compiler with source on stdin. A non-nil error means the
// invocation itself could not happen (compiler missing, timeout); an
// ordinary nonzero exit is reported through Result.OK.
func (p *Probe) run(ctx context.Context, source string, args []string) (Result, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// CC may carry arguments ("ccache cc"), mirroring shell word splitting.
	words := strings.Fields(p.Compiler)
	if len(words) == 0 {
		return Result{}, errors.New("no compiler configured")
	}
	argv := append(words[1:], "-xc")
	argv = append(argv, args...)

	cmd := exec.CommandContext(ctx, words[0], argv...)
	cmd.Stdin = strings.NewReader(source)
	// Child processes inheriting the output pipe must not outlive the
	// deadline either.
	cmd.WaitDelay = time.Second

	out, err := cmd.CombinedOutput()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, fmt.Errorf("compiler probe timed out after %s: %w", timeout, ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// The process never ran at all.
			return Result{}, err
		}
		return Result{OK: false, Output: string(out)}, nil
	}
	return Result{OK: true, Output: string(out)}, nil
}

// Baseline verifies that the compiler can build a trivial program under the
// C99 standard. Failure is fatal: nothing else is worth probing.
func (p *Probe) Baseline(ctx context.Context) error {
	res, err := p.run(ctx, baselineProgram, []string{"-std=c99", "-o", os.DevNull, "-c", "-"})
	if err != nil {
		return &EnvironmentError{Reason: "could not run compiler " + p.Compiler + ": " + err.Error()}
	}
	if !res.OK {
		return &EnvironmentError{
			Reason: p.Compiler + " failed to compile a trivial C99 program; set CC to a working C compiler",
			Output: res.Output,
		}
	}
	p.logger().Debug("baseline probe passed", "cc", p.Compiler)
	return nil
}

// AcceptsFlag reports whether the compiler takes the flag silently. Any
// diagnostic output at all, warnings included, counts as rejection.
// Rejection is never an error; the flag is simply not used.
func (p *Probe) AcceptsFlag(ctx context.Context, flag string) bool {
	res, err := p.run(ctx, "", []string{flag, "-S", "-o", os.DevNull, "-"})
	accepted := err == nil && res.OK && res.Output == ""
	p.logger().Debug("flag probe", "flag", flag, "accepted", accepted)
	return accepted
}

// SupportsOpenMP preprocesses the OpenMP snippet with the candidate flag
// set and reports whether the runtime symbol appears in the expansion.
func (p *Probe) SupportsOpenMP(ctx context.Context, flags []string) bool {
	args := append(append([]string{}, flags...), "-E", "-")
	res, err := p.run(ctx, openmpProgram, args)
	supported := err == nil && res.OK && strings.Contains(res.Output, openmpRuntimeSymbol)
	p.logger().Debug("openmp probe", "flags", flags, "supported", supported)
	return supported
}
