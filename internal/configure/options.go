package configure

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// SSEMode selects how SSE support is decided.
type SSEMode int

const (
	SSEAuto SSEMode = iota // detect from the host CPU
	SSEEnabled
	SSEDisabled
)

// OpenMPMode selects whether (and how) OpenMP is required.
type OpenMPMode int

const (
	OpenMPNone OpenMPMode = iota
	OpenMPDynamic
	OpenMPStatic
)

// Options is the fully resolved invocation configuration. It is built once
// by ParseArgs and treated as immutable for the rest of the run.
type Options struct {
	Prefix   string
	Compiler string

	// UserCFlags / UserLDFlags replace the built-in base flags when set.
	// They come from CFLAGS= / LDFLAGS= tokens or the environment; the
	// last CLI occurrence wins over earlier ones and over the environment.
	UserCFlags  string
	UserLDFlags string

	Debug   bool
	SSE     SSEMode
	OpenMP  OpenMPMode
	Verbose bool

	// ExtraCFlags / ExtraLDFlags are appended verbatim after all resolved
	// flags, preserving the order they were given in.
	ExtraCFlags  []string
	ExtraLDFlags []string

	// Inputs and outputs of the run. Fixed defaults, overridable in tests.
	VersionHeader string
	Output        string
}

// Environment is the layered variable source consulted for CC, CFLAGS and
// LDFLAGS when the command line does not provide them.
type Environment map[string]string

// envOverrideKeys are the only variables the resolver reads.
var envOverrideKeys = []string{"CC", "CFLAGS", "LDFLAGS"}

// overridesFile is an optional dotenv-style file with saved overrides.
// It sits below the process environment: env wins, CLI wins over both.
const overridesFile = "configure.env"

// LoadEnvironment builds the Environment layer for ParseArgs from an
// optional configure.env file and the process environment.
func LoadEnvironment() Environment {
	env := Environment{}

	if fileVars, err := godotenv.Read(overridesFile); err == nil {
		for _, key := range envOverrideKeys {
			if v, ok := fileVars[key]; ok && v != "" {
				env[key] = v
			}
		}
	}

	for _, key := range envOverrideKeys {
		if v := os.Getenv(key); v != "" {
			env[key] = v
		}
	}

	return env
}

const usageText = `Usage: configure [options] [VAR=value]...

Options:
  --help                 print this message and exit
  --prefix=<dir>         installation prefix recorded in config.mk (default /usr/local)
  --extra-cflags=<s>     append compiler flags verbatim (repeatable)
  --extra-ldflags=<s>    append linker flags verbatim (repeatable)
  --enable-debug         build with debug info instead of NDEBUG
  --enable-sse           force SSE on, skipping CPU detection
  --disable-sse          force SSE off, skipping CPU detection
  --with-openmp          require OpenMP support (fatal if unsupported)
  --with-openmp=static   require OpenMP, linking the runtime statically
  --verbose              log every probe decision (debug logging)

Variables (may also come from the environment or configure.env):
  CC=<compiler>          C compiler command (default: first of cc, gcc, clang)
  CFLAGS=<flags>         replace the default base compiler flags
  LDFLAGS=<flags>        base linker flags, placed before all resolved flags
`

// ParseArgs interprets CLI tokens against the layered environment and
// returns the resolved Options. The boolean is true when --help was
// handled and the caller should exit cleanly without probing.
func ParseArgs(args []string, env Environment, out io.Writer) (*Options, bool, error) {
	opts := &Options{
		Prefix:        "/usr/local",
		Compiler:      env["CC"],
		UserCFlags:    env["CFLAGS"],
		UserLDFlags:   env["LDFLAGS"],
		VersionHeader: "pngquant.h",
		Output:        "config.mk",
	}

	for _, arg := range args {
		switch {
		case arg == "--help":
			fmt.Fprint(out, usageText)
			return nil, true, nil
		case strings.HasPrefix(arg, "--prefix="):
			opts.Prefix = strings.TrimPrefix(arg, "--prefix=")
		case strings.HasPrefix(arg, "--extra-cflags="):
			opts.ExtraCFlags = append(opts.ExtraCFlags, strings.TrimPrefix(arg, "--extra-cflags="))
		case strings.HasPrefix(arg, "--extra-ldflags="):
			opts.ExtraLDFlags = append(opts.ExtraLDFlags, strings.TrimPrefix(arg, "--extra-ldflags="))
		case arg == "--enable-debug":
			opts.Debug = true
		case arg == "--enable-sse":
			opts.SSE = SSEEnabled
		case arg == "--disable-sse":
			opts.SSE = SSEDisabled
		case arg == "--with-openmp":
			opts.OpenMP = OpenMPDynamic
		case arg == "--with-openmp=static":
			opts.OpenMP = OpenMPStatic
		case arg == "--verbose":
			opts.Verbose = true
		case strings.HasPrefix(arg, "CC="):
			opts.Compiler = strings.TrimPrefix(arg, "CC=")
		case strings.HasPrefix(arg, "CFLAGS="):
			opts.UserCFlags = strings.TrimPrefix(arg, "CFLAGS=")
		case strings.HasPrefix(arg, "LDFLAGS="):
			opts.UserLDFlags = strings.TrimPrefix(arg, "LDFLAGS=")
		default:
			return nil, false, &UsageError{Token: arg}
		}
	}

	if opts.Compiler == "" {
		opts.Compiler = DefaultCompiler()
	}

	return opts, false, nil
}
