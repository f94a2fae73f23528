package configure

import (
	"fmt"
	"strings"
)

// UsageError reports a CLI token that matches no recognized switch.
// It is raised before any probing happens, so a usage error never has
// side effects.
type UsageError struct {
	Token string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("unknown option %q (see --help for the option table)", e.Token)
}

// EnvironmentError reports an unusable build environment: the configured
// compiler is missing, cannot compile a trivial C99 program, or a required
// read-only input (the version header) is absent or malformed.
type EnvironmentError struct {
	Reason string
	Output string // captured compiler diagnostics, if any
}

func (e *EnvironmentError) Error() string {
	if e.Output == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s\n\nCompiler output:\n%s", e.Reason, strings.TrimRight(e.Output, "\n"))
}

// FeatureError reports that a capability the user explicitly requested is
// not supported by the toolchain. Remedy carries actionable guidance that
// is shown to the user verbatim.
type FeatureError struct {
	Feature string
	Remedy  string
}

func (e *FeatureError) Error() string {
	return fmt.Sprintf("%s is not supported by your compiler. %s", e.Feature, e.Remedy)
}

// WriteGuardError reports that the configuration artifact already exists
// and cannot be overwritten. The existing file is left untouched.
type WriteGuardError struct {
	Path string
}

func (e *WriteGuardError) Error() string {
	return fmt.Sprintf("cannot overwrite %s: file exists and is not writable (fix permissions or remove it)", e.Path)
}
