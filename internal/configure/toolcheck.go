package configure

import (
	"os/exec"
	"strings"
)

// ToolRequirement describes an external tool the configure run depends on,
// with ordered fallback alternatives.
type ToolRequirement struct {
	// Name is the preferred tool binary (e.g. "cc").
	Name string

	// Alternatives are tried in order when Name is not in PATH.
	Alternatives []string

	// Purpose is a human-readable description used in error messages.
	Purpose string
}

// compilerRequirement is the one tool this program cannot do without.
// The plain "cc" alias comes first so distribution defaults win; gcc and
// clang are the common concrete fallbacks.
var compilerRequirement = ToolRequirement{
	Name:         "cc",
	Alternatives: []string{"gcc", "clang"},
	Purpose:      "C compiler for capability probes",
}

// CheckToolAvailable reports whether a tool resolves in PATH. Commands that
// carry arguments ("ccache cc") are checked by their first word.
func CheckToolAvailable(tool string) error {
	words := strings.Fields(tool)
	if len(words) == 0 {
		return &EnvironmentError{Reason: "no compiler configured; set CC"}
	}
	if _, err := exec.LookPath(words[0]); err != nil {
		return &EnvironmentError{Reason: words[0] + " not found in PATH (" + compilerRequirement.Purpose + "); set CC to a working C compiler"}
	}
	return nil
}

// DefaultCompiler picks the compiler used when neither the command line nor
// the environment set CC. The first requirement alternative present in PATH
// wins; if none resolve, the preferred name is returned anyway so the
// baseline probe can produce a precise failure.
func DefaultCompiler() string {
	for _, candidate := range append([]string{compilerRequirement.Name}, compilerRequirement.Alternatives...) {
		if _, err := exec.LookPath(candidate); err == nil {
			return candidate
		}
	}
	return compilerRequirement.Name
}
