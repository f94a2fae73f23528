package configure

import (
	"fmt"
	"os"
	"strings"
)

// Config is the resolved build configuration accumulator. Stages append
// flags in the fixed pipeline order; once every stage has run, Emit
// serializes it in one shot.
type Config struct {
	Prefix   string
	Version  string
	Compiler string
	CFlags   []string
	LDFlags  []string
}

// AddCFlags appends compiler flags, preserving order.
func (c *Config) AddCFlags(flags ...string) {
	c.CFlags = append(c.CFlags, flags...)
}

// AddLDFlags appends linker flags, preserving order.
func (c *Config) AddLDFlags(flags ...string) {
	c.LDFlags = append(c.LDFlags, flags...)
}

// artifactHeader is fixed so repeated runs with identical inputs produce
// byte-identical files.
const artifactHeader = "# auto-generated by configure; do not edit\n"

// Render serializes the configuration as the flat key/value artifact
// consumed by the make-based build.
func (c *Config) Render() string {
	var b strings.Builder
	b.WriteString(artifactHeader)
	fmt.Fprintf(&b, "PREFIX = %s\n", c.Prefix)
	fmt.Fprintf(&b, "VERSION = %s\n", c.Version)
	fmt.Fprintf(&b, "CC = %s\n", c.Compiler)
	fmt.Fprintf(&b, "CFLAGS = %s\n", strings.Join(c.CFlags, " "))
	fmt.Fprintf(&b, "LDFLAGS = %s\n", strings.Join(c.LDFlags, " "))
	return b.String()
}

// checkWritable refuses to proceed when an existing artifact cannot be
// replaced. The owner-write bit is checked directly rather than by opening
// the file, so the existing content is never touched (and the check holds
// even for privileged users that could bypass the mode).
func checkWritable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Mode().Perm()&0o200 == 0 {
		return &WriteGuardError{Path: path}
	}
	return nil
}

// Emit writes the artifact, replacing any prior writable one. It is the
// only place in the program that writes anything.
func Emit(cfg *Config, path string) error {
	if err := checkWritable(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(cfg.Render()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
