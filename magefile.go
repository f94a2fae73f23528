//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Build compiles all packages.
func Build() error {
	return sh.Run("go", "build", "./...")
}

// Test runs the full test suite.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Vet runs go vet over all packages.
func Vet() error {
	return sh.Run("go", "vet", "./...")
}

// Configure builds and runs the toolchain probe, writing config.mk.
func Configure() error {
	mg.Deps(Build)
	return sh.RunV("go", "run", "./cmd/configure")
}
