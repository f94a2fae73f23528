// Command configure probes the host C toolchain and writes config.mk for
// the make-based library build. Run it from the source root, optionally
// with overrides:
//
//	configure --prefix=/opt/pngquant --with-openmp CC=clang
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/payonesmile/pngquant/internal/configure"
)

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "configure:", err)
		os.Exit(1)
	}
}

// run holds the real logic so tests can drive it with their own writer and
// argument list.
func run(out io.Writer, args []string) error {
	env := configure.LoadEnvironment()

	opts, done, err := configure.ParseArgs(args, env, out)
	if err != nil {
		return err
	}
	if done {
		// --help: usage already printed, exit cleanly without probing.
		return nil
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return configure.Run(context.Background(), opts, log)
}
