package util

import (
	"context"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
)

// PartialSuffix marks files the downloader has not finished writing.
const PartialSuffix = ".part"

// CleanupLogger receives the interrupt and cleanup messages.
type CleanupLogger interface {
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// WithInterrupt returns a context cancelled on SIGINT/SIGTERM. Leftover
// partial downloads under outputDir are removed once the signal arrives.
func WithInterrupt(parent context.Context, outputDir string, log CleanupLogger) (context.Context, context.CancelFunc) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	ctx, cancel, done := cancelOnSignal(parent, sig, outputDir, log)
	go func() {
		<-done
		signal.Stop(sig)
	}()

	return ctx, cancel
}

// cancelOnSignal cancels the returned context on the first value from sig
// and then cleans outputDir. done closes once either has happened.
func cancelOnSignal(parent context.Context, sig <-chan os.Signal, outputDir string, log CleanupLogger) (context.Context, context.CancelFunc, <-chan struct{}) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		defer close(done)
		select {
		case s := <-sig:
			log.Infof("\nReceived %v. Cleaning up...\n", s)
			cancel()
			if n := CleanupPartialFiles(outputDir, log); n > 0 {
				log.Infof("Removed %d partial downloads\n", n)
			}
		case <-ctx.Done():
		}
	}()

	return ctx, cancel, done
}

// CleanupPartialFiles removes every *.part file below dir and returns how
// many were removed. Failures are reported to log.
func CleanupPartialFiles(dir string, log CleanupLogger) int {
	removed := 0
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), PartialSuffix) {
			return nil
		}

		if err := os.Remove(path); err != nil {
			log.Errorf("Cleaning up %s: %v\n", path, err)
			return nil
		}

		removed++
		return nil
	})

	return removed
}

// RemoveIfEmpty deletes dir when it holds nothing and reports whether it
// did.
func RemoveIfEmpty(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return false
	}

	return os.Remove(dir) == nil
}
