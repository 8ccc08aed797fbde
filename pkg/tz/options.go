package tz

import "runtime"

// BuildOptions controls the grid sweep that builds a spatial cache.
type BuildOptions struct {
	// Workers specifies the number of longitude-band worker goroutines.
	// If 0, defaults to runtime.NumCPU(). The result is identical for any
	// worker count; only wall-clock time changes.
	Workers int

	// Progress is an optional callback for tracking sweep progress.
	// Called after each longitude band finishes.
	// Parameters: (done, total) where total is the number of bands.
	Progress func(done, total int)
}

// DefaultBuildOptions returns build options with sensible defaults.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		Workers:  runtime.NumCPU(),
		Progress: nil,
	}
}
