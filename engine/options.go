package engine

import "github.com/kbukum/flowforge/job"

type runConfig struct {
	dryRun         bool
	progress       func(job.Job)
	maxConcurrency int
}

// Option configures a single run.
type Option func(*runConfig)

// WithDryRun makes outputs log instead of writing.
func WithDryRun(dryRun bool) Option {
	return func(c *runConfig) { c.dryRun = dryRun }
}

// WithProgress registers a callback invoked once per finalized job with a
// snapshot of it. Calls are serialized.
func WithProgress(fn func(job.Job)) Option {
	return func(c *runConfig) { c.progress = fn }
}

// WithMaxConcurrency overrides the runner's output concurrency for one run.
// Values below 1 are ignored.
func WithMaxConcurrency(n int) Option {
	return func(c *runConfig) {
		if n > 0 {
			c.maxConcurrency = n
		}
	}
}
