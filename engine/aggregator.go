package engine

import (
	"context"

	"github.com/kbukum/flowforge/job"
)

// aggregator is the only writer of a Result. Stages hand it finalized jobs
// over a channel.
type aggregator struct {
	ctx      context.Context
	in       chan job.Job
	done     chan struct{}
	result   *Result
	progress func(job.Job)
	observer Observer
}

func newAggregator(ctx context.Context, result *Result, buffer int, progress func(job.Job), observer Observer) *aggregator {
	a := &aggregator{
		ctx:      ctx,
		in:       make(chan job.Job, buffer),
		done:     make(chan struct{}),
		result:   result,
		progress: progress,
		observer: observer,
	}
	go a.loop()
	return a
}

func (a *aggregator) loop() {
	defer close(a.done)
	for j := range a.in {
		switch j.Status {
		case job.Succeeded:
			a.result.Succeeded++
		case job.Failed:
			a.result.Failed++
		case job.Skipped:
			a.result.Skipped++
		}
		a.result.Jobs = append(a.result.Jobs, j)
		if a.progress != nil {
			a.progress(j)
		}
		a.observer.JobFinished(a.ctx, j)
	}
}

// record finalizes j. j must carry a terminal status and must not be
// touched by the caller afterwards.
func (a *aggregator) record(j *job.Job) {
	a.in <- j.Snapshot()
}

// close waits for every recorded job to be applied.
func (a *aggregator) close() *Result {
	close(a.in)
	<-a.done
	return a.result
}
