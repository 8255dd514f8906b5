package engine

import (
	"context"
	"time"

	"github.com/kbukum/flowforge/job"
	"github.com/kbukum/flowforge/node"
)

// RunInfo identifies a run.
type RunInfo struct {
	ID           string
	PipelineID   string
	PipelineName string
	DryRun       bool
	Nodes        int
	StartedAt    time.Time
}

// StageReport describes one node's pass over the batch.
type StageReport struct {
	NodeID   string
	TypeKey  string
	Category node.Category
	Buffered bool
	// In is the number of jobs offered to the node, Out the number it passed on.
	In       int
	Out      int
	Started  time.Time
	Duration time.Duration
}

// Observer receives run lifecycle events. RunStarted may return a derived
// context that the run and all later events use. JobFinished is called from
// the aggregator goroutine only; the other methods from the Run caller.
type Observer interface {
	RunStarted(ctx context.Context, run RunInfo) context.Context
	StageFinished(ctx context.Context, stage StageReport)
	JobFinished(ctx context.Context, j job.Job)
	RunFinished(ctx context.Context, run RunInfo, result *Result, err error)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) RunStarted(ctx context.Context, _ RunInfo) context.Context { return ctx }
func (NopObserver) StageFinished(context.Context, StageReport)                {}
func (NopObserver) JobFinished(context.Context, job.Job)                      {}
func (NopObserver) RunFinished(context.Context, RunInfo, *Result, error)      {}

// Observers fans events out to several observers in order.
func Observers(obs ...Observer) Observer {
	return multiObserver(obs)
}

type multiObserver []Observer

func (m multiObserver) RunStarted(ctx context.Context, run RunInfo) context.Context {
	for _, o := range m {
		ctx = o.RunStarted(ctx, run)
	}
	return ctx
}

func (m multiObserver) StageFinished(ctx context.Context, stage StageReport) {
	for _, o := range m {
		o.StageFinished(ctx, stage)
	}
}

func (m multiObserver) JobFinished(ctx context.Context, j job.Job) {
	for _, o := range m {
		o.JobFinished(ctx, j)
	}
}

func (m multiObserver) RunFinished(ctx context.Context, run RunInfo, result *Result, err error) {
	for _, o := range m {
		o.RunFinished(ctx, run, result, err)
	}
}
