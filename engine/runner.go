package engine

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	apperrors "github.com/kbukum/flowforge/errors"
	"github.com/kbukum/flowforge/graph"
	"github.com/kbukum/flowforge/job"
	"github.com/kbukum/flowforge/logger"
	"github.com/kbukum/flowforge/node"
	"github.com/kbukum/flowforge/seq"
)

// Registry is the part of node.Registry the runner needs.
type Registry interface {
	graph.TypeChecker
	CategoryOf(typeKey string) (node.Category, bool)
	Instantiate(def graph.NodeDefinition) (node.Node, error)
}

// Runner executes pipeline graphs. A Runner may run several graphs
// concurrently; each run instantiates its own nodes.
type Runner struct {
	// Registry resolves and configures node types.
	Registry Registry
	// MaxConcurrency bounds simultaneous output tasks (0 = GOMAXPROCS).
	MaxConcurrency int
	// Log receives stage and summary logs (nil = discard).
	Log *logger.Logger
	// Observer receives lifecycle events (nil = none).
	Observer Observer
}

// New creates a Runner with default concurrency and no logging.
func New(reg Registry) *Runner {
	return &Runner{Registry: reg}
}

type stage struct {
	def  graph.NodeDefinition
	node node.Node
}

type plan struct {
	sources    []stage
	transforms []stage
	outputs    []stage
}

// Run executes g and returns its Result.
//
// Structural and configuration errors are returned before any file is
// touched. A source failure aborts the run with SOURCE_FAILED. Per-job
// failures never abort the run; they are recorded as Failed jobs. If ctx is
// cancelled the run stops at the next job boundary and returns an error
// matching ctx.Err() with no Result.
func (r *Runner) Run(ctx context.Context, g *graph.Graph, opts ...Option) (*Result, error) {
	start := time.Now()
	cfg := runConfig{maxConcurrency: r.MaxConcurrency}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxConcurrency <= 0 {
		cfg.maxConcurrency = runtime.GOMAXPROCS(0)
	}

	if err := graph.Validate(g, r.Registry); err != nil {
		return nil, err
	}
	order, err := graph.TopologicalSort(g)
	if err != nil {
		return nil, err
	}
	p, err := r.instantiate(g, order)
	if err != nil {
		return nil, err
	}

	observer := r.observer()
	info := RunInfo{
		ID:           uuid.NewString(),
		PipelineID:   g.ID,
		PipelineName: g.Name,
		DryRun:       cfg.dryRun,
		Nodes:        len(g.Nodes),
		StartedAt:    start,
	}
	log := r.log().WithFields(logger.Fields(logger.FieldRunID, info.ID, logger.FieldDryRun, cfg.dryRun))
	ctx = observer.RunStarted(ctx, info)

	result, err := r.execute(ctx, p, cfg, info, log, observer)
	if err != nil {
		log.Warn("pipeline run aborted", logger.MergeWithError(nil, err))
		observer.RunFinished(ctx, info, nil, err)
		return nil, err
	}
	result.Duration = time.Since(start)

	log.Info("pipeline completed", logger.Fields(
		"total", result.TotalFiles,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"skipped", result.Skipped,
		logger.FieldDuration, result.Duration.Milliseconds(),
	))
	observer.RunFinished(ctx, info, result, nil)
	return result, nil
}

// instantiate partitions the sorted node ids by registered category and
// configures every node. The transform chain keeps topological order.
func (r *Runner) instantiate(g *graph.Graph, order []string) (*plan, error) {
	p := &plan{}
	for _, id := range order {
		def, _ := g.Node(id)
		category, ok := r.Registry.CategoryOf(def.TypeKey)
		if !ok {
			return nil, apperrors.UnknownNodeType(def.TypeKey).WithDetail("node_id", def.ID)
		}
		n, err := r.Registry.Instantiate(def)
		if err != nil {
			return nil, err
		}
		st := stage{def: def, node: n}
		switch category {
		case node.CategorySource:
			p.sources = append(p.sources, st)
		case node.CategoryTransform:
			p.transforms = append(p.transforms, st)
		case node.CategoryOutput:
			p.outputs = append(p.outputs, st)
		}
	}
	return p, nil
}

func (r *Runner) execute(ctx context.Context, p *plan, cfg runConfig, info RunInfo, log *logger.Logger, observer Observer) (*Result, error) {
	batch, err := r.runSources(ctx, p.sources, log, observer)
	if err != nil {
		return nil, err
	}

	result := &Result{RunID: info.ID, Pipeline: info.PipelineName, DryRun: cfg.dryRun, TotalFiles: len(batch)}
	agg := newAggregator(ctx, result, cfg.maxConcurrency, cfg.progress, observer)

	for _, st := range p.transforms {
		batch, err = r.runTransform(ctx, st, batch, cfg.dryRun, agg, log, observer)
		if err != nil {
			agg.close()
			return nil, err
		}
	}

	err = r.runOutputs(ctx, p.outputs, batch, cfg, agg, log, observer)
	agg.close()
	if err != nil {
		return nil, err
	}
	return result, nil
}

// runSources drains every source, in order, into one batch.
func (r *Runner) runSources(ctx context.Context, sources []stage, log *logger.Logger, observer Observer) ([]*job.Job, error) {
	var batch []*job.Job
	for _, st := range sources {
		started := time.Now()
		jobs, err := seq.Collect(ctx, st.node.Source().Produce(ctx))
		if err != nil {
			if cerr := cancelled(ctx); cerr != nil {
				return nil, cerr
			}
			return nil, apperrors.SourceFailed(st.def.ID, st.def.TypeKey, err)
		}
		batch = append(batch, jobs...)

		log.Debug("source drained", logger.Fields(
			logger.FieldNodeID, st.def.ID, logger.FieldTypeKey, st.def.TypeKey, "jobs", len(jobs)))
		observer.StageFinished(ctx, StageReport{
			NodeID: st.def.ID, TypeKey: st.def.TypeKey, Category: node.CategorySource,
			Out: len(jobs), Started: started, Duration: time.Since(started),
		})
	}
	return batch, nil
}

// runTransform applies one transform to the whole batch and returns the
// batch for the next stage.
func (r *Runner) runTransform(ctx context.Context, st stage, batch []*job.Job, dryRun bool, agg *aggregator, log *logger.Logger, observer Observer) ([]*job.Job, error) {
	started := time.Now()
	t := st.node.Transform()
	buffered := st.node.Buffered()
	nodeLog := log.WithFields(logger.Fields(logger.FieldNodeID, st.def.ID, logger.FieldTypeKey, st.def.TypeKey))

	var next, offered []*job.Job
	for _, j := range batch {
		if cerr := cancelled(ctx); cerr != nil {
			return nil, cerr
		}
		j.Status = job.Processing

		out, err := t.Transform(ctx, j, dryRun)
		if err != nil {
			if cerr := cancelled(ctx); cerr != nil {
				return nil, cerr
			}
			r.fail(agg, nodeLog, j, err.Error())
			continue
		}

		if buffered {
			offered = append(offered, j)
			next = append(next, out...)
			continue
		}
		if len(out) == 0 {
			drop(agg, j)
			continue
		}
		next = append(next, out...)
	}

	if buffered {
		if cerr := cancelled(ctx); cerr != nil {
			return nil, cerr
		}
		flushed, err := st.node.Flusher().Flush(ctx)
		if err != nil {
			if cerr := cancelled(ctx); cerr != nil {
				return nil, cerr
			}
			msg := fmt.Sprintf("%s: flush failed: %v", st.def.TypeKey, err)
			for _, j := range offered {
				r.fail(agg, nodeLog, j, msg)
			}
			flushed = nil
		} else {
			emitted := make(map[*job.Job]struct{}, len(next)+len(flushed))
			for _, j := range next {
				emitted[j] = struct{}{}
			}
			for _, j := range flushed {
				emitted[j] = struct{}{}
			}
			for _, j := range offered {
				if _, ok := emitted[j]; !ok {
					drop(agg, j)
				}
			}
		}
		next = append(next, flushed...)
	}

	nodeLog.Debug("transform applied", logger.Fields("in", len(batch), "out", len(next)))
	observer.StageFinished(ctx, StageReport{
		NodeID: st.def.ID, TypeKey: st.def.TypeKey, Category: node.CategoryTransform, Buffered: buffered,
		In: len(batch), Out: len(next), Started: started, Duration: time.Since(started),
	})
	return next, nil
}

// runOutputs passes every job through all outputs, running at most
// cfg.maxConcurrency jobs at a time.
func (r *Runner) runOutputs(ctx context.Context, outputs []stage, batch []*job.Job, cfg runConfig, agg *aggregator, log *logger.Logger, observer Observer) error {
	started := time.Now()
	sem := semaphore.NewWeighted(int64(cfg.maxConcurrency))
	passed := make([]atomic.Int64, len(outputs))
	var wg sync.WaitGroup

	for _, j := range batch {
		if ctx.Err() != nil {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}

		wg.Add(1)
		go func(j *job.Job) {
			defer wg.Done()
			defer sem.Release(1)
			if ctx.Err() != nil {
				return
			}

			for i, st := range outputs {
				if err := st.node.Output().Consume(ctx, j, cfg.dryRun); err != nil {
					if ctx.Err() != nil {
						return
					}
					r.fail(agg, log.WithFields(logger.Fields(logger.FieldNodeID, st.def.ID, logger.FieldTypeKey, st.def.TypeKey)), j, err.Error())
					return
				}
				passed[i].Add(1)
			}
			j.Status = job.Succeeded
			agg.record(j)
		}(j)
	}
	wg.Wait()

	if cerr := cancelled(ctx); cerr != nil {
		return cerr
	}

	for i, st := range outputs {
		log.Debug("output finished", logger.Fields(
			logger.FieldNodeID, st.def.ID, logger.FieldTypeKey, st.def.TypeKey, "jobs", passed[i].Load()))
		observer.StageFinished(ctx, StageReport{
			NodeID: st.def.ID, TypeKey: st.def.TypeKey, Category: node.CategoryOutput,
			In: len(batch), Out: int(passed[i].Load()), Started: started, Duration: time.Since(started),
		})
	}
	return nil
}

func (r *Runner) fail(agg *aggregator, log *logger.Logger, j *job.Job, msg string) {
	j.Fail(msg)
	log.Warn("job failed", logger.Fields(logger.FieldJobID, j.ID.String(), logger.FieldFile, j.OriginalPath(), logger.FieldError, msg))
	agg.record(j)
}

// drop finalizes a job a transform did not pass on. A job the transform
// already marked Failed stays Failed.
func drop(agg *aggregator, j *job.Job) {
	if j.Status != job.Failed {
		j.Skip()
	}
	agg.record(j)
}

// cancelled returns a wrapped context error once ctx is done, nil otherwise.
// Whatever error a node reported after cancellation is discarded.
func cancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("pipeline run cancelled: %w", err)
	}
	return nil
}

func (r *Runner) log() *logger.Logger {
	if r.Log == nil {
		return logger.Nop()
	}
	return r.Log.WithComponent("engine")
}

func (r *Runner) observer() Observer {
	if r.Observer == nil {
		return NopObserver{}
	}
	return r.Observer
}
