package observability

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/flowforge/engine"
	"github.com/kbukum/flowforge/job"
)

// OTelObserver turns run lifecycle events into spans and metric readings.
// A run is one span; every stage is a child span stamped with the stage's
// own start and end time.
type OTelObserver struct {
	tracer  trace.Tracer
	metrics *Metrics
}

var _ engine.Observer = (*OTelObserver)(nil)

// NewOTelObserver creates an observer. A nil tracer uses the global
// provider; nil metrics disables metric recording.
func NewOTelObserver(tracer trace.Tracer, metrics *Metrics) *OTelObserver {
	if tracer == nil {
		tracer = Tracer(instrumentationName)
	}
	return &OTelObserver{tracer: tracer, metrics: metrics}
}

func (o *OTelObserver) RunStarted(ctx context.Context, run engine.RunInfo) context.Context {
	ctx, span := o.tracer.Start(ctx, SpanRun,
		trace.WithTimestamp(run.StartedAt),
		trace.WithAttributes(
			attribute.String(AttrRunID, run.ID),
			attribute.String(AttrPipelineID, run.PipelineID),
			attribute.String(AttrPipelineName, run.PipelineName),
			attribute.Bool(AttrDryRun, run.DryRun),
			attribute.Int(AttrNodeCount, run.Nodes),
		),
	)
	if o.metrics != nil {
		o.metrics.RecordRunStart(ctx)
	}
	return WithRunContext(ctx, &RunContext{
		RunID:     run.ID,
		Pipeline:  run.PipelineName,
		StartTime: run.StartedAt,
		Span:      span,
	})
}

func (o *OTelObserver) StageFinished(ctx context.Context, stage engine.StageReport) {
	_, span := o.tracer.Start(ctx, SpanStage,
		trace.WithTimestamp(stage.Started),
		trace.WithAttributes(
			attribute.String(AttrNodeID, stage.NodeID),
			attribute.String(AttrTypeKey, stage.TypeKey),
			attribute.String(AttrCategory, stage.Category.String()),
			attribute.Bool(AttrBuffered, stage.Buffered),
			attribute.Int(AttrJobsIn, stage.In),
			attribute.Int(AttrJobsOut, stage.Out),
		),
	)
	span.End(trace.WithTimestamp(stage.Started.Add(stage.Duration)))

	if o.metrics != nil {
		o.metrics.RecordStage(ctx, stage.TypeKey, stage.Category.String(), stage.Out, stage.Duration)
	}
}

func (o *OTelObserver) JobFinished(ctx context.Context, j job.Job) {
	if j.Status == job.Failed {
		trace.SpanFromContext(ctx).AddEvent("job failed", trace.WithAttributes(
			attribute.String("file", j.OriginalPath()),
			attribute.String(AttrErrorMessage, j.ErrorMessage),
		))
	}
	if o.metrics != nil {
		o.metrics.RecordJob(ctx, j.Status.String())
	}
}

func (o *OTelObserver) RunFinished(ctx context.Context, _ engine.RunInfo, result *engine.Result, err error) {
	rc := RunContextFromContext(ctx)
	if rc == nil {
		return
	}

	outcome := runOutcome(result, err)
	span := rc.Span
	span.SetAttributes(attribute.String(AttrOutcome, outcome))
	if result != nil {
		span.SetAttributes(
			attribute.Int("flowforge.files.total", result.TotalFiles),
			attribute.Int("flowforge.files.succeeded", result.Succeeded),
			attribute.Int("flowforge.files.failed", result.Failed),
			attribute.Int("flowforge.files.skipped", result.Skipped),
		)
	}
	if err != nil {
		SetSpanError(ctx, err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	if o.metrics != nil {
		files := 0
		if result != nil {
			files = result.TotalFiles
		}
		o.metrics.RecordRunEnd(ctx, rc.Pipeline, outcome, files, rc.Duration())
	}
}

// runOutcome labels a finished run: success, partial, failure, cancelled
// or aborted.
func runOutcome(result *engine.Result, err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case err != nil:
		return "aborted"
	case result == nil:
		return "unknown"
	}
	return result.Outcome().String()
}
