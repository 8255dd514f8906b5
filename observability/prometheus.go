package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kbukum/flowforge/engine"
	"github.com/kbukum/flowforge/job"
)

const promNamespace = "flowforge"

// PromObserver records run metrics into its own Prometheus registry. Batch
// runs export them with WriteTextfile for the node exporter's textfile
// collector.
type PromObserver struct {
	registry *prometheus.Registry

	runsTotal      *prometheus.CounterVec
	runsActive     prometheus.Gauge
	runDuration    *prometheus.HistogramVec
	jobsTotal      *prometheus.CounterVec
	filesTotal     *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	stageJobs      *prometheus.CounterVec
	lastRunSuccess *prometheus.GaugeVec
	lastRunTime    *prometheus.GaugeVec
}

var _ engine.Observer = (*PromObserver)(nil)

// NewPromObserver creates an observer with a fresh registry.
func NewPromObserver() *PromObserver {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &PromObserver{
		registry: reg,
		runsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: promNamespace,
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by outcome",
		}, []string{"pipeline", "outcome"}),
		runsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: promNamespace,
			Name:      "runs_active",
			Help:      "Number of pipeline runs in progress",
		}),
		runDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: promNamespace,
			Name:      "run_duration_seconds",
			Help:      "Pipeline run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900, 3600},
		}, []string{"pipeline"}),
		jobsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: promNamespace,
			Name:      "jobs_total",
			Help:      "Total number of finalized jobs by status",
		}, []string{"status"}),
		filesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: promNamespace,
			Name:      "files_total",
			Help:      "Total number of files enumerated by sources",
		}, []string{"pipeline"}),
		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: promNamespace,
			Subsystem: "stage",
			Name:      "duration_seconds",
			Help:      "Duration of one node's pass over the batch in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type_key", "category"}),
		stageJobs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: promNamespace,
			Subsystem: "stage",
			Name:      "jobs_total",
			Help:      "Jobs passed on by a node",
		}, []string{"type_key", "category"}),
		lastRunSuccess: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: promNamespace,
			Name:      "last_run_success",
			Help:      "1 if the last run of the pipeline had no failed job",
		}, []string{"pipeline"}),
		lastRunTime: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: promNamespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run of the pipeline finished",
		}, []string{"pipeline"}),
	}
}

// Registry returns the registry holding the observer's collectors.
func (o *PromObserver) Registry() *prometheus.Registry {
	return o.registry
}

// WriteTextfile writes the current readings to path in the text exposition
// format. The file is replaced atomically.
func (o *PromObserver) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, o.registry)
}

func (o *PromObserver) RunStarted(ctx context.Context, _ engine.RunInfo) context.Context {
	o.runsActive.Inc()
	return ctx
}

func (o *PromObserver) StageFinished(_ context.Context, stage engine.StageReport) {
	category := stage.Category.String()
	o.stageDuration.WithLabelValues(stage.TypeKey, category).Observe(stage.Duration.Seconds())
	o.stageJobs.WithLabelValues(stage.TypeKey, category).Add(float64(stage.Out))
}

func (o *PromObserver) JobFinished(_ context.Context, j job.Job) {
	o.jobsTotal.WithLabelValues(j.Status.String()).Inc()
}

func (o *PromObserver) RunFinished(_ context.Context, run engine.RunInfo, result *engine.Result, err error) {
	o.runsActive.Dec()
	pipeline := run.PipelineName
	o.runsTotal.WithLabelValues(pipeline, runOutcome(result, err)).Inc()
	o.runDuration.WithLabelValues(pipeline).Observe(time.Since(run.StartedAt).Seconds())
	o.lastRunTime.WithLabelValues(pipeline).SetToCurrentTime()

	success := 0.0
	if err == nil && result != nil && result.Failed == 0 {
		success = 1
	}
	o.lastRunSuccess.WithLabelValues(pipeline).Set(success)
	if result != nil {
		o.filesTotal.WithLabelValues(pipeline).Add(float64(result.TotalFiles))
	}
}
