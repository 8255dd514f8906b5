// Package observability connects pipeline runs to OpenTelemetry and
// Prometheus through the engine.Observer hook.
//
// Tracing and metrics over OTLP:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("flowforge"), log)
//	defer tp.Shutdown(ctx)
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("flowforge"), log)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("flowforge"))
//	runner.Observer = observability.NewOTelObserver(nil, metrics)
//
// Prometheus textfile export for batch runs:
//
//	prom := observability.NewPromObserver()
//	runner.Observer = engine.Observers(otelObs, prom)
//	...
//	prom.WriteTextfile("/var/lib/node_exporter/flowforge.prom")
//
// Pre-run checks:
//
//	health := observability.NewPipelineHealth(g.Name)
//	health.AddComponent(checker.CheckHealth(ctx))
package observability
