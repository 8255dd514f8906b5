// Package engine runs FlowForge pipelines.
//
// A run validates and sorts the graph, instantiates every node up front,
// then moves one materialized batch of jobs through three stages: sources
// are drained in order, each transform is applied to the whole batch in
// chain order (buffered transforms are flushed after the batch), and the
// surviving jobs fan out to the outputs under a weighted semaphore.
//
// Finalized jobs are handed to a single aggregator goroutine that owns the
// Result and invokes the progress callback, so callbacks never overlap.
//
//	runner := engine.New(nodes.NewRegistry())
//	res, err := runner.Run(ctx, g, engine.WithDryRun(true))
package engine
