// Package seq provides lazy, pull-based finite sequences.
//
// Sources hand the engine an Iterator instead of a materialized slice, so
// enumeration work happens only as the engine pulls. Operators wrap an
// iterator and stay lazy; Collect is the only terminal that materializes.
//
//	it := seq.Map(seq.FromSlice(paths), func(_ context.Context, p string) (*job.Job, error) {
//		return job.New(p), nil
//	})
//	jobs, err := seq.Collect(ctx, it)
package seq
