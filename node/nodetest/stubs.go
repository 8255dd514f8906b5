package nodetest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/flowforge/job"
	"github.com/kbukum/flowforge/node"
	"github.com/kbukum/flowforge/seq"
)

type configurable struct {
	key    string
	err    error
	mu     sync.Mutex
	values node.Values
}

func (c *configurable) TypeKey() string { return c.key }

func (c *configurable) Configure(v node.Values) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = v
	return c.err
}

// Values returns what Configure received.
func (c *configurable) Values() node.Values {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values
}

// Source emits one job per path. If Err is set, the iterator fails after
// the paths are exhausted.
type Source struct {
	configurable
	Paths []string
	Err   error
}

var _ node.Source = (*Source)(nil)

// NewSource creates a source stub emitting a job per path.
func NewSource(typeKey string, paths ...string) *Source {
	return &Source{configurable: configurable{key: typeKey}, Paths: paths}
}

// FailConfigure makes Configure return err.
func (s *Source) FailConfigure(err error) *Source {
	s.err = err
	return s
}

func (s *Source) Produce(_ context.Context) seq.Iterator[*job.Job] {
	i := 0
	return seq.FromFunc(func(context.Context) (*job.Job, bool, error) {
		if i < len(s.Paths) {
			i++
			return job.New(s.Paths[i-1]), true, nil
		}
		if s.Err != nil {
			return nil, false, s.Err
		}
		return nil, false, nil
	}, nil)
}

// TransformFunc is the body of a Transform stub.
type TransformFunc func(ctx context.Context, j *job.Job, dryRun bool) ([]*job.Job, error)

// Transform delegates to a function and counts calls.
type Transform struct {
	configurable
	fn    TransformFunc
	calls atomic.Int64
}

var _ node.Transform = (*Transform)(nil)

// NewTransform creates a transform stub. A nil fn passes jobs through.
func NewTransform(typeKey string, fn TransformFunc) *Transform {
	if fn == nil {
		fn = Passthrough
	}
	return &Transform{configurable: configurable{key: typeKey}, fn: fn}
}

// FailConfigure makes Configure return err.
func (t *Transform) FailConfigure(err error) *Transform {
	t.err = err
	return t
}

// Passthrough returns the job unchanged.
func Passthrough(_ context.Context, j *job.Job, _ bool) ([]*job.Job, error) {
	return []*job.Job{j}, nil
}

func (t *Transform) Transform(ctx context.Context, j *job.Job, dryRun bool) ([]*job.Job, error) {
	t.calls.Add(1)
	return t.fn(ctx, j, dryRun)
}

// Calls returns how many jobs were offered.
func (t *Transform) Calls() int { return int(t.calls.Load()) }

// FlushFunc produces the output batch of a Buffered stub from its buffer.
type FlushFunc func(ctx context.Context, buffered []*job.Job) ([]*job.Job, error)

// Buffered accumulates every job and hands the buffer to a FlushFunc.
type Buffered struct {
	configurable
	fn      FlushFunc
	buffer  []*job.Job
	flushes int
}

var _ node.Buffered = (*Buffered)(nil)

// NewBuffered creates a buffered stub. A nil fn flushes the buffer as is.
func NewBuffered(typeKey string, fn FlushFunc) *Buffered {
	if fn == nil {
		fn = func(_ context.Context, b []*job.Job) ([]*job.Job, error) { return b, nil }
	}
	return &Buffered{configurable: configurable{key: typeKey}, fn: fn}
}

func (b *Buffered) Transform(_ context.Context, j *job.Job, _ bool) ([]*job.Job, error) {
	b.buffer = append(b.buffer, j)
	return nil, nil
}

func (b *Buffered) Flush(ctx context.Context) ([]*job.Job, error) {
	b.flushes++
	buffered := b.buffer
	b.buffer = nil
	return b.fn(ctx, buffered)
}

// Flushes returns how many times Flush was called.
func (b *Buffered) Flushes() int { return b.flushes }

// Pending returns the number of buffered jobs.
func (b *Buffered) Pending() int { return len(b.buffer) }

// ConsumeFunc is the body of an Output stub.
type ConsumeFunc func(ctx context.Context, j *job.Job, dryRun bool) error

// Output records consumed jobs and tracks how many Consume calls overlap.
type Output struct {
	configurable
	fn    ConsumeFunc
	delay time.Duration

	mu       sync.Mutex
	consumed []job.Job
	active   int
	peak     int
}

var _ node.Output = (*Output)(nil)

// NewOutput creates an output stub. A nil fn accepts every job.
func NewOutput(typeKey string, fn ConsumeFunc) *Output {
	return &Output{configurable: configurable{key: typeKey}, fn: fn}
}

// WithDelay makes every Consume hold its slot for d.
func (o *Output) WithDelay(d time.Duration) *Output {
	o.delay = d
	return o
}

// FailConfigure makes Configure return err.
func (o *Output) FailConfigure(err error) *Output {
	o.err = err
	return o
}

func (o *Output) Consume(ctx context.Context, j *job.Job, dryRun bool) error {
	o.mu.Lock()
	o.active++
	if o.active > o.peak {
		o.peak = o.active
	}
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.active--
		o.mu.Unlock()
	}()

	if o.delay > 0 {
		select {
		case <-time.After(o.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	var err error
	if o.fn != nil {
		err = o.fn(ctx, j, dryRun)
	}
	if err == nil {
		o.mu.Lock()
		o.consumed = append(o.consumed, j.Snapshot())
		o.mu.Unlock()
	}
	return err
}

// Consumed returns snapshots of successfully consumed jobs.
func (o *Output) Consumed() []job.Job {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]job.Job(nil), o.consumed...)
}

// Peak returns the highest number of concurrent Consume calls observed.
func (o *Output) Peak() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.peak
}
