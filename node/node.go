package node

import (
	"context"

	"github.com/kbukum/flowforge/job"
	"github.com/kbukum/flowforge/seq"
)

// Category is the role a node plays in a pipeline.
type Category int

const (
	CategorySource Category = iota + 1
	CategoryTransform
	CategoryOutput
)

func (c Category) String() string {
	switch c {
	case CategorySource:
		return "Source"
	case CategoryTransform:
		return "Transform"
	case CategoryOutput:
		return "Output"
	}
	return "Invalid"
}

// Configurable is implemented by every node body.
type Configurable interface {
	TypeKey() string
	// Configure is called once, before any job is processed.
	Configure(Values) error
}

// Source produces the initial jobs of a run. The iterator is finite and is
// drained exactly once.
type Source interface {
	Configurable
	Produce(ctx context.Context) seq.Iterator[*job.Job]
}

// Transform maps one job to zero, one or many jobs. Returning no jobs drops
// the input; the transform should mark it Skipped (or Failed) first.
type Transform interface {
	Configurable
	Transform(ctx context.Context, j *job.Job, dryRun bool) ([]*job.Job, error)
}

// Buffered is a Transform that needs the whole batch. Transform accumulates
// and returns nothing; Flush is called once after the batch and returns the
// complete output set, leaving the buffer empty.
type Buffered interface {
	Transform
	Flush(ctx context.Context) ([]*job.Job, error)
}

// Output performs the final side effect for a job. Under dry run it must not
// touch the filesystem.
type Output interface {
	Configurable
	Consume(ctx context.Context, j *job.Job, dryRun bool) error
}

// Node is a configured pipeline node. The zero value is invalid.
type Node struct {
	category  Category
	impl      Configurable
	source    Source
	transform Transform
	buffered  Buffered
	output    Output
}

// NewSource wraps a Source.
func NewSource(s Source) Node {
	return Node{category: CategorySource, impl: s, source: s}
}

// NewTransform wraps a streaming Transform.
func NewTransform(t Transform) Node {
	return Node{category: CategoryTransform, impl: t, transform: t}
}

// NewBuffered wraps a Buffered transform.
func NewBuffered(b Buffered) Node {
	return Node{category: CategoryTransform, impl: b, transform: b, buffered: b}
}

// NewOutput wraps an Output.
func NewOutput(o Output) Node {
	return Node{category: CategoryOutput, impl: o, output: o}
}

// Category reports which variant n holds.
func (n Node) Category() Category { return n.category }

// Buffered reports whether n is a buffered transform.
func (n Node) Buffered() bool { return n.buffered != nil }

// TypeKey returns the registry key of the wrapped body.
func (n Node) TypeKey() string {
	if n.impl == nil {
		return ""
	}
	return n.impl.TypeKey()
}

// Source returns the body of a Source node, nil otherwise.
func (n Node) Source() Source { return n.source }

// Transform returns the body of a Transform node, nil otherwise.
func (n Node) Transform() Transform { return n.transform }

// Flusher returns the body of a buffered Transform node, nil otherwise.
func (n Node) Flusher() Buffered { return n.buffered }

// Output returns the body of an Output node, nil otherwise.
func (n Node) Output() Output { return n.output }

// Body returns the wrapped node body, for optional interfaces such as
// health checks.
func (n Node) Body() Configurable { return n.impl }

// Configure forwards to the wrapped body.
func (n Node) Configure(v Values) error {
	return n.impl.Configure(v)
}
