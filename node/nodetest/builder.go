package nodetest

import (
	"fmt"

	"github.com/kbukum/flowforge/graph"
	"github.com/kbukum/flowforge/node"
)

// Registry builds a registry from node instances. Each factory returns the
// same instance, so tests can inspect it after a run.
func Registry(nodes ...node.Node) *node.Registry {
	reg := node.NewRegistry()
	for _, n := range nodes {
		Register(reg, n)
	}
	return reg
}

// Register adds n under its own type key, with an empty schema.
func Register(reg *node.Registry, n node.Node) {
	reg.MustRegister(node.Registration{
		TypeKey:  n.TypeKey(),
		Category: n.Category(),
		Factory:  func() node.Node { return n },
	})
}

// GraphBuilder provides a fluent API for constructing test graphs.
type GraphBuilder struct {
	g *graph.Graph
}

// NewGraph starts a graph named name.
func NewGraph(name string) *GraphBuilder {
	return &GraphBuilder{g: &graph.Graph{ID: name, Name: name, Version: graph.DefaultVersion}}
}

// Node adds a node with an explicit id.
func (b *GraphBuilder) Node(id, typeKey string, config map[string]any) *GraphBuilder {
	if config == nil {
		config = map[string]any{}
	}
	b.g.Nodes = append(b.g.Nodes, graph.NodeDefinition{ID: id, TypeKey: typeKey, Config: config})
	return b
}

// Edge connects from -> to.
func (b *GraphBuilder) Edge(from, to string) *GraphBuilder {
	b.g.Connect(from, to)
	return b
}

// Chain connects the given ids in order.
func (b *GraphBuilder) Chain(ids ...string) *GraphBuilder {
	for i := 1; i < len(ids); i++ {
		b.g.Connect(ids[i-1], ids[i])
	}
	return b
}

// Build returns the constructed graph.
func (b *GraphBuilder) Build() *graph.Graph {
	return b.g
}

// Linear builds a graph where node i has id "n<i>" and type typeKeys[i],
// chained in order.
func Linear(typeKeys ...string) *graph.Graph {
	b := NewGraph("linear")
	ids := make([]string, len(typeKeys))
	for i, key := range typeKeys {
		ids[i] = fmt.Sprintf("n%d", i)
		b.Node(ids[i], key, nil)
	}
	return b.Chain(ids...).Build()
}
