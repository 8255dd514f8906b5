package graph

import (
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultVersion is the pipeline format version written by New.
	DefaultVersion = "1.0"
	// PortOut is the single logical output port.
	PortOut = "out"
	// PortIn is the single logical input port.
	PortIn = "in"
)

// Graph is a user-authored pipeline.
type Graph struct {
	ID          string           `json:"id" yaml:"id"`
	Name        string           `json:"name" yaml:"name"`
	Version     string           `json:"version" yaml:"version"`
	CreatedAt   time.Time        `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt" yaml:"updatedAt"`
	Nodes       []NodeDefinition `json:"nodes" yaml:"nodes"`
	Connections []Connection     `json:"connections" yaml:"connections"`
}

// NodeDefinition declares one node of a pipeline. Config is opaque to the
// engine; only the instantiated node interprets it.
type NodeDefinition struct {
	ID       string         `json:"id" yaml:"id"`
	TypeKey  string         `json:"typeKey" yaml:"typeKey"`
	Position Position       `json:"position" yaml:"position,omitempty"`
	Config   map[string]any `json:"config" yaml:"config"`
}

// Position is an editor layout hint. The engine ignores it.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Connection is a directed edge: ToNode runs after FromNode.
type Connection struct {
	FromNode string `json:"fromNode" yaml:"fromNode"`
	FromPort string `json:"fromPin" yaml:"fromPin,omitempty"`
	ToNode   string `json:"toNode" yaml:"toNode"`
	ToPort   string `json:"toPin" yaml:"toPin,omitempty"`
}

// New creates an empty graph with a fresh id.
func New(name string) *Graph {
	now := time.Now().UTC()
	return &Graph{
		ID:        uuid.NewString(),
		Name:      name,
		Version:   DefaultVersion,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddNode appends a node with a fresh id and returns that id.
func (g *Graph) AddNode(typeKey string, config map[string]any) string {
	id := uuid.NewString()
	if config == nil {
		config = map[string]any{}
	}
	g.Nodes = append(g.Nodes, NodeDefinition{ID: id, TypeKey: typeKey, Config: config})
	return id
}

// Connect adds an edge from one node's output to another node's input.
func (g *Graph) Connect(from, to string) {
	g.Connections = append(g.Connections, Connection{FromNode: from, FromPort: PortOut, ToNode: to, ToPort: PortIn})
}

// Node returns the definition with the given id.
func (g *Graph) Node(id string) (NodeDefinition, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeDefinition{}, false
}

// Linear builds a graph whose nodes are chained in the given order.
func Linear(name string, nodes ...NodeDefinition) *Graph {
	g := New(name)
	for i, n := range nodes {
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		if n.Config == nil {
			n.Config = map[string]any{}
		}
		g.Nodes = append(g.Nodes, n)
		if i > 0 {
			g.Connect(g.Nodes[i-1].ID, n.ID)
		}
	}
	return g
}

// Clone returns a deep copy of the graph, keeping every id.
func (g *Graph) Clone() *Graph {
	c := *g
	c.Nodes = make([]NodeDefinition, len(g.Nodes))
	for i, n := range g.Nodes {
		n.Config = cloneValue(n.Config).(map[string]any)
		c.Nodes[i] = n
	}
	c.Connections = append([]Connection(nil), g.Connections...)
	return &c
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return map[string]any{}
		}
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = cloneValue(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = cloneValue(val)
		}
		return s
	default:
		return v
	}
}
