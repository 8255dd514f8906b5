package graph

import (
	"fmt"
	"testing"

	apperrors "github.com/kbukum/flowforge/errors"
)

type typeSet map[string]bool

func (s typeSet) IsRegistered(typeKey string) bool { return s[typeKey] }

var known = typeSet{"Source": true, "Transform": true, "Output": true}

func node(id, typeKey string) NodeDefinition {
	return NodeDefinition{ID: id, TypeKey: typeKey, Config: map[string]any{}}
}

func edge(from, to string) Connection {
	return Connection{FromNode: from, FromPort: PortOut, ToNode: to, ToPort: PortIn}
}

func indexOf(order []string, id string) int {
	for i, v := range order {
		if v == id {
			return i
		}
	}
	return -1
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		g    *Graph
		code apperrors.ErrorCode
	}{
		{"nil graph", nil, apperrors.ErrCodeEmptyGraph},
		{"empty graph", &Graph{}, apperrors.ErrCodeEmptyGraph},
		{"duplicate id", &Graph{Nodes: []NodeDefinition{node("a", "Source"), node("a", "Output")}}, apperrors.ErrCodeDuplicateNode},
		{"unknown type", &Graph{Nodes: []NodeDefinition{node("a", "Nope")}}, apperrors.ErrCodeUnknownNodeType},
		{"dangling from", &Graph{
			Nodes:       []NodeDefinition{node("a", "Source")},
			Connections: []Connection{edge("ghost", "a")},
		}, apperrors.ErrCodeDanglingConnection},
		{"dangling to", &Graph{
			Nodes:       []NodeDefinition{node("a", "Source")},
			Connections: []Connection{edge("a", "ghost")},
		}, apperrors.ErrCodeDanglingConnection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.g, known)
			if !apperrors.HasCode(err, tt.code) {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestValidate_DanglingNamesNode(t *testing.T) {
	g := &Graph{Nodes: []NodeDefinition{node("a", "Source")}, Connections: []Connection{edge("a", "ghost")}}
	appErr, ok := apperrors.AsAppError(Validate(g, known))
	if !ok || appErr.Details["node_id"] != "ghost" {
		t.Errorf("expected node_id=ghost, got %v", appErr)
	}
}

func TestValidate_Valid(t *testing.T) {
	g := &Graph{
		Nodes:       []NodeDefinition{node("in", "Source"), node("out", "Output")},
		Connections: []Connection{edge("in", "out")},
	}
	if err := Validate(g, known); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTopologicalSort_RespectsEdges(t *testing.T) {
	// in -> t1 -> t2 -> out, declared out of order, plus a second source.
	g := &Graph{
		Nodes: []NodeDefinition{
			node("out", "Output"), node("t2", "Transform"), node("in", "Source"),
			node("t1", "Transform"), node("in2", "Source"),
		},
		Connections: []Connection{
			edge("t1", "t2"), edge("in", "t1"), edge("t2", "out"), edge("in2", "t1"),
		},
	}
	order, err := TopologicalSort(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != len(g.Nodes) {
		t.Fatalf("expected %d ids, got %v", len(g.Nodes), order)
	}
	for _, c := range g.Connections {
		if indexOf(order, c.FromNode) >= indexOf(order, c.ToNode) {
			t.Errorf("%s must come before %s in %v", c.FromNode, c.ToNode, order)
		}
	}
}

func TestTopologicalSort_DisconnectedNodes(t *testing.T) {
	g := &Graph{Nodes: []NodeDefinition{node("b", "Output"), node("a", "Source"), node("c", "Transform")}}
	order, err := TopologicalSort(g)
	if err != nil {
		t.Fatal(err)
	}
	if len(order) != 3 {
		t.Errorf("expected all 3 nodes, got %v", order)
	}
}

func TestTopologicalSort_Chains(t *testing.T) {
	for n := 1; n <= 20; n++ {
		t.Run(fmt.Sprintf("len=%d", n), func(t *testing.T) {
			g := &Graph{}
			for i := n - 1; i >= 0; i-- {
				g.Nodes = append(g.Nodes, node(fmt.Sprintf("n%d", i), "Transform"))
			}
			for i := 0; i < n-1; i++ {
				g.Connections = append(g.Connections, edge(fmt.Sprintf("n%d", i), fmt.Sprintf("n%d", i+1)))
			}
			order, err := TopologicalSort(g)
			if err != nil {
				t.Fatal(err)
			}
			for i, id := range order {
				if id != fmt.Sprintf("n%d", i) {
					t.Fatalf("position %d: got %s, order %v", i, id, order)
				}
			}
		})
	}
}

func TestTopologicalSort_Cycle(t *testing.T) {
	tests := []struct {
		name string
		g    *Graph
	}{
		{"two node", &Graph{
			Nodes:       []NodeDefinition{node("A", "Transform"), node("B", "Transform")},
			Connections: []Connection{edge("A", "B"), edge("B", "A")},
		}},
		{"self loop", &Graph{
			Nodes:       []NodeDefinition{node("A", "Transform")},
			Connections: []Connection{edge("A", "A")},
		}},
		{"cycle behind a source", &Graph{
			Nodes:       []NodeDefinition{node("in", "Source"), node("A", "Transform"), node("B", "Transform")},
			Connections: []Connection{edge("in", "A"), edge("A", "B"), edge("B", "A")},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := TopologicalSort(tt.g)
			if !apperrors.HasCode(err, apperrors.ErrCodeGraphCycle) {
				t.Fatalf("expected GRAPH_CYCLE, got %v (order %v)", err, order)
			}
			if order != nil {
				t.Errorf("expected no order, got %v", order)
			}
		})
	}
}

func TestLevels(t *testing.T) {
	// a -> c, b -> c, c -> d, a -> d
	g := &Graph{
		Nodes:       []NodeDefinition{node("a", "Source"), node("b", "Source"), node("c", "Transform"), node("d", "Output")},
		Connections: []Connection{edge("a", "c"), edge("b", "c"), edge("c", "d"), edge("a", "d")},
	}
	levels, err := Levels(g)
	if err != nil {
		t.Fatal(err)
	}
	if len(levels) != 3 {
		t.Fatalf("expected 3 levels, got %v", levels)
	}
	if len(levels[0]) != 2 || levels[0][0] != "a" || levels[0][1] != "b" {
		t.Errorf("level 0 = %v, want [a b]", levels[0])
	}
	if levels[2][0] != "d" {
		t.Errorf("level 2 = %v, want [d]", levels[2])
	}
}

func TestLinearAndClone(t *testing.T) {
	g := Linear("chain", NodeDefinition{TypeKey: "Source"}, NodeDefinition{TypeKey: "Transform", Config: map[string]any{
		"nested": map[string]any{"k": "v"},
	}}, NodeDefinition{TypeKey: "Output"})
	if len(g.Nodes) != 3 || len(g.Connections) != 2 {
		t.Fatalf("unexpected shape: %d nodes %d connections", len(g.Nodes), len(g.Connections))
	}
	if g.Connections[0].FromNode != g.Nodes[0].ID || g.Connections[1].ToNode != g.Nodes[2].ID {
		t.Error("connections should chain the nodes in order")
	}

	c := g.Clone()
	c.Nodes[1].Config["nested"].(map[string]any)["k"] = "changed"
	if g.Nodes[1].Config["nested"].(map[string]any)["k"] != "v" {
		t.Error("Clone must deep-copy config")
	}
	if _, ok := c.Node(g.Nodes[2].ID); !ok {
		t.Error("Clone should keep node ids")
	}
}
