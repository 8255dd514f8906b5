package graph

import (
	apperrors "github.com/kbukum/flowforge/errors"
)

// TypeChecker reports whether a node type key is known.
type TypeChecker interface {
	IsRegistered(typeKey string) bool
}

// Validate checks the structural invariants of g: at least one node, unique
// node ids, registered node types and resolvable connection endpoints.
// It performs no I/O and instantiates nothing.
func Validate(g *Graph, types TypeChecker) error {
	if g == nil || len(g.Nodes) == 0 {
		return apperrors.EmptyGraph()
	}

	ids := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, dup := ids[n.ID]; dup {
			return apperrors.DuplicateNode(n.ID)
		}
		ids[n.ID] = struct{}{}
	}

	for _, n := range g.Nodes {
		if !types.IsRegistered(n.TypeKey) {
			return apperrors.UnknownNodeType(n.TypeKey).WithDetail("node_id", n.ID)
		}
	}

	for _, c := range g.Connections {
		if _, ok := ids[c.FromNode]; !ok {
			return apperrors.DanglingConnection(c.FromNode)
		}
		if _, ok := ids[c.ToNode]; !ok {
			return apperrors.DanglingConnection(c.ToNode)
		}
	}
	return nil
}
