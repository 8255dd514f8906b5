package graph

import (
	apperrors "github.com/kbukum/flowforge/errors"
)

// TopologicalSort orders node ids so that every connection points forward,
// using Kahn's algorithm. Among nodes that become ready together, the one
// declared first in g.Nodes is emitted first; callers must not rely on that.
// Connections must already resolve (see Validate).
func TopologicalSort(g *Graph) ([]string, error) {
	levels, err := Levels(g)
	if err != nil {
		return nil, err
	}
	order := make([]string, 0, len(g.Nodes))
	for _, level := range levels {
		order = append(order, level...)
	}
	return order, nil
}

// Levels groups node ids by dependency depth: every node sits one level
// after the deepest node it depends on.
func Levels(g *Graph) ([][]string, error) {
	position := make(map[string]int, len(g.Nodes))
	inDegree := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		position[n.ID] = i
		inDegree[n.ID] = 0
	}

	dependents := make(map[string][]string)
	for _, c := range g.Connections {
		inDegree[c.ToNode]++
		dependents[c.FromNode] = append(dependents[c.FromNode], c.ToNode)
	}

	var queue []string
	for _, n := range g.Nodes {
		if inDegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}

	var levels [][]string
	visited := 0
	for len(queue) > 0 {
		levels = append(levels, queue)
		visited += len(queue)

		var next []string
		for _, id := range queue {
			for _, dep := range dependents[id] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = insertByPosition(next, dep, position)
				}
			}
		}
		queue = next
	}

	if visited != len(g.Nodes) {
		return nil, apperrors.GraphCycle(visited, len(g.Nodes))
	}
	return levels, nil
}

func insertByPosition(ids []string, id string, position map[string]int) []string {
	i := len(ids)
	for i > 0 && position[ids[i-1]] > position[id] {
		i--
	}
	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}
