package state

import (
	"maps"

	"github.com/dshills/richtext/internal/engine/node"
)

// maxLayerDepth bounds the number of overlay layers a lookup walks.
const maxLayerDepth = 16

// nodeMap is a persistent map from key to node version.
// Each layer holds the entries changed relative to its parent; a nil
// value marks a deletion.
type nodeMap struct {
	parent  *nodeMap
	entries map[node.Key]node.Node
	depth   int
	size    int
}

func newNodeMap(entries map[node.Key]node.Node) *nodeMap {
	m := &nodeMap{entries: make(map[node.Key]node.Node, len(entries))}
	for k, n := range entries {
		if n != nil {
			m.entries[k] = n
		}
	}
	m.size = len(m.entries)
	return m
}

func (m *nodeMap) get(k node.Key) (node.Node, bool) {
	for l := m; l != nil; l = l.parent {
		if n, ok := l.entries[k]; ok {
			return n, n != nil
		}
	}
	return nil, false
}

// with returns a new map with changes applied. m is not modified.
func (m *nodeMap) with(changes map[node.Key]node.Node) *nodeMap {
	next := &nodeMap{
		parent:  m,
		entries: maps.Clone(changes),
		depth:   m.depth + 1,
		size:    m.size,
	}
	if next.entries == nil {
		next.entries = make(map[node.Key]node.Node)
	}
	for k, n := range changes {
		_, existed := m.get(k)
		switch {
		case n == nil && existed:
			next.size--
		case n != nil && !existed:
			next.size++
		}
	}
	if next.depth > maxLayerDepth {
		return next.flatten()
	}
	return next
}

func (m *nodeMap) flatten() *nodeMap {
	out := make(map[node.Key]node.Node, m.size)
	m.each(func(k node.Key, n node.Node) bool {
		out[k] = n
		return true
	})
	return &nodeMap{entries: out, size: len(out)}
}

// each visits every live entry once. Iteration order is unspecified.
func (m *nodeMap) each(fn func(node.Key, node.Node) bool) {
	seen := make(map[node.Key]struct{}, m.size)
	for l := m; l != nil; l = l.parent {
		for k, n := range l.entries {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			if n == nil {
				continue
			}
			if !fn(k, n) {
				return
			}
		}
	}
}
