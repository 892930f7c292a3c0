// SPDX-License-Identifier: MPL-2.0

// Package depgraph provides the in-memory dependency graph built from a
// project's manifests: package nodes with directed "depends on" edges and
// direct/transitive dependency queries.
//
// Node identity is the package name only. Two declarations of the same
// package at different versions collapse into one node, keeping whichever
// version was inserted first; diamond dependencies pulling different
// versions are therefore indistinguishable at this layer.
package depgraph

import (
	"fmt"
	"strings"

	"modguard/pkg/collision"
)

// Graph is a directed graph of package dependencies. Nodes and edges keep
// insertion order for deterministic traversal output.
type Graph struct {
	// order tracks node names in insertion order.
	order []string
	// identities maps node name to the identity it was first inserted with.
	identities map[string]collision.PackageIdentity
	// adjacency maps each node to its outgoing dependency edges, in
	// insertion order with duplicates suppressed.
	adjacency map[string][]string
	// edgeSet provides O(1) edge dedup.
	edgeSet map[string]map[string]bool
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		identities: make(map[string]collision.PackageIdentity),
		adjacency:  make(map[string][]string),
		edgeSet:    make(map[string]map[string]bool),
	}
}

// AddNode adds a package node. Idempotent on package name: re-adding an
// existing name is a no-op even when the version differs.
func (g *Graph) AddNode(pkg collision.PackageIdentity) {
	if _, ok := g.identities[pkg.Name]; ok {
		return
	}
	g.identities[pkg.Name] = pkg
	g.order = append(g.order, pkg.Name)
}

// AddDependency adds a directed edge parent -> child, inserting both nodes
// if absent. Duplicate edges are suppressed.
func (g *Graph) AddDependency(parent, child collision.PackageIdentity) {
	g.AddNode(parent)
	g.AddNode(child)

	if g.edgeSet[parent.Name] == nil {
		g.edgeSet[parent.Name] = make(map[string]bool)
	}
	if g.edgeSet[parent.Name][child.Name] {
		return
	}
	g.edgeSet[parent.Name][child.Name] = true
	g.adjacency[parent.Name] = append(g.adjacency[parent.Name], child.Name)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.order)
}

// Package returns the identity stored for name.
func (g *Graph) Package(name string) (collision.PackageIdentity, bool) {
	pkg, ok := g.identities[name]
	return pkg, ok
}

// Packages returns every package in insertion order.
func (g *Graph) Packages() []collision.PackageIdentity {
	out := make([]collision.PackageIdentity, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.identities[name])
	}
	return out
}

// DirectDependencies returns the packages name directly depends on, in edge
// insertion order. An unknown name yields an empty result, not an error:
// absence of data is not a fault at this layer.
func (g *Graph) DirectDependencies(name string) []collision.PackageIdentity {
	edges := g.adjacency[name]
	out := make([]collision.PackageIdentity, 0, len(edges))
	for _, dep := range edges {
		out = append(out, g.identities[dep])
	}
	return out
}

// AllDependencies returns every package reachable from name via outgoing
// edges, excluding name itself. The walk is iterative with an explicit
// visited set, so a cycle terminates rather than looping.
func (g *Graph) AllDependencies(name string) []collision.PackageIdentity {
	if _, ok := g.identities[name]; !ok {
		return nil
	}

	var out []collision.PackageIdentity
	visited := map[string]bool{name: true}
	queue := append([]string(nil), g.adjacency[name]...)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true
		out = append(out, g.identities[current])
		queue = append(queue, g.adjacency[current]...)
	}
	return out
}

// String renders the graph as an indented tree of direct dependencies.
func (g *Graph) String() string {
	var b strings.Builder
	b.WriteString("Dependency graph:\n")
	for _, name := range g.order {
		fmt.Fprintf(&b, "- %s\n", name)
		for _, dep := range g.adjacency[name] {
			fmt.Fprintf(&b, "  └─ %s\n", dep)
		}
	}
	return b.String()
}
