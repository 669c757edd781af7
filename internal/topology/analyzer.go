// Package topology validates the shape of a diagram and decomposes it into
// start-to-end paths for bottom-up evaluation.
package topology

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gyaneshwarpardhi/rbdengine/internal/rbd"
)

var (
	// ErrInvalidTopology is returned by Validation.Err and PathAnalysis.Err
	// when the diagram cannot be evaluated.
	ErrInvalidTopology = errors.New("invalid topology")

	// ErrTooManyPaths is returned when path enumeration exceeds the analyzer's limit.
	ErrTooManyPaths = errors.New("too many start-to-end paths")
)

// Analyzer holds read-only indexes over one diagram. It is safe for
// concurrent use once constructed.
type Analyzer struct {
	graph    *rbd.Graph
	nodes    map[string]*rbd.Node  // id → node
	outgoing map[string][]rbd.Edge // source id → edges in document order
	maxPaths int
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithMaxPaths bounds the number of enumerated paths. Zero means unbounded.
func WithMaxPaths(n int) Option {
	return func(a *Analyzer) { a.maxPaths = n }
}

// New indexes g. The graph must not be mutated while the Analyzer is in use.
func New(g *rbd.Graph, opts ...Option) *Analyzer {
	a := &Analyzer{
		graph:    g,
		nodes:    make(map[string]*rbd.Node, len(g.Nodes)),
		outgoing: make(map[string][]rbd.Edge),
	}
	for i := range g.Nodes {
		a.nodes[g.Nodes[i].ID] = &g.Nodes[i]
	}
	for _, e := range g.Edges {
		a.outgoing[e.SourceNodeID] = append(a.outgoing[e.SourceNodeID], e)
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Validation is the structured outcome of ValidateTopology. An invalid
// topology is reported as data, never as a panic.
type Validation struct {
	Valid             bool       `json:"valid"`
	StartNodes        []string   `json:"startNodes"`
	EndNodes          []string   `json:"endNodes"`
	Paths             [][]string `json:"paths"`
	DisconnectedNodes []string   `json:"disconnectedNodes"`
	Error             string     `json:"error,omitempty"`

	cause error
}

// Err returns nil for a valid topology, otherwise an error wrapping
// ErrInvalidTopology.
func (v *Validation) Err() error {
	if v.Valid {
		return nil
	}
	if v.cause != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTopology, v.cause)
	}
	return fmt.Errorf("%w: %s", ErrInvalidTopology, v.Error)
}

func (v *Validation) fail(err error) *Validation {
	v.Valid = false
	v.Error = err.Error()
	v.cause = err
	return v
}

// ValidateTopology checks that the diagram has exactly one start and one end
// node and at least one path between them. Nodes on no path are listed in
// DisconnectedNodes but do not invalidate the diagram.
func (a *Analyzer) ValidateTopology() *Validation {
	v := &Validation{
		StartNodes:        []string{},
		EndNodes:          []string{},
		Paths:             [][]string{},
		DisconnectedNodes: []string{},
	}
	for i := range a.graph.Nodes {
		n := &a.graph.Nodes[i]
		switch n.NodeType() {
		case rbd.NodeStart:
			v.StartNodes = append(v.StartNodes, n.ID)
		case rbd.NodeEnd:
			v.EndNodes = append(v.EndNodes, n.ID)
		}
	}

	switch {
	case len(v.StartNodes) == 0:
		v.DisconnectedNodes = a.allNodeIDs()
		return v.fail(errors.New("no start node found"))
	case len(v.EndNodes) == 0:
		v.DisconnectedNodes = a.allNodeIDs()
		return v.fail(errors.New("no end node found"))
	case len(v.StartNodes) > 1:
		return v.fail(fmt.Errorf("exactly one start node allowed, found %d (%s)",
			len(v.StartNodes), strings.Join(v.StartNodes, ", ")))
	case len(v.EndNodes) > 1:
		return v.fail(fmt.Errorf("exactly one end node allowed, found %d (%s)",
			len(v.EndNodes), strings.Join(v.EndNodes, ", ")))
	}

	paths, err := a.findPaths(v.StartNodes[0], v.EndNodes[0])
	if err != nil {
		return v.fail(err)
	}
	v.Paths = paths
	v.DisconnectedNodes = a.disconnected(paths)
	if len(paths) == 0 {
		return v.fail(fmt.Errorf("no path connects start node %q to end node %q",
			v.StartNodes[0], v.EndNodes[0]))
	}
	v.Valid = true
	return v
}

// findPaths enumerates every start→end path by depth-first search over the
// edge index. A node already on the current path is skipped, so cycles are
// excluded rather than reported. Parallel edges yield repeated paths.
func (a *Analyzer) findPaths(start, end string) ([][]string, error) {
	var (
		paths  [][]string
		path   []string
		onPath = make(map[string]bool)
	)
	var dfs func(id string) error
	dfs = func(id string) error {
		if onPath[id] {
			return nil
		}
		onPath[id] = true
		path = append(path, id)
		defer func() {
			delete(onPath, id)
			path = path[:len(path)-1]
		}()

		if id == end {
			if a.maxPaths > 0 && len(paths) >= a.maxPaths {
				return fmt.Errorf("%w: limit is %d", ErrTooManyPaths, a.maxPaths)
			}
			paths = append(paths, append([]string(nil), path...))
			return nil
		}
		for _, e := range a.outgoing[id] {
			if err := dfs(e.TargetNodeID); err != nil {
				return err
			}
		}
		return nil
	}
	if err := dfs(start); err != nil {
		return nil, err
	}
	return paths, nil
}

func (a *Analyzer) disconnected(paths [][]string) []string {
	onSomePath := make(map[string]bool, len(a.nodes))
	for _, p := range paths {
		for _, id := range p {
			onSomePath[id] = true
		}
	}
	out := []string{}
	for i := range a.graph.Nodes {
		if id := a.graph.Nodes[i].ID; !onSomePath[id] {
			out = append(out, id)
		}
	}
	return out
}

func (a *Analyzer) allNodeIDs() []string {
	out := make([]string, len(a.graph.Nodes))
	for i := range a.graph.Nodes {
		out[i] = a.graph.Nodes[i].ID
	}
	return out
}
