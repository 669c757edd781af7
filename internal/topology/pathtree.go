package topology

import (
	"fmt"

	"github.com/gyaneshwarpardhi/rbdengine/internal/rbd"
)

// ParallelGroupID identifies the synthetic node that joins multiple paths.
const ParallelGroupID = "parallel_group"

// PathTreeNode is one entry of the path tree arena. Children index into
// PathTree.Nodes. For a component node the children are its series
// continuation; for a parallel group they are the branch heads.
type PathTreeNode struct {
	NodeID     string       `json:"nodeId"`
	NodeType   rbd.NodeType `json:"nodeType"`
	IsParallel bool         `json:"isParallel"`
	K          int          `json:"k,omitempty"`
	N          int          `json:"n,omitempty"`
	Children   []int        `json:"children"`
}

// Synthetic reports whether the entry was introduced by the analyzer rather
// than taken from the diagram.
func (n *PathTreeNode) Synthetic() bool {
	return n.IsParallel && n.NodeID == ParallelGroupID
}

// PathTree is an immutable forest stored as an arena.
type PathTree struct {
	Nodes []PathTreeNode `json:"nodes"`
	Roots []int          `json:"roots"`
}

// PostOrder returns arena indexes with every child before its parent,
// traversing roots in order. It uses an explicit stack.
func (t *PathTree) PostOrder() []int {
	type frame struct {
		idx  int
		next int
	}
	out := make([]int, 0, len(t.Nodes))
	var stack []frame
	for _, r := range t.Roots {
		stack = append(stack[:0], frame{idx: r})
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if kids := t.Nodes[top.idx].Children; top.next < len(kids) {
				child := kids[top.next]
				top.next++
				stack = append(stack, frame{idx: child})
				continue
			}
			out = append(out, top.idx)
			stack = stack[:len(stack)-1]
		}
	}
	return out
}

// PathAnalysis is the outcome of AnalyzePaths.
type PathAnalysis struct {
	Valid            bool       `json:"valid"`
	Paths            [][]string `json:"paths"`
	Tree             *PathTree  `json:"tree"`
	CalculationOrder []string   `json:"calculationOrder"`
	Error            string     `json:"error,omitempty"`

	cause error
}

// Err returns nil when the analysis succeeded.
func (p *PathAnalysis) Err() error {
	if p.Valid {
		return nil
	}
	if p.cause != nil {
		return p.cause
	}
	return fmt.Errorf("%w: %s", ErrInvalidTopology, p.Error)
}

// AnalyzePaths validates the topology and, if valid, builds the path tree
// and the node evaluation order. On failure the paths and order are empty.
func (a *Analyzer) AnalyzePaths() *PathAnalysis {
	return a.AnalyzeValidation(a.ValidateTopology())
}

// AnalyzeValidation builds the path analysis from a prior ValidateTopology
// result of the same Analyzer, reusing its enumerated paths.
func (a *Analyzer) AnalyzeValidation(v *Validation) *PathAnalysis {
	if !v.Valid {
		return &PathAnalysis{
			Paths:            [][]string{},
			Tree:             &PathTree{Nodes: []PathTreeNode{}, Roots: []int{}},
			CalculationOrder: []string{},
			Error:            v.Error,
			cause:            v.Err(),
		}
	}
	tree := a.buildTree(v.Paths)
	return &PathAnalysis{
		Valid:            true,
		Paths:            v.Paths,
		Tree:             tree,
		CalculationOrder: calculationOrder(tree),
	}
}

// buildTree turns one path into a linear chain rooted at its head, and
// several paths into a k=1 parallel group whose children are the chain heads.
// Paths sharing nodes are not merged; each is an independent branch.
func (a *Analyzer) buildTree(paths [][]string) *PathTree {
	t := &PathTree{}
	if len(paths) == 1 {
		if head, ok := a.appendChain(t, paths[0]); ok {
			t.Roots = []int{head}
		}
		return t
	}

	group := len(t.Nodes)
	t.Nodes = append(t.Nodes, PathTreeNode{
		NodeID:     ParallelGroupID,
		NodeType:   rbd.NodeParallel,
		IsParallel: true,
		K:          1,
		N:          len(paths),
	})
	for _, p := range paths {
		if head, ok := a.appendChain(t, p); ok {
			t.Nodes[group].Children = append(t.Nodes[group].Children, head)
		}
	}
	t.Roots = []int{group}
	return t
}

// appendChain adds the nodes of path to the arena, linking each to its
// successor, and returns the index of the head.
func (a *Analyzer) appendChain(t *PathTree, path []string) (int, bool) {
	head, prev := -1, -1
	for _, id := range path {
		n, ok := a.nodes[id]
		if !ok {
			continue
		}
		entry := PathTreeNode{NodeID: id, NodeType: n.NodeType()}
		if entry.NodeType == rbd.NodeParallel || entry.NodeType == rbd.NodeKN {
			entry.K, entry.N = n.Properties.K, n.Properties.N
		}
		idx := len(t.Nodes)
		t.Nodes = append(t.Nodes, entry)
		if prev >= 0 {
			t.Nodes[prev].Children = append(t.Nodes[prev].Children, idx)
		} else {
			head = idx
		}
		prev = idx
	}
	return head, head >= 0
}

// calculationOrder is the reversed post-order of distinct diagram node ids.
// The synthetic group is omitted.
func calculationOrder(t *PathTree) []string {
	seen := make(map[string]bool, len(t.Nodes))
	var order []string
	for _, idx := range t.PostOrder() {
		n := &t.Nodes[idx]
		if n.Synthetic() || seen[n.NodeID] {
			continue
		}
		seen[n.NodeID] = true
		order = append(order, n.NodeID)
	}
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	if order == nil {
		order = []string{}
	}
	return order
}
