// Package rbd defines the reliability block diagram document: nodes with
// type-specific property blocks, and directed edges between them.
package rbd

// NodeType discriminates the five kinds of diagram nodes.
type NodeType string

const (
	NodeStart    NodeType = "start"
	NodeEnd      NodeType = "end"
	NodeSeries   NodeType = "series"
	NodeParallel NodeType = "parallel"
	NodeKN       NodeType = "kn"
)

// IsControl reports whether t is a start or end node.
func (t NodeType) IsControl() bool {
	return t == NodeStart || t == NodeEnd
}

// CarriesDistribution reports whether nodes of type t own a lifetime
// distribution.
func (t NodeType) CarriesDistribution() bool {
	return t == NodeSeries || t == NodeParallel
}

// Graph is a complete diagram as produced by the editor.
type Graph struct {
	Nodes []Node `json:"nodes" yaml:"nodes" validate:"dive"`
	Edges []Edge `json:"edges" yaml:"edges" validate:"dive"`
}

// Node is one block of the diagram. Type and position are editor metadata
// and play no part in the calculation. Properties are checked per node by
// ValidateProperties, not by Validate.
type Node struct {
	ID         string      `json:"id" yaml:"id" validate:"required"`
	Type       string      `json:"type,omitempty" yaml:"type,omitempty"`
	X          float64     `json:"x,omitempty" yaml:"x,omitempty"`
	Y          float64     `json:"y,omitempty" yaml:"y,omitempty"`
	Properties *Properties `json:"properties,omitempty" yaml:"properties,omitempty" validate:"-"`
}

// NodeType returns the declared node type, or "" when properties are absent.
func (n *Node) NodeType() NodeType {
	if n.Properties == nil {
		return ""
	}
	return n.Properties.NodeType
}

// Properties is the flattened union of all node property blocks.
//
//   - start/end: Name only.
//   - series:    ComponentCount, Distribution, optional Maintenance.
//   - parallel:  K, N, Distribution, optional Maintenance.
//   - kn:        K, N.
type Properties struct {
	NodeType       NodeType           `json:"nodeType" yaml:"nodeType" validate:"required,oneof=start end series parallel kn"`
	Name           string             `json:"name,omitempty" yaml:"name,omitempty"`
	ComponentCount int                `json:"componentCount,omitempty" yaml:"componentCount,omitempty" validate:"gte=0"`
	K              int                `json:"k,omitempty" yaml:"k,omitempty" validate:"gte=0"`
	N              int                `json:"n,omitempty" yaml:"n,omitempty" validate:"gte=0"`
	Distribution   *DistributionBlock `json:"distribution,omitempty" yaml:"distribution,omitempty"`
	Maintenance    *Maintenance       `json:"maintenance,omitempty" yaml:"maintenance,omitempty"`
}

// DistributionBlock is a node's failure distribution. Either the canonical
// family tag (Family plus alpha/beta/gamma/lambda_/mu/sigma) or the editor's
// legacy form (Type plus lambda/scale/shape/location) is set.
type DistributionBlock struct {
	Family string  `json:"distribution,omitempty" yaml:"distribution,omitempty"`
	Alpha  float64 `json:"alpha,omitempty" yaml:"alpha,omitempty"`
	Beta   float64 `json:"beta,omitempty" yaml:"beta,omitempty"`
	Gamma  float64 `json:"gamma,omitempty" yaml:"gamma,omitempty"`
	Lambda float64 `json:"lambda_,omitempty" yaml:"lambda_,omitempty"`
	Mu     float64 `json:"mu,omitempty" yaml:"mu,omitempty"`
	Sigma  float64 `json:"sigma,omitempty" yaml:"sigma,omitempty"`

	Type       string  `json:"type,omitempty" yaml:"type,omitempty"`
	LegacyRate float64 `json:"lambda,omitempty" yaml:"lambda,omitempty"`
	Scale      float64 `json:"scale,omitempty" yaml:"scale,omitempty"`
	Shape      float64 `json:"shape,omitempty" yaml:"shape,omitempty"`
	Location   float64 `json:"location,omitempty" yaml:"location,omitempty"`
}

// Maintenance holds corrective maintenance times in hours. It is carried
// through but not used by the reliability calculation.
type Maintenance struct {
	MaintenanceTime float64 `json:"maintenanceTime" yaml:"maintenanceTime" validate:"gte=0"`
	LogisticTime    float64 `json:"logisticTime" yaml:"logisticTime" validate:"gte=0"`
}

// Edge is a directed connection. Parallel edges between the same pair are
// allowed and represent alternative paths.
type Edge struct {
	ID           string `json:"id,omitempty" yaml:"id,omitempty"`
	SourceNodeID string `json:"sourceNodeId" yaml:"sourceNodeId" validate:"required"`
	TargetNodeID string `json:"targetNodeId" yaml:"targetNodeId" validate:"required"`
	Type         string `json:"type,omitempty" yaml:"type,omitempty"`
}

// NodeByID returns the node with the given id.
func (g *Graph) NodeByID(id string) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// GraphStats summarises a diagram for the editor.
type GraphStats struct {
	NodeCount      int `json:"nodeCount"`
	EdgeCount      int `json:"edgeCount"`
	StartNodeCount int `json:"startNodeCount"`
	EndNodeCount   int `json:"endNodeCount"`
}

// Stats counts nodes, edges and control nodes.
func Stats(g *Graph) GraphStats {
	s := GraphStats{NodeCount: len(g.Nodes), EdgeCount: len(g.Edges)}
	for i := range g.Nodes {
		switch g.Nodes[i].NodeType() {
		case NodeStart:
			s.StartNodeCount++
		case NodeEnd:
			s.EndNodeCount++
		}
	}
	return s
}
