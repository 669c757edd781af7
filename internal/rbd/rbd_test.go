package rbd_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/gyaneshwarpardhi/rbdengine/internal/rbd"
)

const editorJSON = `{
  "nodes": [
    {"id": "s", "type": "rbd-start", "x": 10, "y": 20, "properties": {"nodeType": "start", "name": "Start"}},
    {"id": "pump", "type": "rbd-series", "properties": {
      "nodeType": "series", "name": "Pump", "componentCount": 2,
      "distribution": {"type": "exponential", "lambda": 0.001},
      "maintenance": {"maintenanceTime": 4, "logisticTime": 2}
    }},
    {"id": "e", "type": "rbd-end", "properties": {"nodeType": "end", "name": "End"}}
  ],
  "edges": [
    {"id": "e1", "sourceNodeId": "s", "targetNodeId": "pump"},
    {"id": "e2", "sourceNodeId": "pump", "targetNodeId": "e"}
  ]
}`

const editorYAML = `
nodes:
  - id: s
    properties: {nodeType: start}
  - id: valve
    properties:
      nodeType: parallel
      k: 2
      n: 3
      distribution: {distribution: Weibull_2P, alpha: 1000, beta: 1.5}
  - id: e
    properties: {nodeType: end}
edges:
  - {sourceNodeId: s, targetNodeId: valve}
  - {sourceNodeId: valve, targetNodeId: e}
`

func TestDecodeJSON(t *testing.T) {
	g, err := rbd.DecodeJSON(strings.NewReader(editorJSON))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if err := rbd.Validate(g); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	pump, ok := g.NodeByID("pump")
	if !ok {
		t.Fatal("pump not found")
	}
	if pump.NodeType() != rbd.NodeSeries || pump.Properties.ComponentCount != 2 {
		t.Errorf("unexpected pump properties: %+v", pump.Properties)
	}
	if d := pump.Properties.Distribution; d == nil || d.Type != "exponential" || d.LegacyRate != 0.001 {
		t.Errorf("legacy distribution not decoded: %+v", d)
	}
	if pump.Properties.Maintenance == nil || pump.Properties.Maintenance.MaintenanceTime != 4 {
		t.Errorf("maintenance not decoded: %+v", pump.Properties.Maintenance)
	}
}

func TestDecodeYAML(t *testing.T) {
	g, err := rbd.DecodeFile("plant.yaml", strings.NewReader(editorYAML))
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if err := rbd.Validate(g); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	valve, _ := g.NodeByID("valve")
	if valve.Properties.K != 2 || valve.Properties.N != 3 {
		t.Errorf("k/n not decoded: %+v", valve.Properties)
	}
	if valve.Properties.Distribution.Family != "Weibull_2P" || valve.Properties.Distribution.Alpha != 1000 {
		t.Errorf("canonical distribution not decoded: %+v", valve.Properties.Distribution)
	}
	if s := rbd.Stats(g); s.NodeCount != 3 || s.EdgeCount != 2 || s.StartNodeCount != 1 || s.EndNodeCount != 1 {
		t.Errorf("Stats = %+v", s)
	}
}

func TestValidateRejectsMalformedDocuments(t *testing.T) {
	start := rbd.Node{ID: "s", Properties: &rbd.Properties{NodeType: rbd.NodeStart}}
	end := rbd.Node{ID: "e", Properties: &rbd.Properties{NodeType: rbd.NodeEnd}}

	cases := []struct {
		name string
		g    rbd.Graph
		want string
	}{
		{
			name: "duplicate id",
			g:    rbd.Graph{Nodes: []rbd.Node{start, start, end}},
			want: "duplicate node id",
		},
		{
			name: "dangling edge",
			g: rbd.Graph{
				Nodes: []rbd.Node{start, end},
				Edges: []rbd.Edge{{SourceNodeID: "s", TargetNodeID: "ghost"}},
			},
			want: `unknown target node "ghost"`,
		},
		{
			name: "missing id",
			g:    rbd.Graph{Nodes: []rbd.Node{start, {Properties: &rbd.Properties{NodeType: rbd.NodeSeries}}, end}},
			want: "ID: is required",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := rbd.Validate(&tc.g)
			if !errors.Is(err, rbd.ErrInvalidDocument) {
				t.Fatalf("expected ErrInvalidDocument, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestValidateLeavesPropertiesToNodes(t *testing.T) {
	g := rbd.Graph{
		Nodes: []rbd.Node{
			{ID: "s", Properties: &rbd.Properties{NodeType: rbd.NodeStart}},
			{ID: "bare"},
			{ID: "odd", Properties: &rbd.Properties{NodeType: "mystery"}},
			{ID: "neg", Properties: &rbd.Properties{NodeType: rbd.NodeSeries, ComponentCount: -1}},
			{ID: "e", Properties: &rbd.Properties{NodeType: rbd.NodeEnd}},
		},
		Edges: []rbd.Edge{{SourceNodeID: "s", TargetNodeID: "bare"}, {SourceNodeID: "bare", TargetNodeID: "e"}},
	}
	if err := rbd.Validate(&g); err != nil {
		t.Fatalf("Validate rejected property-level problems: %v", err)
	}

	cases := []struct {
		id   string
		want string
	}{
		{"bare", ""},
		{"s", ""},
		{"odd", "must be one of"},
		{"neg", "ComponentCount"},
	}
	for _, tc := range cases {
		t.Run(tc.id, func(t *testing.T) {
			n, _ := g.NodeByID(tc.id)
			err := rbd.ValidateProperties(n)
			if tc.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, rbd.ErrInvalidProperties) {
				t.Fatalf("expected ErrInvalidProperties, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) || !strings.Contains(err.Error(), "node "+tc.id) {
				t.Errorf("error %q does not mention %q and the node id", err, tc.want)
			}
		})
	}
}
