package io

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/matzehuels/bayesaudit/pkg/dag"
)

type graph struct {
	Nodes []node `json:"nodes"`
	Edges []edge `json:"edges"`
}

type node struct {
	ID   string `json:"id"`
	Rank *int   `json:"rank,omitempty"`
}

type edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// WriteGraph encodes g as JSON. If order is non-empty, each listed vertex
// carries its position in order as "rank".
func WriteGraph(g *dag.Graph, order []string, w io.Writer) error {
	pos := dag.PosMap(order)
	out := graph{
		Nodes: make([]node, 0, g.VertexCount()),
		Edges: make([]edge, 0, g.EdgeCount()),
	}
	for _, id := range g.Vertices() {
		n := node{ID: id}
		if r, ok := pos[id]; ok {
			n.Rank = &r
		}
		out.Nodes = append(out.Nodes, n)
	}
	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, edge{From: e.From, To: e.To})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadGraph decodes a graph written by [WriteGraph]. Ranks are ignored.
// Cycles are accepted; call [dag.Graph.Validate] to reject them.
func ReadGraph(r io.Reader) (*dag.Graph, error) {
	var data graph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	g := dag.New()
	for _, n := range data.Nodes {
		if err := g.AddVertex(n.ID); err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	for _, e := range data.Edges {
		if err := g.AddEdge(e.From, e.To); err != nil {
			return nil, fmt.Errorf("edge %s->%s: %w", e.From, e.To, err)
		}
	}
	return g, nil
}
