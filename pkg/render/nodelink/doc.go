// Package nodelink renders precedence graphs as node-link diagrams.
//
// Both graphs the audit builds can be drawn: the tie-breaking graph, whose
// edges point from the preferred candidate to the other, and the tournament
// of pairs committed by Ranked Pairs.
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Order: order})
//	svg, err := nodelink.RenderSVG(dot)
//
// [ToDOT] produces Graphviz DOT source that can be rendered in process with
// [RenderSVG] or saved for external Graphviz tools. Rendering uses
// [github.com/goccy/go-graphviz] and needs no system Graphviz install.
package nodelink
