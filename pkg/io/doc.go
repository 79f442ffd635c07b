// Package io reads and writes ballot files and precedence graphs.
//
// # Ballot Files
//
// Ballot files are JSON lines. Each line holds one ballot, either as an
// object with an optional count or as a bare array of candidate IDs:
//
//	{"ballot": ["A", "C", "B"], "count": 12}
//	["B", "A"]
//	{"ballot": ["C"]}
//
// Blank lines and lines starting with '#' are ignored. Use [ReadWeights] to
// aggregate a file into a [ballot.WeightMap] and [ReadBallots] to expand it
// into individual ballots for drawing. [WriteWeights] produces the object
// form, one line per distinct ballot.
//
// # Graphs
//
// [WriteGraph] exports a tie-breaking or ranked-pairs graph as
//
//	{
//	  "nodes": [{"id": "A", "rank": 0}, {"id": "B", "rank": 1}],
//	  "edges": [{"from": "A", "to": "B"}]
//	}
//
// and [ReadGraph] reads it back.
package io
