package server

import (
	"bytes"
	"cmp"
	"encoding/json"
	"net/http"

	"github.com/matzehuels/bayesaudit/pkg/audit"
	"github.com/matzehuels/bayesaudit/pkg/ballot"
	"github.com/matzehuels/bayesaudit/pkg/engine"
	"github.com/matzehuels/bayesaudit/pkg/errors"
	bio "github.com/matzehuels/bayesaudit/pkg/io"
	"github.com/matzehuels/bayesaudit/pkg/rankedpairs"
	"github.com/matzehuels/bayesaudit/pkg/rng"
	"github.com/matzehuels/bayesaudit/pkg/source"
	"github.com/matzehuels/bayesaudit/pkg/tiebreak"
)

// BallotCount is a ballot with a multiplicity. A zero count means one.
type BallotCount struct {
	Ballot ballot.Ballot `json:"ballot"`
	Count  float64       `json:"count,omitempty"`
}

func weightsOf(in []BallotCount) (*ballot.WeightMap, error) {
	w := ballot.NewWeightMap()
	for i, b := range in {
		if b.Count < 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "ballot %d has negative count %v", i, b.Count)
		}
		w.Add(b.Ballot, cmp.Or(b.Count, 1))
	}
	return w, nil
}

func breaker(candidates []ballot.Candidate, events *tiebreak.Events, seed uint64) (*tiebreak.Breaker, error) {
	var ev tiebreak.Events
	if events != nil {
		ev = *events
	}
	return tiebreak.Build(candidates, ev, tiebreak.Options{Rand: rng.New(seed)})
}

// RankRequest asks for the Ranked Pairs order of either a ballot profile or
// a preference matrix over Candidates.
type RankRequest struct {
	Candidates []ballot.Candidate `json:"candidates"`
	Ballots    []BallotCount      `json:"ballots,omitempty"`
	Matrix     [][]float64        `json:"matrix,omitempty"`
	// Seed drives the random order of equal-strength pairs.
	Seed uint64 `json:"seed,omitempty"`
}

// PairDoc is one ordered pair in processing order.
type PairDoc struct {
	Winner    ballot.Candidate `json:"winner"`
	Loser     ballot.Candidate `json:"loser"`
	Strength  float64          `json:"strength"`
	Committed bool             `json:"committed"`
}

// RankResponse is the answer to a [RankRequest].
type RankResponse struct {
	Order []ballot.Candidate `json:"order"`
	Pairs []PairDoc          `json:"pairs"`
}

func (s *Server) rank(w http.ResponseWriter, r *http.Request) {
	var req RankRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, err)
		return
	}
	resp, err := Rank(req)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Rank evaluates a [RankRequest].
func Rank(req RankRequest) (*RankResponse, error) {
	if len(req.Candidates) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "candidates must not be empty")
	}
	var m *ballot.Matrix
	switch {
	case req.Matrix != nil && req.Ballots != nil:
		return nil, errors.New(errors.ErrCodeInvalidInput, "give either ballots or matrix, not both")
	case req.Matrix != nil:
		m = &ballot.Matrix{Candidates: req.Candidates, Values: req.Matrix}
	default:
		w, err := weightsOf(req.Ballots)
		if err != nil {
			return nil, err
		}
		m = ballot.Prefs(w, req.Candidates)
	}

	res, err := rankedpairs.Run(m, rankedpairs.Options{Rand: rng.New(cmp.Or(req.Seed, audit.DefaultSeed))})
	if err != nil {
		return nil, err
	}

	out := &RankResponse{Order: res.Order, Pairs: make([]PairDoc, len(res.Pairs))}
	for i, p := range res.Pairs {
		winner, loser := m.Candidates[p.Winner], m.Candidates[p.Loser]
		out.Pairs[i] = PairDoc{
			Winner:    winner,
			Loser:     loser,
			Strength:  p.Strength,
			Committed: res.Graph.HasEdge(string(winner), string(loser)),
		}
	}
	return out, nil
}

// TieBreakRequest asks for the linear order implied by recorded events.
type TieBreakRequest struct {
	Candidates []ballot.Candidate `json:"candidates"`
	Events     tiebreak.Events    `json:"events"`
	Seed       uint64             `json:"seed,omitempty"`
}

// TieBreakResponse carries the linear order and the graph it was drawn
// from, with each vertex ranked by its position.
type TieBreakResponse struct {
	Order []ballot.Candidate `json:"order"`
	Graph json.RawMessage    `json:"graph"`
}

func (s *Server) tiebreak(w http.ResponseWriter, r *http.Request) {
	var req TieBreakRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, err)
		return
	}
	b, err := breaker(req.Candidates, &req.Events, cmp.Or(req.Seed, audit.DefaultSeed))
	if err != nil {
		s.fail(w, err)
		return
	}
	order := b.LinearOrder()
	ids := make([]string, len(order))
	for i, c := range order {
		ids[i] = string(c)
	}
	var buf bytes.Buffer
	if err := bio.WriteGraph(b.Graph(), ids, &buf); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TieBreakResponse{Order: order, Graph: buf.Bytes()})
}

// AuditRequest runs a complete audit over an uploaded ballot pool. The pool
// is the whole population unless Contest.Population says otherwise.
type AuditRequest struct {
	Contest audit.Contest    `json:"contest"`
	Ballots []BallotCount    `json:"ballots"`
	Options audit.Options    `json:"options"`
	Counter string           `json:"counter,omitempty"`
	Events  *tiebreak.Events `json:"events,omitempty"`
}

func (s *Server) audit(w http.ResponseWriter, r *http.Request) {
	var req AuditRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, err)
		return
	}
	if err := req.Options.ValidateAndSetDefaults(); err != nil {
		s.fail(w, err)
		return
	}
	counter, err := engine.Lookup(cmp.Or(req.Counter, engine.RankedPairs{}.Name()))
	if err != nil {
		s.fail(w, err)
		return
	}
	weights, err := weightsOf(req.Ballots)
	if err != nil {
		s.fail(w, err)
		return
	}
	ballots, err := source.Expand(weights)
	if err != nil {
		s.fail(w, err)
		return
	}
	pool := source.NewPool(ballots, req.Options.Seed)
	if req.Contest.Population == 0 {
		req.Contest.Population = pool.Len()
	}
	tb, err := breaker(req.Contest.Candidates, req.Events, req.Options.Seed)
	if err != nil {
		s.fail(w, err)
		return
	}

	runner := audit.NewRunner(s.logger)
	res, err := runner.Run(r.Context(), engine.New(req.Contest, pool, counter, tb), req.Options)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
