package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bayesaudit/pkg/audit"
	"github.com/matzehuels/bayesaudit/pkg/ballot"
	"github.com/matzehuels/bayesaudit/pkg/dag"
	"github.com/matzehuels/bayesaudit/pkg/errors"
	bio "github.com/matzehuels/bayesaudit/pkg/io"
	"github.com/matzehuels/bayesaudit/pkg/rankedpairs"
	"github.com/matzehuels/bayesaudit/pkg/render/nodelink"
	"github.com/matzehuels/bayesaudit/pkg/rng"
)

// Output formats shared by rank and tiebreak.
const (
	formatText = "text"
	formatJSON = "json"
	formatDOT  = "dot"
	formatSVG  = "svg"
)

var graphFormats = []string{formatText, formatJSON, formatDOT, formatSVG}

type rankFlags struct {
	candidates []string
	matrix     bool
	seed       uint64
	seats      int
	format     string
	output     string
}

func (c *CLI) rankCommand() *cobra.Command {
	var flags rankFlags

	cmd := &cobra.Command{
		Use:   "rank [file]",
		Short: "Rank candidates with Ranked Pairs",
		Long: `Rank candidates with the Ranked Pairs method.

The input is a JSON lines ballot file, or with --matrix a JSON preference
matrix of the form {"candidates": [...], "values": [[...], ...]}. Pairs of
equal strength are ordered by per-pair random values drawn from --seed.

With --format dot or svg the committed majority graph is drawn, each edge
labeled with its strength.`,
		Example: `  bayesaudit rank ballots.jsonl --candidates A,B,C
  bayesaudit rank prefs.json --matrix --format svg -o tournament.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(graphFormats, flags.format) {
				return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want one of %v)", flags.format, graphFormats)
			}
			return c.runRank(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringSliceVar(&flags.candidates, "candidates", nil, "candidate IDs (default: every ID on the ballots, sorted)")
	cmd.Flags().BoolVar(&flags.matrix, "matrix", false, "input is a preference matrix")
	cmd.Flags().Uint64Var(&flags.seed, "seed", audit.DefaultSeed, "random seed for equal-strength pairs")
	cmd.Flags().IntVar(&flags.seats, "seats", 0, "highlight the first n candidates as elected")
	cmd.Flags().StringVarP(&flags.format, "format", "f", formatText, fmt.Sprintf("output format %v", graphFormats))
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default: stdout)")
	_ = cmd.RegisterFlagCompletionFunc("format", fixedCompletion(graphFormats...))

	return cmd
}

func (c *CLI) runRank(cmd *cobra.Command, path string, flags rankFlags) error {
	logger := loggerFromContext(cmd.Context())

	m, err := readMatrix(path, flags)
	if err != nil {
		return err
	}
	res, err := rankedpairs.Run(m, rankedpairs.Options{Rand: rng.New(flags.seed)})
	if err != nil {
		return err
	}
	logger.Debug("ranked pairs", "pairs", len(res.Pairs), "committed", res.Graph.EdgeCount())

	order := candidateIDs(res.Order)
	var out []byte
	switch flags.format {
	case formatText:
		out = []byte(orderText(res.Order))
	case formatJSON:
		out, err = json.MarshalIndent(rankJSON(m, res), "", "  ")
		out = append(out, '\n')
	case formatDOT, formatSVG:
		labels := make(map[dag.Edge]string, res.Graph.EdgeCount())
		for _, p := range res.Pairs {
			e := dag.Edge{From: string(m.Candidates[p.Winner]), To: string(m.Candidates[p.Loser])}
			if res.Graph.HasEdge(e.From, e.To) {
				labels[e] = strconv.FormatFloat(p.Strength, 'g', -1, 64)
			}
		}
		dot := nodelink.ToDOT(res.Graph, nodelink.Options{
			Title:      "Ranked Pairs",
			Order:      order,
			EdgeLabels: labels,
			Highlight:  order[:min(flags.seats, len(order))],
		})
		out, err = renderGraph(dot, flags.format)
	}
	if err != nil {
		return err
	}
	return writeOutput(flags.output, out)
}

// readMatrix builds the preference matrix from a matrix file or ballots.
func readMatrix(path string, flags rankFlags) (*ballot.Matrix, error) {
	if flags.matrix {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
		}
		var m ballot.Matrix
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedMatrix, err, "decode %s", path)
		}
		return &m, nil
	}

	w, err := bio.ImportWeights(path)
	if err != nil {
		return nil, err
	}
	candidates := ballot.Candidates(flags.candidates...)
	if len(candidates) == 0 {
		candidates = listed(w)
	}
	return ballot.Prefs(w, candidates), nil
}

// listed returns every candidate appearing on a ballot, sorted.
func listed(w *ballot.WeightMap) []ballot.Candidate {
	seen := make(map[ballot.Candidate]bool)
	var out []ballot.Candidate
	w.Each(func(b ballot.Ballot, _ float64) {
		for _, c := range b {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	})
	ballot.SortCandidates(out)
	return out
}

type rankPair struct {
	Winner    ballot.Candidate `json:"winner"`
	Loser     ballot.Candidate `json:"loser"`
	Strength  float64          `json:"strength"`
	Committed bool             `json:"committed"`
}

func rankJSON(m *ballot.Matrix, res *rankedpairs.Result) any {
	pairs := make([]rankPair, len(res.Pairs))
	for i, p := range res.Pairs {
		w, l := m.Candidates[p.Winner], m.Candidates[p.Loser]
		pairs[i] = rankPair{Winner: w, Loser: l, Strength: p.Strength, Committed: res.Graph.HasEdge(string(w), string(l))}
	}
	return struct {
		Order []ballot.Candidate `json:"order"`
		Pairs []rankPair         `json:"pairs"`
	}{res.Order, pairs}
}

func candidateIDs(cs []ballot.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}

func orderText(cs []ballot.Candidate) string {
	var out []byte
	for i, c := range cs {
		out = fmt.Appendf(out, "%d. %s\n", i+1, c)
	}
	return string(out)
}

// renderGraph returns dot as-is or rendered to SVG.
func renderGraph(dot, format string) ([]byte, error) {
	if format == formatSVG {
		return nodelink.RenderSVG(dot)
	}
	return []byte(dot), nil
}

// writeOutput writes data to path, or to stdout when path is empty.
func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	printFile(path)
	return nil
}
