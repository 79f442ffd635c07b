package cli

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bayesaudit/pkg/audit"
	"github.com/matzehuels/bayesaudit/pkg/ballot"
	"github.com/matzehuels/bayesaudit/pkg/errors"
	bio "github.com/matzehuels/bayesaudit/pkg/io"
	"github.com/matzehuels/bayesaudit/pkg/render/nodelink"
	"github.com/matzehuels/bayesaudit/pkg/rng"
	"github.com/matzehuels/bayesaudit/pkg/tiebreak"
)

type tiebreakFlags struct {
	candidates []string
	seed       uint64
	format     string
	output     string
	resolve    []string
	kind       string
}

func (c *CLI) tiebreakCommand() *cobra.Command {
	var flags tiebreakFlags

	cmd := &cobra.Command{
		Use:   "tiebreak <config>",
		Short: "Build the tie-breaking order from recorded events",
		Long: `Build the tie-breaking graph from the ordering, election and exclusion
events recorded in a config file, and linearize it with a seeded random
topological sort. The resulting order reproduces every recorded decision.

With --resolve, break a single tie among the given candidates instead.`,
		Example: `  bayesaudit tiebreak audit.toml
  bayesaudit tiebreak audit.toml --resolve B,D --kind exclusion
  bayesaudit tiebreak audit.toml --format svg -o tiebreak.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(graphFormats, flags.format) {
				return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want one of %v)", flags.format, graphFormats)
			}
			return c.runTiebreak(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringSliceVar(&flags.candidates, "candidates", nil, "candidate IDs (default: contest.candidates)")
	cmd.Flags().Uint64Var(&flags.seed, "seed", 0, "seed of the topological sort (default: tiebreak.seed, then audit seed)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", formatText, fmt.Sprintf("output format %v", graphFormats))
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringSliceVar(&flags.resolve, "resolve", nil, "break a tie among these candidates")
	cmd.Flags().StringVar(&flags.kind, "kind", tiebreak.CaseOrdering.String(), "kind of tie for --resolve: ordering, election or exclusion")
	_ = cmd.RegisterFlagCompletionFunc("format", fixedCompletion(graphFormats...))
	_ = cmd.RegisterFlagCompletionFunc("kind", fixedCompletion(
		tiebreak.CaseOrdering.String(), tiebreak.CaseElection.String(), tiebreak.CaseExclusion.String()))

	return cmd
}

func (c *CLI) runTiebreak(cmd *cobra.Command, path string, flags tiebreakFlags) error {
	logger := loggerFromContext(cmd.Context())

	f, err := loadConfig(path)
	if err != nil {
		return err
	}
	candidates := f.Contest.Candidates
	if len(flags.candidates) > 0 {
		candidates = ballot.Candidates(flags.candidates...)
	}
	if len(candidates) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "no candidates: set contest.candidates or --candidates")
	}
	seed := cmp.Or(flags.seed, f.TieBreak.Seed, f.Audit.Seed, audit.DefaultSeed)

	b, err := tiebreak.Build(candidates, f.TieBreak.Events, tiebreak.Options{
		Rand:  rng.New(seed),
		Trace: traceTo(logger),
	})
	if err != nil {
		return err
	}
	logger.Debug("tie-break graph", "events", f.TieBreak.Events.Len(), "edges", b.Graph().EdgeCount(), "seed", seed)

	if len(flags.resolve) > 0 {
		kind, err := tiebreak.ParseCase(flags.kind)
		if err != nil {
			return err
		}
		got, err := b.Resolve(ballot.Candidates(flags.resolve...), kind)
		if err != nil {
			return err
		}
		return writeOutput(flags.output, []byte(orderText(got)))
	}

	order := candidateIDs(b.LinearOrder())
	var out []byte
	switch flags.format {
	case formatText:
		out = []byte(orderText(b.LinearOrder()))
	case formatJSON:
		var buf bytes.Buffer
		err = bio.WriteGraph(b.Graph(), order, &buf)
		out = buf.Bytes()
	case formatDOT, formatSVG:
		dot := nodelink.ToDOT(b.Graph().Reduce(), nodelink.Options{Title: "Tie-breaking order", Order: order})
		out, err = renderGraph(dot, flags.format)
	}
	if err != nil {
		return err
	}
	return writeOutput(flags.output, out)
}
