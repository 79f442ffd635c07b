package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/bayesaudit/pkg/ballot"
	"github.com/matzehuels/bayesaudit/pkg/errors"
	"github.com/matzehuels/bayesaudit/pkg/observability"
	"github.com/matzehuels/bayesaudit/pkg/resample"
	"github.com/matzehuels/bayesaudit/pkg/rng"
)

// Checkpointer persists audit state after every stage.
type Checkpointer interface {
	Save(ctx context.Context, st *State, opts Options) error
}

// Recorder receives stage reports and the final result.
type Recorder interface {
	RecordStage(ctx context.Context, r StageReport) error
	RecordResult(ctx context.Context, r *Result) error
}

// Runner executes audits.
//
// The Runner holds no per-audit state, so one Runner may run several
// audits concurrently as long as its collaborators allow it. Checkpoint and
// recorder failures are logged and do not stop the audit.
type Runner struct {
	Logger      *log.Logger
	Checkpoints Checkpointer
	Recorder    Recorder

	// OnStage, if set, is called after every stage.
	OnStage func(StageReport)
}

// NewRunner creates a runner that logs to logger.
// If logger is nil, log.Default() is used.
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Logger: logger}
}

// Run audits e from an empty sample.
func (r *Runner) Run(ctx context.Context, e Election, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	c := e.Contest()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return r.run(ctx, e, NewState(c, opts), opts)
}

// Resume continues an audit from a saved state. The state's seed replaces
// opts.Seed so the continued run matches an uninterrupted one. If e
// implements [Seeker], it is first positioned after the ballots already
// drawn.
func (r *Runner) Resume(ctx context.Context, e Election, st *State, opts Options) (*Result, error) {
	if st == nil || st.Weights == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "cannot resume from an empty state")
	}
	c := e.Contest()
	if st.ContestID != c.ID {
		return nil, errors.New(errors.ErrCodeInvalidInput, "state belongs to contest %q, not %q", st.ContestID, c.ID)
	}
	opts.Seed = st.Seed
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if s, ok := e.(Seeker); ok {
		if err := s.Seek(ctx, st.Drawn); err != nil {
			return nil, errors.Wrap(errors.ErrCodeSource, err, "skip %d drawn ballots", st.Drawn)
		}
	}
	r.logger().Info("resuming audit", "audit", st.AuditID, "stage", st.Stage, "drawn", st.Drawn)
	return r.run(ctx, e, st, opts)
}

func (r *Runner) logger() *log.Logger {
	if r.Logger == nil {
		return log.Default()
	}
	return r.Logger
}

func (r *Runner) run(ctx context.Context, e Election, st *State, opts Options) (*Result, error) {
	logger := r.logger()
	hooks := observability.Audit()
	start := time.Now()

	logger.Info("starting audit",
		"audit", st.AuditID,
		"contest", st.ContestID,
		"seed", st.Seed,
		"alpha", opts.Alpha,
		"batch", opts.BatchSize,
		"trials", opts.Trials,
		"population", st.Population)
	hooks.OnAuditStart(ctx, st.AuditID, st.ContestID, st.Seed)

	res := &Result{
		AuditID:   st.AuditID,
		ContestID: st.ContestID,
		Seed:      st.Seed,
		Trials:    opts.Trials,
	}

	fail := func(err error) (*Result, error) {
		hooks.OnAuditComplete(ctx, st.AuditID, "", st.Stage, st.Drawn, time.Since(start), err)
		return nil, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		rep, pops, outcomes, err := r.stage(ctx, e, st, opts)
		if err != nil {
			return fail(fmt.Errorf("stage %d: %w", st.Stage, err))
		}
		res.Reports = append(res.Reports, rep)
		r.afterStage(ctx, st, rep, opts)

		switch {
		case rep.Stable:
			res.Status = StatusConfirmed
		case st.Complete():
			res.Status = StatusFullCount
		default:
			continue
		}

		res.Outcome = rep.Best
		res.Frequency = rep.Frequency
		res.Stages = st.Stage
		res.Drawn = st.Drawn
		res.Witnesses = witnesses(rep.Shares, outcomes, pops, opts.LowFrequency)
		res.Duration = time.Since(start)
		break
	}

	logger.Info("audit complete",
		"status", res.Status,
		"outcome", res.Outcome,
		"freq", fmt.Sprintf("%d/%d", res.Frequency, res.Trials),
		"stages", res.Stages,
		"drawn", res.Drawn,
		"duration", res.Duration)
	for _, w := range res.Witnesses {
		logger.Debug("rarely elected candidate", "candidate", w.Candidate, "share", w.Share, "trial", w.Trial)
	}
	hooks.OnAuditComplete(ctx, st.AuditID, string(res.Status), res.Stages, res.Drawn, res.Duration, nil)

	if r.Recorder != nil {
		if err := r.Recorder.RecordResult(ctx, res); err != nil {
			logger.Warn("failed to record result", "audit", st.AuditID, "error", err)
		}
	}
	return res, nil
}

// stage draws one batch, runs all trials and summarizes them.
func (r *Runner) stage(ctx context.Context, e Election, st *State, opts Options) (StageReport, []*ballot.WeightMap, []Outcome, error) {
	st.Stage++
	start := time.Now()
	observability.Audit().OnStageStart(ctx, st.AuditID, st.Stage)

	batch, err := r.draw(ctx, e, st, opts.BatchSize)
	if err != nil {
		return StageReport{}, nil, nil, err
	}
	for _, b := range batch {
		st.Weights.Add(b, 1)
	}
	st.Drawn += len(batch)
	if len(batch) == 0 {
		st.Exhausted = true
	}

	n := st.syntheticSize()
	outcomes, pops, err := runTrials(ctx, e, st.Weights, n, st.Seed, st.Stage, opts)
	if err != nil {
		return StageReport{}, nil, nil, err
	}

	best, freq := Tally(outcomes)
	rep := StageReport{
		AuditID:      st.AuditID,
		Stage:        st.Stage,
		Drawn:        st.Drawn,
		SampleWeight: st.Weights.Total(),
		Population:   n,
		Best:         best,
		Frequency:    freq,
		Trials:       opts.Trials,
		Shares:       Shares(outcomes),
		Stable:       Stable(freq, opts.Trials, opts.Alpha),
		Duration:     time.Since(start),
	}
	if len(batch) > 0 {
		rep.LastBallot = batch[len(batch)-1]
	}
	return rep, pops, outcomes, nil
}

func (r *Runner) draw(ctx context.Context, e Election, st *State, k int) ([]ballot.Ballot, error) {
	if rem := st.Remaining(); rem >= 0 {
		k = min(k, rem)
	}
	if k == 0 {
		return nil, nil
	}
	start := time.Now()
	batch, err := e.Draw(ctx, k)
	observability.Source().OnDraw(ctx, st.ContestID, len(batch), time.Since(start), err)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSource, err, "draw %d ballots", k)
	}
	return batch, nil
}

func (r *Runner) afterStage(ctx context.Context, st *State, rep StageReport, opts Options) {
	logger := r.logger()
	logger.Info("audit stage",
		"stage", rep.Stage,
		"drawn", rep.Drawn,
		"best", rep.Best,
		"freq", fmt.Sprintf("%d/%d", rep.Frequency, rep.Trials),
		"duration", rep.Duration)
	if logger.GetLevel() <= log.DebugLevel {
		for _, s := range rep.Shares {
			logger.Debug("candidate share", "stage", rep.Stage, "candidate", s.Candidate, "share", s.Share)
		}
	}
	observability.Audit().OnStageComplete(ctx, st.AuditID, rep.Stage, rep.Drawn, rep.Frequency, rep.Trials, rep.Duration)

	if r.Checkpoints != nil {
		if err := r.Checkpoints.Save(ctx, st, opts); err != nil {
			logger.Warn("failed to save checkpoint", "audit", st.AuditID, "stage", st.Stage, "error", err)
		}
	}
	if r.Recorder != nil {
		if err := r.Recorder.RecordStage(ctx, rep); err != nil {
			logger.Warn("failed to record stage", "audit", st.AuditID, "stage", st.Stage, "error", err)
		}
	}
	if r.OnStage != nil {
		r.OnStage(rep)
	}
}

// runTrials evaluates opts.Trials synthetic populations concurrently. Trial
// t of stage s always uses the generator derived from (seed, s, t).
func runTrials(ctx context.Context, e Election, w *ballot.WeightMap, n int, seed uint64, stage int, opts Options) ([]Outcome, []*ballot.WeightMap, error) {
	outcomes := make([]Outcome, opts.Trials)
	pops := make([]*ballot.WeightMap, opts.Trials)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for t := range opts.Trials {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src := rng.Child(seed, uint64(stage), uint64(t))
			pop := resample.Reweight(w, n, src)
			o, err := e.ComputeOutcome(pop, src)
			if err != nil {
				return fmt.Errorf("trial %d: %w", t, err)
			}
			outcomes[t], pops[t] = o, pop
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return outcomes, pops, nil
}

// witnesses picks, for every candidate elected in fewer than low of the
// trials, the first trial population that elected it.
func witnesses(shares []CandidateShare, outcomes []Outcome, pops []*ballot.WeightMap, low float64) []Witness {
	var out []Witness
	for _, s := range shares {
		if s.Share >= low {
			continue
		}
		for t, o := range outcomes {
			if o.Contains(s.Candidate) {
				out = append(out, Witness{Candidate: s.Candidate, Share: s.Share, Trial: t, Weights: pops[t]})
				break
			}
		}
	}
	return out
}
