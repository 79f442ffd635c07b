package cli

import (
	"cmp"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/bayesaudit/pkg/audit"
	"github.com/matzehuels/bayesaudit/pkg/ballot"
	"github.com/matzehuels/bayesaudit/pkg/checkpoint"
	"github.com/matzehuels/bayesaudit/pkg/config"
	"github.com/matzehuels/bayesaudit/pkg/engine"
	"github.com/matzehuels/bayesaudit/pkg/errors"
	"github.com/matzehuels/bayesaudit/pkg/report"
	"github.com/matzehuels/bayesaudit/pkg/rng"
	"github.com/matzehuels/bayesaudit/pkg/simulate"
	"github.com/matzehuels/bayesaudit/pkg/source"
	"github.com/matzehuels/bayesaudit/pkg/tiebreak"
)

// auditFlags holds command-line overrides of the config file. Only flags
// the user set are applied.
type auditFlags struct {
	config string

	contest    string
	candidates []string
	seats      int
	population int
	counter    string

	ballots string
	dsn     string
	driver  string

	simCandidates int
	simBallots    int
	simNoise      float64

	alpha   float64
	batch   int
	trials  int
	seed    uint64
	workers int
	noPrior bool

	checkpoint    string
	checkpointDir string
	resume        bool

	jsonl    string
	mongoURI string

	watch  bool
	output string
}

func (c *CLI) auditCommand() *cobra.Command {
	var flags auditFlags

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Run a staged Bayesian audit",
		Long: `Run a Bayesian audit of a ranked-choice contest.

Ballots are drawn in batches from a JSON lines file, a SQL ballot table or a
simulated election. After every batch the unseen ballots are resampled many
times and counted; the audit stops once one outcome wins at least 1-alpha of
the simulated counts, or every ballot has been drawn.

Audit state is checkpointed after every stage, so an interrupted audit can be
continued with --resume.`,
		Example: `  # Audit a ballot file with defaults
  bayesaudit audit --ballots ballots.jsonl --candidates A,B,C --seats 1

  # Audit from a config file, watching stages live
  bayesaudit audit -c audit.toml --watch

  # Continue an interrupted audit
  bayesaudit audit -c audit.toml --resume

  # Exercise the audit on a simulated election
  bayesaudit audit --simulate 6 --simulate-ballots 20000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadConfig(flags.config)
			if err != nil {
				return err
			}
			flags.apply(cmd.Flags(), f)
			if err := f.ValidateAndSetDefaults(); err != nil {
				return err
			}
			return c.runAudit(cmd.Context(), f, flags)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&flags.config, "config", "c", "", "config file (.toml, .yaml)")

	fs.StringVar(&flags.contest, "contest", "", "contest ID")
	fs.StringSliceVar(&flags.candidates, "candidates", nil, "comma-separated candidate IDs")
	fs.IntVar(&flags.seats, "seats", 0, "number of seats")
	fs.IntVar(&flags.population, "population", 0, "number of cast ballots (default: size of the source)")
	fs.StringVar(&flags.counter, "counter", "", fmt.Sprintf("counting engine %v", engine.Names()))

	fs.StringVar(&flags.ballots, "ballots", "", "JSON lines ballot file")
	fs.StringVar(&flags.dsn, "dsn", "", "ballot database DSN (or "+config.EnvDatabaseURL+")")
	fs.StringVar(&flags.driver, "driver", "", "ballot database driver: sqlite or postgres (default: from DSN)")

	fs.IntVar(&flags.simCandidates, "simulate", 0, "audit a simulated election with this many candidates")
	fs.IntVar(&flags.simBallots, "simulate-ballots", 10000, "ballots cast in the simulated election")
	fs.Float64Var(&flags.simNoise, "simulate-noise", 0, "noise level of simulated ballots (default: candidates/2)")

	fs.Float64Var(&flags.alpha, "alpha", audit.DefaultAlpha, "error tolerance")
	fs.IntVar(&flags.batch, "batch", audit.DefaultBatchSize, "ballots drawn per stage")
	fs.IntVar(&flags.trials, "trials", audit.DefaultTrials, "simulated populations per stage")
	fs.Uint64Var(&flags.seed, "seed", 0, "random seed (default: fresh)")
	fs.IntVar(&flags.workers, "workers", 0, "concurrent trials (default: GOMAXPROCS)")
	fs.BoolVar(&flags.noPrior, "no-prior", false, "do not add one first-choice prior ballot per candidate")

	fs.StringVar(&flags.checkpoint, "checkpoint", "", "checkpoint backend: file, redis or none")
	fs.StringVar(&flags.checkpointDir, "checkpoint-dir", "", "checkpoint directory (default: user cache)")
	fs.BoolVar(&flags.resume, "resume", false, "continue from the contest's checkpoint")

	fs.StringVar(&flags.jsonl, "jsonl", "", "append stage reports and the result to this JSON lines file")
	fs.StringVar(&flags.mongoURI, "mongo-uri", "", "record stage reports in MongoDB (or "+config.EnvMongoURI+")")

	fs.BoolVarP(&flags.watch, "watch", "w", false, "show a live stage view")
	fs.StringVarP(&flags.output, "output", "o", "", "write the result as JSON to this file")

	_ = cmd.MarkFlagFilename("config", "toml", "yaml", "yml")
	_ = cmd.MarkFlagFilename("ballots", "jsonl", "json")
	_ = cmd.MarkFlagDirname("checkpoint-dir")
	_ = cmd.RegisterFlagCompletionFunc("counter", fixedCompletion(engine.Names()...))
	_ = cmd.RegisterFlagCompletionFunc("checkpoint", fixedCompletion(config.BackendFile, config.BackendRedis, config.BackendNone))

	return cmd
}

// loadConfig reads path, or starts from an empty file when path is empty.
// .env is loaded first so its variables can override either.
func loadConfig(path string) (*config.File, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	if path == "" {
		f := &config.File{}
		f.ApplyEnv()
		return f, nil
	}
	return config.Load(path)
}

// apply copies every flag the user set into f.
func (a *auditFlags) apply(fs *pflag.FlagSet, f *config.File) {
	set := fs.Changed
	if set("contest") {
		f.Contest.ID = a.contest
	}
	if set("candidates") {
		f.Contest.Candidates = ballot.Candidates(a.candidates...)
	}
	if set("seats") {
		f.Contest.Seats = a.seats
	}
	if set("population") {
		f.Contest.Population = a.population
	}
	if set("counter") {
		f.Contest.Counter = a.counter
	}
	if set("ballots") {
		f.Source = config.Source{Kind: config.SourceFile, Path: a.ballots}
	}
	if set("dsn") {
		f.Source = config.Source{Kind: config.SourceSQL, DSN: a.dsn, Driver: a.driver}
	} else if set("driver") {
		f.Source.Driver = a.driver
	}
	if set("simulate") {
		f.Source = config.Source{Kind: config.SourceSimulate}
		f.Simulation = simulate.Options{Candidates: a.simCandidates, Ballots: a.simBallots, Noise: a.simNoise}
	}
	if set("alpha") {
		f.Audit.Alpha = a.alpha
	}
	if set("batch") {
		f.Audit.BatchSize = a.batch
	}
	if set("trials") {
		f.Audit.Trials = a.trials
	}
	if set("seed") {
		f.Audit.Seed = a.seed
	}
	if set("workers") {
		f.Audit.Workers = a.workers
	}
	if set("no-prior") {
		f.Audit.NoPrior = a.noPrior
	}
	if set("checkpoint") {
		f.Checkpoint.Backend = a.checkpoint
	}
	if set("checkpoint-dir") {
		f.Checkpoint.Dir = a.checkpointDir
	}
	if set("jsonl") {
		f.Report.JSONL = a.jsonl
	}
	if set("mongo-uri") {
		f.Report.MongoURI = a.mongoURI
	}
	if f.Audit.Seed == 0 {
		f.Audit.Seed = rng.Fresh()
	}
}

func (c *CLI) runAudit(ctx context.Context, f *config.File, flags auditFlags) error {
	logger := loggerFromContext(ctx)
	contest := f.AuditContest()
	opts := f.Audit.Options()

	store, err := newStore(f.Checkpoint)
	if err != nil {
		return err
	}
	defer store.Close()

	var state *audit.State
	if flags.resume {
		cp, err := checkpoint.Load(ctx, store, contest.ID)
		switch {
		case errors.Is(err, errors.ErrCodeNotFound):
			printWarning("No checkpoint for contest %s; starting a new audit", contest.ID)
		case err != nil:
			return err
		default:
			state = cp.State()
			opts = cp.Options
			opts.Workers = f.Audit.Workers
			printInfo("Resuming audit %s at stage %d (%s drawn)", cp.AuditID, cp.Stage, drawnOf(cp.Drawn, cp.Population))
		}
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	seed := opts.Seed
	if state != nil {
		seed = state.Seed
	}

	src, population, closeSource, err := openSource(ctx, f, seed)
	if err != nil {
		return err
	}
	defer closeSource()
	if contest.Population == 0 {
		contest.Population = population
	}

	tb, err := tiebreak.Build(contest.Candidates, f.TieBreak.Events, tiebreak.Options{
		Rand:  rng.New(cmp.Or(f.TieBreak.Seed, seed)),
		Trace: traceTo(logger),
	})
	if err != nil {
		return err
	}
	logger.Debug("tie-break order", "order", tb.String())

	counter, err := engine.Lookup(f.Contest.Counter)
	if err != nil {
		return err
	}
	election := engine.New(contest, src, counter, tb)

	rec, closeRecorders, err := openRecorders(ctx, f.Report)
	if err != nil {
		return err
	}
	defer closeRecorders()

	runner := audit.NewRunner(logger)
	runner.Recorder = rec
	if f.Checkpoint.Backend != config.BackendNone {
		runner.Checkpoints = &checkpoint.Saver{Store: store, TTL: f.Checkpoint.TTL}
	}
	run := func(ctx context.Context, onStage func(audit.StageReport)) (*audit.Result, error) {
		runner.OnStage = onStage
		if state != nil {
			return runner.Resume(ctx, election, state, opts)
		}
		return runner.Run(ctx, election, opts)
	}

	var res *audit.Result
	if flags.watch {
		title := fmt.Sprintf("Auditing %s (%s, %d seats)", contest.ID, counter.Name(), contest.Seats)
		res, err = watchAudit(ctx, title, contest.Population, run)
	} else {
		printInfo("Auditing %s with %s: %d candidates, %d seats, %s ballots",
			contest.ID, counter.Name(), len(contest.Candidates), contest.Seats, drawnOf(contest.Population, 0))
		res, err = run(ctx, func(r audit.StageReport) { fmt.Println(stageLine(r)) })
	}
	if err != nil {
		if stderrors.Is(err, context.Canceled) && runner.Checkpoints != nil {
			fmt.Println()
			printNextStep("Audit interrupted; continue with", "bayesaudit audit --resume "+resumeHint(flags, contest.ID))
		}
		return err
	}

	if err := checkpoint.Delete(ctx, store, contest.ID); err != nil {
		logger.Warn("could not remove checkpoint", "contest", contest.ID, "err", err)
	}
	printResult(res)

	if flags.output != "" {
		if err := writeResult(flags.output, res); err != nil {
			return err
		}
		printFile(flags.output)
	}
	return nil
}

func resumeHint(flags auditFlags, contestID string) string {
	if flags.config != "" {
		return "-c " + flags.config
	}
	return "--contest " + contestID + " ..."
}

// openSource opens the configured ballot source. Sources that hold a fixed
// pool are shuffled with seed; the returned population is 0 when unknown.
func openSource(ctx context.Context, f *config.File, seed uint64) (audit.Source, int, func(), error) {
	logger := loggerFromContext(ctx)
	noop := func() {}

	switch f.Source.Kind {
	case config.SourceFile:
		prog := newProgress(logger)
		pool, err := source.OpenFile(f.Source.Path, seed)
		if err != nil {
			return nil, 0, noop, err
		}
		prog.done(fmt.Sprintf("Loaded %s ballots from %s", drawnOf(pool.Len(), 0), f.Source.Path))
		return pool, pool.Len(), noop, nil

	case config.SourceSQL:
		sp := newSpinner(ctx, "Connecting to ballot database...")
		sp.Start()
		db, err := source.OpenDB(ctx, f.Source.Driver, f.Source.DSN)
		if err != nil {
			sp.StopWithError("Could not open ballot database")
			return nil, 0, noop, err
		}
		sp.SetMessage("Indexing ballots of %s...", f.Contest.ID)
		s, err := source.NewSQL(ctx, db, f.Source.Driver, f.Contest.ID, seed)
		if err != nil {
			db.Close()
			sp.StopWithError("Could not index ballots")
			return nil, 0, noop, err
		}
		sp.StopWithSuccess("Indexed %s ballots in %s", drawnOf(s.Len(), 0), f.Source.Driver)
		return s, s.Len(), func() {
			s.Close()
			db.Close()
		}, nil

	case config.SourceSimulate:
		s, err := simulate.NewSource(f.Simulation)
		if err != nil {
			return nil, 0, noop, err
		}
		logger.Info("simulated election", "candidates", f.Simulation.Candidates,
			"ballots", f.Simulation.Ballots, "noise", f.Simulation.Noise, "seed", s.Options().Seed)
		return s, f.Simulation.Ballots, noop, nil
	}
	return nil, 0, noop, errors.New(errors.ErrCodeInvalidConfig, "unknown source kind %q", f.Source.Kind)
}

// openRecorders connects the configured recorders. The returned recorder is
// nil when none is configured.
func openRecorders(ctx context.Context, cfg config.Report) (audit.Recorder, func(), error) {
	var (
		recs    []audit.Recorder
		closers []func()
	)
	closeAll := func() {
		for _, fn := range closers {
			fn()
		}
	}

	if cfg.JSONL != "" {
		j, err := report.CreateJSONL(cfg.JSONL)
		if err != nil {
			return nil, closeAll, err
		}
		recs = append(recs, j)
		closers = append(closers, func() { j.Close() })
	}
	if cfg.MongoURI != "" {
		m, err := report.NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		recs = append(recs, m)
		closers = append(closers, func() {
			if err := m.Close(context.WithoutCancel(ctx)); err != nil {
				loggerFromContext(ctx).Warn("closing mongo recorder", "err", err)
			}
		})
	}
	return report.Multi(recs...), closeAll, nil
}

func writeResult(path string, res *audit.Result) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
