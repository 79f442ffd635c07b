// Package config loads audit configuration files.
//
// A file is decoded from TOML or YAML depending on its extension. Secrets
// such as database and broker URLs may instead come from the environment,
// optionally populated from a .env file:
//
//	BAYESAUDIT_DATABASE_URL  overrides source.dsn
//	BAYESAUDIT_REDIS_URL     overrides checkpoint.redis_url
//	BAYESAUDIT_MONGO_URI     overrides report.mongo_uri
//
// Command-line flags are applied by the caller after [Load] and before
// [File.ValidateAndSetDefaults].
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/bayesaudit/pkg/audit"
	"github.com/matzehuels/bayesaudit/pkg/ballot"
	"github.com/matzehuels/bayesaudit/pkg/engine"
	"github.com/matzehuels/bayesaudit/pkg/errors"
	"github.com/matzehuels/bayesaudit/pkg/simulate"
	"github.com/matzehuels/bayesaudit/pkg/source"
	"github.com/matzehuels/bayesaudit/pkg/tiebreak"
)

// Environment variables read by [ApplyEnv].
const (
	EnvDatabaseURL = "BAYESAUDIT_DATABASE_URL"
	EnvRedisURL    = "BAYESAUDIT_REDIS_URL"
	EnvMongoURI    = "BAYESAUDIT_MONGO_URI"
)

// Source kinds.
const (
	SourceFile     = "file"
	SourceSQL      = "sql"
	SourceSimulate = "simulate"
)

// Checkpoint backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Contest defaults.
const (
	DefaultContestID = "contest"
	DefaultCounter   = "rankedpairs"
)

// DefaultCheckpointTTL bounds how long an abandoned checkpoint is kept.
const DefaultCheckpointTTL = 30 * 24 * time.Hour

// File is the top-level configuration document.
type File struct {
	Contest    Contest          `toml:"contest" yaml:"contest"`
	Audit      Audit            `toml:"audit" yaml:"audit"`
	Source     Source           `toml:"source" yaml:"source"`
	Simulation simulate.Options `toml:"simulation" yaml:"simulation"`
	TieBreak   TieBreak         `toml:"tiebreak" yaml:"tiebreak"`
	Checkpoint Checkpoint       `toml:"checkpoint" yaml:"checkpoint"`
	Report     Report           `toml:"report" yaml:"report"`

	validated bool
}

// Contest describes the contest under audit.
type Contest struct {
	ID         string             `toml:"id" yaml:"id"`
	Candidates []ballot.Candidate `toml:"candidates" yaml:"candidates"`
	Seats      int                `toml:"seats" yaml:"seats"`
	Population int                `toml:"population" yaml:"population"`
	// Counter names a registered counting engine.
	Counter string `toml:"counter" yaml:"counter"`
}

// Audit holds the audit loop parameters. Zero values take the defaults of
// [audit.Options].
type Audit struct {
	Alpha        float64 `toml:"alpha" yaml:"alpha"`
	BatchSize    int     `toml:"batch_size" yaml:"batch_size"`
	Trials       int     `toml:"trials" yaml:"trials"`
	Seed         uint64  `toml:"seed" yaml:"seed"`
	Workers      int     `toml:"workers" yaml:"workers"`
	PriorWeight  float64 `toml:"prior_weight" yaml:"prior_weight"`
	NoPrior      bool    `toml:"no_prior" yaml:"no_prior"`
	LowFrequency float64 `toml:"low_frequency" yaml:"low_frequency"`
}

// Options converts the section to [audit.Options].
func (a Audit) Options() audit.Options {
	return audit.Options{
		Alpha:        a.Alpha,
		BatchSize:    a.BatchSize,
		Trials:       a.Trials,
		Seed:         a.Seed,
		Workers:      a.Workers,
		PriorWeight:  a.PriorWeight,
		NoPrior:      a.NoPrior,
		LowFrequency: a.LowFrequency,
	}
}

// Source selects where ballots are drawn from.
type Source struct {
	Kind   string `toml:"kind" yaml:"kind"`
	Path   string `toml:"path" yaml:"path"`
	Driver string `toml:"driver" yaml:"driver"`
	DSN    string `toml:"dsn" yaml:"dsn"`
}

// TieBreak holds the recorded tie-break events and the seed used to
// linearize them.
type TieBreak struct {
	Seed   uint64          `toml:"seed" yaml:"seed"`
	Events tiebreak.Events `toml:"events" yaml:"events"`
}

// Checkpoint configures where audit state is saved between stages.
type Checkpoint struct {
	Backend  string        `toml:"backend" yaml:"backend"`
	Dir      string        `toml:"dir" yaml:"dir"`
	RedisURL string        `toml:"redis_url" yaml:"redis_url"`
	TTL      time.Duration `toml:"ttl" yaml:"ttl"`
}

// Report configures audit recorders. Empty fields disable a recorder.
type Report struct {
	JSONL         string `toml:"jsonl" yaml:"jsonl"`
	MongoURI      string `toml:"mongo_uri" yaml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database" yaml:"mongo_database"`
}

// Load reads and decodes a configuration file, then applies environment
// overrides. It does not validate; see [File.ValidateAndSetDefaults].
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	f, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	f.ApplyEnv()
	return f, nil
}

// Parse decodes data according to ext (".toml", ".yaml" or ".yml").
func Parse(data []byte, ext string) (*File, error) {
	var f File
	switch strings.ToLower(ext) {
	case ".toml":
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&f); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse toml")
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse yaml")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unsupported config format %q (use .toml, .yaml or .yml)", ext)
	}
	return &f, nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables already set. Missing files are
// ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "load %s", p)
		}
	}
	return nil
}

// ApplyEnv overrides connection strings from the environment.
func (f *File) ApplyEnv() {
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		f.Source.DSN = v
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		f.Checkpoint.RedisURL = v
	}
	if v := os.Getenv(EnvMongoURI); v != "" {
		f.Report.MongoURI = v
	}
}

// ValidateAndSetDefaults checks the file for consistency and fills defaults.
// This method is idempotent.
func (f *File) ValidateAndSetDefaults() error {
	if f.validated {
		return nil
	}

	if f.Contest.ID == "" {
		f.Contest.ID = DefaultContestID
	}
	if f.Contest.Counter == "" {
		f.Contest.Counter = DefaultCounter
	}
	if _, err := engine.Lookup(f.Contest.Counter); err != nil {
		return err
	}

	if f.Source.Kind == "" {
		switch {
		case f.Source.Path != "":
			f.Source.Kind = SourceFile
		case f.Source.DSN != "":
			f.Source.Kind = SourceSQL
		default:
			f.Source.Kind = SourceSimulate
		}
	}
	switch f.Source.Kind {
	case SourceFile:
		if f.Source.Path == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "source.path is required for a file source")
		}
	case SourceSQL:
		if f.Source.DSN == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "source.dsn or %s is required for a sql source", EnvDatabaseURL)
		}
		if f.Source.Driver == "" {
			f.Source.Driver = driverFor(f.Source.DSN)
		}
	case SourceSimulate:
		if err := f.simulated(); err != nil {
			return err
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown source kind %q", f.Source.Kind)
	}

	if len(f.Contest.Candidates) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "contest.candidates must not be empty")
	}
	if err := errors.ValidateSeats(f.Contest.Seats, len(f.Contest.Candidates)); err != nil {
		return err
	}

	switch f.Checkpoint.Backend {
	case "":
		f.Checkpoint.Backend = BackendFile
		if f.Checkpoint.RedisURL != "" {
			f.Checkpoint.Backend = BackendRedis
		}
	case BackendFile, BackendRedis, BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown checkpoint backend %q", f.Checkpoint.Backend)
	}
	if f.Checkpoint.Backend == BackendRedis && f.Checkpoint.RedisURL == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "checkpoint.redis_url or %s is required for the redis backend", EnvRedisURL)
	}
	if f.Checkpoint.TTL == 0 {
		f.Checkpoint.TTL = DefaultCheckpointTTL
	}

	opts := f.Audit.Options()
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	f.validated = true
	return nil
}

// simulated fills the contest from the simulation section.
func (f *File) simulated() error {
	if f.Simulation.Seed == 0 {
		f.Simulation.Seed = f.Audit.Seed
	}
	if err := f.Simulation.ValidateAndSetDefaults(); err != nil {
		return err
	}
	c := simulate.Contest(f.Contest.ID, f.Simulation)
	if len(f.Contest.Candidates) == 0 {
		f.Contest.Candidates = c.Candidates
	}
	if f.Contest.Seats == 0 {
		f.Contest.Seats = c.Seats
	}
	if f.Contest.Population == 0 {
		f.Contest.Population = c.Population
	}
	return nil
}

// AuditContest converts the contest section to [audit.Contest].
func (f *File) AuditContest() audit.Contest {
	return audit.Contest{
		ID:         f.Contest.ID,
		Candidates: f.Contest.Candidates,
		Seats:      f.Contest.Seats,
		Population: f.Contest.Population,
	}
}

func driverFor(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return source.DriverPostgres
	}
	return source.DriverSQLite
}
