package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/matzehuels/bayesaudit/pkg/audit"
	"github.com/matzehuels/bayesaudit/pkg/ballot"
	"github.com/matzehuels/bayesaudit/pkg/errors"
)

const tomlConfig = `
[contest]
id = "mayor"
candidates = ["A", "B", "C"]
seats = 1

[audit]
alpha = 0.1
trials = 50

[source]
path = "ballots.jsonl"

[checkpoint]
ttl = "48h"

[[tiebreak.events.ordering]]
resolution = ["C", "B"]

[[tiebreak.events.exclusion]]
candidates = ["A", "B"]
excluded = "A"
`

const yamlConfig = `
contest:
  id: mayor
  candidates: [A, B, C]
  seats: 1
audit:
  alpha: 0.1
  trials: 50
source:
  path: ballots.jsonl
checkpoint:
  ttl: 48h
tiebreak:
  events:
    ordering:
      - resolution: [C, B]
    exclusion:
      - candidates: [A, B]
        excluded: A
`

func TestParseFormats(t *testing.T) {
	tests := []struct {
		ext  string
		data string
	}{
		{".toml", tomlConfig},
		{".yaml", yamlConfig},
		{".yml", yamlConfig},
	}
	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			f, err := Parse([]byte(tt.data), tt.ext)
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			if f.Contest.ID != "mayor" {
				t.Errorf("Contest.ID = %q, want mayor", f.Contest.ID)
			}
			if !slices.Equal(f.Contest.Candidates, ballot.Candidates("A", "B", "C")) {
				t.Errorf("Contest.Candidates = %v", f.Contest.Candidates)
			}
			if f.Audit.Alpha != 0.1 || f.Audit.Trials != 50 {
				t.Errorf("Audit = %+v", f.Audit)
			}
			if f.Checkpoint.TTL != 48*time.Hour {
				t.Errorf("Checkpoint.TTL = %v, want 48h", f.Checkpoint.TTL)
			}
			ev := f.TieBreak.Events
			if len(ev.Ordering) != 1 || len(ev.Exclusion) != 1 || ev.Exclusion[0].Excluded != "A" {
				t.Errorf("TieBreak.Events = %+v", ev)
			}
		})
	}
}

func TestParseUnsupportedFormat(t *testing.T) {
	_, err := Parse([]byte("{}"), ".json")
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Parse(.json) error = %v, want %s", err, errors.ErrCodeInvalidConfig)
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := Parse([]byte("[contest\nid ="), ".toml"); !errors.IsConfiguration(err) {
		t.Errorf("Parse() error = %v, want configuration error", err)
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	f, err := Parse([]byte(tomlConfig), ".toml")
	if err != nil {
		t.Fatal(err)
	}
	f.Checkpoint.TTL = 0
	if err := f.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error: %v", err)
	}
	if f.Source.Kind != SourceFile {
		t.Errorf("Source.Kind = %q, want %q", f.Source.Kind, SourceFile)
	}
	if f.Contest.Counter != DefaultCounter {
		t.Errorf("Contest.Counter = %q, want %q", f.Contest.Counter, DefaultCounter)
	}
	if f.Checkpoint.Backend != BackendFile {
		t.Errorf("Checkpoint.Backend = %q, want %q", f.Checkpoint.Backend, BackendFile)
	}
	if f.Checkpoint.TTL != DefaultCheckpointTTL {
		t.Errorf("Checkpoint.TTL = %v, want %v", f.Checkpoint.TTL, DefaultCheckpointTTL)
	}

	// Idempotent.
	if err := f.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second ValidateAndSetDefaults() error: %v", err)
	}
}

func TestValidateSimulatedDefaults(t *testing.T) {
	f := &File{}
	f.Simulation.Candidates = 4
	f.Simulation.Ballots = 200
	if err := f.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error: %v", err)
	}
	if f.Source.Kind != SourceSimulate {
		t.Errorf("Source.Kind = %q, want %q", f.Source.Kind, SourceSimulate)
	}
	c := f.AuditContest()
	if len(c.Candidates) != 4 || c.Seats != 2 || c.Population != 200 {
		t.Errorf("AuditContest() = %+v", c)
	}
	if c.ID != DefaultContestID {
		t.Errorf("AuditContest().ID = %q, want %q", c.ID, DefaultContestID)
	}
	if f.Simulation.Seed != audit.DefaultSeed {
		t.Errorf("Simulation.Seed = %d, want %d", f.Simulation.Seed, audit.DefaultSeed)
	}
}

func TestValidateErrors(t *testing.T) {
	base := func() *File {
		return &File{
			Contest: Contest{ID: "c", Candidates: ballot.Candidates("A", "B"), Seats: 1},
			Source:  Source{Kind: SourceFile, Path: "x.jsonl"},
		}
	}
	tests := []struct {
		name   string
		mutate func(f *File)
	}{
		{"unknown counter", func(f *File) { f.Contest.Counter = "plurality" }},
		{"unknown source", func(f *File) { f.Source.Kind = "ftp" }},
		{"file without path", func(f *File) { f.Source.Path = "" }},
		{"sql without dsn", func(f *File) { f.Source = Source{Kind: SourceSQL} }},
		{"no candidates", func(f *File) { f.Contest.Candidates = nil }},
		{"too many seats", func(f *File) { f.Contest.Seats = 3 }},
		{"zero seats", func(f *File) { f.Contest.Seats = 0 }},
		{"unknown backend", func(f *File) { f.Checkpoint.Backend = "s3" }},
		{"redis without url", func(f *File) { f.Checkpoint.Backend = BackendRedis }},
		{"bad alpha", func(f *File) { f.Audit.Alpha = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := base()
			tt.mutate(f)
			if err := f.ValidateAndSetDefaults(); !errors.IsConfiguration(err) {
				t.Errorf("ValidateAndSetDefaults() error = %v, want configuration error", err)
			}
		})
	}
}

func TestSQLDriverInferred(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"postgres://u@localhost/votes", "postgres"},
		{"postgresql://u@localhost/votes", "postgres"},
		{"file:votes.db", "sqlite"},
	}
	for _, tt := range tests {
		f := &File{
			Contest: Contest{Candidates: ballot.Candidates("A", "B"), Seats: 1},
			Source:  Source{DSN: tt.dsn},
		}
		if err := f.ValidateAndSetDefaults(); err != nil {
			t.Fatalf("ValidateAndSetDefaults(%q) error: %v", tt.dsn, err)
		}
		if f.Source.Kind != SourceSQL || f.Source.Driver != tt.want {
			t.Errorf("Source = %+v, want sql/%s", f.Source, tt.want)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "postgres://db")
	t.Setenv(EnvRedisURL, "redis://cache:6379/0")
	t.Setenv(EnvMongoURI, "mongodb://reports")

	f := &File{Source: Source{DSN: "file:local.db"}}
	f.ApplyEnv()
	if f.Source.DSN != "postgres://db" {
		t.Errorf("Source.DSN = %q", f.Source.DSN)
	}
	if f.Checkpoint.RedisURL != "redis://cache:6379/0" {
		t.Errorf("Checkpoint.RedisURL = %q", f.Checkpoint.RedisURL)
	}
	if f.Report.MongoURI != "mongodb://reports" {
		t.Errorf("Report.MongoURI = %q", f.Report.MongoURI)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv(EnvMongoURI, "")
	path := filepath.Join(t.TempDir(), "audit.yaml")
	if err := os.WriteFile(path, []byte(yamlConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if f.Source.Path != "ballots.jsonl" {
		t.Errorf("Source.Path = %q", f.Source.Path)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !errors.IsConfiguration(err) {
		t.Errorf("Load(missing) error = %v, want configuration error", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte(EnvRedisURL+"=redis://from-dotenv:6379/1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvRedisURL, "")
	os.Unsetenv(EnvRedisURL)

	if err := LoadDotEnv(filepath.Join(dir, "absent.env"), path); err != nil {
		t.Fatalf("LoadDotEnv() error: %v", err)
	}
	if got := os.Getenv(EnvRedisURL); got != "redis://from-dotenv:6379/1" {
		t.Errorf("%s = %q", EnvRedisURL, got)
	}
}
