package report

import (
	"time"

	"github.com/matzehuels/bayesaudit/pkg/audit"
	"github.com/matzehuels/bayesaudit/pkg/ballot"
)

// Document kinds.
const (
	KindStage  = "stage"
	KindResult = "result"
)

// WeightedBallot is one entry of a witness population.
type WeightedBallot struct {
	Ballot []ballot.Candidate `json:"ballot" bson:"ballot"`
	Count  float64            `json:"count" bson:"count"`
}

// WitnessDoc is the serializable form of [audit.Witness].
type WitnessDoc struct {
	Candidate  ballot.Candidate `json:"candidate" bson:"candidate"`
	Share      float64          `json:"share" bson:"share"`
	Trial      int              `json:"trial" bson:"trial"`
	Population []WeightedBallot `json:"population" bson:"population"`
}

// StageDoc is the serializable form of [audit.StageReport].
type StageDoc struct {
	Kind         string                 `json:"kind" bson:"kind"`
	AuditID      string                 `json:"audit_id" bson:"audit_id"`
	Stage        int                    `json:"stage" bson:"stage"`
	Drawn        int                    `json:"drawn" bson:"drawn"`
	SampleWeight float64                `json:"sample_weight" bson:"sample_weight"`
	Population   int                    `json:"population" bson:"population"`
	LastBallot   []ballot.Candidate     `json:"last_ballot,omitempty" bson:"last_ballot,omitempty"`
	Best         []ballot.Candidate     `json:"best" bson:"best"`
	Frequency    int                    `json:"frequency" bson:"frequency"`
	Trials       int                    `json:"trials" bson:"trials"`
	Shares       []audit.CandidateShare `json:"shares" bson:"shares"`
	Stable       bool                   `json:"stable" bson:"stable"`
	DurationMS   int64                  `json:"duration_ms" bson:"duration_ms"`
	RecordedAt   time.Time              `json:"recorded_at" bson:"recorded_at"`
}

// ResultDoc is the serializable form of [audit.Result]. Stage reports are
// recorded separately and not repeated.
type ResultDoc struct {
	Kind       string             `json:"kind" bson:"kind"`
	AuditID    string             `json:"audit_id" bson:"audit_id"`
	ContestID  string             `json:"contest_id" bson:"contest_id"`
	Seed       uint64             `json:"seed" bson:"seed"`
	Status     audit.Status       `json:"status" bson:"status"`
	Outcome    []ballot.Candidate `json:"outcome" bson:"outcome"`
	Frequency  int                `json:"frequency" bson:"frequency"`
	Trials     int                `json:"trials" bson:"trials"`
	Stages     int                `json:"stages" bson:"stages"`
	Drawn      int                `json:"drawn" bson:"drawn"`
	Witnesses  []WitnessDoc       `json:"witnesses,omitempty" bson:"witnesses,omitempty"`
	DurationMS int64              `json:"duration_ms" bson:"duration_ms"`
	RecordedAt time.Time          `json:"recorded_at" bson:"recorded_at"`
}

// NewStageDoc converts a stage report.
func NewStageDoc(r audit.StageReport) StageDoc {
	return StageDoc{
		Kind:         KindStage,
		AuditID:      r.AuditID,
		Stage:        r.Stage,
		Drawn:        r.Drawn,
		SampleWeight: r.SampleWeight,
		Population:   r.Population,
		LastBallot:   r.LastBallot,
		Best:         r.Best,
		Frequency:    r.Frequency,
		Trials:       r.Trials,
		Shares:       r.Shares,
		Stable:       r.Stable,
		DurationMS:   r.Duration.Milliseconds(),
		RecordedAt:   time.Now().UTC(),
	}
}

// NewResultDoc converts a result. Witness populations keep only ballots
// with a positive count.
func NewResultDoc(r *audit.Result) ResultDoc {
	doc := ResultDoc{
		Kind:       KindResult,
		AuditID:    r.AuditID,
		ContestID:  r.ContestID,
		Seed:       r.Seed,
		Status:     r.Status,
		Outcome:    r.Outcome,
		Frequency:  r.Frequency,
		Trials:     r.Trials,
		Stages:     r.Stages,
		Drawn:      r.Drawn,
		DurationMS: r.Duration.Milliseconds(),
		RecordedAt: time.Now().UTC(),
	}
	for _, w := range r.Witnesses {
		wd := WitnessDoc{Candidate: w.Candidate, Share: w.Share, Trial: w.Trial}
		if w.Weights != nil {
			w.Weights.Each(func(b ballot.Ballot, weight float64) {
				if weight > 0 {
					wd.Population = append(wd.Population, WeightedBallot{Ballot: b, Count: weight})
				}
			})
		}
		doc.Witnesses = append(doc.Witnesses, wd)
	}
	return doc
}
