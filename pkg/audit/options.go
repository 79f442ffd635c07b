package audit

import (
	"runtime"

	"github.com/matzehuels/bayesaudit/pkg/errors"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Config
// =============================================================================

const (
	// DefaultAlpha is the error tolerance: the audit stops once the most
	// frequent outcome wins at least 1-alpha of a stage's trials.
	DefaultAlpha = 0.05

	// DefaultBatchSize is the number of ballots drawn per stage.
	DefaultBatchSize = 100

	// DefaultTrials is the number of simulated populations per stage.
	DefaultTrials = 100

	// DefaultSeed is the default random seed for reproducibility.
	DefaultSeed = uint64(1)

	// DefaultPriorWeight is the weight of each prior ballot.
	DefaultPriorWeight = 1.0

	// DefaultLowFrequency is the candidate share below which a candidate's
	// appearance in an outcome is reported with a witness population.
	DefaultLowFrequency = 0.03
)

// stabilityEpsilon absorbs float error in T*(1-alpha).
const stabilityEpsilon = 1e-9

// =============================================================================
// Options - Audit Configuration
// =============================================================================

// Options contains all configuration for one audit run.
// This struct supports JSON serialization for API requests and checkpoints.
type Options struct {
	Alpha     float64 `json:"alpha"`
	BatchSize int     `json:"batch_size"`
	Trials    int     `json:"trials"`
	Seed      uint64  `json:"seed"`

	// Workers bounds concurrent trials. Zero means GOMAXPROCS.
	Workers int `json:"workers,omitempty"`

	// PriorWeight is the weight of the first-choice-only prior ballot added
	// for each candidate before the first stage. Zero means the default.
	PriorWeight float64 `json:"prior_weight,omitempty"`
	// NoPrior disables prior ballots.
	NoPrior bool `json:"no_prior,omitempty"`

	// LowFrequency is the share below which elected candidates are reported
	// with a witness population. Zero means the default.
	LowFrequency float64 `json:"low_frequency,omitempty"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks ranges and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Alpha == 0 {
		o.Alpha = DefaultAlpha
	}
	if o.BatchSize == 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Trials == 0 {
		o.Trials = DefaultTrials
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Workers == 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.PriorWeight == 0 {
		o.PriorWeight = DefaultPriorWeight
	}
	if o.LowFrequency == 0 {
		o.LowFrequency = DefaultLowFrequency
	}

	if err := errors.ValidateAlpha(o.Alpha); err != nil {
		return err
	}
	if err := errors.ValidatePositive("batch_size", o.BatchSize); err != nil {
		return err
	}
	if err := errors.ValidatePositive("trials", o.Trials); err != nil {
		return err
	}
	if err := errors.ValidatePositive("workers", o.Workers); err != nil {
		return err
	}
	if o.PriorWeight < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "prior_weight must not be negative, got %v", o.PriorWeight)
	}
	o.validated = true
	return nil
}

// Stable reports whether freq out of trials meets the stopping threshold
// freq >= trials*(1-alpha).
func Stable(freq, trials int, alpha float64) bool {
	return float64(freq) >= float64(trials)*(1-alpha)-stabilityEpsilon
}
