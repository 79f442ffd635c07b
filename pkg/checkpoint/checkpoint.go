package checkpoint

import (
	"context"
	"slices"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/matzehuels/bayesaudit/pkg/audit"
	"github.com/matzehuels/bayesaudit/pkg/ballot"
	"github.com/matzehuels/bayesaudit/pkg/errors"
	"github.com/matzehuels/bayesaudit/pkg/observability"
)

// Version is the checkpoint format version.
const Version = 1

// ErrNotFound is returned by [Load] when no checkpoint exists for a contest.
var ErrNotFound = errors.New(errors.ErrCodeNotFound, "checkpoint not found")

// Checkpoint is the persisted state of an audit after a stage.
type Checkpoint struct {
	Version    int             `cbor:"version"`
	AuditID    string          `cbor:"audit_id"`
	ContestID  string          `cbor:"contest_id"`
	Seed       uint64          `cbor:"seed"`
	Stage      int             `cbor:"stage"`
	Drawn      int             `cbor:"drawn"`
	Population int             `cbor:"population"`
	Exhausted  bool            `cbor:"exhausted"`
	Ballots    []ballot.Ballot `cbor:"ballots"`
	Weights    []float64       `cbor:"weights"`
	Options    audit.Options   `cbor:"options"`
	SavedAt    time.Time       `cbor:"saved_at"`
}

// FromState captures st and the options it runs with.
func FromState(st *audit.State, opts audit.Options) *Checkpoint {
	cp := &Checkpoint{
		Version:    Version,
		AuditID:    st.AuditID,
		ContestID:  st.ContestID,
		Seed:       st.Seed,
		Stage:      st.Stage,
		Drawn:      st.Drawn,
		Population: st.Population,
		Exhausted:  st.Exhausted,
		Ballots:    make([]ballot.Ballot, st.Weights.Len()),
		Weights:    st.Weights.Weights(),
		Options:    opts,
		SavedAt:    time.Now().UTC(),
	}
	for i := range cp.Ballots {
		cp.Ballots[i] = slices.Clone(st.Weights.Ballot(i))
	}
	return cp
}

// State rebuilds the audit state. Ballot order is preserved, so a resumed
// audit resamples exactly like an uninterrupted one.
func (cp *Checkpoint) State() *audit.State {
	w := ballot.NewWeightMap()
	for i, b := range cp.Ballots {
		w.Add(b, cp.Weights[i])
	}
	return &audit.State{
		AuditID:    cp.AuditID,
		ContestID:  cp.ContestID,
		Seed:       cp.Seed,
		Stage:      cp.Stage,
		Drawn:      cp.Drawn,
		Population: cp.Population,
		Exhausted:  cp.Exhausted,
		Weights:    w,
	}
}

// Encode serializes cp as CBOR.
func Encode(cp *Checkpoint) ([]byte, error) {
	data, err := cbor.Marshal(cp)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCheckpoint, err, "encode checkpoint")
	}
	return data, nil
}

// Decode parses a checkpoint written by [Encode].
func Decode(data []byte) (*Checkpoint, error) {
	var cp Checkpoint
	if err := cbor.Unmarshal(data, &cp); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCheckpoint, err, "decode checkpoint")
	}
	if cp.Version != Version {
		return nil, errors.New(errors.ErrCodeCheckpoint, "unsupported checkpoint version %d", cp.Version)
	}
	if len(cp.Ballots) != len(cp.Weights) {
		return nil, errors.New(errors.ErrCodeCheckpoint, "checkpoint has %d ballots but %d weights", len(cp.Ballots), len(cp.Weights))
	}
	return &cp, nil
}

// Key returns the store key of a contest's checkpoint.
func Key(contestID string) string { return "checkpoint:" + contestID }

// Save encodes cp and writes it under [Key] of its contest, retrying
// transient store failures.
func Save(ctx context.Context, store Store, cp *Checkpoint, ttl time.Duration) error {
	data, err := Encode(cp)
	if err == nil {
		err = RetryWithBackoff(ctx, func() error {
			return store.Set(ctx, Key(cp.ContestID), data, ttl)
		})
		if err != nil {
			err = errors.Wrap(errors.ErrCodeCheckpoint, err, "save checkpoint of %q to %s", cp.ContestID, store.Name())
		}
	}
	observability.Checkpoint().OnCheckpointSave(ctx, store.Name(), len(data), err)
	return err
}

// Load reads the checkpoint of a contest. It returns [ErrNotFound] if
// there is none.
func Load(ctx context.Context, store Store, contestID string) (*Checkpoint, error) {
	var (
		data []byte
		ok   bool
	)
	err := RetryWithBackoff(ctx, func() error {
		var err error
		data, ok, err = store.Get(ctx, Key(contestID))
		return err
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCheckpoint, err, "load checkpoint of %q from %s", contestID, store.Name())
	}
	observability.Checkpoint().OnCheckpointLoad(ctx, store.Name(), ok)
	if !ok {
		return nil, ErrNotFound
	}
	return Decode(data)
}

// Delete removes the checkpoint of a contest.
func Delete(ctx context.Context, store Store, contestID string) error {
	return store.Delete(ctx, Key(contestID))
}

// List loads every checkpoint in store, skipping entries that fail to decode.
func List(ctx context.Context, store Store) ([]*Checkpoint, error) {
	keys, err := store.Keys(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCheckpoint, err, "list %s checkpoints", store.Name())
	}
	slices.Sort(keys)
	var out []*Checkpoint
	for _, k := range keys {
		data, ok, err := store.Get(ctx, k)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCheckpoint, err, "read %s", k)
		}
		if !ok {
			continue
		}
		if cp, err := Decode(data); err == nil {
			out = append(out, cp)
		}
	}
	return out, nil
}

// Clear deletes every checkpoint in store and returns how many it removed.
func Clear(ctx context.Context, store Store) (int, error) {
	keys, err := store.Keys(ctx)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeCheckpoint, err, "list %s checkpoints", store.Name())
	}
	for i, k := range keys {
		if err := store.Delete(ctx, k); err != nil {
			return i, errors.Wrap(errors.ErrCodeCheckpoint, err, "delete %s", k)
		}
	}
	return len(keys), nil
}

// Saver writes a checkpoint after every audit stage.
type Saver struct {
	Store Store
	// TTL is passed to the store; zero keeps checkpoints until cleared.
	TTL time.Duration
}

// Save implements audit.Checkpointer.
func (s *Saver) Save(ctx context.Context, st *audit.State, opts audit.Options) error {
	return Save(ctx, s.Store, FromState(st, opts), s.TTL)
}

var _ audit.Checkpointer = (*Saver)(nil)
