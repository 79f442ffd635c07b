package io

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/matzehuels/bayesaudit/pkg/ballot"
	"github.com/matzehuels/bayesaudit/pkg/errors"
)

// record is one line of a ballot file.
type record struct {
	Ballot []ballot.Candidate `json:"ballot"`
	Count  float64            `json:"count,omitempty"`
}

// maxLine bounds a single ballot line.
const maxLine = 1 << 20

// ReadWeights decodes a JSON lines ballot file from r.
//
// Each non-blank line is either an object {"ballot": [...], "count": n} or a
// bare array of candidate IDs, which counts once. A missing count means 1.
// Lines starting with '#' are skipped. Repeated ballots accumulate.
//
// Ballots are not checked for formality; use [ballot.ValidateBallot].
// ReadWeights does not close r.
func ReadWeights(r io.Reader) (*ballot.WeightMap, error) {
	w := ballot.NewWeightMap()
	err := scan(r, func(b ballot.Ballot, count float64) { w.Add(b, count) })
	if err != nil {
		return nil, err
	}
	return w, nil
}

// ReadBallots is like [ReadWeights] but returns one ballot per unit of
// count, in file order. Counts must be whole numbers.
func ReadBallots(r io.Reader) ([]ballot.Ballot, error) {
	var out []ballot.Ballot
	var bad error
	err := scan(r, func(b ballot.Ballot, count float64) {
		if bad != nil {
			return
		}
		if count != math.Trunc(count) {
			bad = errors.New(errors.ErrCodeInvalidInput, "ballot %v has fractional count %v", b, count)
			return
		}
		for range int(count) {
			out = append(out, b)
		}
	})
	if err == nil {
		err = bad
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func scan(r io.Reader, fn func(b ballot.Ballot, count float64)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 || text[0] == '#' {
			continue
		}
		var rec record
		if text[0] == '[' {
			if err := json.Unmarshal(text, &rec.Ballot); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "line %d", line)
			}
		} else if err := json.Unmarshal(text, &rec); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "line %d", line)
		}
		if rec.Count < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "line %d: negative count %v", line, rec.Count)
		}
		if rec.Count == 0 {
			rec.Count = 1
		}
		fn(ballot.New(rec.Ballot...), rec.Count)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read ballots: %w", err)
	}
	return nil
}

// ImportBallots reads the ballot file at path with [ReadBallots].
func ImportBallots(path string) ([]ballot.Ballot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadBallots(f)
}

// ImportWeights reads the ballot file at path with [ReadWeights].
func ImportWeights(path string) (*ballot.WeightMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadWeights(f)
}

// WriteWeights encodes w as JSON lines, one object per distinct ballot with
// a positive weight. The output can be re-read with [ReadWeights].
func WriteWeights(w *ballot.WeightMap, out io.Writer) error {
	enc := json.NewEncoder(out)
	var err error
	w.Each(func(b ballot.Ballot, weight float64) {
		if err != nil || weight == 0 {
			return
		}
		rec := record{Ballot: b, Count: weight}
		if rec.Ballot == nil {
			rec.Ballot = []ballot.Candidate{}
		}
		if e := enc.Encode(rec); e != nil {
			err = fmt.Errorf("encode: %w", e)
		}
	})
	return err
}

// ExportWeights writes w to a ballot file at path.
func ExportWeights(w *ballot.WeightMap, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteWeights(w, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
