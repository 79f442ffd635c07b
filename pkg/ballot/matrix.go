package ballot

import (
	"fmt"
	"strings"

	"github.com/matzehuels/bayesaudit/pkg/errors"
)

// Matrix is a square pairwise preference matrix over a fixed candidate list.
// Values[i][j] is the total weight of ballots ranking Candidates[i] strictly
// above Candidates[j]. The diagonal is zero.
type Matrix struct {
	Candidates []Candidate
	Values     [][]float64
}

// NewMatrix creates a zero matrix over the given candidates.
func NewMatrix(candidates []Candidate) *Matrix {
	values := make([][]float64, len(candidates))
	for i := range values {
		values[i] = make([]float64, len(candidates))
	}
	return &Matrix{Candidates: candidates, Values: values}
}

// Size returns the number of candidates.
func (m *Matrix) Size() int { return len(m.Candidates) }

// At returns Values[i][j].
func (m *Matrix) At(i, j int) float64 { return m.Values[i][j] }

// Index returns the position of c in the candidate list, or -1.
func (m *Matrix) Index(c Candidate) int {
	for i, x := range m.Candidates {
		if x == c {
			return i
		}
	}
	return -1
}

// Validate checks that the candidate IDs are non-empty and distinct, that the
// matrix is square and matches its candidate list, and that it holds no
// negative entries. It does not check that the matrix could have been
// produced by a real profile.
func (m *Matrix) Validate() error {
	n := len(m.Candidates)
	seen := make(map[Candidate]bool, n)
	for i, c := range m.Candidates {
		if c == "" {
			return errors.New(errors.ErrCodeMalformedMatrix, "candidate %d has an empty ID", i)
		}
		if seen[c] {
			return errors.New(errors.ErrCodeMalformedMatrix, "candidate %q is listed twice", c)
		}
		seen[c] = true
	}
	if len(m.Values) != n {
		return errors.New(errors.ErrCodeMalformedMatrix, "matrix has %d rows for %d candidates", len(m.Values), n)
	}
	for i, row := range m.Values {
		if len(row) != n {
			return errors.New(errors.ErrCodeMalformedMatrix, "row %d has %d columns, want %d", i, len(row), n)
		}
		for j, v := range row {
			if v < 0 {
				return errors.New(errors.ErrCodeMalformedMatrix, "entry [%d][%d] is negative (%v)", i, j, v)
			}
		}
	}
	return nil
}

// String renders the matrix one row per line.
func (m *Matrix) String() string {
	var b strings.Builder
	for i, row := range m.Values {
		fmt.Fprintf(&b, "%s:", m.Candidates[i])
		for _, v := range row {
			fmt.Fprintf(&b, " %g", v)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Prefs tallies the weight map into a preference matrix over candidates.
// Within a ballot each listed candidate beats every candidate listed after it
// and every candidate the ballot omits. Identifiers not in candidates are
// skipped; formality is the caller's concern.
func Prefs(w *WeightMap, candidates []Candidate) *Matrix {
	m := NewMatrix(candidates)
	pos := make(map[Candidate]int, len(candidates))
	for i, c := range candidates {
		pos[c] = i
	}

	listed := make([]bool, len(candidates))
	w.Each(func(b Ballot, weight float64) {
		if weight == 0 {
			return
		}
		clear(listed)
		idx := make([]int, 0, len(b))
		for _, c := range b {
			if i, ok := pos[c]; ok && !listed[i] {
				listed[i] = true
				idx = append(idx, i)
			}
		}
		for a, i := range idx {
			for _, j := range idx[a+1:] {
				m.Values[i][j] += weight
			}
			for j := range candidates {
				if !listed[j] {
					m.Values[i][j] += weight
				}
			}
		}
	})
	return m
}
