package ballot

import (
	"testing"

	"github.com/matzehuels/bayesaudit/pkg/errors"
)

func TestPrefsFullBallots(t *testing.T) {
	cands := Candidates("A", "B", "C")
	w := NewWeightMap()
	w.Add(New("A", "B", "C"), 2)
	w.Add(New("C", "B", "A"), 1)

	m := Prefs(w, cands)
	want := [][]float64{
		{0, 2, 2},
		{1, 0, 2},
		{1, 1, 0},
	}
	for i := range want {
		for j := range want[i] {
			if m.At(i, j) != want[i][j] {
				t.Errorf("Prefs()[%d][%d] = %v, want %v", i, j, m.At(i, j), want[i][j])
			}
		}
	}
}

func TestPrefsPartialBallots(t *testing.T) {
	cands := Candidates("A", "B", "C")
	w := NewWeightMap()
	w.Add(New("B"), 3)

	m := Prefs(w, cands)
	if got := m.At(1, 0); got != 3 {
		t.Errorf("B over A = %v, want 3", got)
	}
	if got := m.At(1, 2); got != 3 {
		t.Errorf("B over C = %v, want 3", got)
	}
	// Neither A nor C is ranked, so neither beats the other.
	if m.At(0, 2) != 0 || m.At(2, 0) != 0 {
		t.Errorf("unranked pair = (%v, %v), want (0, 0)", m.At(0, 2), m.At(2, 0))
	}
}

func TestPrefsPairTotalsBounded(t *testing.T) {
	cands := Candidates("A", "B", "C", "D")
	w := NewWeightMap()
	w.Add(New("A", "B", "C", "D"), 5)
	w.Add(New("D", "A"), 2)
	w.Add(New("C"), 1)
	w.Add(New("B", "Z", "A"), 1) // unknown ID is skipped

	m := Prefs(w, cands)
	n := w.Total()
	for i := range cands {
		if m.At(i, i) != 0 {
			t.Errorf("diagonal [%d][%d] = %v, want 0", i, i, m.At(i, i))
		}
		for j := range cands {
			if m.At(i, j) < 0 {
				t.Errorf("[%d][%d] negative", i, j)
			}
			if i != j && m.At(i, j)+m.At(j, i) > n {
				t.Errorf("[%d][%d]+[%d][%d] = %v exceeds total %v", i, j, j, i, m.At(i, j)+m.At(j, i), n)
			}
		}
	}
}

func TestMatrixValidate(t *testing.T) {
	cands := Candidates("A", "B")
	tests := []struct {
		name    string
		m       *Matrix
		wantErr bool
	}{
		{"ok", &Matrix{Candidates: cands, Values: [][]float64{{0, 1}, {2, 0}}}, false},
		{"missing row", &Matrix{Candidates: cands, Values: [][]float64{{0, 1}}}, true},
		{"short row", &Matrix{Candidates: cands, Values: [][]float64{{0, 1}, {2}}}, true},
		{"negative", &Matrix{Candidates: cands, Values: [][]float64{{0, -1}, {2, 0}}}, true},
		{"duplicate candidate", &Matrix{Candidates: Candidates("A", "B", "A"), Values: [][]float64{{0, 1, 0}, {9, 0, 9}, {0, 1, 0}}}, true},
		{"empty candidate", &Matrix{Candidates: Candidates("A", ""), Values: [][]float64{{0, 1}, {2, 0}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeMalformedMatrix) {
				t.Errorf("Validate() code = %v, want %v", errors.GetCode(err), errors.ErrCodeMalformedMatrix)
			}
		})
	}
}

func TestMatrixIndex(t *testing.T) {
	m := NewMatrix(Candidates("A", "B"))
	if m.Index("B") != 1 || m.Index("Z") != -1 {
		t.Errorf("Index() = %d, %d", m.Index("B"), m.Index("Z"))
	}
	if m.Size() != 2 {
		t.Errorf("Size() = %d, want 2", m.Size())
	}
}
