package rankedpairs_test

import (
	"fmt"

	"github.com/matzehuels/bayesaudit/pkg/ballot"
	"github.com/matzehuels/bayesaudit/pkg/rankedpairs"
	"github.com/matzehuels/bayesaudit/pkg/rng"
)

func ExampleRank() {
	w := ballot.NewWeightMap()
	w.Add(ballot.New("A", "B", "C"), 4)
	w.Add(ballot.New("B", "C", "A"), 3)
	w.Add(ballot.New("C", "A", "B"), 2)

	m := ballot.Prefs(w, ballot.Candidates("A", "B", "C"))
	order, err := rankedpairs.Rank(m, rankedpairs.Options{Rand: rng.New(1)})
	fmt.Println(order, err)
	// Output:
	// [A B C] <nil>
}
