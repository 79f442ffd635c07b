package dag_test

import (
	"fmt"

	"github.com/matzehuels/bayesaudit/pkg/dag"
)

func ExampleGraph_Reachable() {
	// Chain 1 -> 2 -> 3 -> 4
	g := dag.New()
	for _, id := range []string{"1", "2", "3", "4"} {
		_ = g.AddVertex(id)
	}
	_ = g.AddEdge("1", "2")
	_ = g.AddEdge("2", "3")
	_ = g.AddEdge("3", "4")

	fmt.Println("1 reaches 4:", g.Reachable("1", "4"))
	fmt.Println("4 reaches 1:", g.Reachable("4", "1"))
	fmt.Println("1 reaches 1:", g.Reachable("1", "1"))
	// Output:
	// 1 reaches 4: true
	// 4 reaches 1: false
	// 1 reaches 1: false
}

func ExampleGraph_RandomTopoSort() {
	g := dag.New()
	_ = g.AddVertex("app")
	_ = g.AddVertex("lib")
	_ = g.AddVertex("core")
	_ = g.AddEdge("app", "lib")
	_ = g.AddEdge("lib", "core")

	// A chain has exactly one topological order, whatever the generator.
	order, err := g.RandomTopoSort(nil)
	fmt.Println(order, err)
	// Output:
	// [app lib core] <nil>
}
