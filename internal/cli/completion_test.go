package cli

import (
	"bytes"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bayesaudit/pkg/engine"
)

func TestFixedCompletion(t *testing.T) {
	got, directive := fixedCompletion("rankedpairs", "borda")(nil, nil, "")
	if want := []string{"rankedpairs", "borda"}; !slices.Equal(got, want) {
		t.Errorf("fixedCompletion() = %v, want %v", got, want)
	}
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("fixedCompletion() directive = %v, want %v", directive, cobra.ShellCompDirectiveNoFileComp)
	}
}

func TestFlagCompletions(t *testing.T) {
	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"audit", "--counter", ""}, engine.Names()},
		{[]string{"rank", "ballots.jsonl", "--format", ""}, graphFormats},
		{[]string{"tiebreak", "audit.toml", "--kind", ""}, []string{"ordering", "election", "exclusion"}},
	}
	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			root := New(&bytes.Buffer{}, LogInfo).RootCommand()
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetArgs(append([]string{cobra.ShellCompRequestCmd}, tt.args...))
			if err := root.Execute(); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out.String(), w+"\n") {
					t.Errorf("completions %q missing %q", out.String(), w)
				}
			}
		})
	}
}
