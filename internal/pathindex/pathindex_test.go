package pathindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_ExactThenFuzzy(t *testing.T) {
	x := New[string]()
	x.Register("src/a.ts", []string{"issue-a"})

	assert.Equal(t, []string{"issue-a"}, x.Lookup("src/a.ts"))
	assert.Equal(t, []string{"issue-a"}, x.Lookup("/home/user/project/src/a.ts"))
	assert.Equal(t, []string{"issue-a"}, x.Lookup(`C:\Project\SRC\A.ts`))
}

func TestLookup_AbsoluteRegistered(t *testing.T) {
	x := New[int]()
	x.Register("/home/user/project/src/a.ts", []int{1, 2})
	assert.Equal(t, []int{1, 2}, x.Lookup("src/a.ts"))
}

func TestLookup_Miss(t *testing.T) {
	x := New[int]()
	x.Register("src/a.ts", []int{1})

	got := x.Lookup("lib/other.go")
	require.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, x.Lookup(""))
}

func TestLookup_FirstRegisteredWins(t *testing.T) {
	x := New[string]()
	x.Register("pkg/one/util.go", []string{"one"})
	x.Register("pkg/two/util.go", []string{"two"})

	assert.Equal(t, []string{"one"}, x.Lookup("util.go"))
	assert.Equal(t, []string{"two"}, x.Lookup("pkg/two/util.go"))
}

func TestRegister_ReplaceKeepsOrder(t *testing.T) {
	x := New[string]()
	x.Register("a.go", []string{"1"})
	x.Register("b.go", []string{"2"})
	x.Register("a.go", []string{"3"})

	assert.Equal(t, []string{"a.go", "b.go"}, x.Paths())
	assert.Equal(t, 2, x.Len())
	assert.Equal(t, []string{"3"}, x.Lookup("a.go"))
}

func TestMapLookup_SortedOrder(t *testing.T) {
	index := map[string][]string{
		"z/util.go": {"z"},
		"a/util.go": {"a"},
	}
	assert.Equal(t, []string{"a"}, Lookup(index, "util.go"))
	assert.Equal(t, []string{"z"}, Lookup(index, "z/util.go"))
	assert.Empty(t, Lookup(index, "missing.rs"))
}

func TestMatch(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"src/a.ts", "src/a.ts", true},
		{"src/a.ts", "/abs/src/a.ts", true},
		{`src\a.ts`, "src/a.ts", true},
		{"SRC/A.TS", "src/a.ts", true},
		{"src/a.ts", "src/b.ts", false},
		{"a.ts", "", false},
		{"dir/", "other", false},
	}
	for _, tt := range tests {
		if got := Match(tt.a, tt.b); got != tt.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
