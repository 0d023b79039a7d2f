package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewrite(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		want    string
	}{
		{name: "trailing wildcard widened", pattern: "2024/*", want: "2024/**"},
		{name: "leading separator stripped", pattern: "/2024/*", want: "2024/**"},
		{name: "bare wildcard", pattern: "*", want: "**"},
		{name: "literal untouched", pattern: "2024/jan", want: "2024/jan"},
		{name: "mid-pattern wildcard untouched", pattern: "20*/jan", want: "20*/jan"},
		{name: "already recursive", pattern: "2024/**", want: "2024/**"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rewrite(tt.pattern))
		})
	}
}

func TestCompile_EmptyMatchesEverything(t *testing.T) {
	match := Compile(nil)

	assert.True(t, match("anything/at/all.csv"))
	assert.True(t, match("x"))
}

func TestCompile_RecursiveFolderMatch(t *testing.T) {
	match := Compile([]string{"2024/*"})

	assert.True(t, match("2024/a.csv"))
	assert.True(t, match("2024/sub/b.csv"), "trailing wildcard must match nested depths")
	assert.True(t, match("2024/sub/deeper/c.csv"))
	assert.False(t, match("2023/c.csv"))
	assert.False(t, match("2024x/a.csv"))
}

func TestCompile_LiteralMatchStaysLiteral(t *testing.T) {
	match := Compile([]string{"2024/jan"})

	assert.True(t, match("2024/jan"))
	assert.False(t, match("2024/jan/a.csv"), "no trailing wildcard means no recursive match")
	assert.False(t, match("2024/feb"))
}

func TestCompile_SingleLevelGlobStaysWithinSegment(t *testing.T) {
	match := Compile([]string{"2024/*.csv"})

	assert.True(t, match("2024/a.csv"))
	assert.False(t, match("2024/sub/b.csv"), "mid-pattern * must not cross separators")
}

func TestCompile_AnyPatternMatches(t *testing.T) {
	match := Compile([]string{"2023/*", "2024/*"})

	assert.True(t, match("2023/a.csv"))
	assert.True(t, match("2024/sub/b.csv"))
	assert.False(t, match("2022/z.csv"))
}

func TestCompile_LeadingSeparator(t *testing.T) {
	match := Compile([]string{"/2024/*"})

	assert.True(t, match("2024/a.csv"))
}

func TestCompile_RecursiveEndsCannotOverlap(t *testing.T) {
	// The text before and after "**" must match distinct parts of the key,
	// not reuse the same characters.
	match := Compile([]string{"a**a"})
	assert.False(t, match("a"))
	assert.True(t, match("aa"))
	assert.True(t, match("a/deep/path/a"))

	match = Compile([]string{"2024/**/x.csv"})
	assert.False(t, match("2024/x.csv"), "pattern requires an intermediate segment")
	assert.True(t, match("2024/sub/x.csv"))
}

func TestCompile_InvalidPatternNeverMatches(t *testing.T) {
	match := Compile([]string{"[unclosed"})

	assert.False(t, match("anything"))
}
