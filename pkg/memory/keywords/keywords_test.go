package keywords

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	e := New()

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", nil},
		{"drops short tokens and stop words", "Fix the JS bug in an API", []string{"fix", "bug", "api"}},
		{"splits on punctuation", "react-hooks/useEffect: cleanup", []string{"react", "hooks", "useeffect", "cleanup"}},
		{"deduplicates", "cache cache CACHE", []string{"cache"}},
		{"keeps underscores", "max_tokens budget", []string{"max_tokens", "budget"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, e.Extract(tt.input))
		})
	}
}

func TestExtractWithOptions(t *testing.T) {
	e := New(WithStopWords("react"), WithMinLength(2))

	assert.Equal(t, []string{"the", "js", "hooks"}, e.Extract("the JS react hooks"))
}

func TestSet(t *testing.T) {
	e := New()
	set := e.Set("typescript generics", "Generics in Golang")

	assert.Len(t, set, 3)
	assert.Contains(t, set, "typescript")
	assert.Contains(t, set, "generics")
	assert.Contains(t, set, "golang")
}

func TestDefaultStopWordsIsCopy(t *testing.T) {
	words := DefaultStopWords()
	words[0] = "mutated"

	assert.NotEqual(t, "mutated", DefaultStopWords()[0])
}
