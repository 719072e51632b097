// Package keywords extracts normalized keyword sets from free text. The
// stop-word list and minimum token length are explicit configuration so
// that scorers can be tested with alternate settings.
package keywords

import (
	"regexp"
	"strings"
)

var separator = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

var defaultStopWords = []string{
	"the", "and", "for", "are", "but", "not", "you", "all", "can", "had",
	"her", "was", "one", "our", "out", "has", "have", "been", "were", "they",
	"this", "that", "with", "from", "will", "would", "there", "their", "what",
	"about", "which", "when", "make", "like", "just", "over", "such", "into",
	"than", "them", "then", "some", "could", "other", "these", "only", "also",
	"how", "its", "should", "use", "using", "used", "via", "any", "each",
}

// DefaultStopWords returns a copy of the built-in stop-word list
func DefaultStopWords() []string {
	out := make([]string, len(defaultStopWords))
	copy(out, defaultStopWords)
	return out
}

// Extractor splits text into lower-case keywords
type Extractor struct {
	stopWords map[string]struct{}
	minLength int
}

// Option configures an Extractor
type Option func(*Extractor)

// WithStopWords replaces the stop-word list
func WithStopWords(words ...string) Option {
	return func(e *Extractor) {
		e.stopWords = make(map[string]struct{}, len(words))
		for _, w := range words {
			e.stopWords[strings.ToLower(w)] = struct{}{}
		}
	}
}

// WithMinLength sets the minimum kept token length. Tokens with fewer
// runes are dropped.
func WithMinLength(n int) Option {
	return func(e *Extractor) {
		e.minLength = n
	}
}

// New creates an extractor. Without options it drops tokens of two
// characters or fewer and the default stop words.
func New(opts ...Option) *Extractor {
	e := &Extractor{minLength: 3}
	WithStopWords(defaultStopWords...)(e)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the distinct keywords of text in first-seen order
func (e *Extractor) Extract(text string) []string {
	if text == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var out []string
	for _, token := range separator.Split(strings.ToLower(text), -1) {
		if len([]rune(token)) < e.minLength {
			continue
		}
		if _, stop := e.stopWords[token]; stop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

// Set returns the keywords of all texts as a set
func (e *Extractor) Set(texts ...string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, text := range texts {
		for _, k := range e.Extract(text) {
			set[k] = struct{}{}
		}
	}
	return set
}
