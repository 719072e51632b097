package injector

import (
	"time"

	memtypes "github.com/skillkit/skillkit/pkg/types/memory"
)

// DisclosureLevel controls how much of each learning is rendered
type DisclosureLevel string

const (
	DisclosureSummary DisclosureLevel = "summary"
	DisclosurePreview DisclosureLevel = "preview"
	DisclosureFull    DisclosureLevel = "full"
)

// Valid reports whether d is a known disclosure level
func (d DisclosureLevel) Valid() bool {
	return d == DisclosureSummary || d == DisclosurePreview || d == DisclosureFull
}

const (
	// TokensPerChar approximates tokens from character counts
	TokensPerChar = 0.25
	// ExcerptLength is the number of characters shown in a preview
	ExcerptLength = 200
)

// Options select and shape an injection. Zero values are literal: a zero
// MaxTokens admits nothing and a zero MaxLearnings selects nothing, so
// start from DefaultOptions.
type Options struct {
	Tags          []string        `mapstructure:"tags"`
	CurrentTask   string          `mapstructure:"current_task"`
	MinRelevance  int             `mapstructure:"min_relevance"`
	MaxLearnings  int             `mapstructure:"max_learnings"`
	MaxTokens     int             `mapstructure:"max_tokens"`
	Disclosure    DisclosureLevel `mapstructure:"disclosure"`
	IncludeGlobal bool            `mapstructure:"include_global"`
}

// DefaultOptions returns the default injection options
func DefaultOptions() Options {
	return Options{
		MinRelevance:  30,
		MaxLearnings:  10,
		MaxTokens:     2000,
		Disclosure:    DisclosurePreview,
		IncludeGlobal: true,
	}
}

func (o Options) disclosure() DisclosureLevel {
	if o.Disclosure.Valid() {
		return o.Disclosure
	}
	return DisclosurePreview
}

// Weights are the additive terms of the relevance score
type Weights struct {
	Framework        int
	Tag              int
	Keyword          int
	Pattern          int
	MaxEffectiveness int
	PerUse           int
	MaxUsage         int
	RecentWeek       int
	RecentMonth      int
}

// DefaultWeights returns the built-in scoring weights
func DefaultWeights() Weights {
	return Weights{
		Framework:        15,
		Tag:              20,
		Keyword:          10,
		Pattern:          5,
		MaxEffectiveness: 20,
		PerUse:           2,
		MaxUsage:         15,
		RecentWeek:       10,
		RecentMonth:      5,
	}
}

// MatchedBy lists the evidence that contributed to a score
type MatchedBy struct {
	Frameworks []string `json:"frameworks,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
	Patterns   []string `json:"patterns,omitempty"`
}

// Empty reports whether no evidence was recorded
func (m MatchedBy) Empty() bool {
	return len(m.Frameworks) == 0 && len(m.Tags) == 0 && len(m.Keywords) == 0 && len(m.Patterns) == 0
}

// InjectedMemory is a scored learning
type InjectedMemory struct {
	Learning       memtypes.Learning `json:"learning"`
	RelevanceScore int               `json:"relevanceScore"`
	MatchedBy      MatchedBy         `json:"matchedBy"`
	TokenEstimate  int               `json:"tokenEstimate"`
}

// Stats summarizes one injection
type Stats struct {
	Considered int `json:"considered"`
	Matched    int `json:"matched"`
	Injected   int `json:"injected"`
	Truncated  int `json:"truncated"`
}

// Result is the outcome of an injection
type Result struct {
	Memories    []InjectedMemory `json:"memories"`
	Formatted   string           `json:"formatted"`
	TotalTokens int              `json:"totalTokens"`
	Stats       Stats            `json:"stats"`
}

// Summary is the lightest disclosure of a learning
type Summary struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Tags           []string       `json:"tags"`
	Scope          memtypes.Scope `json:"scope"`
	RelevanceScore int            `json:"relevanceScore"`
}

// Preview adds an excerpt and usage to a Summary
type Preview struct {
	Summary
	Excerpt  string     `json:"excerpt"`
	LastUsed *time.Time `json:"lastUsed,omitempty"`
}

// FullMemory adds the complete content and match evidence to a Preview
type FullMemory struct {
	Preview
	Content   string    `json:"content"`
	MatchedBy MatchedBy `json:"matchedBy"`
}
