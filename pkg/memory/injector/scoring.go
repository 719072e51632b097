package injector

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	memtypes "github.com/skillkit/skillkit/pkg/types/memory"
)

// ScoreLearning scores a learning against the project context and opts.
// The score is a pure function of its inputs and the injector's clock.
func (i *Injector) ScoreLearning(l memtypes.Learning, opts Options) (int, MatchedBy) {
	i.mu.RLock()
	stackNames := i.stack.Names()
	i.mu.RUnlock()

	return i.score(l, opts, stackNames, i.keywords.Extract(opts.CurrentTask))
}

func (i *Injector) score(l memtypes.Learning, opts Options, stackNames map[string]struct{}, taskKeywords []string) (int, MatchedBy) {
	w := i.weights
	var (
		score   int
		matched MatchedBy
	)

	for _, fw := range l.Frameworks {
		if _, ok := stackNames[strings.ToLower(fw)]; ok {
			score += w.Framework
			matched.Frameworks = append(matched.Frameworks, fw)
		}
	}

	if len(opts.Tags) > 0 {
		have := make(map[string]struct{}, len(l.Tags))
		for _, t := range l.Tags {
			have[strings.ToLower(t)] = struct{}{}
		}
		counted := make(map[string]struct{}, len(opts.Tags))
		for _, t := range opts.Tags {
			key := strings.ToLower(strings.TrimSpace(t))
			if _, dup := counted[key]; dup {
				continue
			}
			counted[key] = struct{}{}
			if _, ok := have[key]; ok {
				score += w.Tag
				matched.Tags = append(matched.Tags, key)
			}
		}
	}

	if len(taskKeywords) > 0 {
		learningKeywords := i.keywords.Set(l.Title, l.Content, strings.Join(l.Tags, " "))
		for _, k := range taskKeywords {
			if _, ok := learningKeywords[k]; ok {
				score += w.Keyword
				matched.Keywords = append(matched.Keywords, k)
			}
		}
	}

	if len(l.Patterns) > 0 {
		score += w.Pattern * len(l.Patterns)
		matched.Patterns = append(matched.Patterns, l.Patterns...)
	}

	if l.Effectiveness != nil {
		score += int(math.Round(float64(*l.Effectiveness) / 100 * float64(w.MaxEffectiveness)))
	}

	score += min(l.UseCount*w.PerUse, w.MaxUsage)

	days := int(i.now().Sub(l.UpdatedAt) / (24 * time.Hour))
	switch {
	case days < 7:
		score += w.RecentWeek
	case days < 30:
		score += w.RecentMonth
	}

	return max(0, min(score, 100)), matched
}

// EstimateTokens approximates the rendered size of a learning at level.
// Lengths are counted in characters; a preview counts at most
// ExcerptLength characters of content.
func EstimateTokens(l memtypes.Learning, level DisclosureLevel) int {
	length := utf8.RuneCountInString(l.Title) + utf8.RuneCountInString(strings.Join(l.Tags, ", "))
	switch level {
	case DisclosureFull:
		length += utf8.RuneCountInString(l.Content)
	case DisclosurePreview:
		length += min(utf8.RuneCountInString(strings.TrimSpace(l.Content)), ExcerptLength)
	}
	return int(math.Ceil(float64(length) * TokensPerChar))
}

// excerpt returns the first ExcerptLength characters of content
func excerpt(content string) string {
	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) <= ExcerptLength {
		return content
	}
	return string(runes[:ExcerptLength]) + "..."
}
