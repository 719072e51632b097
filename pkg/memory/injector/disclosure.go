package injector

import (
	"sort"

	memtypes "github.com/skillkit/skillkit/pkg/types/memory"
)

// GetSummaries lists the ranked memories for opts with titles and tags only
func (i *Injector) GetSummaries(opts Options) []Summary {
	ranked := i.GetRelevantMemories(opts)
	out := make([]Summary, 0, len(ranked))
	for _, m := range ranked {
		out = append(out, summaryOf(m))
	}
	return out
}

// GetPreviews returns excerpts of the learnings with the given ids, ordered
// by relevance. Unknown ids are skipped.
func (i *Injector) GetPreviews(ids []string, opts Options) []Preview {
	selected := i.selectByID(ids, opts)
	out := make([]Preview, 0, len(selected))
	for _, m := range selected {
		out = append(out, previewOf(m))
	}
	return out
}

// GetFullMemories returns the complete content of the learnings with the
// given ids, ordered by relevance. Unknown ids are skipped.
func (i *Injector) GetFullMemories(ids []string, opts Options) []FullMemory {
	selected := i.selectByID(ids, opts)
	out := make([]FullMemory, 0, len(selected))
	for _, m := range selected {
		out = append(out, FullMemory{
			Preview:   previewOf(m),
			Content:   m.Learning.Content,
			MatchedBy: m.MatchedBy,
		})
	}
	return out
}

// selectByID scores the requested learnings without filtering or budgeting
func (i *Injector) selectByID(ids []string, opts Options) []InjectedMemory {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	var picked []memtypes.Learning
	for _, l := range i.collect(opts, nil) {
		if _, ok := wanted[l.ID]; ok {
			picked = append(picked, l)
			delete(wanted, l.ID)
		}
	}

	scored := i.scoreAll(picked, opts)
	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].RelevanceScore > scored[b].RelevanceScore
	})
	return scored
}

func summaryOf(m InjectedMemory) Summary {
	return Summary{
		ID:             m.Learning.ID,
		Title:          m.Learning.Title,
		Tags:           m.Learning.Tags,
		Scope:          m.Learning.Scope,
		RelevanceScore: m.RelevanceScore,
	}
}

func previewOf(m InjectedMemory) Preview {
	return Preview{
		Summary:  summaryOf(m),
		Excerpt:  excerpt(m.Learning.Content),
		LastUsed: m.Learning.LastUsed,
	}
}
