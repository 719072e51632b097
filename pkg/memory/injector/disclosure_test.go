package injector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memtypes "github.com/skillkit/skillkit/pkg/types/memory"
)

func disclosureInjector() (*Injector, *fakeSource) {
	src := &fakeSource{learnings: []memtypes.Learning{
		{ID: "low", Title: "Low", Content: "short", Patterns: []string{"p"}, UpdatedAt: testNow},
		{ID: "high", Title: "High", Content: strings.Repeat("x", 250), Patterns: []string{"p", "q", "r"}, UpdatedAt: testNow},
	}}
	return New(src, nil, WithClock(fixedClock)), src
}

func TestGetSummaries(t *testing.T) {
	inj, src := disclosureInjector()

	opts := DefaultOptions()
	opts.MinRelevance = 0

	summaries := inj.GetSummaries(opts)
	require.Len(t, summaries, 2)
	assert.Equal(t, "high", summaries[0].ID)
	assert.Equal(t, 25, summaries[0].RelevanceScore)
	assert.Equal(t, "low", summaries[1].ID)
	assert.Zero(t, src.get("high").UseCount)
}

func TestGetPreviews(t *testing.T) {
	inj, _ := disclosureInjector()

	previews := inj.GetPreviews([]string{"low", "high", "missing"}, DefaultOptions())
	require.Len(t, previews, 2)
	assert.Equal(t, "high", previews[0].ID)
	assert.Equal(t, strings.Repeat("x", ExcerptLength)+"...", previews[0].Excerpt)
	assert.Equal(t, "short", previews[1].Excerpt)
}

func TestGetFullMemories(t *testing.T) {
	inj, src := disclosureInjector()

	full := inj.GetFullMemories([]string{"high"}, Options{MinRelevance: 100})
	require.Len(t, full, 1)
	assert.Equal(t, strings.Repeat("x", 250), full[0].Content)
	assert.Equal(t, []string{"p", "q", "r"}, full[0].MatchedBy.Patterns)
	assert.Zero(t, src.get("high").UseCount)

	assert.Empty(t, inj.GetFullMemories(nil, DefaultOptions()))
}
